package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ArtifactStorage implements the ArtifactStorage interface for Badger
type ArtifactStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArtifactStorage creates a new ArtifactStorage instance
func NewArtifactStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArtifactStorage {
	return &ArtifactStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ArtifactStorage) SaveArtifact(ctx context.Context, artifact *models.Artifact) error {
	if artifact.DocumentID == "" {
		return fmt.Errorf("artifact document ID is required")
	}
	if artifact.ID == "" {
		artifact.ID = models.ArtifactID(artifact.DocumentID, artifact.Page, artifact.Type)
	}

	if err := s.db.Store().Upsert(artifact.ID, artifact); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

func (s *ArtifactStorage) GetArtifactsByDocument(ctx context.Context, docID string) ([]*models.Artifact, error) {
	var artifacts []models.Artifact
	query := badgerhold.Where("DocumentID").Eq(docID).SortBy("Page")
	if err := s.db.Store().Find(&artifacts, query); err != nil {
		return nil, fmt.Errorf("failed to list artifacts for document %s: %w", docID, err)
	}

	result := make([]*models.Artifact, len(artifacts))
	for i := range artifacts {
		result[i] = &artifacts[i]
	}
	return result, nil
}

func (s *ArtifactStorage) DeleteArtifactsByJob(ctx context.Context, jobID string) error {
	if err := s.db.Store().DeleteMatching(&models.Artifact{}, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return fmt.Errorf("failed to delete artifacts for job %s: %w", jobID, err)
	}
	return nil
}
