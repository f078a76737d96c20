package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// DocumentStorage implements the DocumentStorage interface for Badger
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DocumentStorage) SaveDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if doc.JobID == "" {
		return fmt.Errorf("document job ID is required")
	}

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *DocumentStorage) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.Store().Get(docID, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("document not found: %s", docID)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (s *DocumentStorage) GetDocumentByUploadToken(ctx context.Context, token string) (*models.Document, error) {
	if token == "" {
		return nil, fmt.Errorf("upload token is required")
	}

	var docs []models.Document
	if err := s.db.Store().Find(&docs, badgerhold.Where("UploadToken").Eq(token)); err != nil {
		return nil, fmt.Errorf("failed to look up upload token: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("upload token not found")
	}
	return &docs[0], nil
}

func (s *DocumentStorage) GetDocumentsByJob(ctx context.Context, jobID string) ([]*models.Document, error) {
	var docs []models.Document
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("UploadedAt")
	if err := s.db.Store().Find(&docs, query); err != nil {
		return nil, fmt.Errorf("failed to list documents for job %s: %w", jobID, err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *DocumentStorage) DeleteDocumentsByJob(ctx context.Context, jobID string) error {
	if err := s.db.Store().DeleteMatching(&models.Document{}, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return fmt.Errorf("failed to delete documents for job %s: %w", jobID, err)
	}
	return nil
}
