package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ExtractionStorage implements the ExtractionStorage interface for Badger.
// Raw and normalized extractions share this store; both are keyed
// "<document_id>:<field_id>" within their own type bucket.
type ExtractionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewExtractionStorage creates a new ExtractionStorage instance
func NewExtractionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ExtractionStorage {
	return &ExtractionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ExtractionStorage) SaveRawExtraction(ctx context.Context, raw *models.RawExtraction) error {
	if raw.DocumentID == "" || raw.FieldID == "" {
		return fmt.Errorf("raw extraction requires document ID and field ID")
	}
	if raw.ID == "" {
		raw.ID = models.RawExtractionID(raw.DocumentID, raw.FieldID)
	}

	if err := s.db.Store().Upsert(raw.ID, raw); err != nil {
		return fmt.Errorf("failed to save raw extraction: %w", err)
	}
	return nil
}

func (s *ExtractionStorage) GetRawExtractionsByJob(ctx context.Context, jobID string) ([]*models.RawExtraction, error) {
	var raws []models.RawExtraction
	if err := s.db.Store().Find(&raws, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return nil, fmt.Errorf("failed to list raw extractions for job %s: %w", jobID, err)
	}

	result := make([]*models.RawExtraction, len(raws))
	for i := range raws {
		result[i] = &raws[i]
	}
	return result, nil
}

func (s *ExtractionStorage) GetRawExtractionsByDocument(ctx context.Context, docID string) ([]*models.RawExtraction, error) {
	var raws []models.RawExtraction
	if err := s.db.Store().Find(&raws, badgerhold.Where("DocumentID").Eq(docID)); err != nil {
		return nil, fmt.Errorf("failed to list raw extractions for document %s: %w", docID, err)
	}

	result := make([]*models.RawExtraction, len(raws))
	for i := range raws {
		result[i] = &raws[i]
	}
	return result, nil
}

func (s *ExtractionStorage) SaveNormalizedExtraction(ctx context.Context, norm *models.NormalizedExtraction) error {
	if norm.DocumentID == "" || norm.FieldID == "" {
		return fmt.Errorf("normalized extraction requires document ID and field ID")
	}
	if norm.ID == "" {
		norm.ID = models.RawExtractionID(norm.DocumentID, norm.FieldID)
	}

	if err := s.db.Store().Upsert(norm.ID, norm); err != nil {
		return fmt.Errorf("failed to save normalized extraction: %w", err)
	}
	return nil
}

func (s *ExtractionStorage) GetNormalizedExtractionsByJob(ctx context.Context, jobID string) ([]*models.NormalizedExtraction, error) {
	var norms []models.NormalizedExtraction
	if err := s.db.Store().Find(&norms, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return nil, fmt.Errorf("failed to list normalized extractions for job %s: %w", jobID, err)
	}

	result := make([]*models.NormalizedExtraction, len(norms))
	for i := range norms {
		result[i] = &norms[i]
	}
	return result, nil
}

func (s *ExtractionStorage) DeleteExtractionsByJob(ctx context.Context, jobID string) error {
	if err := s.db.Store().DeleteMatching(&models.RawExtraction{}, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return fmt.Errorf("failed to delete raw extractions for job %s: %w", jobID, err)
	}
	if err := s.db.Store().DeleteMatching(&models.NormalizedExtraction{}, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return fmt.Errorf("failed to delete normalized extractions for job %s: %w", jobID, err)
	}
	return nil
}
