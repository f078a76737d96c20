package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ResultStorage implements the ResultStorage interface for Badger
type ResultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStorage creates a new ResultStorage instance
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStorage {
	return &ResultStorage{
		db:     db,
		logger: logger,
	}
}

// SaveResult stores the comparison result for a job, overwriting any
// previous run's result.
func (s *ResultStorage) SaveResult(ctx context.Context, result *models.Result) error {
	if result.JobID == "" {
		return fmt.Errorf("result job ID is required")
	}

	if err := s.db.Store().Upsert(result.JobID, result); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

func (s *ResultStorage) GetResult(ctx context.Context, jobID string) (*models.Result, error) {
	var result models.Result
	if err := s.db.Store().Get(jobID, &result); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("result not found for job: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &result, nil
}

func (s *ResultStorage) DeleteResult(ctx context.Context, jobID string) error {
	if err := s.db.Store().Delete(jobID, &models.Result{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}
