package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/common"
	"github.com/ternarybob/confero/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db         *BadgerDB
	job        interfaces.JobStorage
	document   interfaces.DocumentStorage
	artifact   interfaces.ArtifactStorage
	extraction interfaces.ExtractionStorage
	profile    interfaces.ProfileStorage
	result     interfaces.ResultStorage
	logger     arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		job:        NewJobStorage(db, logger),
		document:   NewDocumentStorage(db, logger),
		artifact:   NewArtifactStorage(db, logger),
		extraction: NewExtractionStorage(db, logger),
		profile:    NewProfileStorage(db, logger),
		result:     NewResultStorage(db, logger),
		logger:     logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Compile-time assertion
var _ interfaces.StorageManager = (*Manager)(nil)

// JobStorage returns the Job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// DocumentStorage returns the Document storage interface
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.document
}

// ArtifactStorage returns the Artifact storage interface
func (m *Manager) ArtifactStorage() interfaces.ArtifactStorage {
	return m.artifact
}

// ExtractionStorage returns the Extraction storage interface
func (m *Manager) ExtractionStorage() interfaces.ExtractionStorage {
	return m.extraction
}

// ProfileStorage returns the DomainProfile storage interface
func (m *Manager) ProfileStorage() interfaces.ProfileStorage {
	return m.profile
}

// ResultStorage returns the Result storage interface
func (m *Manager) ResultStorage() interfaces.ResultStorage {
	return m.result
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
