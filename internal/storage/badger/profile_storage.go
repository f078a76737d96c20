package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ProfileStorage implements the ProfileStorage interface for Badger
type ProfileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProfileStorage creates a new ProfileStorage instance
func NewProfileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
	}
}

// EnsureProfile inserts the profile if no record exists for (domain, version).
// Concurrent jobs racing to provision the same built-in profile collide on
// the unique key and the loser's insert is dropped as a no-op.
func (s *ProfileStorage) EnsureProfile(ctx context.Context, profile *models.DomainProfile) error {
	if profile.Domain == "" {
		return fmt.Errorf("profile domain is required")
	}
	if profile.Version <= 0 {
		return fmt.Errorf("profile version must be positive")
	}

	err := s.db.Store().Insert(profile.Key(), profile)
	if err == badgerhold.ErrKeyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to ensure profile %s: %w", profile.Key(), err)
	}

	s.logger.Info().
		Str("domain", profile.Domain).
		Int("version", profile.Version).
		Int("fields", len(profile.Fields)).
		Msg("Domain profile provisioned")
	return nil
}

func (s *ProfileStorage) GetProfile(ctx context.Context, domain string, version int) (*models.DomainProfile, error) {
	var profile models.DomainProfile
	key := models.ProfileKey(domain, version)
	if err := s.db.Store().Get(key, &profile); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("profile not found: %s", key)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileStorage) ListProfiles(ctx context.Context) ([]*models.DomainProfile, error) {
	var profiles []models.DomainProfile
	if err := s.db.Store().Find(&profiles, badgerhold.Where("Domain").Ne("").SortBy("Domain", "Version")); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	result := make([]*models.DomainProfile, len(profiles))
	for i := range profiles {
		result[i] = &profiles[i]
	}
	return result, nil
}
