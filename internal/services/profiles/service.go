// -----------------------------------------------------------------------
// Profile service - resolves versioned domain profiles, provisioning
// built-ins (and optional TOML-defined profiles) lazily on first use
// -----------------------------------------------------------------------

package profiles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// Service implements interfaces.ProfileService.
type Service struct {
	storage interfaces.ProfileStorage
	logger  arbor.ILogger

	// catalog indexes the known profile definitions by (domain, version).
	// It is assembled once at construction and read-only afterwards.
	catalog map[string]*models.DomainProfile
	// defaults maps domain -> highest known version.
	defaults map[string]int
}

var _ interfaces.ProfileService = (*Service)(nil)

// NewService builds the profile catalog from the built-in definitions plus
// any TOML profile files found in dir (optional, may be empty).
func NewService(storage interfaces.ProfileStorage, dir string, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		storage:  storage,
		logger:   logger,
		catalog:  make(map[string]*models.DomainProfile),
		defaults: make(map[string]int),
	}

	for _, p := range builtinProfiles() {
		s.add(p)
	}

	if dir != "" {
		loaded, err := loadDirectory(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile directory %s: %w", dir, err)
		}
		for _, p := range loaded {
			s.add(p)
			logger.Info().
				Str("domain", p.Domain).
				Int("version", p.Version).
				Msg("Loaded domain profile from file")
		}
	}

	return s, nil
}

func (s *Service) add(p *models.DomainProfile) {
	s.catalog[p.Key()] = p
	if p.Version > s.defaults[p.Domain] {
		s.defaults[p.Domain] = p.Version
	}
}

// DefaultVersion returns the highest known version for a domain, or 0 when
// the domain is unknown.
func (s *Service) DefaultVersion(domain string) int {
	return s.defaults[domain]
}

// Domains returns the known domain names.
func (s *Service) Domains() []string {
	domains := make([]string, 0, len(s.defaults))
	for d := range s.defaults {
		domains = append(domains, d)
	}
	return domains
}

// Ensure provisions the profile record if absent and returns the stored
// profile. The underlying insert is conditional on the (domain, version)
// key, so concurrent jobs racing to provision the same profile are no-ops.
func (s *Service) Ensure(ctx context.Context, domain string, version int) (*models.DomainProfile, error) {
	if version == 0 {
		version = s.DefaultVersion(domain)
	}
	def, ok := s.catalog[models.ProfileKey(domain, version)]
	if !ok {
		// Not a catalog profile; it may still exist in storage (e.g. created
		// by an earlier release).
		return s.storage.GetProfile(ctx, domain, version)
	}

	if err := s.storage.EnsureProfile(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to ensure profile %s: %w", def.Key(), err)
	}
	return s.storage.GetProfile(ctx, domain, version)
}

// Get returns the stored profile for (domain, version).
func (s *Service) Get(ctx context.Context, domain string, version int) (*models.DomainProfile, error) {
	return s.storage.GetProfile(ctx, domain, version)
}

// loadDirectory parses every .toml file in dir as a DomainProfile.
func loadDirectory(dir string) ([]*models.DomainProfile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var profiles []*models.DomainProfile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var p models.DomainProfile
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if p.Domain == "" || p.Version < 1 || len(p.Fields) == 0 {
			return nil, fmt.Errorf("profile %s is incomplete: domain, version and fields are required", path)
		}
		profiles = append(profiles, &p)
	}
	return profiles, nil
}
