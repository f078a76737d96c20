package profiles

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/models"
)

// memProfileStorage keeps profiles in a map and counts EnsureProfile calls.
type memProfileStorage struct {
	profiles    map[string]*models.DomainProfile
	ensureCalls int
}

func newMemProfileStorage() *memProfileStorage {
	return &memProfileStorage{profiles: make(map[string]*models.DomainProfile)}
}

func (m *memProfileStorage) EnsureProfile(ctx context.Context, profile *models.DomainProfile) error {
	m.ensureCalls++
	if _, ok := m.profiles[profile.Key()]; !ok {
		m.profiles[profile.Key()] = profile
	}
	return nil
}

func (m *memProfileStorage) GetProfile(ctx context.Context, domain string, version int) (*models.DomainProfile, error) {
	p, ok := m.profiles[models.ProfileKey(domain, version)]
	if !ok {
		return nil, models.NewExtractError(models.ErrCodeInternal, "profile not found", models.ProfileKey(domain, version))
	}
	return p, nil
}

func (m *memProfileStorage) ListProfiles(ctx context.Context) ([]*models.DomainProfile, error) {
	var out []*models.DomainProfile
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

func TestBuiltinCatalog(t *testing.T) {
	service, err := NewService(newMemProfileStorage(), "", arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, service.DefaultVersion("semiconductors"))
	assert.Equal(t, 1, service.DefaultVersion("industrial_components"))
	assert.Equal(t, 1, service.DefaultVersion("fasteners"))
	assert.Equal(t, 0, service.DefaultVersion("aerospace"))
	assert.ElementsMatch(t, []string{"semiconductors", "industrial_components", "fasteners"}, service.Domains())
}

func TestEnsureProvisionsOnce(t *testing.T) {
	storage := newMemProfileStorage()
	service, err := NewService(storage, "", arbor.NewLogger())
	require.NoError(t, err)

	ctx := context.Background()
	first, err := service.Ensure(ctx, "semiconductors", 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "semiconductors", first.Domain)
	assert.NotEmpty(t, first.Fields)

	// Second ensure hits storage again but nothing changes.
	second, err := service.Ensure(ctx, "semiconductors", 1)
	require.NoError(t, err)
	assert.Equal(t, first.Key(), second.Key())
	assert.Equal(t, 2, storage.ensureCalls)
	assert.Len(t, storage.profiles, 1)
}

func TestEnsureVersionZeroResolvesDefault(t *testing.T) {
	service, err := NewService(newMemProfileStorage(), "", arbor.NewLogger())
	require.NoError(t, err)

	p, err := service.Ensure(context.Background(), "fasteners", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Version)
}

func TestEnsureUnknownProfileFallsThroughToStorage(t *testing.T) {
	storage := newMemProfileStorage()
	// A profile written by an earlier release, not in the catalog.
	storage.profiles["semiconductors:9"] = &models.DomainProfile{
		Domain:  "semiconductors",
		Version: 9,
		Fields:  []models.FieldSpec{{ID: "legacy", Label: "Legacy", Type: models.FieldTypeText}},
	}
	service, err := NewService(storage, "", arbor.NewLogger())
	require.NoError(t, err)

	p, err := service.Ensure(context.Background(), "semiconductors", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Version)
	assert.Zero(t, storage.ensureCalls)

	_, err = service.Ensure(context.Background(), "aerospace", 3)
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	content := `
domain = "hydraulics"
version = 2
label = "Hydraulics v2"

[[fields]]
id = "max_pressure"
label = "Max Pressure"
type = "number"
required = true
unit = "bar"
direction = "up"

[fields.bounds]
min = 0
max = 10000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hydraulics.toml"), []byte(content), 0644))
	// Non-TOML files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0644))

	service, err := NewService(newMemProfileStorage(), dir, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, service.DefaultVersion("hydraulics"))

	p, err := service.Ensure(context.Background(), "hydraulics", 0)
	require.NoError(t, err)
	require.Len(t, p.Fields, 1)
	assert.Equal(t, "max_pressure", p.Fields[0].ID)
	require.NotNil(t, p.Fields[0].Bounds)
	assert.Equal(t, float64(10000), p.Fields[0].Bounds.Max)
	assert.Equal(t, models.DirectionUp, p.Fields[0].Direction)
}

func TestLoadDirectoryRejectsIncompleteProfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.toml"), []byte(`domain = "x"`), 0644))

	_, err := NewService(newMemProfileStorage(), dir, arbor.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}
