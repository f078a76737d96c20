// -----------------------------------------------------------------------
// Filesystem blob store for uploaded PDFs - local stand-in for an
// external object store behind signed upload URLs
// -----------------------------------------------------------------------

package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
)

// Store persists uploaded PDF bytes under a base directory, one file per key.
type Store struct {
	baseDir string
	logger  arbor.ILogger
}

// Compile-time assertion
var _ interfaces.FileStorage = (*Store)(nil)

// NewStore creates a filesystem store rooted at baseDir.
func NewStore(baseDir string, logger arbor.ILogger) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("uploads directory is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Store{baseDir: baseDir, logger: logger}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.safePath(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write upload %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Stored upload")
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.safePath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	path, err := s.safePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload %s: %w", key, err)
	}
	return nil
}

// Path returns the absolute filesystem path for a key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.baseDir, key)
}

// safePath rejects keys that would escape the base directory.
func (s *Store) safePath(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.baseDir, key), nil
}
