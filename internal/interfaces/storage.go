// -----------------------------------------------------------------------
// Storage interfaces - per-entity persistence contracts backed by Badger
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/confero/internal/models"
)

// JobListOptions filters and pages job listings.
type JobListOptions struct {
	Status   string
	Limit    int
	Offset   int
	OrderBy  string
	OrderDir string
}

// JobStorage - interface for job persistence
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.Job, error)
	CountJobs(ctx context.Context) (int, error)
	CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// DocumentStorage - interface for document persistence
type DocumentStorage interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, docID string) (*models.Document, error)
	GetDocumentByUploadToken(ctx context.Context, token string) (*models.Document, error)
	GetDocumentsByJob(ctx context.Context, jobID string) ([]*models.Document, error)
	DeleteDocumentsByJob(ctx context.Context, jobID string) error
}

// ArtifactStorage - interface for per-page extraction artifact persistence.
// Artifacts are append-only; SaveArtifact upserts on the (doc, page, type) key.
type ArtifactStorage interface {
	SaveArtifact(ctx context.Context, artifact *models.Artifact) error
	GetArtifactsByDocument(ctx context.Context, docID string) ([]*models.Artifact, error)
	DeleteArtifactsByJob(ctx context.Context, jobID string) error
}

// ExtractionStorage - interface for raw and normalized extraction persistence
type ExtractionStorage interface {
	SaveRawExtraction(ctx context.Context, raw *models.RawExtraction) error
	GetRawExtractionsByJob(ctx context.Context, jobID string) ([]*models.RawExtraction, error)
	GetRawExtractionsByDocument(ctx context.Context, docID string) ([]*models.RawExtraction, error)

	SaveNormalizedExtraction(ctx context.Context, norm *models.NormalizedExtraction) error
	GetNormalizedExtractionsByJob(ctx context.Context, jobID string) ([]*models.NormalizedExtraction, error)

	DeleteExtractionsByJob(ctx context.Context, jobID string) error
}

// ProfileStorage - interface for domain profile persistence.
// EnsureProfile is an idempotent conditional insert keyed on (domain, version);
// racing inserts of the same profile are harmless no-ops.
type ProfileStorage interface {
	EnsureProfile(ctx context.Context, profile *models.DomainProfile) error
	GetProfile(ctx context.Context, domain string, version int) (*models.DomainProfile, error)
	ListProfiles(ctx context.Context) ([]*models.DomainProfile, error)
}

// ResultStorage - interface for comparison result persistence.
// One result per job; saving overwrites.
type ResultStorage interface {
	SaveResult(ctx context.Context, result *models.Result) error
	GetResult(ctx context.Context, jobID string) (*models.Result, error)
	DeleteResult(ctx context.Context, jobID string) error
}

// FileStorage - interface for uploaded PDF blob storage (local stand-in for
// the external object store).
type FileStorage interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Path(key string) string
}

// StorageManager aggregates the per-entity stores behind one lifecycle.
type StorageManager interface {
	JobStorage() JobStorage
	DocumentStorage() DocumentStorage
	ArtifactStorage() ArtifactStorage
	ExtractionStorage() ExtractionStorage
	ProfileStorage() ProfileStorage
	ResultStorage() ResultStorage
	Close() error
}
