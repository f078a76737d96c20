package interfaces

import (
	"context"

	"github.com/ternarybob/confero/internal/models"
)

// ExtractHints are optional caller hints for PDF extraction.
type ExtractHints struct {
	IsScanned        *bool  `json:"is_scanned,omitempty"`
	ExpectedLanguage string `json:"expected_language,omitempty"`
	MaxPages         int    `json:"max_pages,omitempty" validate:"omitempty,gt=0"`
}

// ExtractRequest is the contract of the PDF extraction service.
type ExtractRequest struct {
	PDFURL string        `json:"pdf_url" validate:"required,url"`
	Hints  *ExtractHints `json:"hints,omitempty"`
}

// ExtractTable is one extracted table with page provenance.
type ExtractTable struct {
	Page int        `json:"page"`
	Rows [][]string `json:"rows"`
	BBox []float64  `json:"bbox,omitempty"`
}

// ExtractTextBlock is the per-page extracted text.
type ExtractTextBlock struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// ExtractResult is the success response of the PDF extraction service.
type ExtractResult struct {
	Pages             int                `json:"pages"`
	OCRUsed           bool               `json:"ocr_used"`
	ExtractionQuality float64            `json:"extraction_quality"`
	Tables            []ExtractTable     `json:"tables"`
	TextBlocks        []ExtractTextBlock `json:"text_blocks"`
	Logs              []string           `json:"logs"`
}

// PDFExtractService fetches a PDF by URL and extracts per-page text (native
// or OCR) plus tables, with a quality score. Failures are typed
// *models.ExtractError values.
type PDFExtractService interface {
	Extract(ctx context.Context, req *ExtractRequest) (*ExtractResult, error)
	ExtractFile(ctx context.Context, path string, hints *ExtractHints) (*ExtractResult, error)
}

// ClassifierService assigns a domain label and profile version to a job from
// weak filename/content signals, and ensures the bound profile exists.
type ClassifierService interface {
	Classify(ctx context.Context, job *models.Job, docs []*models.Document) (domain string, version int, err error)
}

// FieldExtractor produces one raw extraction per (document, field) pair from
// the document's artifacts. Implementations are pluggable (rule, model).
type FieldExtractor interface {
	Extract(ctx context.Context, doc *models.Document, artifacts []*models.Artifact, field *models.FieldSpec) (*models.RawExtraction, error)
	Method() string
}

// NormalizerService maps raw extractions to canonical values and units.
type NormalizerService interface {
	Normalize(ctx context.Context, raw *models.RawExtraction, field *models.FieldSpec) (*models.NormalizedExtraction, error)
}

// ResultsService assembles the comparison matrix and highlights for a job.
type ResultsService interface {
	Build(ctx context.Context, job *models.Job, profile *models.DomainProfile, docs []*models.Document, norms []*models.NormalizedExtraction) (*models.Result, error)
}

// ProfileService resolves domain profiles, provisioning built-ins lazily.
type ProfileService interface {
	Ensure(ctx context.Context, domain string, version int) (*models.DomainProfile, error)
	Get(ctx context.Context, domain string, version int) (*models.DomainProfile, error)
	DefaultVersion(domain string) int
}

// PipelineService drives a job through the processing state machine.
type PipelineService interface {
	Run(ctx context.Context, jobID string) error
	Cancel(ctx context.Context, jobID string) error
}
