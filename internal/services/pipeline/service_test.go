package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/common"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/ternarybob/confero/internal/services/classifier"
	"github.com/ternarybob/confero/internal/services/extractor"
	"github.com/ternarybob/confero/internal/services/normalizer"
	"github.com/ternarybob/confero/internal/services/profiles"
	"github.com/ternarybob/confero/internal/services/results"
	"github.com/ternarybob/confero/internal/storage/badger"
	"github.com/ternarybob/confero/internal/storage/files"
)

// fakePDFService returns canned extraction results keyed by storage path and
// never touches external tools.
type fakePDFService struct {
	results map[string]*interfaces.ExtractResult
	errs    map[string]error
	// onExtract runs before each ExtractFile, letting tests interleave
	// actions with a running pipeline.
	onExtract func(path string)
}

func (f *fakePDFService) Extract(ctx context.Context, req *interfaces.ExtractRequest) (*interfaces.ExtractResult, error) {
	return nil, models.NewExtractError(models.ErrCodeInternal, "not used in tests", "")
}

func (f *fakePDFService) ExtractFile(ctx context.Context, path string, hints *interfaces.ExtractHints) (*interfaces.ExtractResult, error) {
	if f.onExtract != nil {
		f.onExtract(path)
	}
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	if res, ok := f.results[path]; ok {
		return res, nil
	}
	return nil, models.NewExtractError(models.ErrCodeUnsupportedPDF, "no fixture for path", path)
}

type testEnv struct {
	storage interfaces.StorageManager
	files   interfaces.FileStorage
	pdf     *fakePDFService
	service *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := arbor.NewLogger()

	manager, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	fileStore, err := files.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	profileService, err := profiles.NewService(manager.ProfileStorage(), "", logger)
	require.NoError(t, err)

	pdf := &fakePDFService{
		results: make(map[string]*interfaces.ExtractResult),
		errs:    make(map[string]error),
	}

	service := NewService(
		manager,
		fileStore,
		pdf,
		classifier.NewService(manager.JobStorage(), manager.ArtifactStorage(), profileService, logger),
		extractor.NewRegistry(logger),
		normalizer.NewService(logger),
		results.NewService(logger),
		profileService,
		&common.PipelineConfig{Concurrency: 2, CostPerPage: 0.01, CostPerOCRTop: 0.02},
		logger,
	)

	return &testEnv{storage: manager, files: fileStore, pdf: pdf, service: service}
}

func (e *testEnv) seedJob(t *testing.T, status models.JobStatus, filenames ...string) (*models.Job, []*models.Document) {
	t.Helper()
	ctx := context.Background()

	job := &models.Job{
		ID:          common.NewJobID(),
		WorkspaceID: "ws_test",
		Status:      status,
		DomainMode:  models.DomainModeAuto,
	}
	require.NoError(t, e.storage.JobStorage().SaveJob(ctx, job))

	var docs []*models.Document
	for _, name := range filenames {
		doc := &models.Document{
			ID:          common.NewDocumentID(),
			JobID:       job.ID,
			Filename:    name,
			ContentHash: "hash-" + name,
			StorageKey:  name,
		}
		require.NoError(t, e.storage.DocumentStorage().SaveDocument(ctx, doc))
		docs = append(docs, doc)
	}
	return job, docs
}

func datasheetResult() *interfaces.ExtractResult {
	return &interfaces.ExtractResult{
		Pages:             2,
		ExtractionQuality: 0.85,
		Tables: []interfaces.ExtractTable{{
			Page: 1,
			Rows: [][]string{
				{"Parameter", "Value"},
				{"Supply Voltage", "3.3 V"},
				{"Power Consumption", "250 mW"},
			},
		}},
		TextBlocks: []interfaces.ExtractTextBlock{
			{Page: 1, Text: "Microcontroller datasheet. Operating Temperature: -40 to 85 degC"},
			{Page: 2, Text: "Clock Speed: 48 MHz"},
		},
	}
}

func TestRunCompletesJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, docs := env.seedJob(t, models.JobStatusUploaded, "mcu_a.pdf", "mcu_b.pdf")
	for _, doc := range docs {
		env.pdf.results[env.files.Path(doc.StorageKey)] = datasheetResult()
	}

	require.NoError(t, env.service.Run(ctx, job.ID))

	stored, err := env.storage.JobStorage().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusReady, stored.Status)
	assert.Equal(t, "semiconductors", stored.Domain)
	assert.Equal(t, 1, stored.ProfileVersion)
	assert.Equal(t, 4, stored.Metrics.PagesTotal)
	assert.NotNil(t, stored.CompletedAt)

	result, err := env.storage.ResultStorage().GetResult(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "semiconductors", result.Domain)
	require.Len(t, result.Rows, 2)
	// Dense matrix: every row carries a cell for every profile field.
	for _, row := range result.Rows {
		assert.Len(t, row.Cells, len(result.Columns))
	}
}

func TestRunRequiresUploadedStatus(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.seedJob(t, models.JobStatusCreated, "a.pdf")

	err := env.service.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected uploaded")
}

func TestRunNoDocumentsFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	job, _ := env.seedJob(t, models.JobStatusUploaded)

	require.Error(t, env.service.Run(ctx, job.ID))

	stored, err := env.storage.JobStorage().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
}

func TestRunPartialWhenSomeDocumentsFailParsing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, docs := env.seedJob(t, models.JobStatusUploaded, "good.pdf", "bad.pdf")
	env.pdf.results[env.files.Path(docs[0].StorageKey)] = datasheetResult()
	env.pdf.errs[env.files.Path(docs[1].StorageKey)] =
		models.NewExtractError(models.ErrCodeUnsupportedPDF, "encrypted document", "")

	require.NoError(t, env.service.Run(ctx, job.ID))

	stored, err := env.storage.JobStorage().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPartial, stored.Status)

	badDoc, err := env.storage.DocumentStorage().GetDocument(ctx, docs[1].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, badDoc.ParseError)

	result, err := env.storage.ResultStorage().GetResult(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
}

func TestRunFailsWhenAllDocumentsFailParsing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, docs := env.seedJob(t, models.JobStatusUploaded, "bad.pdf")
	env.pdf.errs[env.files.Path(docs[0].StorageKey)] =
		models.NewExtractError(models.ErrCodeOCRFailed, "engine crashed", "")

	require.Error(t, env.service.Run(ctx, job.ID))

	stored, err := env.storage.JobStorage().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "failed to parse")
}

func TestCancelStopsPipelineAtNextTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, docs := env.seedJob(t, models.JobStatusUploaded, "mcu.pdf")
	env.pdf.results[env.files.Path(docs[0].StorageKey)] = datasheetResult()

	// Cancel while the parsing stage is in flight; the next transition
	// observes it and the run stops cleanly without an error.
	env.pdf.onExtract = func(string) {
		require.NoError(t, env.service.Cancel(ctx, job.ID))
	}

	require.NoError(t, env.service.Run(ctx, job.ID))

	stored, err := env.storage.JobStorage().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, stored.Status)

	// Nothing past parsing ran.
	_, err = env.storage.ResultStorage().GetResult(ctx, job.ID)
	assert.Error(t, err)
}

func TestCancelRejectsTerminalJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, _ := env.seedJob(t, models.JobStatusReady, "a.pdf")
	err := env.service.Cancel(ctx, job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already ready")
}

func TestRunAppliesForcedDomain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	job, docs := env.seedJob(t, models.JobStatusUploaded, "unnamed.pdf")
	job.DomainMode = models.DomainModeForced
	job.Domain = "fasteners"
	require.NoError(t, env.storage.JobStorage().SaveJob(ctx, job))
	env.pdf.results[env.files.Path(docs[0].StorageKey)] = datasheetResult()

	require.NoError(t, env.service.Run(ctx, job.ID))

	stored, err := env.storage.JobStorage().GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusReady, stored.Status)
	assert.Equal(t, "fasteners", stored.Domain)
}
