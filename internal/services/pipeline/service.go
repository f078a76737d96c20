// -----------------------------------------------------------------------
// Pipeline orchestrator - drives a job through the linear processing
// state machine, persisting every transition before the next stage runs
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/common"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/ternarybob/confero/internal/services/extractor"
	"github.com/ternarybob/confero/internal/workers"
)

// errCancelled aborts stage driving when the job was cancelled out of band.
var errCancelled = fmt.Errorf("job cancelled")

// Service implements interfaces.PipelineService.
type Service struct {
	storage    interfaces.StorageManager
	files      interfaces.FileStorage
	pdf        interfaces.PDFExtractService
	classifier interfaces.ClassifierService
	extractors *extractor.Registry
	normalizer interfaces.NormalizerService
	results    interfaces.ResultsService
	profiles   interfaces.ProfileService
	config     *common.PipelineConfig
	logger     arbor.ILogger
}

var _ interfaces.PipelineService = (*Service)(nil)

func NewService(
	storage interfaces.StorageManager,
	files interfaces.FileStorage,
	pdf interfaces.PDFExtractService,
	classifier interfaces.ClassifierService,
	extractors *extractor.Registry,
	normalizer interfaces.NormalizerService,
	results interfaces.ResultsService,
	profiles interfaces.ProfileService,
	config *common.PipelineConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:    storage,
		files:      files,
		pdf:        pdf,
		classifier: classifier,
		extractors: extractors,
		normalizer: normalizer,
		results:    results,
		profiles:   profiles,
		config:     config,
		logger:     logger,
	}
}

// Run drives the job from uploaded to a terminal state. Stage failures move
// the job to failed with the error recorded; there is no automatic retry.
// Re-submitting the job re-enters here from uploaded.
func (s *Service) Run(ctx context.Context, jobID string) error {
	job, err := s.storage.JobStorage().GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Status != models.JobStatusUploaded {
		return fmt.Errorf("job %s is %s, expected %s", jobID, job.Status, models.JobStatusUploaded)
	}

	now := time.Now()
	job.StartedAt = &now

	if err := s.runStages(ctx, job); err != nil {
		if err == errCancelled {
			s.logger.Info().Str("job_id", jobID).Msg("Pipeline stopped, job cancelled")
			return nil
		}
		s.fail(context.WithoutCancel(ctx), job, err)
		return err
	}
	return nil
}

func (s *Service) runStages(ctx context.Context, job *models.Job) error {
	// Classification
	if err := s.transition(ctx, job, models.JobStatusClassifying); err != nil {
		return err
	}
	docs, err := s.storage.DocumentStorage().GetDocumentsByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("job has no documents")
	}
	if _, _, err := s.classifier.Classify(ctx, job, docs); err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}
	if err := s.transition(ctx, job, models.JobStatusClassified); err != nil {
		return err
	}

	// Parsing
	if err := s.transition(ctx, job, models.JobStatusParsing); err != nil {
		return err
	}
	parsed, err := s.parseDocuments(ctx, job, docs)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, job, models.JobStatusParsed); err != nil {
		return err
	}

	profile, err := s.profiles.Get(ctx, job.Domain, job.ProfileVersion)
	if err != nil {
		return fmt.Errorf("failed to load profile %s v%d: %w", job.Domain, job.ProfileVersion, err)
	}

	// Field extraction
	if err := s.transition(ctx, job, models.JobStatusExtracting); err != nil {
		return err
	}
	if err := s.extractFields(ctx, job, parsed, profile); err != nil {
		return err
	}
	if err := s.transition(ctx, job, models.JobStatusExtracted); err != nil {
		return err
	}

	// Normalization
	if err := s.transition(ctx, job, models.JobStatusNormalizing); err != nil {
		return err
	}
	if err := s.normalize(ctx, job, profile); err != nil {
		return err
	}
	if err := s.transition(ctx, job, models.JobStatusNormalized); err != nil {
		return err
	}

	// Results
	if err := s.transition(ctx, job, models.JobStatusBuilding); err != nil {
		return err
	}
	norms, err := s.storage.ExtractionStorage().GetNormalizedExtractionsByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to load normalized extractions: %w", err)
	}
	result, err := s.results.Build(ctx, job, profile, parsed, norms)
	if err != nil {
		return fmt.Errorf("results build failed: %w", err)
	}
	if err := s.storage.ResultStorage().SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	final := models.JobStatusReady
	if len(parsed) < len(docs) {
		final = models.JobStatusPartial
	}
	return s.complete(ctx, job, final)
}

// parseDocuments runs PDF extraction per document and persists the page
// artifacts. A per-document failure is recorded on the document, not fatal;
// the stage fails only when no document parses.
func (s *Service) parseDocuments(ctx context.Context, job *models.Job, docs []*models.Document) ([]*models.Document, error) {
	var parsed []*models.Document
	pagesTotal, ocrPages := 0, 0

	for _, doc := range docs {
		res, err := s.pdf.ExtractFile(ctx, s.files.Path(doc.StorageKey), nil)
		if err != nil {
			ee := models.AsExtractError(err)
			doc.ParseError = ee.Error()
			if saveErr := s.storage.DocumentStorage().SaveDocument(ctx, doc); saveErr != nil {
				return nil, fmt.Errorf("failed to record parse error for %s: %w", doc.ID, saveErr)
			}
			s.logger.Warn().
				Str("job_id", job.ID).
				Str("document_id", doc.ID).
				Str("code", string(ee.Code)).
				Msg("Document parse failed")
			continue
		}

		for _, block := range res.TextBlocks {
			artifact := &models.Artifact{
				ID:         models.ArtifactID(doc.ID, block.Page, models.ArtifactTypeText),
				DocumentID: doc.ID,
				JobID:      job.ID,
				Page:       block.Page,
				Type:       models.ArtifactTypeText,
				Text:       block.Text,
				CreatedAt:  time.Now(),
			}
			if err := s.storage.ArtifactStorage().SaveArtifact(ctx, artifact); err != nil {
				return nil, fmt.Errorf("failed to save text artifact: %w", err)
			}
		}
		for _, table := range res.Tables {
			artifact := &models.Artifact{
				ID:         models.ArtifactID(doc.ID, table.Page, models.ArtifactTypeTable),
				DocumentID: doc.ID,
				JobID:      job.ID,
				Page:       table.Page,
				Type:       models.ArtifactTypeTable,
				Rows:       table.Rows,
				BBox:       table.BBox,
				CreatedAt:  time.Now(),
			}
			if err := s.storage.ArtifactStorage().SaveArtifact(ctx, artifact); err != nil {
				return nil, fmt.Errorf("failed to save table artifact: %w", err)
			}
		}

		now := time.Now()
		doc.PageCount = res.Pages
		doc.QualityScore = res.ExtractionQuality
		doc.OCRUsed = res.OCRUsed
		doc.ParseError = ""
		doc.ParsedAt = &now
		if err := s.storage.DocumentStorage().SaveDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to save document %s: %w", doc.ID, err)
		}

		pagesTotal += res.Pages
		if res.OCRUsed {
			ocrPages += res.Pages
		}
		parsed = append(parsed, doc)
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("all %d documents failed to parse", len(docs))
	}

	job.Metrics.PagesTotal = pagesTotal
	job.Metrics.OCRPages = ocrPages
	job.Metrics.CostEstimate = float64(pagesTotal)*s.config.CostPerPage + float64(ocrPages)*s.config.CostPerOCRTop
	return parsed, nil
}

// extractFields fans field extraction out across documents. Each (document,
// field) pair produces an independent raw extraction, so per-document tasks
// share no mutable state.
func (s *Service) extractFields(ctx context.Context, job *models.Job, docs []*models.Document, profile *models.DomainProfile) error {
	pool := workers.NewPool(ctx, s.config.Concurrency, s.logger)
	pool.Start()

	for _, doc := range docs {
		doc := doc
		if err := pool.Submit(func(taskCtx context.Context) error {
			artifacts, err := s.storage.ArtifactStorage().GetArtifactsByDocument(taskCtx, doc.ID)
			if err != nil {
				return fmt.Errorf("failed to load artifacts for %s: %w", doc.ID, err)
			}
			for i := range profile.Fields {
				field := &profile.Fields[i]
				raw, err := s.extractors.ForField(field).Extract(taskCtx, doc, artifacts, field)
				if err != nil {
					return fmt.Errorf("extraction of %s for %s failed: %w", field.ID, doc.ID, err)
				}
				if err := s.storage.ExtractionStorage().SaveRawExtraction(taskCtx, raw); err != nil {
					return fmt.Errorf("failed to save raw extraction: %w", err)
				}
			}
			return nil
		}); err != nil {
			break
		}
	}

	pool.Wait()
	if errs := pool.Errors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (s *Service) normalize(ctx context.Context, job *models.Job, profile *models.DomainProfile) error {
	raws, err := s.storage.ExtractionStorage().GetRawExtractionsByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to load raw extractions: %w", err)
	}
	for _, raw := range raws {
		field := profile.Field(raw.FieldID)
		if field == nil {
			// Field removed between profile versions; skip rather than fail.
			continue
		}
		norm, err := s.normalizer.Normalize(ctx, raw, field)
		if err != nil {
			return fmt.Errorf("normalization of %s failed: %w", raw.ID, err)
		}
		if err := s.storage.ExtractionStorage().SaveNormalizedExtraction(ctx, norm); err != nil {
			return fmt.Errorf("failed to save normalized extraction: %w", err)
		}
	}
	return nil
}

// transition persists the next forward status. It reloads the job first so a
// cancellation issued between stages stops the pipeline instead of being
// overwritten.
func (s *Service) transition(ctx context.Context, job *models.Job, next models.JobStatus) error {
	current, err := s.storage.JobStorage().GetJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to reload job %s: %w", job.ID, err)
	}
	if current.Status == models.JobStatusCancelled {
		return errCancelled
	}

	job.Status = next
	job.UpdatedAt = time.Now()
	if err := s.storage.JobStorage().SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to persist %s transition: %w", next, err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("status", string(next)).
		Int("progress", next.Progress()).
		Msg("Job transitioned")
	return nil
}

func (s *Service) complete(ctx context.Context, job *models.Job, final models.JobStatus) error {
	now := time.Now()
	job.CompletedAt = &now
	if job.StartedAt != nil {
		job.Metrics.LatencyMS = now.Sub(*job.StartedAt).Milliseconds()
	}
	return s.transition(ctx, job, final)
}

// fail records the stage error and moves the job to failed. Uses a
// cancellation-free context so the terminal write survives request teardown.
func (s *Service) fail(ctx context.Context, job *models.Job, cause error) {
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = cause.Error()
	job.UpdatedAt = now
	job.CompletedAt = &now
	if job.StartedAt != nil {
		job.Metrics.LatencyMS = now.Sub(*job.StartedAt).Milliseconds()
	}
	if err := s.storage.JobStorage().SaveJob(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist failed status")
		return
	}
	s.logger.Warn().
		Str("job_id", job.ID).
		Str("error", job.Error).
		Msg("Job failed")
}

// Cancel marks the job cancelled. Stages observe the cancellation at their
// next transition; in-flight external tools are bounded by their own
// timeouts.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	job, err := s.storage.JobStorage().GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("job %s is already %s", jobID, job.Status)
	}

	now := time.Now()
	job.Status = models.JobStatusCancelled
	job.UpdatedAt = now
	job.CompletedAt = &now
	if err := s.storage.JobStorage().SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to persist cancellation: %w", err)
	}

	s.logger.Info().Str("job_id", jobID).Msg("Job cancelled")
	return nil
}
