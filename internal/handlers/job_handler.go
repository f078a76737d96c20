// -----------------------------------------------------------------------
// Job handler - comparison job lifecycle API: create with upload slots,
// complete upload, status, results, cancel, list
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/common"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// defaultWorkspaceID backs job creation when the caller names no workspace.
const defaultWorkspaceID = "ws_default"

// CreateJobRequest is the POST /api/jobs payload.
type CreateJobRequest struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
	Domain      string `json:"domain,omitempty"`
	DomainMode  string `json:"domain_mode,omitempty" validate:"omitempty,oneof=auto forced"`
	Files       []struct {
		Filename string `json:"filename" validate:"required"`
	} `json:"files" validate:"required,min=1,dive"`
}

// UploadSlot is one per-file upload target returned on job creation.
type UploadSlot struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	UploadURL  string `json:"upload_url"`
	Token      string `json:"token"`
}

// JobHandler handles job-related API requests
type JobHandler struct {
	storage  interfaces.StorageManager
	pipeline interfaces.PipelineService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(storage interfaces.StorageManager, pipeline interfaces.PipelineService, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		storage:  storage,
		pipeline: pipeline,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateJobHandler creates a job with one upload slot per file.
// POST /api/jobs
func (h *JobHandler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateJobRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	mode := models.DomainModeAuto
	if req.DomainMode == string(models.DomainModeForced) {
		mode = models.DomainModeForced
	}
	if mode == models.DomainModeForced && req.Domain == "" {
		WriteError(w, http.StatusBadRequest, "Forced domain mode requires a domain")
		return
	}

	workspaceID := req.WorkspaceID
	if workspaceID == "" {
		workspaceID = defaultWorkspaceID
	}

	now := time.Now()
	job := &models.Job{
		ID:          common.NewJobID(),
		WorkspaceID: workspaceID,
		Status:      models.JobStatusCreated,
		Domain:      req.Domain,
		DomainMode:  mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.storage.JobStorage().SaveJob(ctx, job); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create job: "+err.Error())
		return
	}

	slots := make([]UploadSlot, 0, len(req.Files))
	for _, file := range req.Files {
		doc := &models.Document{
			ID:          common.NewDocumentID(),
			JobID:       job.ID,
			Filename:    file.Filename,
			UploadToken: common.NewUploadToken(),
			MimeType:    "application/pdf",
		}
		doc.StorageKey = doc.ID + ".pdf"
		if err := h.storage.DocumentStorage().SaveDocument(ctx, doc); err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to create document: "+err.Error())
			return
		}
		slots = append(slots, UploadSlot{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			UploadURL:  "/api/uploads/" + doc.UploadToken,
			Token:      doc.UploadToken,
		})
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Int("files", len(slots)).
		Str("domain_mode", string(mode)).
		Msg("Job created")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"job_id":  job.ID,
		"status":  job.Status,
		"uploads": slots,
	})
}

// CompleteUploadHandler verifies all documents are uploaded, clears any
// prior pipeline output and starts the pipeline asynchronously. Re-invoking
// on a terminal job re-runs the pipeline from the uploaded state.
// POST /api/jobs/{id}/complete-upload
func (h *JobHandler) CompleteUploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID := extractJobID(r.URL.Path, "/complete-upload")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.storage.JobStorage().GetJob(ctx, jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Job not found: "+jobID)
		return
	}
	if job.Status != models.JobStatusCreated && !job.Status.IsTerminal() {
		WriteError(w, http.StatusConflict, fmt.Sprintf("Job is %s and cannot be re-submitted", job.Status))
		return
	}

	docs, err := h.storage.DocumentStorage().GetDocumentsByJob(ctx, jobID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load documents: "+err.Error())
		return
	}
	if len(docs) == 0 {
		WriteError(w, http.StatusBadRequest, "Job has no documents")
		return
	}
	for _, doc := range docs {
		if doc.ContentHash == "" {
			WriteError(w, http.StatusBadRequest, "Document not uploaded yet: "+doc.Filename)
			return
		}
	}

	// Clear output of any earlier run so re-submission starts clean.
	if err := h.resetPipelineOutput(ctx, jobID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to reset job: "+err.Error())
		return
	}

	job.Status = models.JobStatusUploaded
	job.Error = ""
	job.CompletedAt = nil
	job.UpdatedAt = time.Now()
	if err := h.storage.JobStorage().SaveJob(ctx, job); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to update job: "+err.Error())
		return
	}

	go func() {
		if err := h.pipeline.Run(context.Background(), jobID); err != nil {
			h.logger.Warn().Err(err).Str("job_id", jobID).Msg("Pipeline run ended with error")
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"status": job.Status,
	})
}

func (h *JobHandler) resetPipelineOutput(ctx context.Context, jobID string) error {
	if err := h.storage.ArtifactStorage().DeleteArtifactsByJob(ctx, jobID); err != nil {
		return err
	}
	if err := h.storage.ExtractionStorage().DeleteExtractionsByJob(ctx, jobID); err != nil {
		return err
	}
	return h.storage.ResultStorage().DeleteResult(ctx, jobID)
}

// GetJobHandler returns job status, progress and metrics.
// GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID := extractJobID(r.URL.Path, "")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.storage.JobStorage().GetJob(ctx, jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Job not found: "+jobID)
		return
	}

	docs, err := h.storage.DocumentStorage().GetDocumentsByJob(ctx, jobID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load documents: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job":       job,
		"progress":  job.Status.Progress(),
		"documents": docs,
	})
}

// GetJobResultsHandler returns the comparison result, or a not-ready
// placeholder while the pipeline is still running.
// GET /api/jobs/{id}/results
func (h *JobHandler) GetJobResultsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID := extractJobID(r.URL.Path, "/results")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.storage.JobStorage().GetJob(ctx, jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Job not found: "+jobID)
		return
	}

	if job.Status != models.JobStatusReady && job.Status != models.JobStatusPartial {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"job_id":   jobID,
			"status":   job.Status,
			"progress": job.Status.Progress(),
			"ready":    false,
		})
		return
	}

	result, err := h.storage.ResultStorage().GetResult(ctx, jobID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to load result: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"status": job.Status,
		"ready":  true,
		"result": result,
	})
}

// CancelJobHandler cancels a running job.
// POST /api/jobs/{id}/cancel
func (h *JobHandler) CancelJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := extractJobID(r.URL.Path, "/cancel")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	if err := h.pipeline.Cancel(r.Context(), jobID); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"status": models.JobStatusCancelled,
	})
}

// ListJobsHandler returns a paginated list of jobs
// GET /api/jobs?limit=50&offset=0&status=ready
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsed
		}
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	opts := &interfaces.JobListOptions{
		Status:   r.URL.Query().Get("status"),
		Limit:    limit,
		Offset:   offset,
		OrderBy:  r.URL.Query().Get("order_by"),
		OrderDir: r.URL.Query().Get("order_dir"),
	}

	jobs, err := h.storage.JobStorage().ListJobs(ctx, opts)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list jobs: "+err.Error())
		return
	}
	total, err := h.storage.JobStorage().CountJobs(ctx)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to count jobs: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetJobStatsHandler returns job counts by status.
// GET /api/jobs/stats
func (h *JobHandler) GetJobStatsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := h.storage.JobStorage().CountJobsByStatus(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to count jobs: "+err.Error())
		return
	}

	byStatus := make(map[string]int, len(counts))
	total := 0
	for status, count := range counts {
		byStatus[string(status)] = count
		total += count
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":     total,
		"by_status": byStatus,
	})
}

// extractJobID parses the job ID out of /api/jobs/{id}<suffix> paths.
func extractJobID(path, suffix string) string {
	trimmed := strings.TrimPrefix(path, "/api/jobs/")
	if suffix != "" {
		trimmed = strings.TrimSuffix(trimmed, suffix)
	}
	if strings.Contains(trimmed, "/") {
		return ""
	}
	return trimmed
}
