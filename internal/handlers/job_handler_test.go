package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/common"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
	"github.com/ternarybob/confero/internal/storage/badger"
	"github.com/ternarybob/confero/internal/storage/files"
)

// fakePipeline records Run invocations instead of processing.
type fakePipeline struct {
	ran       chan string
	cancelErr error
}

func (f *fakePipeline) Run(ctx context.Context, jobID string) error {
	if f.ran != nil {
		f.ran <- jobID
	}
	return nil
}

func (f *fakePipeline) Cancel(ctx context.Context, jobID string) error {
	return f.cancelErr
}

type handlerEnv struct {
	storage  interfaces.StorageManager
	pipeline *fakePipeline
	jobs     *JobHandler
	uploads  *UploadHandler
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	logger := arbor.NewLogger()

	manager, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	fileStore, err := files.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	pipeline := &fakePipeline{ran: make(chan string, 1)}
	return &handlerEnv{
		storage:  manager,
		pipeline: pipeline,
		jobs:     NewJobHandler(manager, pipeline, logger),
		uploads:  NewUploadHandler(manager, fileStore, 1024, logger),
	}
}

func (e *handlerEnv) createJob(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.jobs.CreateJobHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (e *handlerEnv) uploadBytes(t *testing.T, token string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("PUT", "/api/uploads/"+token, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	e.uploads.UploadHandler(rec, req)
	return rec
}

func TestCreateJobReturnsUploadSlots(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.createJob(t, `{"files":[{"filename":"a.pdf"},{"filename":"b.pdf"}]}`)
	assert.Equal(t, "created", resp["status"])
	assert.True(t, strings.HasPrefix(resp["job_id"].(string), "job_"))

	uploads := resp["uploads"].([]interface{})
	require.Len(t, uploads, 2)
	slot := uploads[0].(map[string]interface{})
	assert.True(t, strings.HasPrefix(slot["token"].(string), "up_"))
	assert.Equal(t, "/api/uploads/"+slot["token"].(string), slot["upload_url"])
	assert.Equal(t, "a.pdf", slot["filename"])
}

func TestCreateJobValidation(t *testing.T) {
	env := newHandlerEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"no files", `{"files":[]}`},
		{"missing filename", `{"files":[{"filename":""}]}`},
		{"bad domain mode", `{"domain_mode":"guess","files":[{"filename":"a.pdf"}]}`},
		{"forced without domain", `{"domain_mode":"forced","files":[{"filename":"a.pdf"}]}`},
		{"malformed json", `{"files":`},
		{"unknown field", `{"documents":[{"filename":"a.pdf"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/jobs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			env.jobs.CreateJobHandler(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUploadAndCompleteFlow(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	jobID := resp["job_id"].(string)
	slot := resp["uploads"].([]interface{})[0].(map[string]interface{})
	token := slot["token"].(string)

	// Complete before uploading is rejected.
	req := httptest.NewRequest("POST", "/api/jobs/"+jobID+"/complete-upload", nil)
	rec := httptest.NewRecorder()
	env.jobs.CompleteUploadHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not uploaded")

	// Upload the bytes.
	rec = env.uploadBytes(t, token, []byte("%PDF-1.7 fixture bytes"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var uploadResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadResp))
	assert.Len(t, uploadResp["content_hash"], 64)
	assert.Equal(t, float64(22), uploadResp["bytes"])

	// Complete now succeeds and starts the pipeline.
	req = httptest.NewRequest("POST", "/api/jobs/"+jobID+"/complete-upload", nil)
	rec = httptest.NewRecorder()
	env.jobs.CompleteUploadHandler(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	select {
	case ran := <-env.pipeline.ran:
		assert.Equal(t, jobID, ran)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was not started")
	}

	job, err := env.storage.JobStorage().GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusUploaded, job.Status)
}

func TestCompleteUploadConflictsWhileRunning(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	jobID := resp["job_id"].(string)

	ctx := context.Background()
	job, err := env.storage.JobStorage().GetJob(ctx, jobID)
	require.NoError(t, err)
	job.Status = models.JobStatusExtracting
	require.NoError(t, env.storage.JobStorage().SaveJob(ctx, job))

	req := httptest.NewRequest("POST", "/api/jobs/"+jobID+"/complete-upload", nil)
	rec := httptest.NewRecorder()
	env.jobs.CompleteUploadHandler(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUploadUnknownToken(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.uploadBytes(t, "up_does_not_exist", []byte("data"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	token := resp["uploads"].([]interface{})[0].(map[string]interface{})["token"].(string)

	// Handler cap is 1024 bytes.
	rec := env.uploadBytes(t, token, bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadEmptyBody(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	token := resp["uploads"].([]interface{})[0].(map[string]interface{})["token"].(string)

	rec := env.uploadBytes(t, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobNotFound(t *testing.T) {
	env := newHandlerEnv(t)

	req := httptest.NewRequest("GET", "/api/jobs/job_missing", nil)
	rec := httptest.NewRecorder()
	env.jobs.GetJobHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJobResultsNotReady(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	jobID := resp["job_id"].(string)

	req := httptest.NewRequest("GET", "/api/jobs/"+jobID+"/results", nil)
	rec := httptest.NewRecorder()
	env.jobs.GetJobResultsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, "created", body["status"])
}

func TestGetJobResultsReady(t *testing.T) {
	env := newHandlerEnv(t)
	ctx := context.Background()

	resp := env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	jobID := resp["job_id"].(string)

	job, err := env.storage.JobStorage().GetJob(ctx, jobID)
	require.NoError(t, err)
	job.Status = models.JobStatusReady
	require.NoError(t, env.storage.JobStorage().SaveJob(ctx, job))
	require.NoError(t, env.storage.ResultStorage().SaveResult(ctx, &models.Result{
		JobID:  jobID,
		Domain: "semiconductors",
	}))

	req := httptest.NewRequest("GET", "/api/jobs/"+jobID+"/results", nil)
	rec := httptest.NewRecorder()
	env.jobs.GetJobResultsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ready"])
	result := body["result"].(map[string]interface{})
	assert.Equal(t, "semiconductors", result["domain"])
}

func TestCancelJobConflict(t *testing.T) {
	env := newHandlerEnv(t)
	env.pipeline.cancelErr = fmt.Errorf("job job_x is already ready")

	req := httptest.NewRequest("POST", "/api/jobs/job_x/cancel", nil)
	rec := httptest.NewRecorder()
	env.jobs.CancelJobHandler(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListJobsPagination(t *testing.T) {
	env := newHandlerEnv(t)

	for i := 0; i < 3; i++ {
		env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	}

	req := httptest.NewRequest("GET", "/api/jobs?limit=2", nil)
	rec := httptest.NewRecorder()
	env.jobs.ListJobsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["jobs"], 2)
	assert.Equal(t, float64(3), body["total"])
}

func TestJobStats(t *testing.T) {
	env := newHandlerEnv(t)

	env.createJob(t, `{"files":[{"filename":"a.pdf"}]}`)
	env.createJob(t, `{"files":[{"filename":"b.pdf"}]}`)

	req := httptest.NewRequest("GET", "/api/jobs/stats", nil)
	rec := httptest.NewRecorder()
	env.jobs.GetJobStatsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["by_status"].(map[string]interface{})["created"])
}
