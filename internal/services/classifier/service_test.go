package classifier

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// fakeJobStorage records saved jobs in memory.
type fakeJobStorage struct {
	jobs map[string]*models.Job
}

func newFakeJobStorage() *fakeJobStorage {
	return &fakeJobStorage{jobs: make(map[string]*models.Job)}
}

func (f *fakeJobStorage) SaveJob(ctx context.Context, job *models.Job) error {
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobStorage) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return job, nil
}

func (f *fakeJobStorage) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.Job, error) {
	return nil, nil
}
func (f *fakeJobStorage) CountJobs(ctx context.Context) (int, error) { return len(f.jobs), nil }
func (f *fakeJobStorage) CountJobsByStatus(ctx context.Context) (map[models.JobStatus]int, error) {
	return nil, nil
}
func (f *fakeJobStorage) DeleteJob(ctx context.Context, jobID string) error { return nil }

// fakeArtifactStorage serves canned artifacts per document.
type fakeArtifactStorage struct {
	byDoc map[string][]*models.Artifact
}

func (f *fakeArtifactStorage) SaveArtifact(ctx context.Context, artifact *models.Artifact) error {
	return nil
}
func (f *fakeArtifactStorage) GetArtifactsByDocument(ctx context.Context, docID string) ([]*models.Artifact, error) {
	return f.byDoc[docID], nil
}
func (f *fakeArtifactStorage) DeleteArtifactsByJob(ctx context.Context, jobID string) error {
	return nil
}

// fakeProfileService tracks Ensure calls.
type fakeProfileService struct {
	ensured []string
}

func (f *fakeProfileService) Ensure(ctx context.Context, domain string, version int) (*models.DomainProfile, error) {
	f.ensured = append(f.ensured, models.ProfileKey(domain, version))
	return &models.DomainProfile{Domain: domain, Version: version}, nil
}
func (f *fakeProfileService) Get(ctx context.Context, domain string, version int) (*models.DomainProfile, error) {
	return &models.DomainProfile{Domain: domain, Version: version}, nil
}
func (f *fakeProfileService) DefaultVersion(domain string) int {
	switch domain {
	case "semiconductors", "industrial_components", "fasteners":
		return 1
	}
	return 0
}

func newTestService(artifacts *fakeArtifactStorage) (*Service, *fakeJobStorage, *fakeProfileService) {
	jobs := newFakeJobStorage()
	profiles := &fakeProfileService{}
	if artifacts == nil {
		artifacts = &fakeArtifactStorage{byDoc: map[string][]*models.Artifact{}}
	}
	return NewService(jobs, artifacts, profiles, arbor.NewLogger()), jobs, profiles
}

func TestClassifyByFilename(t *testing.T) {
	service, jobs, profiles := newTestService(nil)
	job := &models.Job{ID: "job_1", Status: models.JobStatusClassifying, DomainMode: models.DomainModeAuto}
	jobs.SaveJob(context.Background(), job)
	docs := []*models.Document{
		{ID: "doc_1", JobID: "job_1", Filename: "mcu-datasheet-rev3.pdf"},
	}

	domain, version, err := service.Classify(context.Background(), job, docs)
	require.NoError(t, err)

	assert.Equal(t, "semiconductors", domain)
	assert.Equal(t, 1, version)
	assert.Equal(t, "semiconductors", job.Domain)
	assert.Equal(t, 1, job.ProfileVersion)
	assert.Contains(t, profiles.ensured, "semiconductors:1")

	// Classification was persisted.
	saved, err := jobs.GetJob(context.Background(), "job_1")
	require.NoError(t, err)
	assert.Equal(t, "semiconductors", saved.Domain)
}

func TestClassifyByContent(t *testing.T) {
	artifacts := &fakeArtifactStorage{byDoc: map[string][]*models.Artifact{
		"doc_1": {{
			ID:         models.ArtifactID("doc_1", 1, models.ArtifactTypeText),
			DocumentID: "doc_1",
			Page:       1,
			Type:       models.ArtifactTypeText,
			Text:       "M8 hex bolt, zinc plated, property class 8.8",
		}},
	}}
	service, jobs, _ := newTestService(artifacts)
	job := &models.Job{ID: "job_1", DomainMode: models.DomainModeAuto}
	jobs.SaveJob(context.Background(), job)
	docs := []*models.Document{{ID: "doc_1", JobID: "job_1", Filename: "part-0042.pdf"}}

	domain, _, err := service.Classify(context.Background(), job, docs)
	require.NoError(t, err)
	assert.Equal(t, "fasteners", domain)
}

func TestClassifyPriorityOrderWins(t *testing.T) {
	// One document matches the semiconductor rules, another the fastener
	// rules. The earlier rule in the table decides.
	service, jobs, _ := newTestService(nil)
	job := &models.Job{ID: "job_1", DomainMode: models.DomainModeAuto}
	jobs.SaveJob(context.Background(), job)
	docs := []*models.Document{
		{ID: "doc_1", JobID: "job_1", Filename: "hex-bolt-catalog.pdf"},
		{ID: "doc_2", JobID: "job_1", Filename: "transistor-specs.pdf"},
	}

	domain, _, err := service.Classify(context.Background(), job, docs)
	require.NoError(t, err)
	assert.Equal(t, "semiconductors", domain)
}

func TestClassifyFallsBackToDefault(t *testing.T) {
	service, jobs, _ := newTestService(nil)
	job := &models.Job{ID: "job_1", DomainMode: models.DomainModeAuto}
	jobs.SaveJob(context.Background(), job)
	docs := []*models.Document{{ID: "doc_1", JobID: "job_1", Filename: "scan0001.pdf"}}

	domain, version, err := service.Classify(context.Background(), job, docs)
	require.NoError(t, err)
	assert.Equal(t, "industrial_components", domain)
	assert.Equal(t, 1, version)
}

func TestClassifyForcedModeSkipsHeuristic(t *testing.T) {
	service, jobs, profiles := newTestService(nil)
	job := &models.Job{
		ID:         "job_1",
		Domain:     "fasteners",
		DomainMode: models.DomainModeForced,
	}
	jobs.SaveJob(context.Background(), job)
	// Filename would classify as semiconductors in auto mode.
	docs := []*models.Document{{ID: "doc_1", JobID: "job_1", Filename: "mcu-datasheet.pdf"}}

	domain, _, err := service.Classify(context.Background(), job, docs)
	require.NoError(t, err)
	assert.Equal(t, "fasteners", domain)
	assert.Contains(t, profiles.ensured, "fasteners:1")
}

func TestClassifyForcedModeRequiresDomain(t *testing.T) {
	service, jobs, _ := newTestService(nil)
	job := &models.Job{ID: "job_1", DomainMode: models.DomainModeForced}
	jobs.SaveJob(context.Background(), job)

	_, _, err := service.Classify(context.Background(), job, []*models.Document{
		{ID: "doc_1", JobID: "job_1", Filename: "a.pdf"},
	})
	assert.Error(t, err)
}

func TestClassifyUnknownForcedDomainFails(t *testing.T) {
	service, jobs, _ := newTestService(nil)
	job := &models.Job{ID: "job_1", Domain: "spaceships", DomainMode: models.DomainModeForced}
	jobs.SaveJob(context.Background(), job)

	_, _, err := service.Classify(context.Background(), job, []*models.Document{
		{ID: "doc_1", JobID: "job_1", Filename: "a.pdf"},
	})
	assert.Error(t, err)
}
