package models

import (
	"time"
)

// JobStatus represents the state of a comparison job.
// The pipeline moves through the statuses in order; terminal states are
// Ready, Failed, Cancelled and Partial.
type JobStatus string

const (
	JobStatusCreated     JobStatus = "created"
	JobStatusUploaded    JobStatus = "uploaded"
	JobStatusClassifying JobStatus = "classifying"
	JobStatusClassified  JobStatus = "classified"
	JobStatusParsing     JobStatus = "parsing"
	JobStatusParsed      JobStatus = "parsed"
	JobStatusExtracting  JobStatus = "extracting"
	JobStatusExtracted   JobStatus = "extracted"
	JobStatusNormalizing JobStatus = "normalizing"
	JobStatusNormalized  JobStatus = "normalized"
	JobStatusBuilding    JobStatus = "building"
	JobStatusReady       JobStatus = "ready"
	JobStatusFailed      JobStatus = "failed"
	JobStatusPartial     JobStatus = "partial"
	JobStatusCancelled   JobStatus = "cancelled"
)

// DomainMode controls whether the classifier picks the domain or the caller forces it.
type DomainMode string

const (
	DomainModeAuto   DomainMode = "auto"
	DomainModeForced DomainMode = "forced"
)

// statusRank maps each status to its position in the pipeline sequence.
// Terminal side states carry no rank.
var statusRank = map[JobStatus]int{
	JobStatusCreated:     0,
	JobStatusUploaded:    1,
	JobStatusClassifying: 2,
	JobStatusClassified:  3,
	JobStatusParsing:     4,
	JobStatusParsed:      5,
	JobStatusExtracting:  6,
	JobStatusExtracted:   7,
	JobStatusNormalizing: 8,
	JobStatusNormalized:  9,
	JobStatusBuilding:    10,
	JobStatusReady:       11,
}

// statusProgress is the fixed status -> coarse progress percentage table
// surfaced by the job status API.
var statusProgress = map[JobStatus]int{
	JobStatusCreated:     0,
	JobStatusUploaded:    5,
	JobStatusClassifying: 10,
	JobStatusClassified:  15,
	JobStatusParsing:     25,
	JobStatusParsed:      45,
	JobStatusExtracting:  55,
	JobStatusExtracted:   70,
	JobStatusNormalizing: 75,
	JobStatusNormalized:  85,
	JobStatusBuilding:    90,
	JobStatusReady:       100,
	JobStatusPartial:     100,
	JobStatusFailed:      100,
	JobStatusCancelled:   100,
}

// Rank returns the position of the status in the forward pipeline sequence,
// or -1 for terminal side states.
func (s JobStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Progress returns the coarse progress percentage for the status.
func (s JobStatus) Progress() int {
	return statusProgress[s]
}

// IsTerminal reports whether the status ends the pipeline.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusReady, JobStatusFailed, JobStatusCancelled, JobStatusPartial:
		return true
	}
	return false
}

// JobMetrics holds aggregated pipeline metrics for a job.
type JobMetrics struct {
	PagesTotal   int     `json:"pages_total"`
	OCRPages     int     `json:"ocr_pages"`
	CostEstimate float64 `json:"cost_estimate"`
	LatencyMS    int64   `json:"latency_ms"`
}

// Job is a workspace-scoped comparison run across a set of uploaded documents.
// Only the pipeline orchestrator mutates a job after creation.
type Job struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	Status      JobStatus  `json:"status"`
	// Domain is empty until classification has run (or domain_mode is forced).
	Domain         string     `json:"domain,omitempty"`
	DomainMode     DomainMode `json:"domain_mode"`
	ProfileVersion int        `json:"profile_version,omitempty"`
	Metrics        JobMetrics `json:"metrics"`
	// Error is a concise description of why the job failed, only set in
	// failed status. Surfaced verbatim to API consumers.
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
