package models

import (
	"strconv"
	"time"
)

// Document is one uploaded PDF belonging to a job. Identity fields are set
// at registration; page count, quality and OCR usage are filled in by the
// parsing stage.
type Document struct {
	ID          string `json:"id"` // doc_<uuid>
	JobID       string `json:"job_id"`
	Filename    string `json:"filename"`
	ContentHash string `json:"content_hash,omitempty"` // sha256 hex of the uploaded bytes
	StorageKey  string `json:"storage_key"`
	MimeType    string `json:"mime_type"`
	// UploadToken is the opaque token bound to this document's upload slot.
	UploadToken string `json:"-"`

	// Filled progressively by later pipeline stages.
	PageCount    int     `json:"page_count"`
	QualityScore float64 `json:"quality_score"`
	OCRUsed      bool    `json:"ocr_used"`
	// ParseError records a per-document parse failure. A job with some parsed
	// and some failed documents ends in partial status.
	ParseError string `json:"parse_error,omitempty"`

	UploadedAt time.Time  `json:"uploaded_at"`
	ParsedAt   *time.Time `json:"parsed_at,omitempty"`
}

// ArtifactType distinguishes the two per-page extraction outputs.
type ArtifactType string

const (
	ArtifactTypeText  ArtifactType = "text"
	ArtifactTypeTable ArtifactType = "table"
)

// Artifact is a page-scoped extraction output, either a text block or a
// table. Artifacts are append-only; one document has at most one artifact
// per (page, type).
type Artifact struct {
	ID         string       `json:"id"` // <document_id>:<page>:<type>
	DocumentID string       `json:"document_id"`
	JobID      string       `json:"job_id"`
	Page       int          `json:"page"`
	Type       ArtifactType `json:"type"`

	// Text payload (type == text).
	Text string `json:"text,omitempty"`

	// Table payload (type == table).
	Rows [][]string `json:"rows,omitempty"`

	// BBox is an optional bounding box [x, y, w, h] for provenance.
	BBox []float64 `json:"bbox,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ArtifactID builds the composite key for an artifact.
func ArtifactID(documentID string, page int, typ ArtifactType) string {
	return documentID + ":" + strconv.Itoa(page) + ":" + string(typ)
}
