package models

import (
	"time"
)

// ResultColumn is one comparison column, carrying the profile's target unit
// and declared optimality direction.
type ResultColumn struct {
	FieldID   string    `json:"field_id"`
	Label     string    `json:"label"`
	Unit      string    `json:"unit,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// ResultCell is one value in the comparison matrix.
type ResultCell struct {
	Value      FieldValue `json:"value"`
	Unit       string     `json:"unit,omitempty"`
	Confidence float64    `json:"confidence"`
	Provenance string     `json:"provenance,omitempty"`
	Flags      []string   `json:"flags,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// ResultRow is one document's row in the comparison matrix.
type ResultRow struct {
	DocumentID string                `json:"document_id"`
	Filename   string                `json:"filename"`
	Cells      map[string]ResultCell `json:"cells"`
}

// HighlightKind marks a cell as the best or worst value in its column.
type HighlightKind string

const (
	HighlightBest  HighlightKind = "best"
	HighlightWorst HighlightKind = "worst"
)

// Highlight attaches a best/worst marker to a specific document's cell.
type Highlight struct {
	FieldID    string        `json:"field_id"`
	DocumentID string        `json:"document_id"`
	Kind       HighlightKind `json:"kind"`
	Value      float64       `json:"value"`
}

// Result is the final comparison artifact for a job: ordered columns, one
// row per document, and per-column best/worst highlights. Re-running a job
// overwrites its result.
type Result struct {
	JobID      string         `json:"job_id"`
	Domain     string         `json:"domain"`
	Columns    []ResultColumn `json:"columns"`
	Rows       []ResultRow    `json:"rows"`
	Highlights []Highlight    `json:"highlights"`
	BuiltAt    time.Time      `json:"built_at"`
}
