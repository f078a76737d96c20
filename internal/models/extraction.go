package models

import (
	"fmt"
	"time"
)

// Provenance points a value back to its source page, region and method.
type Provenance struct {
	Page   int       `json:"page"`
	BBox   []float64 `json:"bbox,omitempty"`
	Method string    `json:"method"` // rule, model, none
}

// Candidate is an alternative value considered but not chosen by an extractor.
type Candidate struct {
	Value      string  `json:"value"`
	Unit       string  `json:"unit,omitempty"`
	Confidence float64 `json:"confidence"`
}

// RawExtraction holds the as-extracted value for one (document, field) pair.
// Exactly one raw extraction is produced per field per document per run,
// including a low-confidence sentinel when no evidence was found.
type RawExtraction struct {
	ID         string      `json:"id"`
	JobID      string      `json:"job_id"`
	DocumentID string      `json:"document_id"`
	FieldID    string      `json:"field_id"`
	Value      string      `json:"value"`
	Unit       string      `json:"unit,omitempty"`
	Confidence float64     `json:"confidence"`
	Provenance Provenance  `json:"provenance"`
	Candidates []Candidate `json:"candidates,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// RawExtractionID builds the composite key for a raw extraction.
func RawExtractionID(documentID, fieldID string) string {
	return documentID + ":" + fieldID
}

// ValueKind tags the canonical type of a normalized value.
type ValueKind string

const (
	ValueKindText    ValueKind = "text"
	ValueKindNumber  ValueKind = "number"
	ValueKindBoolean ValueKind = "boolean"
	ValueKindRange   ValueKind = "range"
	ValueKindNull    ValueKind = "null"
)

// FieldValue is the canonical value of a normalized extraction. Exactly one
// of the payload fields is meaningful, selected by Kind.
type FieldValue struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
	Bool   bool      `json:"bool,omitempty"`
	Min    float64   `json:"min,omitempty"`
	Max    float64   `json:"max,omitempty"`
}

// TextValue builds a text field value.
func TextValue(s string) FieldValue { return FieldValue{Kind: ValueKindText, Text: s} }

// NumberValue builds a numeric field value.
func NumberValue(n float64) FieldValue { return FieldValue{Kind: ValueKindNumber, Number: n} }

// BoolValue builds a boolean field value.
func BoolValue(b bool) FieldValue { return FieldValue{Kind: ValueKindBoolean, Bool: b} }

// RangeValue builds a {min, max} field value.
func RangeValue(min, max float64) FieldValue {
	return FieldValue{Kind: ValueKindRange, Min: min, Max: max}
}

// NullValue builds the null field value used for missing cells.
func NullValue() FieldValue { return FieldValue{Kind: ValueKindNull} }

// Normalization flags attached by the normalizer.
const (
	FlagNeedsReview = "needs_review"
	FlagOutOfBounds = "out_of_bounds"
	FlagMissing     = "missing"
)

// NormalizedExtraction is the canonical form of a raw extraction: target
// unit applied, typed value, bounds flags and adjusted confidence.
// Logically one-to-one with its raw extraction.
type NormalizedExtraction struct {
	ID         string     `json:"id"`
	RawID      string     `json:"raw_id"`
	JobID      string     `json:"job_id"`
	DocumentID string     `json:"document_id"`
	FieldID    string     `json:"field_id"`
	Value      FieldValue `json:"value"`
	Unit       string     `json:"unit,omitempty"`
	Flags      []string   `json:"flags,omitempty"`
	Note       string     `json:"note,omitempty"`
	// Provenance is rendered as "<documentId>:<page>:<method>" so a result
	// cell can be linked back to its source location.
	Provenance string    `json:"provenance"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasFlag reports whether the extraction carries the given flag.
func (n *NormalizedExtraction) HasFlag(flag string) bool {
	for _, f := range n.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// FormatProvenance renders the provenance reference string for a cell.
func FormatProvenance(documentID string, page int, method string) string {
	return fmt.Sprintf("%s:%d:%s", documentID, page, method)
}
