package models

import (
	"strconv"
	"time"
)

// FieldType is the declared type of a profile field.
type FieldType string

const (
	FieldTypeNumber  FieldType = "number"
	FieldTypeText    FieldType = "text"
	FieldTypeBoolean FieldType = "boolean"
)

// Direction is the optimality direction of a comparison column. Directions
// are hand-curated per field, never inferred.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionNone Direction = ""
)

// Bounds is a [min, max] validation band for numeric fields.
type Bounds struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

// Contains reports whether v lies inside the band (inclusive).
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// FieldSpec describes one comparable field in a domain profile.
type FieldSpec struct {
	ID       string    `json:"id" toml:"id"`
	Label    string    `json:"label" toml:"label"`
	Type     FieldType `json:"type" toml:"type"`
	Required bool      `json:"required" toml:"required"`
	// Unit is the display unit; TargetUnit is what the normalizer converts to.
	Unit       string   `json:"unit,omitempty" toml:"unit"`
	TargetUnit string   `json:"target_unit,omitempty" toml:"target_unit"`
	Synonyms   []string `json:"synonyms,omitempty" toml:"synonyms"`
	// Bounds are absolute validation bounds; ReviewBounds is an optional
	// narrower plausibility band that triggers needs_review.
	Bounds       *Bounds   `json:"bounds,omitempty" toml:"bounds"`
	ReviewBounds *Bounds   `json:"review_bounds,omitempty" toml:"review_bounds"`
	Direction    Direction `json:"direction,omitempty" toml:"direction"`
	// Method selects the extractor variant for this field: "rule" (default)
	// or "model".
	Method string `json:"method,omitempty" toml:"method"`
}

// DomainProfile is a versioned schema of comparable fields for a document
// class. Profiles are read-only at pipeline runtime and provisioned lazily
// with an idempotent insert keyed on (domain, version).
type DomainProfile struct {
	Domain    string      `json:"domain" toml:"domain"`
	Version   int         `json:"version" toml:"version"`
	Label     string      `json:"label,omitempty" toml:"label"`
	Fields    []FieldSpec `json:"fields" toml:"fields"`
	CreatedAt time.Time   `json:"created_at" toml:"-"`
}

// Key returns the storage key for the profile.
func (p *DomainProfile) Key() string {
	return ProfileKey(p.Domain, p.Version)
}

// ProfileKey builds the composite (domain, version) storage key.
func ProfileKey(domain string, version int) string {
	return domain + ":" + strconv.Itoa(version)
}

// Field returns the field spec with the given id, or nil.
func (p *DomainProfile) Field(id string) *FieldSpec {
	for i := range p.Fields {
		if p.Fields[i].ID == id {
			return &p.Fields[i]
		}
	}
	return nil
}
