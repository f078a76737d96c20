// -----------------------------------------------------------------------
// Rule extractor - synonym and pattern scan over a document's text and
// table artifacts, producing one raw extraction per field
// -----------------------------------------------------------------------

package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

const (
	// Confidence by match location. Table cells are the most reliable
	// evidence, prose matches less so, the sentinel barely at all.
	confidenceTable    = 0.9
	confidenceText     = 0.7
	confidenceSentinel = 0.05

	MethodRule  = "rule"
	MethodModel = "model"
	MethodNone  = "none"
)

// numberPattern matches a value like "3.3 V", "-40 to +85 °C" or "1,200 MPa"
// following a synonym match.
var numberPattern = regexp.MustCompile(`([+-]?\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)(?:\s*(?:to|~|\.\.)\s*([+-]?\d+(?:\.\d+)?))?\s*([a-zA-Z°Ωµ%/]+)?`)

// textValuePattern captures a short free-text value after a synonym and an
// optional separator.
var textValuePattern = regexp.MustCompile(`^\s*[:=\-]?\s*([A-Za-z0-9][A-Za-z0-9 ./+\-]{0,40})`)

// RuleExtractor implements interfaces.FieldExtractor with deterministic
// synonym and regex scanning.
type RuleExtractor struct {
	logger arbor.ILogger
}

var _ interfaces.FieldExtractor = (*RuleExtractor)(nil)

func NewRuleExtractor(logger arbor.ILogger) *RuleExtractor {
	return &RuleExtractor{logger: logger}
}

func (e *RuleExtractor) Method() string { return MethodRule }

// Extract scans table artifacts first (higher confidence), then text
// artifacts. When nothing matches it emits the low-confidence sentinel so
// every (document, field) pair is represented downstream.
func (e *RuleExtractor) Extract(ctx context.Context, doc *models.Document, artifacts []*models.Artifact, field *models.FieldSpec) (*models.RawExtraction, error) {
	var candidates []models.Candidate
	var best *models.RawExtraction

	for _, artifact := range artifacts {
		if artifact.Type != models.ArtifactTypeTable {
			continue
		}
		if raw, ok := e.scanTable(doc, artifact, field); ok {
			if best == nil || raw.Confidence > best.Confidence {
				if best != nil {
					candidates = append(candidates, asCandidate(best))
				}
				best = raw
			} else {
				candidates = append(candidates, asCandidate(raw))
			}
		}
	}

	for _, artifact := range artifacts {
		if artifact.Type != models.ArtifactTypeText {
			continue
		}
		if raw, ok := e.scanText(doc, artifact, field); ok {
			if best == nil || raw.Confidence > best.Confidence {
				if best != nil {
					candidates = append(candidates, asCandidate(best))
				}
				best = raw
			} else {
				candidates = append(candidates, asCandidate(raw))
			}
		}
	}

	if best == nil {
		return Sentinel(doc, field), nil
	}
	best.Candidates = candidates
	return best, nil
}

// Sentinel is the raw extraction recorded when no evidence was found for a
// field. Downstream stages rely on its presence to synthesize missing cells.
func Sentinel(doc *models.Document, field *models.FieldSpec) *models.RawExtraction {
	return &models.RawExtraction{
		ID:         models.RawExtractionID(doc.ID, field.ID),
		JobID:      doc.JobID,
		DocumentID: doc.ID,
		FieldID:    field.ID,
		Value:      "",
		Confidence: confidenceSentinel,
		Provenance: models.Provenance{Page: 0, Method: MethodNone},
		CreatedAt:  time.Now(),
	}
}

// scanTable looks for a row whose label cell matches a synonym and takes the
// adjacent cell as the value.
func (e *RuleExtractor) scanTable(doc *models.Document, artifact *models.Artifact, field *models.FieldSpec) (*models.RawExtraction, bool) {
	for _, row := range artifact.Rows {
		for i, cell := range row {
			if !matchesSynonym(cell, field) {
				continue
			}
			if i+1 >= len(row) || strings.TrimSpace(row[i+1]) == "" {
				continue
			}
			value, unit := parseCell(strings.TrimSpace(row[i+1]), field)
			if value == "" {
				continue
			}
			return &models.RawExtraction{
				ID:         models.RawExtractionID(doc.ID, field.ID),
				JobID:      doc.JobID,
				DocumentID: doc.ID,
				FieldID:    field.ID,
				Value:      value,
				Unit:       unit,
				Confidence: confidenceTable,
				Provenance: models.Provenance{Page: artifact.Page, BBox: artifact.BBox, Method: MethodRule},
				CreatedAt:  time.Now(),
			}, true
		}
	}
	return nil, false
}

// scanText looks for a synonym in the page text and parses the value that
// follows it.
func (e *RuleExtractor) scanText(doc *models.Document, artifact *models.Artifact, field *models.FieldSpec) (*models.RawExtraction, bool) {
	lower := strings.ToLower(artifact.Text)
	for _, syn := range synonymsOf(field) {
		idx := strings.Index(lower, syn)
		if idx < 0 {
			continue
		}
		tail := artifact.Text[idx+len(syn):]
		if len(tail) > 80 {
			tail = tail[:80]
		}
		value, unit := parseTail(tail, field)
		if value == "" {
			continue
		}
		return &models.RawExtraction{
			ID:         models.RawExtractionID(doc.ID, field.ID),
			JobID:      doc.JobID,
			DocumentID: doc.ID,
			FieldID:    field.ID,
			Value:      value,
			Unit:       unit,
			Confidence: confidenceText,
			Provenance: models.Provenance{Page: artifact.Page, Method: MethodRule},
			CreatedAt:  time.Now(),
		}, true
	}
	return nil, false
}

func synonymsOf(field *models.FieldSpec) []string {
	if len(field.Synonyms) > 0 {
		return field.Synonyms
	}
	return []string{strings.ReplaceAll(field.ID, "_", " ")}
}

func matchesSynonym(cell string, field *models.FieldSpec) bool {
	lower := strings.ToLower(cell)
	for _, syn := range synonymsOf(field) {
		if strings.Contains(lower, syn) {
			return true
		}
	}
	return false
}

// parseTail extracts a typed value from the text following a synonym match.
func parseTail(tail string, field *models.FieldSpec) (string, string) {
	switch field.Type {
	case models.FieldTypeNumber:
		m := numberPattern.FindStringSubmatch(tail)
		if m == nil {
			return "", ""
		}
		value := strings.ReplaceAll(m[1], ",", "")
		if m[2] != "" {
			value = fmt.Sprintf("%s to %s", value, m[2])
		}
		return value, m[3]
	case models.FieldTypeBoolean:
		// Synonym presence alone asserts the property unless the next word
		// explicitly negates it.
		words := strings.Fields(strings.ToLower(tail))
		if len(words) > 0 {
			switch strings.Trim(words[0], ":=") {
			case "no", "not", "none", "non-compliant":
				return "false", ""
			}
		}
		return "true", ""
	default:
		m := textValuePattern.FindStringSubmatch(tail)
		if m == nil {
			return "", ""
		}
		return strings.TrimSpace(m[1]), ""
	}
}

// parseCell extracts a typed value from a table cell.
func parseCell(cell string, field *models.FieldSpec) (string, string) {
	switch field.Type {
	case models.FieldTypeNumber:
		m := numberPattern.FindStringSubmatch(cell)
		if m == nil {
			return "", ""
		}
		value := strings.ReplaceAll(m[1], ",", "")
		if m[2] != "" {
			value = fmt.Sprintf("%s to %s", value, m[2])
		}
		return value, m[3]
	case models.FieldTypeBoolean:
		lower := strings.ToLower(cell)
		switch {
		case strings.Contains(lower, "yes") || strings.Contains(lower, "true") || strings.Contains(lower, "compliant"):
			return "true", ""
		case strings.Contains(lower, "no") || strings.Contains(lower, "false"):
			return "false", ""
		}
		return "", ""
	default:
		return cell, ""
	}
}

func asCandidate(raw *models.RawExtraction) models.Candidate {
	return models.Candidate{
		Value:      raw.Value,
		Unit:       raw.Unit,
		Confidence: raw.Confidence,
	}
}
