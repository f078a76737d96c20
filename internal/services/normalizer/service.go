// -----------------------------------------------------------------------
// Normalizer - maps raw extractions to canonical typed values: target
// units applied, ranges parsed, bounds checked and flagged
// -----------------------------------------------------------------------

package normalizer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// outOfBoundsConfidenceCap limits how much trust an out-of-bounds value can
// carry into the results table.
const outOfBoundsConfidenceCap = 0.5

// rangePattern matches "<min> to <max>" raw values.
var rangePattern = regexp.MustCompile(`^\s*([+-]?\d+(?:\.\d+)?)\s*to\s*([+-]?\d+(?:\.\d+)?)\s*$`)

// plusMinusPattern matches "<center> ±<delta>" raw values.
var plusMinusPattern = regexp.MustCompile(`^\s*([+-]?\d+(?:\.\d+)?)\s*(?:±|\+/-)\s*(\d+(?:\.\d+)?)\s*$`)

// Service implements interfaces.NormalizerService. Normalization is a pure
// function of (raw, field): re-running it over the same inputs produces the
// same output, which makes stage retries safe.
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.NormalizerService = (*Service)(nil)

func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

func (s *Service) Normalize(ctx context.Context, raw *models.RawExtraction, field *models.FieldSpec) (*models.NormalizedExtraction, error) {
	norm := &models.NormalizedExtraction{
		ID:         raw.ID,
		RawID:      raw.ID,
		JobID:      raw.JobID,
		DocumentID: raw.DocumentID,
		FieldID:    raw.FieldID,
		Provenance: models.FormatProvenance(raw.DocumentID, raw.Provenance.Page, raw.Provenance.Method),
		Confidence: raw.Confidence,
		CreatedAt:  time.Now(),
	}

	if strings.TrimSpace(raw.Value) == "" {
		norm.Value = models.NullValue()
		norm.Flags = []string{models.FlagMissing}
		return norm, nil
	}

	switch field.Type {
	case models.FieldTypeNumber:
		s.normalizeNumber(raw, field, norm)
	case models.FieldTypeBoolean:
		s.normalizeBoolean(raw, norm)
	default:
		norm.Value = models.TextValue(strings.TrimSpace(raw.Value))
		norm.Unit = raw.Unit
	}

	return norm, nil
}

func (s *Service) normalizeNumber(raw *models.RawExtraction, field *models.FieldSpec, norm *models.NormalizedExtraction) {
	targetUnit := field.TargetUnit
	if targetUnit == "" {
		targetUnit = field.Unit
	}

	if r, ok := parseRange(raw.Value); ok {
		lo, loOK := convertValue(r.min, raw.Unit, targetUnit)
		hi, hiOK := convertValue(r.max, raw.Unit, targetUnit)
		if !loOK || !hiOK {
			// Unknown source unit: pass the raw text through untyped.
			norm.Value = models.TextValue(strings.TrimSpace(raw.Value))
			norm.Unit = raw.Unit
			return
		}
		norm.Value = models.RangeValue(lo, hi)
		norm.Unit = targetUnit
		// The note carries the bounds as written in the source document, so
		// a "+85" keeps its sign.
		norm.Note = fmt.Sprintf("Range: %s to %s", r.minText, r.maxText)
		s.applyBounds(field, norm, lo)
		s.applyBounds(field, norm, hi)
		return
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(raw.Value), 64)
	if err != nil {
		norm.Value = models.TextValue(strings.TrimSpace(raw.Value))
		norm.Unit = raw.Unit
		return
	}

	converted, ok := convertValue(n, raw.Unit, targetUnit)
	if !ok {
		norm.Value = models.TextValue(strings.TrimSpace(raw.Value))
		norm.Unit = raw.Unit
		return
	}

	norm.Value = models.NumberValue(converted)
	norm.Unit = targetUnit
	s.applyBounds(field, norm, converted)
}

func (s *Service) normalizeBoolean(raw *models.RawExtraction, norm *models.NormalizedExtraction) {
	switch strings.ToLower(strings.TrimSpace(raw.Value)) {
	case "true", "yes", "1":
		norm.Value = models.BoolValue(true)
	case "false", "no", "0":
		norm.Value = models.BoolValue(false)
	default:
		norm.Value = models.TextValue(strings.TrimSpace(raw.Value))
	}
}

// applyBounds flags the value against the field's validation bands and caps
// confidence when the value is outside the absolute bounds.
func (s *Service) applyBounds(field *models.FieldSpec, norm *models.NormalizedExtraction, v float64) {
	if field.Bounds != nil && !field.Bounds.Contains(v) {
		addFlag(norm, models.FlagOutOfBounds)
		if norm.Confidence > outOfBoundsConfidenceCap {
			norm.Confidence = outOfBoundsConfidenceCap
		}
		return
	}
	if field.ReviewBounds != nil && !field.ReviewBounds.Contains(v) {
		addFlag(norm, models.FlagNeedsReview)
	}
}

func addFlag(norm *models.NormalizedExtraction, flag string) {
	if !norm.HasFlag(flag) {
		norm.Flags = append(norm.Flags, flag)
	}
}

// convertValue converts between units, treating a missing source unit as
// already being in the target unit.
func convertValue(v float64, from, to string) (float64, bool) {
	if from == "" || to == "" {
		return v, true
	}
	return convert(v, from, to)
}

// parsedRange holds a range's parsed bounds alongside the bound text as it
// appeared in the raw value.
type parsedRange struct {
	min, max         float64
	minText, maxText string
}

func parseRange(value string) (parsedRange, bool) {
	if m := rangePattern.FindStringSubmatch(value); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return parsedRange{min: lo, max: hi, minText: m[1], maxText: m[2]}, true
		}
	}
	if m := plusMinusPattern.FindStringSubmatch(value); m != nil {
		center, err1 := strconv.ParseFloat(m[1], 64)
		delta, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			lo, hi := center-delta, center+delta
			return parsedRange{min: lo, max: hi, minText: formatNumber(lo), maxText: formatNumber(hi)}, true
		}
	}
	return parsedRange{}, false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
