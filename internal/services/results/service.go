// -----------------------------------------------------------------------
// Results builder - assembles the comparison matrix from normalized
// extractions and computes per-column best/worst highlights
// -----------------------------------------------------------------------

package results

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// Service implements interfaces.ResultsService.
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.ResultsService = (*Service)(nil)

func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Build produces the comparison result: one column per profile field, one
// row per document, and best/worst highlights for directional numeric
// columns. Missing (document, field) pairs are synthesized as null cells so
// the matrix is always dense.
func (s *Service) Build(ctx context.Context, job *models.Job, profile *models.DomainProfile, docs []*models.Document, norms []*models.NormalizedExtraction) (*models.Result, error) {
	columns := make([]models.ResultColumn, 0, len(profile.Fields))
	for _, field := range profile.Fields {
		unit := field.TargetUnit
		if unit == "" {
			unit = field.Unit
		}
		columns = append(columns, models.ResultColumn{
			FieldID:   field.ID,
			Label:     field.Label,
			Unit:      unit,
			Direction: field.Direction,
		})
	}

	// Index normalized extractions by (document, field).
	byKey := make(map[string]*models.NormalizedExtraction, len(norms))
	for _, n := range norms {
		byKey[n.DocumentID+":"+n.FieldID] = n
	}

	rows := make([]models.ResultRow, 0, len(docs))
	for _, doc := range docs {
		row := models.ResultRow{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Cells:      make(map[string]models.ResultCell, len(profile.Fields)),
		}
		for _, field := range profile.Fields {
			if n, ok := byKey[doc.ID+":"+field.ID]; ok {
				row.Cells[field.ID] = models.ResultCell{
					Value:      n.Value,
					Unit:       n.Unit,
					Confidence: n.Confidence,
					Provenance: n.Provenance,
					Flags:      n.Flags,
					Note:       n.Note,
				}
			} else {
				row.Cells[field.ID] = models.ResultCell{
					Value: models.NullValue(),
					Flags: []string{models.FlagMissing},
				}
			}
		}
		rows = append(rows, row)
	}

	highlights := s.computeHighlights(profile, rows)

	s.logger.Info().
		Str("job_id", job.ID).
		Int("columns", len(columns)).
		Int("rows", len(rows)).
		Int("highlights", len(highlights)).
		Msg("Comparison result built")

	return &models.Result{
		JobID:      job.ID,
		Domain:     job.Domain,
		Columns:    columns,
		Rows:       rows,
		Highlights: highlights,
		BuiltAt:    time.Now(),
	}, nil
}

// computeHighlights emits best/worst markers per directional numeric column.
// Columns with no declared direction, fewer than two comparable values, or a
// best==worst tie get no highlights.
func (s *Service) computeHighlights(profile *models.DomainProfile, rows []models.ResultRow) []models.Highlight {
	var highlights []models.Highlight

	for _, field := range profile.Fields {
		if field.Direction == models.DirectionNone || field.Type != models.FieldTypeNumber {
			continue
		}

		type scored struct {
			documentID string
			value      float64
		}
		var comparable []scored
		for _, row := range rows {
			cell, ok := row.Cells[field.ID]
			if !ok {
				continue
			}
			if v, ok := comparableValue(cell.Value); ok {
				comparable = append(comparable, scored{documentID: row.DocumentID, value: v})
			}
		}
		if len(comparable) < 2 {
			continue
		}

		best, worst := comparable[0], comparable[0]
		for _, c := range comparable[1:] {
			if better(c.value, best.value, field.Direction) {
				best = c
			}
			if better(worst.value, c.value, field.Direction) {
				worst = c
			}
		}

		// A tie means no document stands out; skip the column entirely.
		if best.value == worst.value {
			continue
		}

		highlights = append(highlights,
			models.Highlight{FieldID: field.ID, DocumentID: best.documentID, Kind: models.HighlightBest, Value: best.value},
			models.Highlight{FieldID: field.ID, DocumentID: worst.documentID, Kind: models.HighlightWorst, Value: worst.value},
		)
	}

	return highlights
}

// comparableValue reduces a field value to a single number for ranking.
// Ranges compare by their midpoint.
func comparableValue(v models.FieldValue) (float64, bool) {
	switch v.Kind {
	case models.ValueKindNumber:
		return v.Number, true
	case models.ValueKindRange:
		return (v.Min + v.Max) / 2, true
	}
	return 0, false
}

func better(a, b float64, dir models.Direction) bool {
	if dir == models.DirectionUp {
		return a > b
	}
	return a < b
}
