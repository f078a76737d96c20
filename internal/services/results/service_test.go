package results

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/models"
)

func testProfile(direction models.Direction) *models.DomainProfile {
	return &models.DomainProfile{
		Domain:  "semiconductors",
		Version: 1,
		Fields: []models.FieldSpec{
			{ID: "voltage_supply", Label: "Supply Voltage", Type: models.FieldTypeNumber, TargetUnit: "V", Direction: direction},
			{ID: "package_type", Label: "Package", Type: models.FieldTypeText},
		},
	}
}

func testDocs() []*models.Document {
	return []*models.Document{
		{ID: "doc_a", JobID: "job_1", Filename: "vendor-a.pdf"},
		{ID: "doc_b", JobID: "job_1", Filename: "vendor-b.pdf"},
	}
}

func norm(docID, fieldID string, value models.FieldValue, confidence float64) *models.NormalizedExtraction {
	return &models.NormalizedExtraction{
		ID:         models.RawExtractionID(docID, fieldID),
		JobID:      "job_1",
		DocumentID: docID,
		FieldID:    fieldID,
		Value:      value,
		Confidence: confidence,
		Provenance: docID + ":1:rule",
	}
}

func TestBuildMatrixShape(t *testing.T) {
	service := NewService(arbor.NewLogger())
	job := &models.Job{ID: "job_1", Domain: "semiconductors"}
	profile := testProfile(models.DirectionNone)
	docs := testDocs()
	norms := []*models.NormalizedExtraction{
		norm("doc_a", "voltage_supply", models.NumberValue(3.3), 0.9),
		norm("doc_a", "package_type", models.TextValue("QFN-32"), 0.7),
		norm("doc_b", "voltage_supply", models.NumberValue(5.0), 0.9),
	}

	result, err := service.Build(context.Background(), job, profile, docs, norms)
	require.NoError(t, err)

	assert.Equal(t, "job_1", result.JobID)
	assert.Len(t, result.Columns, 2)
	assert.Len(t, result.Rows, 2)

	// Every row has a cell for every column, even without an extraction.
	for _, row := range result.Rows {
		assert.Len(t, row.Cells, 2)
	}

	// doc_b has no package_type extraction: synthesized missing cell.
	cell := result.Rows[1].Cells["package_type"]
	assert.Equal(t, models.ValueKindNull, cell.Value.Kind)
	assert.Equal(t, 0.0, cell.Confidence)
	assert.Contains(t, cell.Flags, models.FlagMissing)
}

func TestNoHighlightsWithoutDirection(t *testing.T) {
	service := NewService(arbor.NewLogger())
	job := &models.Job{ID: "job_1", Domain: "semiconductors"}
	profile := testProfile(models.DirectionNone)
	norms := []*models.NormalizedExtraction{
		norm("doc_a", "voltage_supply", models.NumberValue(3.3), 0.9),
		norm("doc_b", "voltage_supply", models.NumberValue(5.0), 0.9),
	}

	result, err := service.Build(context.Background(), job, profile, testDocs(), norms)
	require.NoError(t, err)

	// Both cells present, zero highlights for the undirected column.
	assert.Len(t, result.Rows, 2)
	assert.Empty(t, result.Highlights)
}

func TestHighlightsBestAndWorst(t *testing.T) {
	service := NewService(arbor.NewLogger())
	job := &models.Job{ID: "job_1", Domain: "semiconductors"}
	profile := testProfile(models.DirectionDown)
	norms := []*models.NormalizedExtraction{
		norm("doc_a", "voltage_supply", models.NumberValue(3.3), 0.9),
		norm("doc_b", "voltage_supply", models.NumberValue(5.0), 0.9),
	}

	result, err := service.Build(context.Background(), job, profile, testDocs(), norms)
	require.NoError(t, err)
	require.Len(t, result.Highlights, 2)

	byKind := make(map[models.HighlightKind]models.Highlight)
	for _, h := range result.Highlights {
		byKind[h.Kind] = h
	}
	// Direction down: the lower voltage wins.
	assert.Equal(t, "doc_a", byKind[models.HighlightBest].DocumentID)
	assert.Equal(t, "doc_b", byKind[models.HighlightWorst].DocumentID)
}

func TestHighlightTieSkipsColumn(t *testing.T) {
	service := NewService(arbor.NewLogger())
	job := &models.Job{ID: "job_1", Domain: "semiconductors"}
	profile := testProfile(models.DirectionUp)
	norms := []*models.NormalizedExtraction{
		norm("doc_a", "voltage_supply", models.NumberValue(5.0), 0.9),
		norm("doc_b", "voltage_supply", models.NumberValue(5.0), 0.9),
	}

	result, err := service.Build(context.Background(), job, profile, testDocs(), norms)
	require.NoError(t, err)
	assert.Empty(t, result.Highlights)
}

func TestHighlightsNeedTwoComparableValues(t *testing.T) {
	service := NewService(arbor.NewLogger())
	job := &models.Job{ID: "job_1", Domain: "semiconductors"}
	profile := testProfile(models.DirectionUp)

	// Only one numeric value; the other document's cell is missing.
	norms := []*models.NormalizedExtraction{
		norm("doc_a", "voltage_supply", models.NumberValue(5.0), 0.9),
	}

	result, err := service.Build(context.Background(), job, profile, testDocs(), norms)
	require.NoError(t, err)
	assert.Empty(t, result.Highlights)
}

func TestRangeValuesCompareByMidpoint(t *testing.T) {
	service := NewService(arbor.NewLogger())
	job := &models.Job{ID: "job_1", Domain: "semiconductors"}
	profile := testProfile(models.DirectionUp)
	norms := []*models.NormalizedExtraction{
		norm("doc_a", "voltage_supply", models.RangeValue(1, 3), 0.9),  // midpoint 2
		norm("doc_b", "voltage_supply", models.RangeValue(4, 10), 0.9), // midpoint 7
	}

	result, err := service.Build(context.Background(), job, profile, testDocs(), norms)
	require.NoError(t, err)
	require.Len(t, result.Highlights, 2)

	for _, h := range result.Highlights {
		if h.Kind == models.HighlightBest {
			assert.Equal(t, "doc_b", h.DocumentID)
		}
	}
}
