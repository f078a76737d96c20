package pdfextract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// tabulaTable mirrors the JSON emitted by the external table tool.
type tabulaTable struct {
	Page int       `json:"page"`
	Top  float64   `json:"top"`
	Left float64   `json:"left"`
	W    float64   `json:"width"`
	H    float64   `json:"height"`
	Data [][]struct {
		Text string `json:"text"`
	} `json:"data"`
}

// runTables invokes the external table-extraction tool over the page range
// and parses its JSON output. Failures here never fail the extraction: the
// caller degrades to an empty table list.
func (s *Service) runTables(ctx context.Context, path string, maxPages int) ([]interfaces.ExtractTable, error) {
	pageRange := "all"
	if maxPages > 0 {
		pageRange = fmt.Sprintf("1-%d", maxPages)
	}

	args := []string{"-p", pageRange, "-f", "JSON", path}
	out, stderr, err := s.runner.Run(ctx, s.config.TableTimeout, s.config.TableBinary, args...)
	if err != nil {
		if err == ErrToolTimeout {
			return nil, models.NewExtractError(models.ErrCodeTimeout, "table extraction timed out", s.config.TableBinary)
		}
		return nil, models.NewExtractError(models.ErrCodeTableExtractionFailed, "table tool failed", truncate(string(stderr), 1024))
	}

	var parsed []tabulaTable
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, models.NewExtractError(models.ErrCodeTableExtractionFailed, "failed to parse table tool output", err.Error())
	}

	var tables []interfaces.ExtractTable
	for _, t := range parsed {
		rows := make([][]string, 0, len(t.Data))
		for _, row := range t.Data {
			cells := make([]string, 0, len(row))
			empty := true
			for _, cell := range row {
				if cell.Text != "" {
					empty = false
				}
				cells = append(cells, cell.Text)
			}
			if !empty {
				rows = append(rows, cells)
			}
		}
		// Discard empty tables.
		if len(rows) == 0 {
			continue
		}
		tables = append(tables, interfaces.ExtractTable{
			Page: t.Page,
			Rows: rows,
			BBox: []float64{t.Left, t.Top, t.W, t.H},
		})
	}

	return tables, nil
}
