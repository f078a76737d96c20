// -----------------------------------------------------------------------
// PDF Extraction Service - fetch a PDF by URL, extract per-page text
// (native layer or OCR fallback) and tables, score extraction quality
// -----------------------------------------------------------------------

package pdfextract

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/common"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// Service implements interfaces.PDFExtractService.
type Service struct {
	config     *common.ExtractionConfig
	downloader *downloader
	runner     Runner
	logger     arbor.ILogger
	tempDir    string
}

// Compile-time assertion
var _ interfaces.PDFExtractService = (*Service)(nil)

// NewService creates a new PDF extraction service.
func NewService(config *common.ExtractionConfig, logger arbor.ILogger) *Service {
	tempDir := config.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "confero-pdf")
	}
	os.MkdirAll(tempDir, 0755)

	client := &http.Client{Timeout: config.FetchTimeout}

	return &Service{
		config:     config,
		downloader: newDownloader(client, config.MaxPDFBytes, config.AllowHTTP, config.FetchRate),
		runner:     NewExecRunner(logger),
		logger:     logger,
		tempDir:    tempDir,
	}
}

// WithRunner swaps the external tool runner; tests use this to stub
// OCR and table tool invocations.
func (s *Service) WithRunner(r Runner) *Service {
	s.runner = r
	return s
}

// Extract fetches the PDF at req.PDFURL and runs the full extraction.
func (s *Service) Extract(ctx context.Context, req *interfaces.ExtractRequest) (*interfaces.ExtractResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	path, size, err := s.downloader.fetch(fetchCtx, req.PDFURL, s.tempDir)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	s.logger.Debug().
		Str("url", req.PDFURL).
		Int64("bytes", size).
		Msg("PDF downloaded")

	result, err := s.ExtractFile(ctx, path, req.Hints)
	if err != nil {
		return nil, err
	}
	result.Logs = append([]string{fmt.Sprintf("Fetched %d bytes", size)}, result.Logs...)
	return result, nil
}

// ExtractFile runs extraction over a local PDF file.
func (s *Service) ExtractFile(ctx context.Context, path string, hints *interfaces.ExtractHints) (*interfaces.ExtractResult, error) {
	var logs []string

	maxPages := s.config.MaxPages
	language := s.config.DefaultLanguage
	forceScanned := false
	if hints != nil {
		if hints.MaxPages > 0 {
			maxPages = hints.MaxPages
		}
		if hints.ExpectedLanguage != "" {
			language = hints.ExpectedLanguage
		}
		if hints.IsScanned != nil {
			forceScanned = *hints.IsScanned
		}
	}

	totalPages, err := s.pageCount(path)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeUnsupportedPDF, "failed to open PDF", err.Error())
	}
	if totalPages < 1 {
		return nil, models.NewExtractError(models.ErrCodeUnsupportedPDF, "PDF has no pages", path)
	}
	pages := totalPages
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}
	logs = append(logs, fmt.Sprintf("Document has %d pages, processing %d", totalPages, pages))

	// Decide native-text vs scanned from the first sampled pages unless
	// the caller already told us.
	native := false
	if !forceScanned {
		native, err = s.sampleIsNative(path, s.config.SampleTokenMin)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Text layer sampling failed, falling back to OCR")
			logs = append(logs, "Text layer unreadable, using OCR")
		}
	}

	var textBlocks []interfaces.ExtractTextBlock
	ocrUsed := false

	if native {
		pageTexts, err := s.nativePageTexts(path, pages)
		if err != nil {
			return nil, models.NewExtractError(models.ErrCodeInternal, "native text extraction failed", err.Error())
		}
		for page := 1; page <= pages; page++ {
			if text, ok := pageTexts[page]; ok {
				textBlocks = append(textBlocks, interfaces.ExtractTextBlock{Page: page, Text: text})
			}
		}
		logs = append(logs, fmt.Sprintf("Extracted native text from %d pages", len(textBlocks)))
	} else {
		ocrUsed = true
		ocrPages, err := s.runOCR(ctx, path, language, pages)
		if err != nil {
			return nil, err
		}
		for i, text := range ocrPages {
			// Pages below the noise threshold are dropped.
			if len(text) > 20 {
				textBlocks = append(textBlocks, interfaces.ExtractTextBlock{Page: i + 1, Text: text})
			}
		}
		logs = append(logs, fmt.Sprintf("OCR produced text for %d of %d pages", len(textBlocks), pages))
	}

	// Table extraction runs independently of the text path and degrades
	// gracefully: a failed table tool yields zero tables, not a failed job.
	tables, err := s.runTables(ctx, path, pages)
	if err != nil {
		ee := models.AsExtractError(err)
		if ee.Code == models.ErrCodeTimeout {
			logs = append(logs, "Table extraction timed out, continuing without tables")
		} else {
			logs = append(logs, fmt.Sprintf("Table extraction failed: %s", ee.Message))
		}
		s.logger.Warn().Err(err).Msg("Table extraction failed, continuing without tables")
		tables = nil
	} else {
		logs = append(logs, fmt.Sprintf("Found %d tables", len(tables)))
	}

	quality := extractionQuality(len(textBlocks), pages, len(tables) > 0)

	if tables == nil {
		tables = []interfaces.ExtractTable{}
	}
	if textBlocks == nil {
		textBlocks = []interfaces.ExtractTextBlock{}
	}

	return &interfaces.ExtractResult{
		Pages:             pages,
		OCRUsed:           ocrUsed,
		ExtractionQuality: quality,
		Tables:            tables,
		TextBlocks:        textBlocks,
		Logs:              logs,
	}, nil
}

// extractionQuality scores the run: text coverage dominates, any table
// presence adds a fixed bonus.
func extractionQuality(nonEmptyTextPages, totalPages int, hasTable bool) float64 {
	if totalPages <= 0 {
		return 0
	}
	q := 0.7 * float64(nonEmptyTextPages) / float64(totalPages)
	if hasTable {
		q += 0.3
	}
	return clamp01(q)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Summary renders a short log line for an extraction result.
func Summary(r *interfaces.ExtractResult) string {
	return fmt.Sprintf("pages=%d ocr=%t quality=%.2f tables=%d text_pages=%d",
		r.Pages, r.OCRUsed, r.ExtractionQuality, len(r.Tables), len(r.TextBlocks))
}
