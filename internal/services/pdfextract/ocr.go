package pdfextract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/confero/internal/models"
)

// runOCR invokes the external OCR engine once over the whole file and splits
// the combined output on form-feed characters to recover per-page text.
// The engine is a single pass, not per-page; tesseract separates pages in
// its stdout with \f.
func (s *Service) runOCR(ctx context.Context, path, language string, maxPages int) ([]string, error) {
	if language == "" {
		language = s.config.DefaultLanguage
	}

	args := []string{path, "stdout", "-l", language, "--psm", "6"}
	out, stderr, err := s.runner.Run(ctx, s.config.OCRTimeout, s.config.OCRBinary, args...)
	if err != nil {
		if err == ErrToolTimeout {
			return nil, models.NewExtractError(models.ErrCodeTimeout, "OCR engine timed out", s.config.OCRBinary)
		}
		return nil, models.NewExtractError(models.ErrCodeOCRFailed, "OCR engine failed", truncate(string(stderr), 1024))
	}

	pages := strings.Split(string(out), "\f")
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}

	cleaned := make([]string, len(pages))
	for i, page := range pages {
		cleaned[i] = cleanOCRText(page, s.config.PageTextLimit)
	}
	return cleaned, nil
}

// cleanOCRText collapses whitespace, drops isolated single characters that
// are OCR noise (digits are kept) and caps the per-page length.
func cleanOCRText(text string, limit int) string {
	words := strings.Fields(text)
	filtered := words[:0]
	for _, word := range words {
		if len(word) > 1 || (len(word) == 1 && word[0] >= '0' && word[0] <= '9') {
			filtered = append(filtered, word)
		}
	}
	cleaned := strings.Join(filtered, " ")
	if limit > 0 && len(cleaned) > limit {
		// Back off to a rune boundary so the cap never splits a multibyte
		// character in half.
		cut := limit
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
	}
	return cleaned
}
