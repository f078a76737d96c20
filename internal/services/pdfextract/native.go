package pdfextract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	hyphenBreakRe = regexp.MustCompile(`(\w)-\n(\w)`)
	pageNumLineRe = regexp.MustCompile(`(?m)^\s*\d{1,4}\s*$`)
	whitespaceRe  = regexp.MustCompile(`[ \t]+`)
)

// pageCount opens the document and returns its page count.
func (s *Service) pageCount(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// nativePageTexts pulls the text layer of pages 1..maxPage using pdfcpu
// content extraction. Returned map is 1-indexed by page; pages with no text
// layer are absent.
func (s *Service) nativePageTexts(path string, maxPage int) (map[int]string, error) {
	outDir, err := os.MkdirTemp(s.tempDir, "pages_")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	var selected []string
	if maxPage > 0 {
		selected = []string{fmt.Sprintf("1-%d", maxPage)}
	}
	if err := api.ExtractContentFile(path, outDir, selected, conf); err != nil {
		return nil, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	pageTexts := make(map[int]string)
	entries, _ := os.ReadDir(outDir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(entry.Name(), "Content_page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(entry.Name(), "page_%d", &pageNum); err != nil {
				continue
			}
		}
		if text := cleanNativeText(string(content)); text != "" {
			pageTexts[pageNum] = text
		}
	}

	return pageTexts, nil
}

// sampleIsNative samples up to the first three pages' text layers and counts
// extractable tokens. Any sampled page above the threshold marks the
// document as native-text; otherwise it is treated as scanned.
func (s *Service) sampleIsNative(path string, tokenMin int) (bool, error) {
	texts, err := s.nativePageTexts(path, 3)
	if err != nil {
		// An unreadable text layer is not fatal; the OCR path still applies.
		return false, err
	}
	for _, text := range texts {
		if len(strings.Fields(text)) >= tokenMin {
			return true, nil
		}
	}
	return false, nil
}

// cleanNativeText joins text runs with normalized whitespace, rejoins words
// split by hyphenated line breaks and drops bare page-number lines.
func cleanNativeText(text string) string {
	if text == "" {
		return ""
	}
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	text = pageNumLineRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
