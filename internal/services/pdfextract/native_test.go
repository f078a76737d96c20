package pdfextract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/confero/internal/interfaces"
)

// writeFixturePDF generates a small native-text PDF on disk.
func writeFixturePDF(t *testing.T, lines ...string) string {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		doc.AddPage()
		doc.Cell(0, 10, line)
	}
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))
	return path
}

func TestPageCount(t *testing.T) {
	path := writeFixturePDF(t, "page one text", "page two text", "page three text")
	service := stubService(&stubRunner{})

	count, err := service.pageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPageCountRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-pdf.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0644))
	service := stubService(&stubRunner{})

	_, err := service.pageCount(path)
	assert.Error(t, err)
}

func TestNativePageTexts(t *testing.T) {
	path := writeFixturePDF(t, "Supply Voltage 3.3 V", "Operating Temperature Range")
	service := stubService(&stubRunner{})

	texts, err := service.nativePageTexts(path, 0)
	require.NoError(t, err)

	require.Contains(t, texts, 1)
	require.Contains(t, texts, 2)
	assert.Contains(t, texts[1], "Supply Voltage 3.3 V")
	assert.Contains(t, texts[2], "Operating Temperature Range")
}

func TestSampleIsNative(t *testing.T) {
	path := writeFixturePDF(t, "enough words here to clear the sampling threshold easily")
	service := stubService(&stubRunner{})

	native, err := service.sampleIsNative(path, 5)
	require.NoError(t, err)
	assert.True(t, native)
}

func TestExtractFileNativePath(t *testing.T) {
	path := writeFixturePDF(t,
		"Microcontroller datasheet with supply voltage and clock details",
		"Second page with operating temperature specification table",
	)
	// Table tool reports no tables.
	runner := &stubRunner{stdout: map[string][]byte{"tabula": []byte(`[]`)}}
	service := stubService(runner)

	res, err := service.ExtractFile(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Pages)
	assert.False(t, res.OCRUsed)
	assert.NotNil(t, res.Tables)
	assert.Empty(t, res.Tables)
	require.NotEmpty(t, res.TextBlocks)

	var all strings.Builder
	for _, block := range res.TextBlocks {
		all.WriteString(block.Text)
	}
	assert.Contains(t, all.String(), "Microcontroller")

	// Text on every page, no tables.
	assert.InDelta(t, 0.7, res.ExtractionQuality, 0.0001)

	// Only the table tool ran; no OCR invocation on the native path.
	assert.Equal(t, []string{"tabula"}, runner.calls)
}

func TestExtractFileForcedScanned(t *testing.T) {
	path := writeFixturePDF(t, "native text that the caller says to ignore")
	scanned := true
	runner := &stubRunner{stdout: map[string][]byte{
		"tesseract": []byte("recognized text from the scanned page image"),
		"tabula":    []byte(`[]`),
	}}
	service := stubService(runner)

	res, err := service.ExtractFile(context.Background(), path, &interfaces.ExtractHints{IsScanned: &scanned})
	require.NoError(t, err)

	assert.True(t, res.OCRUsed)
	require.Len(t, res.TextBlocks, 1)
	assert.Contains(t, res.TextBlocks[0].Text, "recognized text")
	assert.Contains(t, runner.calls, "tesseract")
}
