package tesseract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textgraft/textgraft/pkg/ocrengine"
	"github.com/textgraft/textgraft/pkg/textlog"
)

func TestConfigErrorExtractsMissingParameter(t *testing.T) {
	out := "Tesseract Open Source OCR Engine\nError, parameter not found: textonly_pdf\n"
	assert.Equal(t, "textonly_pdf", configError(out))
}

func TestConfigErrorEmptyWhenNotPresent(t *testing.T) {
	assert.Equal(t, "", configError("Estimating resolution as 300\n"))
}

func TestPagePrefixStripsExtension(t *testing.T) {
	assert.Equal(t, "000003.raster", pagePrefix("/work/000003.raster.png"))
}

func TestBaseArgsJoinsLanguagesAndOEM(t *testing.T) {
	e := New("", "", nil)
	args := e.baseArgs(ocrengine.Request{Languages: []string{"eng", "deu"}, OEM: 1})
	assert.Equal(t, []string{"-l", "eng+deu", "--oem", "1"}, args)
}

func TestBaseArgsOmitsOEMWhenNegative(t *testing.T) {
	e := New("", "", nil)
	args := e.baseArgs(ocrengine.Request{OEM: -1})
	assert.Empty(t, args)
}

func TestNewDefaultsTesseractPathToPATHLookup(t *testing.T) {
	e := New("", "/work", nil)
	assert.Equal(t, "tesseract", e.TesseractPath)
}

func TestWriteBlankPDFWritesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.pdf")
	require.NoError(t, writeBlankPDF(path, 612, 792))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteSkippedSidecarWritesPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipped.txt")
	require.NoError(t, writeSkippedSidecar(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[skipped page]", string(data))
}

func TestWriteNullHOCRProducesPageSizedDocument(t *testing.T) {
	dir := t.TempDir()
	hocrPath := filepath.Join(dir, "null.hocr")
	sidecarPath := filepath.Join(dir, "null.txt")

	require.NoError(t, writeNullHOCR(hocrPath, sidecarPath, 612, 792))

	html, err := os.ReadFile(hocrPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "ocr_page")
	assert.Contains(t, string(html), "612")
	assert.Contains(t, string(html), "792")

	_, err = os.Stat(sidecarPath)
	require.NoError(t, err)
}

func TestLogOutputFiltersBannerAndBlankLines(t *testing.T) {
	var buf bytes.Buffer
	log := textlog.New(&buf, textlog.LevelDebug)
	e := &Engine{Log: log}

	e.logOutput([]byte("Tesseract Open Source OCR Engine v5\n\nWarning: bad value\nEstimating resolution\n"), "page.png")

	out := buf.String()
	assert.NotContains(t, out, "Tesseract Open Source")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "Warning: bad value")
	assert.Contains(t, out, "Estimating resolution")
	assert.True(t, log.HasWarnings())
}
