package ocr

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/pdf-ocr-service/internal/raster"
)

// newTesseractOrSkip skips the test when no usable Tesseract install
// (binary + trained data) is available on the machine.
func newTesseractOrSkip(t *testing.T) *TesseractEngine {
	t.Helper()

	engine, err := NewTesseractEngine()
	if err != nil {
		t.Skipf("tesseract not available: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func renderTextPage(t *testing.T, text string) []byte {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 32)
	pdf.Text(20, 40, text)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))

	pages, err := raster.NewEngine().Render(buf.Bytes(), 300)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	return pages[0].PNG
}

func TestTesseractEngine_RecognizesRenderedText(t *testing.T) {
	engine := newTesseractOrSkip(t)

	png := renderTextPage(t, "HELLO WORLD")

	text, err := engine.Recognize(context.Background(), Input{
		Image:    png,
		Language: "en",
		DPI:      300,
	})
	require.NoError(t, err)

	// OCR output is fuzzy; require the words, not an exact match.
	upper := strings.ToUpper(text)
	assert.Contains(t, upper, "HELLO")
	assert.Contains(t, upper, "WORLD")
}

func TestTesseractEngine_CancelledContext(t *testing.T) {
	engine := newTesseractOrSkip(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recognize(ctx, Input{Image: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}
