package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/pdf-ocr-service/internal/models"
)

// makePDF builds an in-memory PDF with one page per text entry.
func makePDF(t *testing.T, pageTexts ...string) []byte {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for _, text := range pageTexts {
		pdf.AddPage()
		pdf.MultiCell(0, 10, text, "", "", false)
	}

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestEngine_RenderSinglePage(t *testing.T) {
	engine := NewEngine()
	data := makePDF(t, "Hello world")

	pages, err := engine.Render(data, 150)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, 1, pages[0].Number)
	assert.NotEmpty(t, pages[0].PNG)

	// Output must be decodable PNG.
	img, err := png.Decode(bytes.NewReader(pages[0].PNG))
	require.NoError(t, err)
	assert.True(t, img.Bounds().Dx() > 0)
}

func TestEngine_RenderMultiPageOrder(t *testing.T) {
	engine := NewEngine()
	data := makePDF(t, "page one", "page two", "page three")

	pages, err := engine.Render(data, 96)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	// Page numbers are 1-based and contiguous in document order.
	for i, page := range pages {
		assert.Equal(t, i+1, page.Number)
		assert.NotEmpty(t, page.PNG)
	}
}

func TestEngine_RenderDefaultDPI(t *testing.T) {
	engine := NewEngine()
	data := makePDF(t, "default dpi")

	lowRes, err := engine.Render(data, 72)
	require.NoError(t, err)

	defRes, err := engine.Render(data, 0)
	require.NoError(t, err)

	lowImg, err := png.Decode(bytes.NewReader(lowRes[0].PNG))
	require.NoError(t, err)
	defImg, err := png.Decode(bytes.NewReader(defRes[0].PNG))
	require.NoError(t, err)

	// Zero DPI falls back to the default, which is higher than 72.
	assert.Greater(t, defImg.Bounds().Dx(), lowImg.Bounds().Dx())
}

func TestEngine_RenderInvalidInput(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("this is not a pdf at all")},
		{"truncated header", []byte("%PDF-1.7\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Render(tt.data, 150)
			require.Error(t, err)
			assert.True(t, models.IsDecodeError(err), "expected a decode error, got %v", err)
		})
	}
}

func TestEngine_PageCount(t *testing.T) {
	engine := NewEngine()

	data := makePDF(t, "a", "b")
	count, err := engine.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = engine.PageCount([]byte("junk"))
	require.Error(t, err)
	assert.True(t, models.IsDecodeError(err))
}
