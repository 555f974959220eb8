package raster

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/fyerfyer/pdf-ocr-service/internal/models"
)

// DefaultDPI is the rasterization resolution used when none is given.
const DefaultDPI = 300

// PageImage is one rendered page. Number is 1-based document order.
type PageImage struct {
	Number int
	PNG    []byte
}

// Engine renders PDF bytes into an ordered sequence of page images.
// It holds no state; every call is independent.
type Engine struct {
	conf *model.Configuration
}

// NewEngine creates a raster engine with pdfcpu's default configuration.
func NewEngine() *Engine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Engine{conf: conf}
}

// Render validates the PDF and rasterizes every page at the given DPI,
// in document order. It returns a DecodeError if the bytes are not a
// renderable PDF.
func (e *Engine) Render(data []byte, dpi int) ([]PageImage, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if len(data) == 0 {
		return nil, &models.DecodeError{Err: fmt.Errorf("empty input")}
	}

	// Structural validation before MuPDF sees the bytes.
	if _, err := e.readContext(data); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &models.DecodeError{Err: err}
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, &models.DecodeError{Err: fmt.Errorf("document has no pages")}
	}

	pages := make([]PageImage, 0, total)
	for n := 0; n < total; n++ {
		img, err := doc.ImageDPI(n, float64(dpi))
		if err != nil {
			return nil, &models.DecodeError{Err: fmt.Errorf("failed to render page %d: %w", n+1, err)}
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", n+1, err)
		}

		pages = append(pages, PageImage{Number: n + 1, PNG: buf.Bytes()})
	}

	return pages, nil
}

// PageCount reports the number of pages without rasterizing anything.
func (e *Engine) PageCount(data []byte) (int, error) {
	ctx, err := e.readContext(data)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// readContext parses and validates the PDF with pdfcpu.
func (e *Engine) readContext(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), e.conf)
	if err != nil {
		return nil, &models.DecodeError{Err: err}
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, &models.DecodeError{Err: err}
	}
	return ctx, nil
}
