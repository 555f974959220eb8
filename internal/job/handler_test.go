package job

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/pdf-ocr-service/internal/ocr"
	"github.com/fyerfyer/pdf-ocr-service/internal/pipeline"
	"github.com/fyerfyer/pdf-ocr-service/internal/raster"
)

// stubEngine returns fixed text for every page.
type stubEngine struct {
	text  string
	calls int32
}

func (e *stubEngine) Recognize(ctx context.Context, in ocr.Input) (string, error) {
	atomic.AddInt32(&e.calls, 1)
	return e.text, nil
}

func (e *stubEngine) Close() error { return nil }

func newTestHandler(t *testing.T, engine ocr.Engine) *Handler {
	t.Helper()
	manager := ocr.NewManager(func() (ocr.Engine, error) { return engine, nil })
	svc := pipeline.NewService(raster.NewEngine(), manager)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewHandler(svc, NewFetcher(0, 0), pipeline.Options{}, logger)
}

func TestHandler_MissingURL(t *testing.T) {
	h := newTestHandler(t, &stubEngine{})

	result := h.Handle(context.Background(), Input{Filename: "named-but-no-url.pdf"})
	assert.Nil(t, result.Output)
	assert.Equal(t, "pdf_url is required", result.Error)
}

func TestHandler_SuccessEnvelope(t *testing.T) {
	imageBytes := []byte("pretend png data")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(imageBytes)
	}))
	defer server.Close()

	h := newTestHandler(t, &stubEngine{text: "HELLO WORLD"})

	result := h.Handle(context.Background(), Input{PDFURL: server.URL + "/scan.png"})
	require.Empty(t, result.Error)
	require.NotNil(t, result.Output)

	assert.Equal(t, "document.png", result.Output.Filename)
	assert.Equal(t, 1, result.Output.TotalPages)
	require.Len(t, result.Output.Pages, 1)
	assert.Equal(t, "HELLO WORLD", result.Output.Pages[0].RawText)
}

func TestHandler_ExplicitFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image"))
	}))
	defer server.Close()

	h := newTestHandler(t, &stubEngine{text: "x"})

	result := h.Handle(context.Background(), Input{
		PDFURL:   server.URL + "/whatever.png",
		Filename: "invoice.png",
	})
	require.NotNil(t, result.Output)
	assert.Equal(t, "invoice.png", result.Output.Filename)
}

func TestHandler_FetchFailureEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	h := newTestHandler(t, &stubEngine{})

	result := h.Handle(context.Background(), Input{PDFURL: server.URL + "/missing.pdf"})
	assert.Nil(t, result.Output)
	assert.Contains(t, result.Error, "404")
}

func TestHandler_UnreachableHostEnvelope(t *testing.T) {
	h := newTestHandler(t, &stubEngine{})

	result := h.Handle(context.Background(), Input{PDFURL: "http://127.0.0.1:1/file.pdf"})
	assert.Nil(t, result.Output)
	assert.NotEmpty(t, result.Error)
}

func TestHandler_ProcessingFailureEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a valid pdf"))
	}))
	defer server.Close()

	h := newTestHandler(t, &stubEngine{})

	result := h.Handle(context.Background(), Input{PDFURL: server.URL + "/broken.pdf"})
	assert.Nil(t, result.Output)
	assert.NotEmpty(t, result.Error)
}

func TestHandler_OptionOverrides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image"))
	}))
	defer server.Close()

	engine := &captureEngine{}
	h := newTestHandler(t, engine)

	result := h.Handle(context.Background(), Input{
		PDFURL: server.URL + "/scan.png",
		Lang:   "de",
		DPI:    150,
	})
	require.NotNil(t, result.Output)
	assert.Equal(t, "de", engine.lastInput.Language)
	assert.Equal(t, 150, engine.lastInput.DPI)
}

// captureEngine records the last recognition input it saw.
type captureEngine struct {
	lastInput ocr.Input
}

func (e *captureEngine) Recognize(ctx context.Context, in ocr.Input) (string, error) {
	e.lastInput = in
	return "text", nil
}

func (e *captureEngine) Close() error { return nil }

func TestDefaultFilenameFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/report.pdf", "document.pdf"},
		{"https://example.com/scan.JPG", "document.jpg"},
		{"https://example.com/scan.jpeg?sig=abc", "document.jpg"},
		{"https://example.com/photo.png", "document.png"},
		{"https://example.com/download", "document.pdf"},
		{"://bad-url", "document.pdf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultFilenameFor(tt.url), "url %q", tt.url)
	}
}

func TestFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	f := NewFetcher(0, 1024)

	_, err := f.Fetch(context.Background(), server.URL+"/big.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestFetcher_Success(t *testing.T) {
	body := []byte("%PDF-1.4 pretend")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer server.Close()

	f := NewFetcher(0, 0)

	data, err := f.Fetch(context.Background(), server.URL+"/file.pdf")
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestFetcher_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer server.Close()

	f := NewFetcher(0, 0)

	_, err := f.Fetch(context.Background(), server.URL+"/file.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
