package job

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/internal/models"
	"github.com/fyerfyer/pdf-ocr-service/internal/pipeline"
)

// DefaultFilename is used when a job does not name its file.
const DefaultFilename = "document.pdf"

// Input is the payload of one URL job. Lang and DPI override the
// handler defaults when set.
type Input struct {
	PDFURL   string `json:"pdf_url"`
	Filename string `json:"filename,omitempty"`
	Lang     string `json:"lang,omitempty"`
	DPI      int    `json:"dpi,omitempty"`
}

// Result is the terminal value of one job invocation: exactly one of
// Output or Error is set. The job runtime always observes a completed
// job, never a crash.
type Result struct {
	Output *models.Document `json:"output,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Handler adapts a URL job input into a single document pipeline
// invocation and shapes the output/error envelope.
type Handler struct {
	pipeline *pipeline.Service
	fetcher  *Fetcher
	opts     pipeline.Options
	logger   *logrus.Logger
}

// NewHandler creates a job handler. opts carries the OCR language and
// DPI applied to every job this handler runs.
func NewHandler(p *pipeline.Service, f *Fetcher, opts pipeline.Options, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		pipeline: p,
		fetcher:  f,
		opts:     opts,
		logger:   logger,
	}
}

// Handle executes one job: validate the input, fetch the file, run the
// pipeline once, and capture any failure into the error envelope.
func (h *Handler) Handle(ctx context.Context, in Input) (result Result) {
	// Nothing may escape as a panic; the envelope is the contract.
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("Job handler panicked")
			result = Result{Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	if in.PDFURL == "" {
		return Result{Error: "pdf_url is required"}
	}

	filename := in.Filename
	if filename == "" {
		filename = defaultFilenameFor(in.PDFURL)
	}

	opts := h.opts
	if in.Lang != "" {
		opts.Lang = in.Lang
	}
	if in.DPI > 0 {
		opts.DPI = in.DPI
	}

	data, err := h.fetcher.Fetch(ctx, in.PDFURL)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"pdf_url": in.PDFURL,
			"error":   err.Error(),
		}).Warn("Job fetch failed")
		return Result{Error: err.Error()}
	}

	doc, err := h.pipeline.Process(ctx, data, filename, opts)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"filename": filename,
			"error":    err.Error(),
		}).Warn("Job processing failed")
		return Result{Error: err.Error()}
	}

	return Result{Output: doc}
}

// defaultFilenameFor picks a filename whose extension matches the URL,
// so image URLs keep their single-page image handling.
func defaultFilenameFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultFilename
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".jpg", ".jpeg":
		return "document.jpg"
	case ".png":
		return "document.png"
	default:
		return DefaultFilename
	}
}
