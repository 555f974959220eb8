package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/internal/cache"
	"github.com/fyerfyer/pdf-ocr-service/internal/models"
	"github.com/fyerfyer/pdf-ocr-service/internal/ocr"
	"github.com/fyerfyer/pdf-ocr-service/internal/raster"
)

// DefaultLanguage is the OCR language used when none is configured.
const DefaultLanguage = "en"

// Options are the per-invocation processing parameters. They are passed
// explicitly; the pipeline reads no ambient configuration.
type Options struct {
	DPI  int    // rasterization resolution, default 300
	Lang string // OCR language code, default "en"
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = raster.DefaultDPI
	}
	if o.Lang == "" {
		o.Lang = DefaultLanguage
	}
	return o
}

// ContentType classifies an input file by extension.
type ContentType string

const (
	// ContentPDF is a PDF document.
	ContentPDF ContentType = "pdf"
	// ContentImage is a single raster image (jpg, jpeg, png).
	ContentImage ContentType = "image"
	// ContentUnknown is anything else; unsupported.
	ContentUnknown ContentType = "unknown"
)

// DetectContentType classifies a filename by its extension.
func DetectContentType(filename string) ContentType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ContentPDF
	case ".jpg", ".jpeg", ".png":
		return ContentImage
	default:
		return ContentUnknown
	}
}

// Service runs the document-to-text pipeline: rasterize the input into
// ordered page images, recognize each page through the shared OCR
// engine, and aggregate the pages into a Document.
type Service struct {
	raster   *raster.Engine
	ocr      *ocr.Manager
	cache    cache.Cache // optional result cache, may be nil
	cacheTTL time.Duration
	logger   *logrus.Logger
}

// Option configures a pipeline Service.
type Option func(*Service)

// WithCache enables the content-hash result cache.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a pipeline service.
func NewService(rasterEngine *raster.Engine, ocrManager *ocr.Manager, opts ...Option) *Service {
	s := &Service{
		raster: rasterEngine,
		ocr:    ocrManager,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process converts one file into a Document.
//
// Pages are rasterized and recognized strictly in document order, one
// OCR call per page, and page numbers are assigned contiguously from 1.
// A failure on any single page fails the whole document; failure
// isolation happens at document granularity in the batch and job paths,
// not here.
func (s *Service) Process(ctx context.Context, data []byte, filename string, opts Options) (*models.Document, error) {
	if filename == "" {
		return nil, models.NewValidationError("no filename provided")
	}

	contentType := DetectContentType(filename)
	if contentType == ContentUnknown {
		return nil, models.NewValidationError("unsupported file type: only PDF and image files (jpg, png) are allowed")
	}

	opts = opts.withDefaults()

	cacheKey := ""
	if s.cache != nil {
		cacheKey = cache.ResultKey(data, opts.Lang, opts.DPI)
		if doc, ok := s.cachedDocument(cacheKey, filename); ok {
			return doc, nil
		}
	}

	pages, err := s.renderPages(data, filename, contentType, opts)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"filename": filename,
		"pages":    len(pages),
		"dpi":      opts.DPI,
	}).Info("Rasterized document")

	doc := &models.Document{
		Filename:   filename,
		TotalPages: len(pages),
		Pages:      make([]models.Page, 0, len(pages)),
	}

	for _, page := range pages {
		text, err := s.ocr.Recognize(ctx, ocr.Input{
			Image:    page.PNG,
			Language: opts.Lang,
			DPI:      opts.DPI,
		})
		if err != nil {
			return nil, &models.EngineError{Err: fmt.Errorf("page %d: %w", page.Number, err)}
		}
		doc.Pages = append(doc.Pages, models.Page{
			PageNumber: page.Number,
			RawText:    text,
		})
	}

	if s.cache != nil {
		s.storeDocument(cacheKey, doc)
	}

	return doc, nil
}

// renderPages produces the ordered page images for the input. Images
// bypass rasterization and become a single page.
func (s *Service) renderPages(data []byte, filename string, contentType ContentType, opts Options) ([]raster.PageImage, error) {
	if contentType == ContentImage {
		if len(data) == 0 {
			return nil, &models.DecodeError{Err: fmt.Errorf("empty input")}
		}
		return []raster.PageImage{{Number: 1, PNG: data}}, nil
	}
	return s.raster.Render(data, opts.DPI)
}

// cachedDocument looks up a prior result for identical input bytes.
// The stored document keeps its page content but takes the caller's
// filename, since the same bytes can arrive under different names.
func (s *Service) cachedDocument(key, filename string) (*models.Document, bool) {
	value, found, err := s.cache.Get(key)
	if err != nil || !found {
		if err != nil {
			s.logger.WithError(err).Warn("Result cache lookup failed")
		}
		return nil, false
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		s.logger.WithError(err).Warn("Dropping malformed cache entry")
		_ = s.cache.Delete(key)
		return nil, false
	}

	doc.Filename = filename
	return &doc, true
}

// storeDocument caches a successful result. Failures only log; the
// response is already in hand.
func (s *Service) storeDocument(key string, doc *models.Document) {
	payload, err := json.Marshal(doc)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal document for cache")
		return
	}
	if err := s.cache.Set(key, string(payload), s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to store document in cache")
	}
}
