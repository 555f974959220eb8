package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/api/middleware"
	"github.com/fyerfyer/pdf-ocr-service/api/model"
	"github.com/fyerfyer/pdf-ocr-service/internal/ocr"
	"github.com/fyerfyer/pdf-ocr-service/internal/pipeline"
	"github.com/fyerfyer/pdf-ocr-service/pkg/storage"
)

// OCRHandler serves the synchronous recognition endpoints.
type OCRHandler struct {
	pipeline      *pipeline.Service
	manager       *ocr.Manager
	fileStorage   storage.Storage // optional upload archive
	maxUploadSize int64
	logger        *logrus.Logger
}

// NewOCRHandler creates the recognition handler.
// fileStorage may be nil to disable upload archiving.
func NewOCRHandler(p *pipeline.Service, m *ocr.Manager, fileStorage storage.Storage, maxUploadSize int64) *OCRHandler {
	return &OCRHandler{
		pipeline:      p,
		manager:       m,
		fileStorage:   fileStorage,
		maxUploadSize: maxUploadSize,
		logger:        middleware.GetLogger(),
	}
}

// Recognize handles a single document upload.
// POST /api/ocr
func (h *OCRHandler) Recognize(c *gin.Context) {
	var req model.OCRRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid request parameters"))
		return
	}

	if req.File == nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("no file part"))
		return
	}

	filename := req.File.Filename
	if strings.TrimSpace(filename) == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("no selected file"))
		return
	}

	if h.maxUploadSize > 0 && req.File.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, model.NewErrorResponse("file too large"))
		return
	}

	data, err := readUpload(req.File)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to read uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("failed to read uploaded file"))
		return
	}

	h.archiveUpload(data, filename)

	opts := pipeline.Options{Lang: req.Lang, DPI: req.DPI}
	doc, err := h.pipeline.Process(c.Request.Context(), data, filename, opts)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Warn("Document recognition failed")

		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// RecognizeBatch handles a multi-document upload.
// POST /api/ocr/batch
func (h *OCRHandler) RecognizeBatch(c *gin.Context) {
	var req model.BatchOCRRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid request parameters"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid multipart form"))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("no files part"))
		return
	}

	inputs := make([]pipeline.FileInput, 0, len(files))
	for _, fh := range files {
		input := pipeline.FileInput{Filename: fh.Filename}
		if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
			// Oversized entries fail inside the batch instead of
			// rejecting the whole request.
			inputs = append(inputs, input)
			continue
		}

		data, err := readUpload(fh)
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"error":    err.Error(),
				"filename": fh.Filename,
			}).Warn("Failed to read batch file")
			inputs = append(inputs, input)
			continue
		}

		input.Data = data
		h.archiveUpload(data, fh.Filename)
		inputs = append(inputs, input)
	}

	opts := pipeline.Options{Lang: req.Lang, DPI: req.DPI}
	result := h.pipeline.ProcessBatch(c.Request.Context(), inputs, opts)

	c.JSON(http.StatusOK, result)
}

// Health reports service liveness and engine state.
// GET /api/health
func (h *OCRHandler) Health(c *gin.Context) {
	ocrStatus := "OK"
	if h.manager != nil && h.manager.Status() == ocr.StatusError {
		ocrStatus = "ERROR"
	}

	c.JSON(http.StatusOK, model.HealthResponse{
		Status:    "OK",
		OCRStatus: ocrStatus,
	})
}

// archiveUpload saves a copy of the upload for later inspection.
// Archive failures never fail the request.
func (h *OCRHandler) archiveUpload(data []byte, filename string) {
	if h.fileStorage == nil {
		return
	}

	info, err := h.fileStorage.Save(bytes.NewReader(data), filename)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Warn("Failed to archive upload")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"file_id":  info.ID,
		"filename": info.Name,
		"size":     info.Size,
		"ext":      filepath.Ext(filename),
	}).Debug("Upload archived")
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
