package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/api/middleware"
	"github.com/fyerfyer/pdf-ocr-service/api/model"
	"github.com/fyerfyer/pdf-ocr-service/internal/models"
	"github.com/fyerfyer/pdf-ocr-service/internal/repository"
	"github.com/fyerfyer/pdf-ocr-service/pkg/taskqueue"
)

// JobHandler serves the async recognition job endpoints.
type JobHandler struct {
	queue  taskqueue.Queue
	repo   repository.JobRepository
	logger *logrus.Logger
}

// NewJobHandler creates the job handler.
func NewJobHandler(queue taskqueue.Queue, repo repository.JobRepository) *JobHandler {
	return &JobHandler{
		queue:  queue,
		repo:   repo,
		logger: middleware.GetLogger(),
	}
}

// CreateJob enqueues a recognition job for a remote document.
// POST /api/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req model.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("pdf_url is required"))
		return
	}

	payload := taskqueue.OCRJobPayload{
		PDFURL:   req.PDFURL,
		Filename: req.Filename,
		Lang:     req.Lang,
		DPI:      req.DPI,
	}

	taskID, err := h.queue.Enqueue(c.Request.Context(), taskqueue.TaskOCRDocument, &payload)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":   err.Error(),
			"pdf_url": req.PDFURL,
		}).Error("Failed to enqueue recognition job")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("failed to enqueue job"))
		return
	}

	record := &models.JobRecord{
		ID:       taskID,
		PDFURL:   req.PDFURL,
		Filename: req.Filename,
		Status:   models.JobStatusPending,
	}
	if err := h.repo.Create(record); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": taskID,
		}).Error("Failed to persist job record")
	}

	h.logger.WithFields(logrus.Fields{
		"job_id":  taskID,
		"pdf_url": req.PDFURL,
	}).Info("Recognition job enqueued")

	c.JSON(http.StatusAccepted, model.JobCreatedResponse{
		JobID:  taskID,
		Status: string(models.JobStatusPending),
	})
}

// GetJob reports the state of a recognition job.
// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid job ID"))
		return
	}

	record, err := h.repo.GetByID(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, model.NewErrorResponse("job not found"))
		return
	}

	c.JSON(http.StatusOK, jobStatusResponse(record))
}

// ListJobs reports recent recognition jobs.
// GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req model.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid query parameters"))
		return
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()

	records, total, err := h.repo.List((page-1)*pageSize, pageSize)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list jobs")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("failed to list jobs"))
		return
	}

	jobs := make([]model.JobStatusResponse, len(records))
	for i, record := range records {
		jobs[i] = jobStatusResponse(record)
	}

	c.JSON(http.StatusOK, model.JobListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Jobs:     jobs,
	})
}

// DeleteJob removes a job record and its queue entry.
// DELETE /api/jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("invalid job ID"))
		return
	}

	if err := h.queue.DeleteTask(c.Request.Context(), req.ID); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Warn("Failed to delete queue task")
	}

	if err := h.repo.Delete(req.ID); err != nil {
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("failed to delete job"))
		return
	}

	c.Status(http.StatusNoContent)
}

func jobStatusResponse(record *models.JobRecord) model.JobStatusResponse {
	resp := model.JobStatusResponse{
		JobID:     record.ID,
		Status:    string(record.Status),
		Filename:  record.Filename,
		Error:     record.Error,
		Attempts:  record.Attempts,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
	}
	if len(record.Result) > 0 {
		resp.Result = []byte(record.Result)
	}
	if record.CompletedAt != nil {
		resp.CompletedAt = record.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
