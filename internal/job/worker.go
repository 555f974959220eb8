package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/internal/models"
	"github.com/fyerfyer/pdf-ocr-service/internal/repository"
	"github.com/fyerfyer/pdf-ocr-service/pkg/taskqueue"
)

// QueueHandler executes queued ocr_document tasks through the job
// handler and records their terminal state.
//
// A job that ends with an error envelope is still a completed task from
// the queue's point of view: ProcessTask returns nil so the queue does
// not retry work that failed deterministically (bad URL, bad PDF). Only
// infrastructure errors (unreadable payload, broken bookkeeping)
// propagate and trigger queue-level retry.
type QueueHandler struct {
	handler *Handler
	queue   taskqueue.Queue
	repo    repository.JobRepository // optional, may be nil
	logger  *logrus.Logger
}

// NewQueueHandler creates the queue-side adapter for the job handler.
func NewQueueHandler(handler *Handler, queue taskqueue.Queue, repo repository.JobRepository, logger *logrus.Logger) *QueueHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &QueueHandler{
		handler: handler,
		queue:   queue,
		repo:    repo,
		logger:  logger,
	}
}

// GetTaskTypes lists the task types this handler accepts.
func (h *QueueHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{taskqueue.TaskOCRDocument}
}

// ProcessTask runs one queued job.
func (h *QueueHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.OCRJobPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("invalid task payload: %w", err)
	}

	h.markProcessing(task.ID)

	result := h.handler.Handle(ctx, Input{
		PDFURL:   payload.PDFURL,
		Filename: payload.Filename,
		Lang:     payload.Lang,
		DPI:      payload.DPI,
	})

	if result.Error != "" {
		if err := h.queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusFailed, result, result.Error); err != nil {
			return fmt.Errorf("failed to record job error: %w", err)
		}
		h.recordTerminal(task.ID, models.JobStatusFailed, nil, result.Error)
		return nil
	}

	if err := h.queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, ""); err != nil {
		return fmt.Errorf("failed to record job result: %w", err)
	}
	h.recordTerminal(task.ID, models.JobStatusCompleted, result.Output, "")
	return nil
}

// markProcessing flips the persistent job record to processing.
// Bookkeeping failures never block the job itself.
func (h *QueueHandler) markProcessing(taskID string) {
	if h.repo == nil {
		return
	}
	if err := h.repo.MarkProcessing(taskID); err != nil {
		h.logger.WithError(err).WithField("job_id", taskID).Warn("Failed to mark job record processing")
	}
}

// recordTerminal writes the job's terminal state to the job record.
func (h *QueueHandler) recordTerminal(taskID string, status models.JobStatus, doc *models.Document, errMsg string) {
	if h.repo == nil {
		return
	}

	var resultJSON []byte
	if doc != nil {
		data, err := json.Marshal(doc)
		if err != nil {
			h.logger.WithError(err).WithField("job_id", taskID).Warn("Failed to marshal job result")
		} else {
			resultJSON = data
		}
	}

	if err := h.repo.MarkTerminal(taskID, status, resultJSON, errMsg); err != nil {
		h.logger.WithError(err).WithField("job_id", taskID).Warn("Failed to update job record")
	}
}
