package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType identifies a kind of queued work.
type TaskType string

const (
	// TaskOCRDocument runs OCR over a document fetched from a URL.
	TaskOCRDocument TaskType = "ocr_document"
)

// TaskStatus is the queue-side lifecycle of a task.
type TaskStatus string

const (
	// StatusPending means the task is queued, waiting for a worker.
	StatusPending TaskStatus = "pending"
	// StatusProcessing means a worker picked the task up.
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted means the task produced its terminal value.
	StatusCompleted TaskStatus = "completed"
	// StatusFailed means the task terminated with an error.
	StatusFailed TaskStatus = "failed"
)

// Task is the queue record for one unit of work. The payload and result
// are raw JSON so the queue stays agnostic of task semantics.
type Task struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	Status      TaskStatus      `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	Result      json.RawMessage `json:"result"`
	Error       string          `json:"error"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
}

// OCRJobPayload is the payload carried by an ocr_document task.
type OCRJobPayload struct {
	PDFURL   string `json:"pdf_url"`            // source URL, required
	Filename string `json:"filename,omitempty"` // optional display filename
	Lang     string `json:"lang,omitempty"`     // OCR language override
	DPI      int    `json:"dpi,omitempty"`      // rasterization DPI override
}

// TaskInfo is the client-facing view of a task.
type TaskInfo struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	Status      TaskStatus      `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewTaskInfo projects a Task into its client-facing view.
func NewTaskInfo(task *Task) *TaskInfo {
	return &TaskInfo{
		ID:          task.ID,
		Type:        task.Type,
		Status:      task.Status,
		Result:      task.Result,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}

// MarshalPayload serializes a task payload to JSON.
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload deserializes a task payload.
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
