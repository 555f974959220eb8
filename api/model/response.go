package model

import "encoding/json"

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse creates an error payload with the given message.
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// HealthResponse reports service and recognition engine health.
type HealthResponse struct {
	Status    string `json:"status"`
	OCRStatus string `json:"ocr_status"`
}

// JobCreatedResponse is returned when an async job is accepted.
type JobCreatedResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatusResponse reports the state of an async recognition job.
type JobStatusResponse struct {
	JobID       string          `json:"job_id"`
	Status      string          `json:"status"`
	Filename    string          `json:"filename,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	Attempts    int             `json:"attempts"`
	CreatedAt   string          `json:"created_at"`
	CompletedAt string          `json:"completed_at,omitempty"`
}

// JobListResponse is the paged job listing.
type JobListResponse struct {
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Jobs     []JobStatusResponse `json:"jobs"`
}
