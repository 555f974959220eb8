package repository

import "github.com/fyerfyer/pdf-ocr-service/internal/models"

// JobRepository persists job records for URL jobs so their terminal
// output can be inspected after the fact.
type JobRepository interface {
	// Create inserts a new job record.
	Create(job *models.JobRecord) error

	// GetByID returns the job record for id.
	GetByID(id string) (*models.JobRecord, error)

	// List returns job records newest-first, with paging.
	List(offset, limit int) ([]*models.JobRecord, int64, error)

	// MarkProcessing flips the record to processing and bumps attempts.
	MarkProcessing(id string) error

	// MarkTerminal records the job's final status, result and error.
	MarkTerminal(id string, status models.JobStatus, result []byte, errorMsg string) error

	// Delete removes the job record.
	Delete(id string) error
}
