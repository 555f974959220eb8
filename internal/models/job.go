package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus describes where a URL job is in its lifecycle.
type JobStatus string

const (
	// JobStatusPending means the job is queued but not yet picked up.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing means a worker is executing the job.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted means the job produced a document result.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed means the job terminated with an error envelope.
	JobStatusFailed JobStatus = "failed"
)

// JobRecord tracks one URL job invocation.
// The document itself is transient; only the job bookkeeping and the
// final result JSON are persisted for later inspection.
type JobRecord struct {
	ID          string         `gorm:"primaryKey;size:50"` // task ID, shared with the queue
	PDFURL      string         `gorm:"not null;type:text"` // source URL
	Filename    string         `gorm:"size:255"`           // filename used in the result
	Status      JobStatus      `gorm:"not null;index;size:20"`
	Result      datatypes.JSON `gorm:"type:json"` // final Document JSON on success
	Error       string         `gorm:"type:text"` // error message on failure
	Attempts    int            `gorm:"default:0"`
	CreatedAt   time.Time      `gorm:"not null;index"`
	UpdatedAt   time.Time      `gorm:"not null"`
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// BeforeCreate sets timestamps before the record is inserted.
func (j *JobRecord) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (j *JobRecord) BeforeUpdate(tx *gorm.DB) (err error) {
	j.UpdatedAt = time.Now()
	return nil
}

// TableName pins the table name.
func (JobRecord) TableName() string {
	return "ocr_jobs"
}
