package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fyerfyer/pdf-ocr-service/internal/database"
	"github.com/fyerfyer/pdf-ocr-service/internal/models"
)

// jobRepository is the gorm-backed JobRepository.
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a repository on the shared database.
func NewJobRepository() JobRepository {
	return &jobRepository{db: database.MustDB()}
}

// NewJobRepositoryWithDB creates a repository on the given connection.
func NewJobRepositoryWithDB(db *gorm.DB) JobRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &jobRepository{db: db}
}

// Create inserts a new job record.
func (r *jobRepository) Create(job *models.JobRecord) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}
	return r.db.Create(job).Error
}

// GetByID returns the job record for id.
func (r *jobRepository) GetByID(id string) (*models.JobRecord, error) {
	var job models.JobRecord
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %s", id)
		}
		return nil, err
	}
	return &job, nil
}

// List returns job records newest-first, with paging.
func (r *jobRepository) List(offset, limit int) ([]*models.JobRecord, int64, error) {
	var jobs []*models.JobRecord
	var total int64

	query := r.db.Model(&models.JobRecord{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// MarkProcessing flips the record to processing and bumps attempts.
func (r *jobRepository) MarkProcessing(id string) error {
	now := time.Now()
	return r.db.Model(&models.JobRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.JobStatusProcessing,
			"started_at": &now,
			"updated_at": now,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
}

// MarkTerminal records the job's final status, result and error.
func (r *jobRepository) MarkTerminal(id string, status models.JobStatus, result []byte, errorMsg string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       status,
		"error":        errorMsg,
		"completed_at": &now,
		"updated_at":   now,
	}
	if result != nil {
		updates["result"] = datatypes.JSON(result)
	}
	return r.db.Model(&models.JobRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the job record.
func (r *jobRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.JobRecord{}).Error
}
