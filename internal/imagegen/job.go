package imagegen

import (
	"context"
	"errors"
	"time"

	"github.com/suPer8Hu/goldgpt/internal/common"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("image job not found")

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is an image generation request handed to the worker.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"job_id"` // ULID length

	Prompt   string `gorm:"type:text;not null" json:"prompt"`
	Filename string `gorm:"type:varchar(255)" json:"-"`
	Language string `gorm:"type:varchar(8);not null;default:en" json:"language"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	ResultFilename *string `gorm:"type:varchar(255)" json:"filename,omitempty"`
	EnhancedPrompt *string `gorm:"type:text" json:"enhanced_prompt,omitempty"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "image_jobs" }

type JobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) *JobRepo {
	return &JobRepo{db: db}
}

// Create assigns an id when missing and stores the job as queued.
func (r *JobRepo) Create(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = common.NewULID()
	}
	job.Status = JobQueued
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *JobRepo) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// MarkRunning moves a queued job to running. It reports false when the job
// was not queued, e.g. on redelivery.
func (r *JobRepo) MarkRunning(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *JobRepo) MarkSucceeded(ctx context.Context, id, filename, enhancedPrompt string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          JobSucceeded,
			"result_filename": filename,
			"enhanced_prompt": enhancedPrompt,
			"error":           nil,
		}).Error
}

func (r *JobRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          JobFailed,
			"error":           errMsg,
			"result_filename": nil,
		}).Error
}
