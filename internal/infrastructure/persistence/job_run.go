package persistence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobRunRecord is the persisted history of one report job execution,
// written by the scheduler's JobExecutor as the job moves through its
// lifecycle.
type JobRunRecord struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ReportType  string     `gorm:"column:report_type;size:64;not null"`
	TenantID    *uuid.UUID `gorm:"column:tenant_id;type:uuid"`
	Status      string     `gorm:"column:status;size:16;not null"`
	PeriodStart time.Time  `gorm:"column:period_start;not null"`
	PeriodEnd   time.Time  `gorm:"column:period_end;not null"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	Error       string     `gorm:"column:error"`
	ArtifactURL string     `gorm:"column:artifact_url"`
	RetryCount  int        `gorm:"column:retry_count;not null;default:0"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the GORM table name rather than relying on pluralization.
func (JobRunRecord) TableName() string {
	return "job_runs"
}

// JobRunRepository persists JobRunRecord rows through GORM.
type JobRunRepository struct {
	db *gorm.DB
}

// NewJobRunRepository builds a repository backed by db.
func NewJobRunRepository(db *gorm.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

// Create inserts a new job run row.
func (r *JobRunRepository) Create(record *JobRunRecord) error {
	return r.db.Create(record).Error
}

// Update saves changes to an existing job run row, matched by ID.
func (r *JobRunRepository) Update(record *JobRunRecord) error {
	return r.db.Save(record).Error
}

// FindByID loads a single job run by ID.
func (r *JobRunRepository) FindByID(id uuid.UUID) (*JobRunRecord, error) {
	var record JobRunRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecent returns the most recent job runs, newest first, bounded by limit.
func (r *JobRunRepository) ListRecent(limit int) ([]JobRunRecord, error) {
	var records []JobRunRecord
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
