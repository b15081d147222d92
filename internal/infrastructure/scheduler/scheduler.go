// Package scheduler turns report-generation requests into tasks on a
// pkg/workerpool Pool and tracks their outcome. It is the domain-facing
// client of the pool: where pkg/workerpool itself knows nothing about
// reports, tenants, or retries, this package supplies all of that on
// top of Schedule/ScheduleWithPriority.
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/backend/internal/infrastructure/logger"
	"github.com/erp/backend/internal/infrastructure/telemetry"
	"github.com/erp/backend/pkg/workerpool"
)

// JobStatus represents the status of a scheduled job.
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// ReportType represents the type of report to generate.
type ReportType string

const (
	ReportTypeSalesSummary      ReportType = "SALES_SUMMARY"
	ReportTypeSalesDailyTrend   ReportType = "SALES_DAILY_TREND"
	ReportTypeInventorySummary  ReportType = "INVENTORY_SUMMARY"
	ReportTypeProfitLossMonthly ReportType = "PNL_MONTHLY"
	ReportTypeProductRanking    ReportType = "PRODUCT_RANKING"
	ReportTypeCustomerRanking   ReportType = "CUSTOMER_RANKING"
)

// AllReportTypes returns all available report types.
func AllReportTypes() []ReportType {
	return []ReportType{
		ReportTypeSalesSummary,
		ReportTypeSalesDailyTrend,
		ReportTypeInventorySummary,
		ReportTypeProfitLossMonthly,
		ReportTypeProductRanking,
		ReportTypeCustomerRanking,
	}
}

// Job represents a scheduled report job.
type Job struct {
	ID          uuid.UUID
	TenantID    *uuid.UUID // nil means all tenants
	ReportType  ReportType
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a new job instance.
func NewJob(tenantID *uuid.UUID, reportType ReportType, periodStart, periodEnd time.Time, maxRetries int) *Job {
	return &Job{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ReportType:  reportType,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      JobStatusPending,
		MaxRetries:  maxRetries,
	}
}

// Start marks the job as running.
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful.
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed.
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried.
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry.
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor is the interface for executing report jobs.
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	// QueueCapacity bounds each pool worker's pending-task queue. Zero
	// means unbounded.
	QueueCapacity int
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
	}
}

// Scheduler turns Jobs into tasks on a workerpool.Pool, one worker per
// MaxConcurrentJobs, and applies the retry policy around JobExecutor.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	pool *workerpool.Pool

	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance. The underlying pool is
// not started until Start is called.
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
	}
}

// Start starts the scheduler's pool with config.MaxConcurrentJobs
// workers.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	s.pool = workerpool.NewPool(s.config.MaxConcurrentJobs,
		workerpool.WithWorkerQueueCapacity(s.config.QueueCapacity),
		workerpool.WithWorkerPanicHandler(func(workerID uint64, recovered any) {
			_, workerLogger := logger.WithWorkerID(context.Background(), s.logger, strconv.FormatUint(workerID, 10))
			workerLogger.Error("report job panicked", zap.Any("recovered", recovered))
		}),
	)
	s.isRunning = true

	s.logger.Info("report scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop closes the underlying pool, waiting for in-flight jobs to finish
// or until ctx is done, in which case it returns ctx.Err().
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	done := make(chan struct{})
	go func() {
		s.pool.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("report scheduler stopped")
	return nil
}

// SubmitJob schedules job for execution on the pool at PriorityNormal.
func (s *Scheduler) SubmitJob(job *Job) error {
	return s.submit(job, workerpool.PriorityNormal)
}

// SubmitJobWithPriority schedules job for execution at the given
// priority.
func (s *Scheduler) SubmitJobWithPriority(job *Job, priority workerpool.TaskPriority) error {
	return s.submit(job, priority)
}

func (s *Scheduler) submit(job *Job, priority workerpool.TaskPriority) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	pool := s.pool
	s.mu.Unlock()

	ok := pool.ScheduleWithPriority(func(data any) {
		s.runJob(data.(*Job))
	}, job, priority)
	if !ok {
		return ErrJobQueueFull
	}

	s.logger.Debug("job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("report_type", string(job.ReportType)),
	)
	return nil
}

// runJob executes one job attempt and, on failure, resubmits it for
// retry per the scheduler's retry policy.
func (s *Scheduler) runJob(job *Job) {
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		time.Sleep(time.Until(*job.NextRetryAt))
	}

	job.Start()
	ctx, jobLogger := logger.WithJobID(context.Background(), s.logger, job.ID.String())
	jobLogger.Info("processing job", zap.String("report_type", string(job.ReportType)))

	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "scheduler.run_job",
		telemetry.WithAttribute(telemetry.SpanAttrJobID, job.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrReportType, string(job.ReportType)),
		telemetry.WithAttribute(telemetry.SpanAttrRetryCount, job.RetryCount),
	)
	defer span.End()

	var execErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationDispatchJob, nil), func(ctx context.Context) {
		execErr = s.executor.Execute(ctx, job)
	})

	if err := execErr; err != nil {
		telemetry.RecordError(span, err)
		job.Fail(err.Error())
		jobLogger.Error("job failed", zap.String("report_type", string(job.ReportType)), zap.Error(err))

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			jobLogger.Info("job scheduled for retry", zap.Int("retry_count", job.RetryCount))
			if err := s.SubmitJob(job); err != nil {
				jobLogger.Warn("failed to re-queue job for retry", zap.Error(err))
			}
		}
		return
	}

	job.Complete()
	jobLogger.Info("job completed successfully", zap.String("report_type", string(job.ReportType)))
}

// Statistics exposes the pool's current backlog and worker state, for
// admin/observability endpoints.
func (s *Scheduler) Statistics() workerpool.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return workerpool.Statistics{}
	}
	return s.pool.CollectStatistics()
}

// Suspend moves the pool to Waiting and suspends every working worker,
// which parks after its current task (idle workers are already parked),
// for the admin API's suspend endpoint.
func (s *Scheduler) Suspend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return false
	}
	return s.pool.Suspend()
}

// Resume wakes every suspended worker in the pool.
func (s *Scheduler) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return false
	}
	return s.pool.Resume()
}

// Resize changes the pool's worker count.
func (s *Scheduler) Resize(newSize int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return false
	}
	return s.pool.Resize(newSize)
}

// ScheduleDailyReports schedules all report types for a tenant over
// yesterday's period.
func (s *Scheduler) ScheduleDailyReports(tenantID *uuid.UUID) error {
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	periodStart := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.Local)
	periodEnd := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 23, 59, 59, 999999999, time.Local)

	for _, reportType := range AllReportTypes() {
		job := NewJob(tenantID, reportType, periodStart, periodEnd, s.config.RetryAttempts)
		if err := s.SubmitJob(job); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleReport schedules a specific report type.
func (s *Scheduler) ScheduleReport(tenantID *uuid.UUID, reportType ReportType, periodStart, periodEnd time.Time) error {
	job := NewJob(tenantID, reportType, periodStart, periodEnd, s.config.RetryAttempts)
	return s.SubmitJob(job)
}
