package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger.
type CronTriggerConfig struct {
	// DailyReportHour/Minute is the time of day (24h, local) daily
	// reports run at.
	DailyReportHour   int
	DailyReportMinute int

	// CheckInterval is how often to check if it's time to run.
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration.
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyReportHour:   2, // 2am
		DailyReportMinute: 0,
		CheckInterval:     time.Minute,
	}
}

// CronTrigger schedules every report type, once a day, for all tenants
// (the scheduler has no tenant registry of its own — jobs with a nil
// TenantID are interpreted as covering every tenant downstream).
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger.
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the cron trigger's check loop.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("cron trigger started",
		zap.Int("daily_hour", c.config.DailyReportHour),
		zap.Int("daily_minute", c.config.DailyReportMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger, waiting for its loop to exit.
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

func (c *CronTrigger) checkAndTrigger() {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if now.Hour() != c.config.DailyReportHour || now.Minute() != c.config.DailyReportMinute {
		return
	}

	c.mu.Lock()
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("triggering daily report generation")
	if err := c.scheduler.ScheduleDailyReports(nil); err != nil {
		c.logger.Error("failed to schedule daily reports", zap.Error(err))
	}
}

// TriggerManualRefresh schedules a one-off report run outside the
// daily cadence, for an admin-triggered refresh.
func (c *CronTrigger) TriggerManualRefresh(tenantID *uuid.UUID, reportType *ReportType, periodStart, periodEnd time.Time) error {
	if reportType != nil {
		return c.scheduler.ScheduleReport(tenantID, *reportType, periodStart, periodEnd)
	}

	for _, rt := range AllReportTypes() {
		if err := c.scheduler.ScheduleReport(tenantID, rt, periodStart, periodEnd); err != nil {
			return err
		}
	}
	return nil
}
