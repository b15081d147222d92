package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/backend/internal/infrastructure/persistence"
	"github.com/erp/backend/internal/infrastructure/scheduler"
	"github.com/erp/backend/pkg/workerpool"
)

// PoolHandler exposes the scheduler/pool through a small admin API:
// submit a job, read statistics, inspect job run history, and control
// the pool's lifecycle.
type PoolHandler struct {
	BaseHandler
	scheduler *scheduler.Scheduler
	cron      *scheduler.CronTrigger
	runs      *persistence.JobRunRepository
}

// NewPoolHandler builds a PoolHandler over s, optionally wiring the
// daily cron trigger's manual-refresh endpoint when cron is non-nil.
// runs backs the job run history endpoints.
func NewPoolHandler(s *scheduler.Scheduler, cron *scheduler.CronTrigger, runs *persistence.JobRunRepository) *PoolHandler {
	return &PoolHandler{scheduler: s, cron: cron, runs: runs}
}

// SubmitTaskRequest is the request body for POST /pool/tasks.
// @Description Submit a report job onto the pool
type SubmitTaskRequest struct {
	ReportType  string  `json:"report_type" binding:"required"`
	TenantID    *string `json:"tenant_id"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
	Priority    *int    `json:"priority" binding:"omitempty,min=0,max=5"`
}

// SubmitTask godoc
// @Summary Submit a report job
// @Tags pool
// @Accept json
// @Produce json
// @Param request body SubmitTaskRequest true "job request"
// @Success 202 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Failure 503 {object} dto.Response
// @Router /pool/tasks [post]
func (h *PoolHandler) SubmitTask(c *gin.Context) {
	var req SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var tenantID *uuid.UUID
	if req.TenantID != nil && *req.TenantID != "" {
		parsed, err := uuid.Parse(*req.TenantID)
		if err != nil {
			h.BadRequest(c, "tenant_id must be a valid UUID")
			return
		}
		tenantID = &parsed
	}

	priority := workerpool.PriorityNormal
	if req.Priority != nil {
		priority = workerpool.TaskPriority(*req.Priority)
	}

	job := scheduler.NewJob(tenantID, scheduler.ReportType(req.ReportType), req.PeriodStart, req.PeriodEnd, 3)
	if err := h.scheduler.SubmitJobWithPriority(job, priority); err != nil {
		h.Unavailable(c, err.Error())
		return
	}

	h.Accepted(c, gin.H{"job_id": job.ID})
}

// Stats godoc
// @Summary Collect pool statistics
// @Tags pool
// @Produce json
// @Success 200 {object} dto.Response
// @Router /pool/stats [get]
func (h *PoolHandler) Stats(c *gin.Context) {
	h.Success(c, h.scheduler.Statistics())
}

// ResizeRequest is the request body for POST /pool/resize.
type ResizeRequest struct {
	Size int `json:"size" binding:"required,min=1"`
}

// Resize godoc
// @Summary Resize the pool
// @Tags pool
// @Accept json
// @Produce json
// @Param request body ResizeRequest true "new size"
// @Success 200 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Router /pool/resize [post]
func (h *PoolHandler) Resize(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if !h.scheduler.Resize(req.Size) {
		h.BadRequest(c, "resize refused")
		return
	}
	h.Success(c, gin.H{"size": req.Size})
}

// Suspend godoc
// @Summary Suspend the pool
// @Tags pool
// @Produce json
// @Success 200 {object} dto.Response
// @Router /pool/suspend [post]
func (h *PoolHandler) Suspend(c *gin.Context) {
	h.Success(c, gin.H{"suspended": h.scheduler.Suspend()})
}

// Resume godoc
// @Summary Resume the pool
// @Tags pool
// @Produce json
// @Success 200 {object} dto.Response
// @Router /pool/resume [post]
func (h *PoolHandler) Resume(c *gin.Context) {
	h.Success(c, gin.H{"resumed": h.scheduler.Resume()})
}

// TriggerRefreshRequest is the request body for POST /pool/reports/trigger.
type TriggerRefreshRequest struct {
	TenantID    *string `json:"tenant_id"`
	ReportType  *string `json:"report_type"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// TriggerRefresh godoc
// @Summary Manually trigger a report refresh outside the daily cadence
// @Tags pool
// @Accept json
// @Produce json
// @Param request body TriggerRefreshRequest true "refresh request"
// @Success 202 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Failure 503 {object} dto.Response
// @Router /pool/reports/trigger [post]
func (h *PoolHandler) TriggerRefresh(c *gin.Context) {
	if h.cron == nil {
		h.Unavailable(c, "cron trigger is not configured")
		return
	}

	var req TriggerRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var tenantID *uuid.UUID
	if req.TenantID != nil && *req.TenantID != "" {
		parsed, err := uuid.Parse(*req.TenantID)
		if err != nil {
			h.BadRequest(c, "tenant_id must be a valid UUID")
			return
		}
		tenantID = &parsed
	}

	var reportType *scheduler.ReportType
	if req.ReportType != nil && *req.ReportType != "" {
		rt := scheduler.ReportType(*req.ReportType)
		reportType = &rt
	}

	if err := h.cron.TriggerManualRefresh(tenantID, reportType, req.PeriodStart, req.PeriodEnd); err != nil {
		h.Unavailable(c, err.Error())
		return
	}

	h.Accepted(c, gin.H{"triggered": true})
}

// GetReport godoc
// @Summary Fetch a single job run by ID
// @Tags pool
// @Produce json
// @Param id path string true "job run ID"
// @Success 200 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /pool/reports/{id} [get]
func (h *PoolHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	record, err := h.runs.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.NotFound(c, "job run not found")
			return
		}
		h.InternalError(c, err.Error())
		return
	}
	h.Success(c, record)
}

// ListRecentReports godoc
// @Summary List the most recent job runs
// @Tags pool
// @Produce json
// @Param limit query int false "max rows to return (default 20, max 200)"
// @Success 200 {object} dto.Response
// @Router /pool/reports/recent [get]
func (h *PoolHandler) ListRecentReports(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > 200 {
		limit = 200
	}

	records, err := h.runs.ListRecent(limit)
	if err != nil {
		h.InternalError(c, err.Error())
		return
	}
	h.Success(c, records)
}

// Close godoc
// @Summary Close the pool
// @Tags pool
// @Produce json
// @Success 200 {object} dto.Response
// @Router /pool/close [post]
func (h *PoolHandler) Close(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	if err := h.scheduler.Stop(ctx); err != nil {
		h.InternalError(c, err.Error())
		return
	}
	h.Success(c, gin.H{"closed": true})
}
