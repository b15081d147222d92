// Package report implements the scheduler.JobExecutor that renders a
// report, uploads it to object storage, and records the outcome in the
// job_runs table.
package report

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/backend/internal/infrastructure/persistence"
	"github.com/erp/backend/internal/infrastructure/scheduler"
	"github.com/erp/backend/internal/infrastructure/telemetry"
)

// Uploader is the subset of storage.ObjectStorageService the executor
// needs to persist rendered report artifacts.
type Uploader interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// Executor renders scheduler.Job requests into CSV artifacts, uploads
// them, and writes a job_runs row reflecting the outcome.
type Executor struct {
	uploader Uploader
	runs     *persistence.JobRunRepository
	logger   *zap.Logger
	rowCount int
}

// NewExecutor builds an Executor. rowCount controls how many synthetic
// rows each rendered report contains; 0 defaults to 50.
func NewExecutor(uploader Uploader, runs *persistence.JobRunRepository, logger *zap.Logger, rowCount int) *Executor {
	if rowCount <= 0 {
		rowCount = 50
	}
	return &Executor{uploader: uploader, runs: runs, logger: logger, rowCount: rowCount}
}

var _ scheduler.JobExecutor = (*Executor)(nil)

// Execute renders job, uploads the artifact, and persists a job_runs
// record for both the success and failure paths.
func (e *Executor) Execute(ctx context.Context, job *scheduler.Job) error {
	ctx, span := telemetry.StartSpan(ctx, "report.execute",
		telemetry.WithAttribute("report_type", string(job.ReportType)),
		telemetry.WithAttribute("job_id", job.ID.String()),
	)
	defer span.End()

	var runErr error
	telemetry.WithProfilingLabels(ctx, telemetry.ReportOperationLabels(telemetry.OperationRunReport, string(job.ReportType)), func(ctx context.Context) {
		runErr = e.execute(ctx, job)
	})
	if runErr != nil {
		telemetry.RecordError(span, runErr)
	}
	return runErr
}

func (e *Executor) execute(ctx context.Context, job *scheduler.Job) error {
	record := &persistence.JobRunRecord{
		ID:          job.ID,
		ReportType:  string(job.ReportType),
		TenantID:    job.TenantID,
		Status:      string(scheduler.JobStatusRunning),
		PeriodStart: job.PeriodStart,
		PeriodEnd:   job.PeriodEnd,
		StartedAt:   job.StartedAt,
		RetryCount:  job.RetryCount,
	}
	if err := e.runs.Create(record); err != nil {
		e.logger.Warn("failed to record job run start", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	artifact, err := e.render(job)
	if err != nil {
		e.finish(record, "", err)
		return err
	}

	key := storageKey(job)
	_, uploadSpan := telemetry.StartSpan(ctx, "report.upload_artifact")
	err = e.uploader.Upload(ctx, key, artifact, "text/csv")
	uploadSpan.End()
	if err != nil {
		e.finish(record, "", fmt.Errorf("uploading artifact: %w", err))
		return err
	}

	e.finish(record, key, nil)
	return nil
}

func (e *Executor) finish(record *persistence.JobRunRecord, artifactKey string, runErr error) {
	now := time.Now()
	record.CompletedAt = &now
	if runErr != nil {
		record.Status = string(scheduler.JobStatusFailed)
		record.Error = runErr.Error()
	} else {
		record.Status = string(scheduler.JobStatusSuccess)
		record.ArtifactURL = artifactKey
	}
	if err := e.runs.Update(record); err != nil {
		e.logger.Warn("failed to record job run completion", zap.String("job_id", record.ID.String()), zap.Error(err))
	}
}

// render produces a CSV artifact standing in for the computed report.
// Row content is synthetic: this executor has no access to the ERP's
// original sales/inventory/ledger data, so it generates plausible rows
// shaped like the report type to exercise the upload and persistence
// path end to end.
func (e *Executor) render(job *scheduler.Job) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := columnsFor(job.ReportType)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seedFor(job.ID)))
	for i := 0; i < e.rowCount; i++ {
		row := make([]string, len(header))
		row[0] = strconv.Itoa(i + 1)
		for j := 1; j < len(header); j++ {
			row[j] = syntheticCell(rng, header[j], i)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func columnsFor(reportType scheduler.ReportType) []string {
	switch reportType {
	case scheduler.ReportTypeSalesSummary, scheduler.ReportTypeSalesDailyTrend:
		return []string{"row", "date", "revenue", "orders"}
	case scheduler.ReportTypeInventorySummary:
		return []string{"row", "sku", "on_hand", "reorder_point"}
	case scheduler.ReportTypeProfitLossMonthly:
		return []string{"row", "account", "amount"}
	case scheduler.ReportTypeProductRanking:
		return []string{"row", "product", "units_sold"}
	case scheduler.ReportTypeCustomerRanking:
		return []string{"row", "customer", "lifetime_value"}
	default:
		return []string{"row", "value"}
	}
}

func syntheticCell(rng *rand.Rand, column string, row int) string {
	switch column {
	case "date":
		return time.Now().AddDate(0, 0, -row).Format("2006-01-02")
	case "revenue", "amount", "lifetime_value":
		return strconv.FormatFloat(rng.Float64()*50000, 'f', 2, 64)
	case "orders", "on_hand", "reorder_point", "units_sold":
		return strconv.Itoa(rng.Intn(5000))
	case "sku":
		return fmt.Sprintf("SKU-%04d", rng.Intn(9999))
	case "product":
		return fmt.Sprintf("product-%d", rng.Intn(500))
	case "customer", "account":
		return fmt.Sprintf("customer-%d", rng.Intn(500))
	default:
		return strconv.Itoa(rng.Intn(1000))
	}
}

func storageKey(job *scheduler.Job) string {
	return fmt.Sprintf("reports/%s/%s.csv", job.ReportType, job.ID.String())
}

// seedFor derives a deterministic PRNG seed from a job ID so rendering
// the same job twice (e.g. on retry) produces stable output.
func seedFor(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[:8]))
}

// NewJobID is a small helper kept next to the executor so callers
// constructing ad hoc jobs (e.g. the ingest bridge) don't need to
// import uuid directly.
func NewJobID() uuid.UUID {
	return uuid.New()
}
