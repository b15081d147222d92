// Package generator builds synthetic report-job requests for the load
// generator using gofakeit, mirroring the JSON shape the worker-pool
// service's ingest.Subscriber expects on its Redis channel.
package generator

import (
	"encoding/json"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

var reportTypes = []string{
	"SALES_SUMMARY",
	"SALES_DAILY_TREND",
	"INVENTORY_SUMMARY",
	"PNL_MONTHLY",
	"PRODUCT_RANKING",
	"CUSTOMER_RANKING",
}

// jobRequest mirrors internal/infrastructure/ingest.JobRequest. It is
// redefined here rather than imported since tools/loadgen is its own
// module with its own dependency set.
type jobRequest struct {
	ReportType  string     `json:"report_type"`
	TenantID    *uuid.UUID `json:"tenant_id,omitempty"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	Urgent      bool       `json:"urgent"`
}

// JobGenerator produces randomized job-request payloads.
type JobGenerator struct {
	faker          *gofakeit.Faker
	multiTenant    bool
	urgentFraction float64
}

// NewJobGenerator builds a JobGenerator. When multiTenant is false every
// generated job targets all tenants (TenantID nil).
func NewJobGenerator(multiTenant bool, urgentFraction float64) *JobGenerator {
	return &JobGenerator{
		faker:          gofakeit.New(0),
		multiTenant:    multiTenant,
		urgentFraction: urgentFraction,
	}
}

// Generate produces one job-request payload, JSON-encoded for
// publication onto the ingestion channel.
func (g *JobGenerator) Generate() ([]byte, error) {
	reportType := reportTypes[g.faker.IntRange(0, len(reportTypes)-1)]

	var tenantID *uuid.UUID
	if g.multiTenant {
		id := uuid.New()
		tenantID = &id
	}

	periodEnd := g.faker.DateRange(time.Now().AddDate(0, -1, 0), time.Now())
	periodStart := periodEnd.AddDate(0, 0, -1)

	req := jobRequest{
		ReportType:  reportType,
		TenantID:    tenantID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Urgent:      g.faker.Float64Range(0, 1) < g.urgentFraction,
	}

	return json.Marshal(req)
}
