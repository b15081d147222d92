// Package metrics exports the load generator's own counters (jobs
// published, publish errors) and a mirror of the admin API's pool
// statistics, for scraping by Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter serves loadgen_* metrics over HTTP for Prometheus to scrape.
type Exporter struct {
	registry *prometheus.Registry

	jobsPublishedTotal prometheus.Counter
	publishErrorsTotal prometheus.Counter
	poolQueuedTasks    prometheus.Gauge
	poolActiveWorkers  prometheus.Gauge
	poolTotalWorkers   prometheus.Gauge
	scrapeErrorsTotal  prometheus.Counter

	server *http.Server
}

// Config configures the metrics HTTP endpoint.
type Config struct {
	Addr string // e.g. ":9090"
	Path string // e.g. "/metrics", defaults to "/metrics"
}

// NewExporter builds an Exporter with a fresh registry.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		jobsPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadgen_jobs_published_total",
			Help: "Total report job requests published to the ingestion channel.",
		}),
		publishErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadgen_publish_errors_total",
			Help: "Total errors encountered while publishing a job request.",
		}),
		poolQueuedTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_pool_queued_tasks",
			Help: "Queued task count last observed on the admin API's /pool/stats.",
		}),
		poolActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_pool_active_workers",
			Help: "Active worker count last observed on the admin API's /pool/stats.",
		}),
		poolTotalWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loadgen_pool_total_workers",
			Help: "Total worker count last observed on the admin API's /pool/stats.",
		}),
		scrapeErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loadgen_scrape_errors_total",
			Help: "Total errors encountered while scraping /pool/stats.",
		}),
	}

	registry.MustRegister(
		e.jobsPublishedTotal,
		e.publishErrorsTotal,
		e.poolQueuedTasks,
		e.poolActiveWorkers,
		e.poolTotalWorkers,
		e.scrapeErrorsTotal,
	)

	return e
}

// RecordPublish increments the published-job counter, or the error
// counter if err is non-nil.
func (e *Exporter) RecordPublish(err error) {
	if err != nil {
		e.publishErrorsTotal.Inc()
		return
	}
	e.jobsPublishedTotal.Inc()
}

// RecordScrapeError increments the scrape-error counter.
func (e *Exporter) RecordScrapeError() {
	e.scrapeErrorsTotal.Inc()
}

// SetPoolStats records the pool statistics last observed from the
// admin API.
func (e *Exporter) SetPoolStats(queuedTasks, activeWorkers, totalWorkers int) {
	e.poolQueuedTasks.Set(float64(queuedTasks))
	e.poolActiveWorkers.Set(float64(activeWorkers))
	e.poolTotalWorkers.Set(float64(totalWorkers))
}

// Start serves the metrics endpoint in the background until ctx is
// canceled.
func (e *Exporter) Start(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr, err)
	}

	e.server = &http.Server{Handler: mux}

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.server.Shutdown(shutdownCtx)
	}()

	return nil
}
