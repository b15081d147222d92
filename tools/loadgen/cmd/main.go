// Package main provides the CLI entry point for the worker pool's load
// generator: it publishes synthetic report-job requests to Redis at a
// configurable rate and scrapes the admin API's pool statistics,
// exporting both as Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/tools/loadgen/internal/generator"
	"github.com/erp/tools/loadgen/internal/metrics"
	"github.com/erp/tools/loadgen/internal/publisher"
	"github.com/erp/tools/loadgen/internal/scraper"
)

func main() {
	var (
		redisAddr      string
		redisChannel   string
		adminAPIURL    string
		publishRate    time.Duration
		scrapeInterval time.Duration
		metricsAddr    string
		multiTenant    bool
		urgentFraction float64
	)

	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address the ingestion channel is published on")
	flag.StringVar(&redisChannel, "redis-channel", "jobs:submit", "Redis pub/sub channel carrying job requests")
	flag.StringVar(&adminAPIURL, "admin-api", "http://localhost:8080/api/v1", "Base URL of the worker pool's admin API")
	flag.DurationVar(&publishRate, "rate", time.Second, "Interval between published job requests")
	flag.DurationVar(&scrapeInterval, "scrape-interval", 5*time.Second, "Interval between /pool/stats scrapes")
	flag.StringVar(&metricsAddr, "metrics-addr", ":9090", "Address the Prometheus /metrics endpoint listens on")
	flag.BoolVar(&multiTenant, "multi-tenant", false, "Generate jobs scoped to random tenant IDs instead of all-tenant jobs")
	flag.Float64Var(&urgentFraction, "urgent-fraction", 0.1, "Fraction of generated jobs marked urgent (0.0-1.0)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `loadgen - worker pool load generator

Publishes synthetic report-job requests onto the configured Redis
channel at a steady rate, and scrapes the admin API's /pool/stats on
an interval. Both are exported as Prometheus metrics.

USAGE:
    loadgen [options]

OPTIONS:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	exporter := metrics.NewExporter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := exporter.Start(ctx, metrics.Config{Addr: metricsAddr}); err != nil {
		log.Fatalf("starting metrics exporter: %v", err)
	}
	log.Printf("metrics listening on %s/metrics", metricsAddr)

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()

	gen := generator.NewJobGenerator(multiTenant, urgentFraction)
	pub := publisher.New(redisClient, redisChannel, gen, exporter.RecordPublish)

	scr := scraper.New(adminAPIURL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go pub.Run(ctx, publishRate)
	go scr.Run(ctx, scrapeInterval, func(stats scraper.Stats, err error) {
		if err != nil {
			exporter.RecordScrapeError()
			log.Printf("scrape error: %v", err)
			return
		}
		exporter.SetPoolStats(stats.QueuedTasks, stats.ActiveWorkers, stats.TotalWorkers)
	})

	log.Printf("publishing jobs to redis channel %q at %s, scraping %s every %s",
		redisChannel, publishRate, adminAPIURL, scrapeInterval)

	<-quit
	log.Println("shutting down load generator...")
	cancel()
	time.Sleep(200 * time.Millisecond)
}
