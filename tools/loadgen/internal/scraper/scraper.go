// Package scraper polls the worker-pool service's admin API for
// current pool statistics, for the load generator's metrics exporter
// to republish.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// poolStatsEnvelope mirrors the worker pool's admin API response for
// GET /pool/stats: {"success":true,"data":{"WaitingThreads":...}}.
type poolStatsEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		WaitingThreads int `json:"WaitingThreads"`
		WorkingThreads int `json:"WorkingThreads"`
		PendingTasks   int `json:"PendingTasks"`
	} `json:"data"`
}

// Stats is the pool statistics snapshot returned by Poll.
type Stats struct {
	QueuedTasks   int
	ActiveWorkers int
	TotalWorkers  int
}

// Scraper polls a worker-pool admin API's /pool/stats endpoint.
type Scraper struct {
	client  *http.Client
	baseURL string
}

// New builds a Scraper against baseURL (e.g. "http://localhost:8080/api/v1").
func New(baseURL string) *Scraper {
	return &Scraper{client: &http.Client{Timeout: 5 * time.Second}, baseURL: baseURL}
}

// Poll fetches the current pool statistics.
func (s *Scraper) Poll(ctx context.Context) (Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/pool/stats", nil)
	if err != nil {
		return Stats{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Stats{}, fmt.Errorf("unexpected status %d polling /pool/stats", resp.StatusCode)
	}

	var envelope poolStatsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Stats{}, fmt.Errorf("decoding /pool/stats response: %w", err)
	}

	return Stats{
		QueuedTasks:   envelope.Data.PendingTasks,
		ActiveWorkers: envelope.Data.WorkingThreads,
		TotalWorkers:  envelope.Data.WaitingThreads + envelope.Data.WorkingThreads,
	}, nil
}

// Run polls every interval, pushing results to onStats, until ctx is
// canceled.
func (s *Scraper) Run(ctx context.Context, interval time.Duration, onStats func(Stats, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := s.Poll(ctx)
			onStats(stats, err)
		}
	}
}
