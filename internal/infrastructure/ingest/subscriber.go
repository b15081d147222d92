// Package ingest bridges external job submissions into the scheduler.
// It subscribes to a Redis pub/sub channel and turns each message into
// a scheduler.Job, submitted at PriorityHigh when the request marks
// itself urgent and PriorityNormal otherwise.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/erp/backend/internal/infrastructure/config"
	"github.com/erp/backend/internal/infrastructure/scheduler"
	"github.com/erp/backend/pkg/workerpool"
)

// submitRetryBackoff is the base linear backoff between submit
// retries: attempt N waits N*submitRetryBackoff.
const submitRetryBackoff = 200 * time.Millisecond

// JobRequest is the wire shape of a message published to the jobs
// channel.
type JobRequest struct {
	ReportType  scheduler.ReportType `json:"report_type"`
	TenantID    *uuid.UUID           `json:"tenant_id,omitempty"`
	PeriodStart time.Time            `json:"period_start"`
	PeriodEnd   time.Time            `json:"period_end"`
	Urgent      bool                 `json:"urgent"`
}

// Submitter is the subset of scheduler.Scheduler the subscriber needs.
type Submitter interface {
	SubmitJobWithPriority(job *scheduler.Job, priority workerpool.TaskPriority) error
}

// Subscriber reads job requests off a Redis channel and forwards them
// to a Submitter.
type Subscriber struct {
	client    *redis.Client
	channel   string
	submitter Submitter
	logger    *zap.Logger
	maxRetry  int
}

// NewClient builds a Redis client from configuration, pinging it once
// to fail fast on misconfiguration.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewSubscriber builds a Subscriber over client, listening on channel
// and forwarding decoded requests to submitter. maxRetry sets the
// retry budget given to every job built from an incoming request.
func NewSubscriber(client *redis.Client, channel string, submitter Submitter, logger *zap.Logger, maxRetry int) *Subscriber {
	return &Subscriber{client: client, channel: channel, submitter: submitter, logger: logger, maxRetry: maxRetry}
}

// Run subscribes to the channel and processes messages until ctx is
// canceled.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}

	s.logger.Info("ingest subscriber listening", zap.String("channel", s.channel))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(msg.Payload)
		}
	}
}

// handle decodes one pub/sub message and forwards it to the submitter.
// A malformed payload is unretryable (decoding it again produces the
// same error) and is logged and discarded. A submit failure is
// typically transient (a full queue, or the scheduler briefly not
// running) and is retried up to maxRetry times with a short backoff
// before being given up on.
func (s *Subscriber) handle(payload string) {
	var req JobRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		s.logger.Warn("discarding malformed job request", zap.Error(err), zap.String("payload", payload))
		return
	}
	if req.ReportType == "" {
		s.logger.Warn("discarding job request with empty report_type")
		return
	}

	job := scheduler.NewJob(req.TenantID, req.ReportType, req.PeriodStart, req.PeriodEnd, s.maxRetry)
	priority := workerpool.PriorityNormal
	if req.Urgent {
		priority = workerpool.PriorityHigh
	}

	s.submitWithRetry(job, priority)
}

// submitWithRetry attempts to submit job up to s.maxRetry+1 times,
// backing off linearly between attempts. Submission errors are
// transient queue-capacity/availability conditions on the scheduler,
// not decode errors, so retrying the same job is safe.
func (s *Subscriber) submitWithRetry(job *scheduler.Job, priority workerpool.TaskPriority) {
	var err error
	for attempt := 0; attempt <= s.maxRetry; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * submitRetryBackoff)
		}
		if err = s.submitter.SubmitJobWithPriority(job, priority); err == nil {
			if attempt > 0 {
				s.logger.Info("ingested job submitted after retry",
					zap.String("job_id", job.ID.String()),
					zap.Int("attempt", attempt),
				)
			}
			return
		}
		s.logger.Warn("submit attempt failed",
			zap.String("job_id", job.ID.String()),
			zap.String("report_type", string(job.ReportType)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	s.logger.Error("failed to submit ingested job after exhausting retries",
		zap.String("job_id", job.ID.String()),
		zap.String("report_type", string(job.ReportType)),
		zap.Int("attempts", s.maxRetry+1),
		zap.Error(err),
	)
}
