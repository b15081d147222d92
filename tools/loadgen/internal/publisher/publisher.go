// Package publisher drives a configurable-rate loop publishing
// generated job-request payloads onto the service's Redis ingestion
// channel.
package publisher

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/tools/loadgen/internal/generator"
)

// Publisher publishes generated job requests to a Redis channel at a
// fixed rate.
type Publisher struct {
	client    *redis.Client
	channel   string
	generator *generator.JobGenerator
	onPublish func(error)
}

// New builds a Publisher.
func New(client *redis.Client, channel string, gen *generator.JobGenerator, onPublish func(error)) *Publisher {
	return &Publisher{client: client, channel: channel, generator: gen, onPublish: onPublish}
}

// Run publishes one job every interval until ctx is canceled.
func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, err := p.generator.Generate()
			if err != nil {
				if p.onPublish != nil {
					p.onPublish(err)
				}
				continue
			}
			err = p.client.Publish(ctx, p.channel, payload).Err()
			if p.onPublish != nil {
				p.onPublish(err)
			}
		}
	}
}
