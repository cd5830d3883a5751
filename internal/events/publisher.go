// Package events publishes attempt outcomes to a Redis Stream so other
// systems (dashboards, alerting) can follow scrape health without touching
// the database.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/shopee-product-scraper/internal/models"
)

const DefaultStream = "scraper:attempts"

// StreamClient is the Redis surface the publisher uses, split out for
// mocking.
type StreamClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// AttemptEvent is the wire form of one finished attempt.
type AttemptEvent struct {
	RunID     string    `json:"run_id"`
	TargetURL string    `json:"target_url"`
	Attempt   int       `json:"attempt"`
	Proxy     string    `json:"proxy"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher struct {
	client StreamClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client StreamClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "events"),
	}
}

// Publish appends one event to the stream.
func (p *Publisher) Publish(ctx context.Context, evt AttemptEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"run_id":  evt.RunID,
			"outcome": evt.Outcome,
			"payload": string(payload),
		},
	}).Err()
}

// AttemptFinished implements the scraper's Sink interface. Publish failures
// are logged and dropped; telemetry never fails a run.
func (p *Publisher) AttemptFinished(ctx context.Context, runID, targetURL string, res models.AttemptResult) {
	evt := AttemptEvent{
		RunID:     runID,
		TargetURL: targetURL,
		Attempt:   res.Attempt,
		Proxy:     res.Proxy,
		Outcome:   res.Outcome,
		Error:     res.Error,
		At:        time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.Publish(ctx, evt); err != nil {
		p.logger.Warn("failed to publish attempt event",
			"run_id", runID, "attempt", res.Attempt, "error", err)
	}
}
