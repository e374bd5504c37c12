package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/vantageav/ledrental-backend/pkg/config"
	"github.com/vantageav/ledrental-backend/pkg/logger"
)

// StreamAppender is the slice of the redis client the publisher needs.
type StreamAppender interface {
	XAdd(ctx context.Context, stream string, values map[string]any) (string, error)
}

// Publisher drains unpublished outbox rows into a redis stream. Rows that
// keep failing past MaxAttempts are skipped and left for operator inspection.
type Publisher struct {
	repo   *Repository
	stream StreamAppender
	cfg    config.OutboxConfig
	logg   *logger.Logger
}

func NewPublisher(repo *Repository, stream StreamAppender, cfg config.OutboxConfig, logg *logger.Logger) (*Publisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if stream == nil {
		return nil, fmt.Errorf("stream appender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Stream == "" {
		return nil, fmt.Errorf("outbox stream name required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{repo: repo, stream: stream, cfg: cfg, logg: logg}, nil
}

// Run polls until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	interval := time.Duration(p.cfg.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.DrainOnce(ctx); err != nil {
				p.logg.Error(ctx, "outbox drain failed", err)
			}
		}
	}
}

// DrainOnce publishes one batch and returns how many events went out.
func (p *Publisher) DrainOnce(ctx context.Context) (int, error) {
	events, err := p.repo.FetchUnpublished(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetching unpublished events: %w", err)
	}

	published := 0
	for _, event := range events {
		if p.cfg.MaxAttempts > 0 && event.AttemptCount >= p.cfg.MaxAttempts {
			continue
		}

		_, err := p.stream.XAdd(ctx, p.cfg.Stream, map[string]any{
			"event_id":       event.ID.String(),
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID.String(),
			"payload":        string(event.Payload),
			"occurred_at":    event.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			if markErr := p.repo.MarkFailed(ctx, event.ID, err); markErr != nil {
				p.logg.Error(ctx, "failed to mark outbox event failed", markErr)
			}
			continue
		}

		if err := p.repo.MarkPublished(ctx, event.ID); err != nil {
			// The event went out but stays unpublished; the stream consumer
			// must tolerate the duplicate on the next drain.
			p.logg.Error(ctx, "failed to mark outbox event published", err)
			continue
		}
		published++
	}

	if published > 0 {
		p.logg.Info(ctx, fmt.Sprintf("published %d outbox event(s)", published))
	}
	return published, nil
}
