package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medboard/internal/activity/store/postgres"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 100
)

// OutboxStore is the slice of the Postgres store the relay needs.
type OutboxStore interface {
	UnpublishedBatch(ctx context.Context, limit int) ([]postgres.OutboxRecord, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, publishedAt time.Time) error
}

// Producer is the publishing slice of Publisher.
type Producer interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Relay drains the activity outbox into Kafka. It polls for unpublished rows,
// produces them in order and marks them delivered. At-least-once: a crash
// between produce and mark re-delivers, consumers must tolerate duplicates.
type Relay struct {
	store     OutboxStore
	publisher Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewRelay(store OutboxStore, publisher Producer, logger *slog.Logger) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  defaultPollInterval,
		batchSize: defaultBatchSize,
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drain(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "activity relay drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	for {
		batch, err := r.store.UnpublishedBatch(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		published := make([]uuid.UUID, 0, len(batch))
		for _, rec := range batch {
			if err := r.publisher.Publish(ctx, rec.ID.String(), rec.Payload); err != nil {
				// Mark what made it through, retry the rest next tick.
				if markErr := r.store.MarkPublished(ctx, published, time.Now()); markErr != nil {
					return markErr
				}
				return err
			}
			published = append(published, rec.ID)
		}
		if err := r.store.MarkPublished(ctx, published, time.Now()); err != nil {
			return err
		}
		if len(batch) < r.batchSize {
			return nil
		}
	}
}
