// Package outbox drains the transactional outbox table.
//
// The relay runs outside the business transaction. It polls unprocessed rows
// in creation order, hands each one to a Publisher and stamps processed_at on
// success. Delivery is at least once: a crash between Publish and
// MarkProcessed republishes the row on the next tick, so consumers must
// deduplicate by message id.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/domain/shared"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

// Publisher hands one outbox message to the message bus.
type Publisher interface {
	Publish(ctx context.Context, msg shared.OutboxMessage) error
}

// Locker grants a short lease so that only one relay instance polls at a time.
// acquired is false when another holder owns the key; that is not an error.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// LoggingPublisher writes every message to the log. Used when no broker is configured.
type LoggingPublisher struct{}

func (p *LoggingPublisher) Publish(ctx context.Context, msg shared.OutboxMessage) error {
	logger.FromContext(ctx).Info("Outbox message published",
		zap.String("message_id", msg.ID),
		zap.String("event_type", msg.Type),
		zap.String("aggregate_type", msg.AggregateType),
		zap.String("aggregate_id", msg.AggregateID),
		zap.String("payload", msg.Content),
	)
	return nil
}

// RelayConfig tunes the polling loop.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	LockKey      string
	LockTTL      time.Duration
}

// BatchResult counts what one tick did.
type BatchResult struct {
	Fetched   int
	Published int
	Failed    int
	Skipped   int

	// DeadLettered counts messages that used up their last attempt this tick.
	DeadLettered int
}

// Relay polls the outbox store and publishes pending messages.
type Relay struct {
	store     shared.OutboxStore
	publisher Publisher
	locker    Locker
	cfg       RelayConfig
	now       func() time.Time
}

// NewRelay validates its collaborators. locker may be nil for a single instance deployment.
func NewRelay(store shared.OutboxStore, publisher Publisher, locker Locker, cfg RelayConfig) (*Relay, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if locker != nil && cfg.LockKey == "" {
		return nil, fmt.Errorf("lock key is required when a locker is set")
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}

	return &Relay{
		store:     store,
		publisher: publisher,
		locker:    locker,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run polls until ctx is cancelled. Batch errors are logged and the loop continues.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	logger.Info("Outbox relay started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize),
		zap.Int("max_attempts", r.cfg.MaxAttempts),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Outbox batch processing failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch runs one polling tick under the lease.
//
// Messages of one aggregate are published in order: once a message fails,
// later messages of the same aggregate in this batch are skipped and retried
// on the next tick. A message that fails MaxAttempts times is dead lettered:
// it stays unprocessed with its last error, is no longer polled, and later
// messages of its aggregate are published past it. Resetting its attempts
// column puts it back in the queue.
func (r *Relay) ProcessBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	if r.locker != nil {
		release, acquired, err := r.locker.Acquire(ctx, r.cfg.LockKey, r.cfg.LockTTL)
		if err != nil {
			return result, fmt.Errorf("failed to acquire outbox lease: %w", err)
		}
		if !acquired {
			logger.Debug("Outbox lease held by another relay", zap.String("lock_key", r.cfg.LockKey))
			return result, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release outbox lease", zap.Error(err))
			}
		}()
	}

	messages, err := r.store.FetchUnprocessed(ctx, r.cfg.BatchSize, r.cfg.MaxAttempts)
	if err != nil {
		return result, err
	}
	result.Fetched = len(messages)

	blocked := make(map[string]struct{})
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := msg.AggregateType + "/" + msg.AggregateID
		if _, ok := blocked[key]; ok {
			result.Skipped++
			continue
		}

		if err := r.publisher.Publish(ctx, msg); err != nil {
			result.Failed++
			blocked[key] = struct{}{}
			logger.Warn("Failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("event_type", msg.Type),
				zap.Int("attempts", msg.Attempts+1),
				zap.Error(err),
			)
			if recErr := r.store.RecordFailure(ctx, msg.ID, err); recErr != nil {
				logger.Error("Failed to record outbox failure",
					zap.String("message_id", msg.ID),
					zap.Error(recErr),
				)
				continue
			}
			if r.cfg.MaxAttempts > 0 && msg.Attempts+1 >= r.cfg.MaxAttempts {
				result.DeadLettered++
				logger.Error("Outbox message dead lettered, later messages of its aggregate will be published past it",
					zap.String("message_id", msg.ID),
					zap.String("event_type", msg.Type),
					zap.String("aggregate_type", msg.AggregateType),
					zap.String("aggregate_id", msg.AggregateID),
					zap.Int("attempts", msg.Attempts+1),
				)
			}
			continue
		}

		if err := r.store.MarkProcessed(ctx, msg.ID, r.now()); err != nil {
			// Published but not marked: the next tick publishes it again.
			logger.Error("Failed to mark outbox message processed",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			blocked[key] = struct{}{}
			continue
		}
		result.Published++
	}

	if result.Fetched > 0 {
		logger.Debug("Outbox batch processed",
			zap.Int("fetched", result.Fetched),
			zap.Int("published", result.Published),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
			zap.Int("dead_lettered", result.DeadLettered),
		)
	}
	return result, nil
}
