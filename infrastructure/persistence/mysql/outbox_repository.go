package mysql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/mysql/po"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	outboxInsertBatchSize = 100
	maxLastErrorLength    = 1024
)

// OutboxRepository MySQL/GORM implementation of the transactional outbox
// Rows are written by the unit of work inside the business transaction and
// read back by the relay outside of it.
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository Create outbox repository
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// NewOutboxMessage serializes one domain event raised by aggregate.
func NewOutboxMessage(aggregate shared.AggregateRoot, event shared.DomainEvent, now time.Time) (shared.OutboxMessage, error) {
	if err := shared.ValidateEvent(event); err != nil {
		return shared.OutboxMessage{}, fmt.Errorf("invalid domain event: %w", err)
	}

	content, err := json.Marshal(event)
	if err != nil {
		return shared.OutboxMessage{}, fmt.Errorf("failed to serialize %s: %w", event.EventName(), err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return shared.OutboxMessage{}, fmt.Errorf("failed to generate outbox message ID: %w", err)
	}

	return shared.OutboxMessage{
		ID:            id.String(),
		Type:          event.EventName(),
		AggregateType: aggregate.AggregateType(),
		AggregateID:   event.GetAggregateID(),
		Content:       string(content),
		OccurredAtUTC: event.OccurredOn().UTC(),
		CreatedAt:     now,
	}, nil
}

// SaveMessages inserts outbox rows with the caller's transaction.
func (r *OutboxRepository) SaveMessages(tx *gorm.DB, messages []shared.OutboxMessage) (int64, error) {
	if len(messages) == 0 {
		return 0, nil
	}
	rows := make([]po.OutboxMessagePO, len(messages))
	for i, m := range messages {
		rows[i] = po.FromOutboxMessage(m)
	}
	result := tx.CreateInBatches(&rows, outboxInsertBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to save outbox messages: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FetchUnprocessed returns pending rows oldest first. maxAttempts <= 0
// disables the attempts filter.
func (r *OutboxRepository) FetchUnprocessed(ctx context.Context, limit, maxAttempts int) ([]shared.OutboxMessage, error) {
	q := r.db.WithContext(ctx).Where("processed_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempts < ?", maxAttempts)
	}

	var rows []po.OutboxMessagePO
	if err := q.Order("created_at ASC, id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch outbox messages: %w", err)
	}

	out := make([]shared.OutboxMessage, len(rows))
	for i := range rows {
		out[i] = rows[i].ToMessage()
	}
	return out, nil
}

// MarkProcessed stamps a message as handed off. Already processed rows are left alone.
func (r *OutboxRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&po.OutboxMessagePO{}).
		Where("id = ? AND processed_at IS NULL", id).
		Update("processed_at", at.UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to mark outbox message %s processed: %w", id, result.Error)
	}
	return nil
}

// RecordFailure bumps the attempt counter and keeps the latest error text.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > maxLastErrorLength {
		msg = msg[:maxLastErrorLength]
	}

	result := r.db.WithContext(ctx).Model(&po.OutboxMessagePO{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + ?", 1),
			"last_error": msg,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to record outbox failure for %s: %w", id, result.Error)
	}
	return nil
}

// DeleteProcessedBefore purges delivered rows older than cutoff.
func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff.UTC()).
		Delete(&po.OutboxMessagePO{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge outbox messages: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Compile-time interface implementation check
var _ shared.OutboxStore = (*OutboxRepository)(nil)
