package po

import (
	"time"

	"marketplace/domain/shared"
)

// OutboxMessagePO Transactional outbox row
// Written in the same transaction as the business rows that raised the event;
// ProcessedAt stays NULL until the relay has handed the message to a publisher.
type OutboxMessagePO struct {
	ID            string     `gorm:"primaryKey;size:36"`
	Type          string     `gorm:"size:100;not null;index"` // e.g. "order.created"
	AggregateType string     `gorm:"size:50;not null"`
	AggregateID   string     `gorm:"size:36;not null;index"`
	Content       string     `gorm:"type:text;not null"` // JSON serialized event
	OccurredAtUTC time.Time  `gorm:"column:occurred_at_utc;not null"`
	CreatedAt     time.Time  `gorm:"not null;index:idx_outbox_pending,priority:2"`
	ProcessedAt   *time.Time `gorm:"index:idx_outbox_pending,priority:1"`
	Attempts      int        `gorm:"not null"`
	LastError     string     `gorm:"size:1024"`
}

// TableName Specify table name
func (OutboxMessagePO) TableName() string {
	return "outbox_messages"
}

func FromOutboxMessage(m shared.OutboxMessage) OutboxMessagePO {
	return OutboxMessagePO{
		ID:            m.ID,
		Type:          m.Type,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		Content:       m.Content,
		OccurredAtUTC: m.OccurredAtUTC,
		CreatedAt:     m.CreatedAt,
		ProcessedAt:   m.ProcessedAt,
		Attempts:      m.Attempts,
		LastError:     m.LastError,
	}
}

func (po *OutboxMessagePO) ToMessage() shared.OutboxMessage {
	return shared.OutboxMessage{
		ID:            po.ID,
		Type:          po.Type,
		AggregateType: po.AggregateType,
		AggregateID:   po.AggregateID,
		Content:       po.Content,
		OccurredAtUTC: po.OccurredAtUTC,
		CreatedAt:     po.CreatedAt,
		ProcessedAt:   po.ProcessedAt,
		Attempts:      po.Attempts,
		LastError:     po.LastError,
	}
}
