package shared

import (
	"fmt"
	"time"
)

// DomainEvent is an immutable fact raised by an aggregate mutation.
// Implementations are plain value structs whose exported fields form the
// serialized payload written to the outbox.
type DomainEvent interface {
	EventName() string
	OccurredOn() time.Time
	GetAggregateID() string
}

// EventMeta holds the fields every event carries.
type EventMeta struct {
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEventMeta stamps an event with its aggregate and the current UTC time.
func NewEventMeta(aggregateID string) EventMeta {
	return EventMeta{AggregateID: aggregateID, OccurredAt: time.Now().UTC()}
}

func (m EventMeta) OccurredOn() time.Time  { return m.OccurredAt }
func (m EventMeta) GetAggregateID() string { return m.AggregateID }

func ValidateEvent(event DomainEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	if event.EventName() == "" {
		return fmt.Errorf("event name cannot be empty")
	}

	if event.GetAggregateID() == "" {
		return fmt.Errorf("aggregate ID cannot be empty")
	}

	if event.OccurredOn().IsZero() {
		return fmt.Errorf("occurred on time cannot be zero")
	}

	return nil
}
