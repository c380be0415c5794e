package shared

import "time"

// AggregateRoot is the entry point of a consistency boundary.
// Pending events are only produced by the aggregate's own mutation methods;
// the persistence layer reads them with PendingEvents and empties the list
// with ClearEvents once they have been written to the outbox.
type AggregateRoot interface {
	ID() string
	Version() int
	AggregateType() string
	PendingEvents() []DomainEvent
	ClearEvents()
}

// Persistable is an aggregate the generic repository can stamp and version.
type Persistable interface {
	AggregateRoot
	IsDeleted() bool
	MarkCreated(at time.Time)
	MarkUpdated(at time.Time)
	MarkDeleted(at time.Time)
	IncrementVersion()
}

// Entity has an identity that outlives its attribute values.
type Entity interface {
	ID() string
}

// Metadata carries identity, optimistic version and audit timestamps.
// Aggregates embed it; the mutators are meant for repositories only.
type Metadata struct {
	id        string
	version   int
	createdAt time.Time
	updatedAt time.Time
	deleted   bool
	deletedAt *time.Time
}

// NewMetadata starts the metadata of a brand new aggregate.
func NewMetadata(id string) Metadata {
	return Metadata{id: id}
}

// RestoreMetadata rebuilds metadata from storage.
func RestoreMetadata(id string, version int, createdAt, updatedAt time.Time, deletedAt *time.Time) Metadata {
	return Metadata{
		id:        id,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deleted:   deletedAt != nil,
		deletedAt: deletedAt,
	}
}

func (m *Metadata) ID() string               { return m.id }
func (m *Metadata) Version() int             { return m.version }
func (m *Metadata) CreatedAt() time.Time     { return m.createdAt }
func (m *Metadata) UpdatedAt() time.Time     { return m.updatedAt }
func (m *Metadata) IsDeleted() bool          { return m.deleted }
func (m *Metadata) DeletedAt() *time.Time    { return m.deletedAt }
func (m *Metadata) IsNew() bool              { return m.createdAt.IsZero() }
func (m *Metadata) IncrementVersion()        { m.version++ }
func (m *Metadata) MarkUpdated(at time.Time) { m.updatedAt = at }

// MarkCreated stamps both timestamps on first insert.
func (m *Metadata) MarkCreated(at time.Time) {
	m.createdAt = at
	m.updatedAt = at
}

// MarkDeleted flags a soft delete. The row stays in storage.
func (m *Metadata) MarkDeleted(at time.Time) {
	m.deleted = true
	m.deletedAt = &at
	m.updatedAt = at
}

// EventRecorder is the pending event list of one aggregate. Aggregates keep
// it in an unexported field so only their own methods can record into it.
type EventRecorder struct {
	events []DomainEvent
}

// Record appends an event.
func (r *EventRecorder) Record(event DomainEvent) {
	r.events = append(r.events, event)
}

// Pending returns a copy of the recorded events.
func (r *EventRecorder) Pending() []DomainEvent {
	if len(r.events) == 0 {
		return nil
	}
	out := make([]DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Clear drops every recorded event.
func (r *EventRecorder) Clear() {
	r.events = nil
}
