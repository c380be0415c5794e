// Package address keeps the delivery addresses of users.
package address

import (
	"fmt"
	"time"

	"marketplace/domain/shared"

	"github.com/google/uuid"
)

const aggregateType = "address"

// Address is a delivery address owned by one user.
type Address struct {
	shared.Metadata

	userID string
	fields Snapshot

	events shared.EventRecorder
}

// Snapshot is the immutable copy of an address stored on an order, so later
// edits to the address book never rewrite order history.
type Snapshot struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

func (s Snapshot) validate() error {
	switch {
	case s.RecipientName == "":
		return shared.NewValidationError(aggregateType, "recipient_name", "recipient name is required")
	case s.Line1 == "":
		return shared.NewValidationError(aggregateType, "line1", "street line is required")
	case s.City == "":
		return shared.NewValidationError(aggregateType, "city", "city is required")
	case s.Country == "":
		return shared.NewValidationError(aggregateType, "country", "country is required")
	}
	return nil
}

func NewAddress(userID string, fields Snapshot) (*Address, error) {
	if userID == "" {
		return nil, shared.NewValidationError(aggregateType, "user_id", "user id is required")
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate address ID: %w", err)
	}
	return &Address{
		Metadata: shared.NewMetadata(id.String()),
		userID:   userID,
		fields:   fields,
	}, nil
}

// RebuildFromDTO Repository use only.
func RebuildFromDTO(id, userID string, fields Snapshot, version int, createdAt, updatedAt time.Time, deletedAt *time.Time) *Address {
	return &Address{
		Metadata: shared.RestoreMetadata(id, version, createdAt, updatedAt, deletedAt),
		userID:   userID,
		fields:   fields,
	}
}

// Change replaces the address fields. Orders placed earlier keep their snapshot.
func (a *Address) Change(fields Snapshot) error {
	if err := fields.validate(); err != nil {
		return err
	}
	a.fields = fields
	return nil
}

func (a *Address) BelongsTo(userID string) bool { return a.userID == userID }

func (a *Address) UserID() string                      { return a.userID }
func (a *Address) Snapshot() Snapshot                  { return a.fields }
func (a *Address) AggregateType() string               { return aggregateType }
func (a *Address) PendingEvents() []shared.DomainEvent { return a.events.Pending() }
func (a *Address) ClearEvents()                        { a.events.Clear() }

var _ shared.Persistable = (*Address)(nil)
