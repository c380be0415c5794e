package order

import (
	"context"

	"marketplace/domain/shared"
)

// Repository Order repository interface
// Writes are staged in the unit of work; events are collected by the unit of
// work into the outbox table.
type Repository interface {
	shared.Repository[*Order]

	// FindByUserID Find user's orders, newest first (read-only)
	FindByUserID(ctx context.Context, userID string) ([]*Order, error)

	// FindMatching Find user's orders satisfying spec, newest first; a nil spec matches all
	FindMatching(ctx context.Context, userID string, spec shared.Specification[*Order]) ([]*Order, error)
}
