package address

import (
	"context"

	"marketplace/domain/shared"
)

type Repository interface {
	shared.Repository[*Address]

	// FindForUser returns the address only when userID owns it.
	FindForUser(ctx context.Context, addressID, userID string) (*Address, error)
}
