package cart

import (
	"context"

	"marketplace/domain/shared"
)

type Repository interface {
	shared.Repository[*Cart]

	// FindByUserID returns the user's active cart or a not-found error.
	FindByUserID(ctx context.Context, userID string) (*Cart, error)
}
