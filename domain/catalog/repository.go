package catalog

import (
	"context"

	"marketplace/domain/shared"
)

// Repository Product repository interface
type Repository interface {
	shared.Repository[*Product]

	// FindByIDs is a read-only lookup; results are not staged for writing.
	FindByIDs(ctx context.Context, ids []string) ([]*Product, error)
}
