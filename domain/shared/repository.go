package shared

import "context"

// Repository is the write-side port over one aggregate type.
// Add, Update and SoftDelete only stage work in the unit of work carried by
// ctx; nothing reaches the database until SaveChanges.
type Repository[T AggregateRoot] interface {
	GetByID(ctx context.Context, id string) (T, error)
	Add(ctx context.Context, aggregate T) error
	Update(ctx context.Context, aggregate T) error
	SoftDelete(ctx context.Context, aggregate T) error
}
