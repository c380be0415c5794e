package order

import (
	"context"
	"time"

	"marketplace/domain/shared"
)

// ByStatusSpecification matches orders in one status
type ByStatusSpecification struct {
	Status Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	return o.Status() == spec.Status
}

// CreatedBetweenSpecification matches orders created inside [Start, End].
// A zero bound is ignored.
type CreatedBetweenSpecification struct {
	Start time.Time
	End   time.Time
}

func (spec CreatedBetweenSpecification) IsSatisfiedBy(_ context.Context, o *Order) bool {
	createdAt := o.CreatedAt()
	if !spec.Start.IsZero() && createdAt.Before(spec.Start) {
		return false
	}
	if !spec.End.IsZero() && createdAt.After(spec.End) {
		return false
	}
	return true
}

// Cancellable matches orders that Cancel would accept.
var Cancellable = shared.SpecFunc[*Order](func(_ context.Context, o *Order) bool {
	return o.Status() == StatusPending || o.Status() == StatusConfirmed
})

// Filter keeps the orders satisfying spec, preserving order.
func Filter(ctx context.Context, orders []*Order, spec shared.Specification[*Order]) []*Order {
	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if spec.IsSatisfiedBy(ctx, o) {
			out = append(out, o)
		}
	}
	return out
}
