package shared

import (
	"context"
)

// Specification encapsulates one business rule over a candidate of type T.
type Specification[T any] interface {
	IsSatisfiedBy(ctx context.Context, candidate T) bool
}

// SpecFunc adapts a plain function to Specification.
type SpecFunc[T any] func(ctx context.Context, candidate T) bool

// IsSatisfiedBy calls f.
func (f SpecFunc[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	return f(ctx, candidate)
}

// ============================================================================
// Composite Specifications
// ============================================================================

// AndSpecification is satisfied when every member is satisfied.
type AndSpecification[T any] struct {
	Specs []Specification[T]
}

func (spec AndSpecification[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	for _, s := range spec.Specs {
		if !s.IsSatisfiedBy(ctx, candidate) {
			return false
		}
	}
	return true
}

// And combines specs with logical AND.
func And[T any](specs ...Specification[T]) Specification[T] {
	return AndSpecification[T]{Specs: specs}
}

// OrSpecification represents the logical OR of two specifications
type OrSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec OrSpecification[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	return spec.Left.IsSatisfiedBy(ctx, candidate) || spec.Right.IsSatisfiedBy(ctx, candidate)
}

// Or creates a new OrSpecification
func Or[T any](left, right Specification[T]) Specification[T] {
	return OrSpecification[T]{Left: left, Right: right}
}

// NotSpecification represents the logical NOT of a specification
type NotSpecification[T any] struct {
	Spec Specification[T]
}

func (spec NotSpecification[T]) IsSatisfiedBy(ctx context.Context, candidate T) bool {
	return !spec.Spec.IsSatisfiedBy(ctx, candidate)
}

// Not creates a new NotSpecification
func Not[T any](inner Specification[T]) Specification[T] {
	return NotSpecification[T]{Spec: inner}
}
