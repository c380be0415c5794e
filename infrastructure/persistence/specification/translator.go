// Package specification turns order specifications into GORM scopes so the
// database does the narrowing instead of the repository caller.
package specification

import (
	"marketplace/domain/order"
	"marketplace/domain/shared"

	"gorm.io/gorm"
)

// Scope is a GORM query modifier
type Scope func(*gorm.DB) *gorm.DB

// Translator converts domain specifications to GORM queries
type Translator interface {
	// Translate returns the scope for spec. exact is false when part of spec
	// has no SQL form; the caller must then also filter in memory.
	// A nil scope means nothing could be pushed down.
	Translate(spec shared.Specification[*order.Order]) (scope Scope, exact bool)
}

// GormTranslator implements Translator for GORM
type GormTranslator struct{}

func NewGormTranslator() *GormTranslator {
	return &GormTranslator{}
}

// Translate converts a domain specification to a GORM query function
func (t *GormTranslator) Translate(spec shared.Specification[*order.Order]) (Scope, bool) {
	if spec == nil {
		return nil, true
	}

	switch s := spec.(type) {
	case shared.AndSpecification[*order.Order]:
		return t.translateAnd(s)
	case shared.OrSpecification[*order.Order], shared.NotSpecification[*order.Order]:
		// No partial push-down is sound for OR and NOT
		return nil, false
	}

	return t.translateConcrete(spec)
}

// translateAnd keeps every member that has a SQL form. Untranslatable
// members only make the result inexact; the rest still narrows the query.
func (t *GormTranslator) translateAnd(spec shared.AndSpecification[*order.Order]) (Scope, bool) {
	var scopes []Scope
	exact := true
	for _, member := range spec.Specs {
		scope, ok := t.Translate(member)
		if scope != nil {
			scopes = append(scopes, scope)
		}
		exact = exact && ok
	}
	if len(scopes) == 0 {
		return nil, exact
	}
	return func(db *gorm.DB) *gorm.DB {
		for _, scope := range scopes {
			db = scope(db)
		}
		return db
	}, exact
}

func (t *GormTranslator) translateConcrete(spec shared.Specification[*order.Order]) (Scope, bool) {
	switch s := spec.(type) {
	case order.ByStatusSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", string(s.Status))
		}, true
	case order.CreatedBetweenSpecification:
		if s.Start.IsZero() && s.End.IsZero() {
			return nil, true
		}
		return func(db *gorm.DB) *gorm.DB {
			if !s.Start.IsZero() {
				db = db.Where("created_at >= ?", s.Start.UTC())
			}
			if !s.End.IsZero() {
				db = db.Where("created_at <= ?", s.End.UTC())
			}
			return db
		}, true
	}

	// Unknown specification type, e.g. order.Cancellable
	return nil, false
}
