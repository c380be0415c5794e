package persistence

import (
	"context"

	"marketplace/domain/shared"

	"gorm.io/gorm"
)

// WriteFunc performs one staged write inside the open transaction and
// reports the rows it affected.
type WriteFunc func(tx *gorm.DB) (int64, error)

// Session is the part of a unit of work repositories talk to.
type Session interface {
	// Tx returns the open transaction, or nil once committed or rolled back.
	Tx() *gorm.DB

	// Stage records aggregate as touched and queues write for the next flush.
	Stage(aggregate shared.AggregateRoot, write WriteFunc) error
}

type sessionKey struct{}

// SessionFromContext returns the unit of work session carried by ctx, or nil.
func SessionFromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s
	}
	return nil
}

// ContextWithSession attaches a unit of work session to ctx.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// TxFromContext retrieves the open GORM transaction from context
// Returns nil if no transaction is present
func TxFromContext(ctx context.Context) *gorm.DB {
	if s := SessionFromContext(ctx); s != nil {
		return s.Tx()
	}
	return nil
}
