package shared

import (
	"context"
	"time"
)

// UnitOfWork owns one database transaction and the aggregates staged in it.
//
// BeginTransaction returns a derived context; repositories called with that
// context stage their writes into this unit instead of touching the database.
// SaveChanges converts the pending events of every staged aggregate into
// outbox rows and flushes business rows plus outbox rows without committing.
// CommitTransaction and RollbackTransaction are no-ops when nothing is open.
type UnitOfWork interface {
	BeginTransaction(ctx context.Context) (context.Context, error)
	SaveChanges(ctx context.Context) (int64, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	InTransaction() bool
}

// UnitOfWorkFactory hands out a fresh unit per logical operation.
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

// Execute runs fn inside a new transaction of uow, saves, and commits.
// Any error or panic from fn rolls the transaction back before returning.
func Execute(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) error) (err error) {
	txCtx, err := uow.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = uow.RollbackTransaction(context.WithoutCancel(ctx))
			panic(r)
		}
		if err != nil {
			_ = uow.RollbackTransaction(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(txCtx); err != nil {
		return err
	}
	if _, err = uow.SaveChanges(txCtx); err != nil {
		return err
	}
	return uow.CommitTransaction(txCtx)
}

// OutboxMessage is the durable form of one domain event.
type OutboxMessage struct {
	ID            string
	Type          string
	AggregateType string
	AggregateID   string
	Content       string
	OccurredAtUTC time.Time
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	Attempts      int
	LastError     string
}

// OutboxStore is what the relay needs from the outbox table.
type OutboxStore interface {
	// FetchUnprocessed returns rows with no ProcessedAt, oldest CreatedAt first,
	// skipping rows that already failed maxAttempts times.
	FetchUnprocessed(ctx context.Context, limit, maxAttempts int) ([]OutboxMessage, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
	RecordFailure(ctx context.Context, id string, cause error) error
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
