package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UnitOfWork implements the Unit of Work pattern with GORM
// It owns one transaction, keeps the writes repositories staged against it,
// and turns the pending events of every touched aggregate into outbox rows
// that are flushed together with the business rows.
type UnitOfWork struct {
	mu      sync.Mutex
	db      *gorm.DB
	outbox  *OutboxRepository
	tx      *gorm.DB
	tracked []shared.AggregateRoot
	staged  []persistence.WriteFunc
	now     func() time.Time
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:     db,
		outbox: NewOutboxRepository(db),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// BeginTransaction opens the transaction and returns a context carrying it.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) (context.Context, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tx != nil {
		return ctx, shared.ErrTransactionAlreadyOpen
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	u.tx = tx
	u.tracked = nil
	u.staged = nil
	return persistence.ContextWithSession(ctx, u), nil
}

// Tx implements persistence.Session.
func (u *UnitOfWork) Tx() *gorm.DB {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tx
}

// Stage implements persistence.Session.
func (u *UnitOfWork) Stage(aggregate shared.AggregateRoot, write persistence.WriteFunc) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tx == nil {
		return shared.ErrNoTransaction
	}
	u.track(aggregate)
	u.staged = append(u.staged, write)
	return nil
}

func (u *UnitOfWork) track(aggregate shared.AggregateRoot) {
	for _, a := range u.tracked {
		if a == aggregate {
			return
		}
	}
	u.tracked = append(u.tracked, aggregate)
}

// SaveChanges flushes staged writes in order, then the outbox rows built from
// the pending events, all inside the open transaction. It does not commit.
// Events are cleared from their aggregates only when everything was written.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tx == nil {
		return 0, shared.ErrNoTransaction
	}

	now := u.now()
	var messages []shared.OutboxMessage
	for _, agg := range u.tracked {
		for _, event := range agg.PendingEvents() {
			m, err := NewOutboxMessage(agg, event, now)
			if err != nil {
				return 0, err
			}
			messages = append(messages, m)
		}
	}

	tx := u.tx.WithContext(ctx)
	var affected int64
	for _, write := range u.staged {
		n, err := write(tx)
		if err != nil {
			return 0, err
		}
		affected += n
	}

	n, err := u.outbox.SaveMessages(tx, messages)
	if err != nil {
		return 0, err
	}
	affected += n

	for _, agg := range u.tracked {
		agg.ClearEvents()
	}
	u.tracked = nil
	u.staged = nil

	logger.FromContext(ctx).Debug("unit of work flushed",
		zap.Int64("rows_affected", affected),
		zap.Int("outbox_messages", len(messages)))
	return affected, nil
}

// CommitTransaction commits; a no-op when nothing is open.
func (u *UnitOfWork) CommitTransaction(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tx == nil {
		return nil
	}
	err := u.tx.Commit().Error
	u.reset()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction discards everything; a no-op when nothing is open.
func (u *UnitOfWork) RollbackTransaction(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.reset()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) InTransaction() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tx != nil
}

func (u *UnitOfWork) reset() {
	u.tx = nil
	u.tracked = nil
	u.staged = nil
}

// Compile-time check that UnitOfWork implements shared.UnitOfWork
var (
	_ shared.UnitOfWork   = (*UnitOfWork)(nil)
	_ persistence.Session = (*UnitOfWork)(nil)
)
