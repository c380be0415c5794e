package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlDuplicateEntry = 1062

// isDuplicateKey reports a unique key violation from mysql or sqlite.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Mapper converts between an aggregate and its root row. Child rows (order
// lines, cart lines, coupon usages) are handled by ChildWriter and a loader.
type Mapper[T shared.Persistable, P any] struct {
	ToPO func(aggregate T) *P

	// Load builds the aggregate from its root row, reading children with db.
	Load func(db *gorm.DB, row *P) (T, error)
}

// ChildWriter persists rows owned by the aggregate after the root row has
// been inserted or updated. It runs inside the same transaction.
type ChildWriter[T shared.Persistable] func(tx *gorm.DB, aggregate T, created bool) (int64, error)

// Repository is the generic GORM repository behind every aggregate.
// Reads go through the unit of work transaction when one is carried by ctx.
// Writes are staged and only run when the unit of work saves.
type Repository[T shared.Persistable, P any] struct {
	db       *gorm.DB
	entity   string
	mapper   Mapper[T, P]
	children ChildWriter[T]
	now      func() time.Time
}

func NewRepository[T shared.Persistable, P any](db *gorm.DB, entity string, mapper Mapper[T, P], children ChildWriter[T]) *Repository[T, P] {
	return &Repository[T, P]{
		db:       db,
		entity:   entity,
		mapper:   mapper,
		children: children,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// conn returns the transaction from context if available, otherwise the default db
func (r *Repository[T, P]) conn(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *Repository[T, P]) session(ctx context.Context) (persistence.Session, error) {
	s := persistence.SessionFromContext(ctx)
	if s == nil || s.Tx() == nil {
		return nil, fmt.Errorf("%s write: %w", r.entity, shared.ErrNoTransaction)
	}
	return s, nil
}

// GetByID returns a live (not soft deleted) aggregate.
func (r *Repository[T, P]) GetByID(ctx context.Context, id string) (T, error) {
	return r.FindOne(ctx, "id = ?", id)
}

// FindOne loads the first live row matching query.
func (r *Repository[T, P]) FindOne(ctx context.Context, query string, args ...any) (T, error) {
	var zero T
	db := r.conn(ctx)

	row := new(P)
	err := db.Where(query, args...).Where("is_deleted = ?", false).Take(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, shared.NewNotFoundError(r.entity)
		}
		return zero, fmt.Errorf("failed to load %s: %w", r.entity, err)
	}
	return r.mapper.Load(db, row)
}

// Find loads every live row matching query, in the given order.
func (r *Repository[T, P]) Find(ctx context.Context, order string, query string, args ...any) ([]T, error) {
	return r.FindScoped(ctx, order, func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) })
}

// FindScoped loads every live row the scopes select, in the given order.
func (r *Repository[T, P]) FindScoped(ctx context.Context, order string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	db := r.conn(ctx)

	var rows []*P
	q := db.Scopes(scopes...).Where("is_deleted = ?", false)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.entity, err)
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		agg, err := r.mapper.Load(db, row)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

// Count counts live rows matching query.
func (r *Repository[T, P]) Count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(new(P)).Where(query, args...).Where("is_deleted = ?", false).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.entity, err)
	}
	return n, nil
}

// Add stages an insert of a new aggregate.
func (r *Repository[T, P]) Add(ctx context.Context, aggregate T) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}
	return s.Stage(aggregate, func(tx *gorm.DB) (int64, error) {
		aggregate.MarkCreated(r.now())
		row := r.mapper.ToPO(aggregate)

		result := tx.Omit(clause.Associations).Create(row)
		if result.Error != nil && isDuplicateKey(result.Error) {
			return 0, shared.NewConcurrencyConflictError(r.entity, aggregate.ID())
		}
		if result.Error != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", r.entity, result.Error)
		}
		affected := result.RowsAffected

		if r.children != nil {
			n, err := r.children(tx, aggregate, true)
			if err != nil {
				return 0, err
			}
			affected += n
		}
		return affected, nil
	})
}

// Update stages a versioned update. At flush time the row must still carry
// the version the aggregate was loaded with, otherwise the write fails with
// a concurrency conflict and nothing is changed.
func (r *Repository[T, P]) Update(ctx context.Context, aggregate T) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}
	return s.Stage(aggregate, func(tx *gorm.DB) (int64, error) {
		aggregate.MarkUpdated(r.now())
		n, err := r.writeVersioned(tx, aggregate)
		if err != nil {
			return 0, err
		}
		if r.children != nil {
			c, err := r.children(tx, aggregate, false)
			if err != nil {
				return 0, err
			}
			n += c
		}
		return n, nil
	})
}

// SoftDelete stages a versioned update that flags the row as deleted.
func (r *Repository[T, P]) SoftDelete(ctx context.Context, aggregate T) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}
	return s.Stage(aggregate, func(tx *gorm.DB) (int64, error) {
		aggregate.MarkDeleted(r.now())
		return r.writeVersioned(tx, aggregate)
	})
}

func (r *Repository[T, P]) writeVersioned(tx *gorm.DB, aggregate T) (int64, error) {
	expected := aggregate.Version()
	row := r.mapper.ToPO(aggregate)
	setVersion(row, expected+1)

	result := tx.Model(row).
		Where("version = ? AND is_deleted = ?", expected, false).
		Select("*").
		Omit("id", "created_at").
		Updates(row)
	if result.Error != nil && isDuplicateKey(result.Error) {
		return 0, shared.NewConcurrencyConflictError(r.entity, aggregate.ID())
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update %s: %w", r.entity, result.Error)
	}

	if result.RowsAffected == 0 {
		var live int64
		if err := tx.Model(new(P)).Where("id = ? AND is_deleted = ?", aggregate.ID(), false).Count(&live).Error; err != nil {
			return 0, fmt.Errorf("failed to check %s: %w", r.entity, err)
		}
		if live == 0 {
			return 0, shared.NewNotFoundError(r.entity)
		}
		return 0, shared.NewConcurrencyConflictError(r.entity, aggregate.ID())
	}

	aggregate.IncrementVersion()
	return result.RowsAffected, nil
}

// versioned is implemented by every PO through the embedded po.BaseModel.
type versioned interface {
	SetVersion(v int)
}

func setVersion(row any, v int) {
	if vr, ok := row.(versioned); ok {
		vr.SetVersion(v)
	}
}
