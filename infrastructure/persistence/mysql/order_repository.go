package mysql

import (
	"context"
	"fmt"

	"marketplace/domain/order"
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/mysql/po"
	"marketplace/infrastructure/persistence/specification"

	"gorm.io/gorm"
)

// OrderRepository MySQL/GORM implementation of order repository
// DDD principle: Repository is only responsible for persistence of aggregate roots, not event publishing
// GORM usage specification: Association features are prohibited to maintain DDD aggregate boundaries
type OrderRepository struct {
	*Repository[*order.Order, po.OrderPO]
	translator specification.Translator
}

// NewOrderRepository Create order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	mapper := Mapper[*order.Order, po.OrderPO]{
		ToPO: func(o *order.Order) *po.OrderPO {
			row, _ := po.FromOrderDomain(o)
			return row
		},
		Load: loadOrder,
	}
	return &OrderRepository{
		Repository: NewRepository(db, "order", mapper, writeOrderItems),
		translator: specification.NewGormTranslator(),
	}
}

// loadOrder Manually query order items (do not use GORM's Preload to keep aggregate boundaries clear)
func loadOrder(db *gorm.DB, row *po.OrderPO) (*order.Order, error) {
	var items []po.OrderItemPO
	if err := db.Where("order_id = ?", row.ID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return row.ToDomain(items), nil
}

// writeOrderItems Lines are frozen once the order is placed, so only inserts write them
func writeOrderItems(tx *gorm.DB, o *order.Order, created bool) (int64, error) {
	if !created {
		return 0, nil
	}
	_, items := po.FromOrderDomain(o)
	if len(items) == 0 {
		return 0, nil
	}
	result := tx.Create(&items)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert order items: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FindByUserID Find order list by user ID, newest first
func (r *OrderRepository) FindByUserID(ctx context.Context, userID string) ([]*order.Order, error) {
	return r.Find(ctx, "created_at DESC, id DESC", "user_id = ?", userID)
}

// FindMatching Find the user's orders satisfying spec, newest first.
// Whatever the translator cannot express in SQL is checked in memory.
func (r *OrderRepository) FindMatching(ctx context.Context, userID string, spec shared.Specification[*order.Order]) ([]*order.Order, error) {
	scopes := []func(*gorm.DB) *gorm.DB{
		func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) },
	}
	scope, exact := r.translator.Translate(spec)
	if scope != nil {
		scopes = append(scopes, scope)
	}

	orders, err := r.FindScoped(ctx, "created_at DESC, id DESC", scopes...)
	if err != nil {
		return nil, err
	}
	if !exact {
		orders = order.Filter(ctx, orders, spec)
	}
	return orders, nil
}

// Compile-time interface implementation check
var _ order.Repository = (*OrderRepository)(nil)
