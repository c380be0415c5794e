package mysql

import (
	"context"
	"fmt"

	"marketplace/domain/cart"
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// CartRepository GORM implementation of cart.Repository
// Lines are rewritten as a set on every save: delete then insert.
type CartRepository struct {
	*Repository[*cart.Cart, po.CartPO]
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	mapper := Mapper[*cart.Cart, po.CartPO]{
		ToPO: func(c *cart.Cart) *po.CartPO {
			row, _ := po.FromCartDomain(c)
			return row
		},
		Load: loadCart,
	}
	return &CartRepository{NewRepository(db, "cart", mapper, writeCartItems)}
}

func loadCart(db *gorm.DB, row *po.CartPO) (*cart.Cart, error) {
	var items []po.CartItemPO
	if err := db.Where("cart_id = ?", row.ID).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	return row.ToDomain(items), nil
}

func writeCartItems(tx *gorm.DB, c *cart.Cart, created bool) (int64, error) {
	var affected int64
	if !created {
		result := tx.Where("cart_id = ?", c.ID()).Delete(&po.CartItemPO{})
		if result.Error != nil {
			return 0, fmt.Errorf("failed to replace cart items: %w", result.Error)
		}
		affected += result.RowsAffected
	}

	_, items := po.FromCartDomain(c)
	if len(items) == 0 {
		return affected, nil
	}
	result := tx.Create(&items)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert cart items: %w", result.Error)
	}
	return affected + result.RowsAffected, nil
}

// FindByUserID returns the user's live cart.
func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*cart.Cart, error) {
	return r.FindOne(ctx, "user_id = ?", userID)
}

var _ cart.Repository = (*CartRepository)(nil)
