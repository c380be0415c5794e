package mysql

import (
	"fmt"

	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// Models lists every table owned by this service.
func Models() []any {
	return []any{
		&po.ProductPO{},
		&po.CartPO{},
		&po.CartItemPO{},
		&po.AddressPO{},
		&po.CouponPO{},
		&po.CouponUsagePO{},
		&po.OrderPO{},
		&po.OrderItemPO{},
		&po.OutboxMessagePO{},
	}
}

// AutoMigrate creates or alters the schema. Production deployments run it
// only when database.auto_migrate is set.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
