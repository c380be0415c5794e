package mysql

import (
	"context"
	"fmt"

	"marketplace/domain/coupon"
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// CouponRepository GORM implementation of coupon.Repository
// Pending ledger entries are inserted in the same staged write that bumps
// usage_count, so the two can never drift apart.
type CouponRepository struct {
	*Repository[*coupon.Coupon, po.CouponPO]
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	mapper := Mapper[*coupon.Coupon, po.CouponPO]{
		ToPO: po.FromCouponDomain,
		Load: func(_ *gorm.DB, row *po.CouponPO) (*coupon.Coupon, error) {
			return row.ToDomain(), nil
		},
	}
	return &CouponRepository{NewRepository(db, "coupon", mapper, writeCouponUsages)}
}

func writeCouponUsages(tx *gorm.DB, c *coupon.Coupon, _ bool) (int64, error) {
	usages := po.FromCouponUsages(c.PendingUsages())
	if len(usages) == 0 {
		return 0, nil
	}
	result := tx.Create(&usages)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert coupon usages: %w", result.Error)
	}
	c.ClearPendingUsages()
	return result.RowsAffected, nil
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.FindOne(ctx, "code = ?", coupon.NormalizeCode(code))
}

func (r *CouponRepository) CountUsagesByUser(ctx context.Context, couponID, userID string) (int, error) {
	var n int64
	err := r.conn(ctx).Model(&po.CouponUsagePO{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count coupon usages: %w", err)
	}
	return int(n), nil
}

func (r *CouponRepository) CountUsages(ctx context.Context, couponID string) (int, error) {
	var n int64
	if err := r.conn(ctx).Model(&po.CouponUsagePO{}).Where("coupon_id = ?", couponID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count coupon usages: %w", err)
	}
	return int(n), nil
}

var _ coupon.Repository = (*CouponRepository)(nil)
