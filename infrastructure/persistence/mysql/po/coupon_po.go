package po

import (
	"time"

	"marketplace/domain/coupon"

	"github.com/shopspring/decimal"
)

// CouponPO Coupon persistence object
// UsageCount is kept equal to the number of coupon_usages rows by writing both
// in the same staged update.
type CouponPO struct {
	BaseModel
	Code                 string          `gorm:"size:64;uniqueIndex;not null"`
	DiscountType         string          `gorm:"size:16;not null"`
	Value                decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MaxDiscount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MinOrderAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UsageLimit           int             `gorm:"not null"`
	UsageCount           int             `gorm:"not null"`
	PerUserLimit         int             `gorm:"not null"`
	ApplicableProductIDs []string        `gorm:"serializer:json;type:text"`
	ValidFrom            time.Time       `gorm:"not null"`
	ValidTo              *time.Time
	Active               bool `gorm:"not null"`
}

func (CouponPO) TableName() string {
	return "coupons"
}

// CouponUsagePO Append-only redemption ledger
type CouponUsagePO struct {
	ID             string          `gorm:"primaryKey;size:36"`
	CouponID       string          `gorm:"size:36;not null;index:idx_coupon_usage_user,priority:1"`
	UserID         string          `gorm:"size:36;not null;index:idx_coupon_usage_user,priority:2"`
	OrderID        string          `gorm:"size:36;not null;index"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

func (CouponUsagePO) TableName() string {
	return "coupon_usages"
}

func FromCouponDomain(c *coupon.Coupon) *CouponPO {
	t := c.Terms()
	var validTo *time.Time
	if !t.ValidTo.IsZero() {
		v := t.ValidTo
		validTo = &v
	}
	return &CouponPO{
		BaseModel:            baseFrom(c),
		Code:                 c.Code(),
		DiscountType:         string(t.DiscountType),
		Value:                t.Value,
		MaxDiscount:          t.MaxDiscount,
		MinOrderAmount:       t.MinOrderAmount,
		UsageLimit:           t.UsageLimit,
		UsageCount:           c.UsageCount(),
		PerUserLimit:         t.PerUserLimit,
		ApplicableProductIDs: t.ApplicableProductIDs,
		ValidFrom:            t.ValidFrom,
		ValidTo:              validTo,
		Active:               c.IsActive(),
	}
}

func FromCouponUsages(usages []coupon.Usage) []CouponUsagePO {
	out := make([]CouponUsagePO, len(usages))
	for i, u := range usages {
		out[i] = CouponUsagePO{
			ID:             u.ID,
			CouponID:       u.CouponID,
			UserID:         u.UserID,
			OrderID:        u.OrderID,
			DiscountAmount: u.DiscountAmount,
			CreatedAt:      u.CreatedAt,
		}
	}
	return out
}

func (po *CouponPO) ToDomain() *coupon.Coupon {
	terms := coupon.Terms{
		Code:                 po.Code,
		DiscountType:         coupon.DiscountType(po.DiscountType),
		Value:                po.Value,
		MaxDiscount:          po.MaxDiscount,
		MinOrderAmount:       po.MinOrderAmount,
		UsageLimit:           po.UsageLimit,
		PerUserLimit:         po.PerUserLimit,
		ApplicableProductIDs: po.ApplicableProductIDs,
		ValidFrom:            po.ValidFrom,
	}
	if po.ValidTo != nil {
		terms.ValidTo = *po.ValidTo
	}
	return coupon.RebuildFromDTO(coupon.ReconstructionDTO{
		ID:         po.ID,
		Terms:      terms,
		UsageCount: po.UsageCount,
		Active:     po.Active,
		Version:    po.Version,
		CreatedAt:  po.CreatedAt,
		UpdatedAt:  po.UpdatedAt,
		DeletedAt:  po.DeletedAt,
	})
}
