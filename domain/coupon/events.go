package coupon

import (
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

type RedeemedEvent struct {
	shared.EventMeta
	CouponID       string          `json:"coupon_id"`
	Code           string          `json:"code"`
	UserID         string          `json:"user_id"`
	OrderID        string          `json:"order_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsageCount     int             `json:"usage_count"`
}

func (RedeemedEvent) EventName() string { return "coupon.redeemed" }
