package coupon

import (
	"context"

	"marketplace/domain/shared"
)

// Repository persists coupons together with their pending ledger entries.
type Repository interface {
	shared.Repository[*Coupon]

	FindByCode(ctx context.Context, code string) (*Coupon, error)
	CountUsagesByUser(ctx context.Context, couponID, userID string) (int, error)
	CountUsages(ctx context.Context, couponID string) (int, error)
}
