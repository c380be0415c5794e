package coupon

import (
	"context"
	"errors"
	"time"

	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// Redemption is the candidate the eligibility rules are evaluated against.
type Redemption struct {
	Coupon     *Coupon
	UserID     string
	Subtotal   decimal.Decimal
	ProductIDs []string
	UserUsages int
	At         time.Time
}

// ============================================================================
// Eligibility rules
// ============================================================================

var (
	IsActive = shared.SpecFunc[Redemption](func(_ context.Context, r Redemption) bool {
		return r.Coupon.active && !r.Coupon.IsDeleted()
	})

	WithinValidityWindow = shared.SpecFunc[Redemption](func(_ context.Context, r Redemption) bool {
		c := r.Coupon
		if !c.validFrom.IsZero() && r.At.Before(c.validFrom) {
			return false
		}
		return c.validTo.IsZero() || !r.At.After(c.validTo)
	})

	UnderUsageLimit = shared.SpecFunc[Redemption](func(_ context.Context, r Redemption) bool {
		return r.Coupon.usageLimit == 0 || r.Coupon.usageCount < r.Coupon.usageLimit
	})

	UnderPerUserLimit = shared.SpecFunc[Redemption](func(_ context.Context, r Redemption) bool {
		return r.Coupon.perUserLimit == 0 || r.UserUsages < r.Coupon.perUserLimit
	})

	MinOrderAmountMet = shared.SpecFunc[Redemption](func(_ context.Context, r Redemption) bool {
		return r.Subtotal.GreaterThanOrEqual(r.Coupon.minOrderAmount)
	})

	// AppliesToProducts passes when the coupon is unrestricted or at least one
	// product of the order is in its applicable set.
	AppliesToProducts = shared.SpecFunc[Redemption](func(_ context.Context, r Redemption) bool {
		if len(r.Coupon.applicableProductIDs) == 0 {
			return true
		}
		allowed := make(map[string]struct{}, len(r.Coupon.applicableProductIDs))
		for _, id := range r.Coupon.applicableProductIDs {
			allowed[id] = struct{}{}
		}
		for _, id := range r.ProductIDs {
			if _, ok := allowed[id]; ok {
				return true
			}
		}
		return false
	})
)

// Eligible is the conjunction of every rule a redemption must satisfy.
var Eligible = shared.And[Redemption](
	IsActive,
	WithinValidityWindow,
	UnderUsageLimit,
	UnderPerUserLimit,
	MinOrderAmountMet,
	AppliesToProducts,
)

// Validator Coupon domain service. It only reads; redemption and persistence
// belong to the caller.
type Validator struct {
	coupons Repository
	now     func() time.Time
}

func NewValidator(coupons Repository) *Validator {
	return &Validator{coupons: coupons, now: time.Now}
}

// ValidateCoupon returns the discount code grants on subtotal for userID.
// Unknown codes and unmet rules yield zero with no error; only lookup
// failures are returned as errors.
func (v *Validator) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal, userID string, productIDs []string) (decimal.Decimal, error) {
	if NormalizeCode(code) == "" {
		return decimal.Zero, nil
	}

	c, err := v.coupons.FindByCode(ctx, code)
	if errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	userUsages := 0
	if c.perUserLimit > 0 {
		userUsages, err = v.coupons.CountUsagesByUser(ctx, c.ID(), userID)
		if err != nil {
			return decimal.Zero, err
		}
	}

	candidate := Redemption{
		Coupon:     c,
		UserID:     userID,
		Subtotal:   subtotal,
		ProductIDs: productIDs,
		UserUsages: userUsages,
		At:         v.now(),
	}
	if !Eligible.IsSatisfiedBy(ctx, candidate) {
		return decimal.Zero, nil
	}
	return c.CalculateDiscount(subtotal), nil
}
