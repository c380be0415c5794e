package order

import (
	"context"
	"errors"

	"marketplace/domain/address"
	"marketplace/domain/cart"
	"marketplace/domain/coupon"
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// CartStore reads and clears the user's cart inside the checkout transaction.
// GetCartByUser returns nil when the user has no cart.
type CartStore interface {
	GetCartByUser(ctx context.Context, userID string) (*cart.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// AddressLookup returns the address only when userID owns it.
type AddressLookup interface {
	GetAddress(ctx context.Context, addressID, userID string) (*address.Address, error)
}

// CouponValidator computes the discount a code grants. Zero means no discount.
type CouponValidator interface {
	ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal, userID string, productIDs []string) (decimal.Decimal, error)
}

// CouponLookup returns the coupon for code, or nil when none exists.
type CouponLookup interface {
	GetCouponByCode(ctx context.Context, code string) (*coupon.Coupon, error)
}

// addressLookupAdapter adapts address.Repository to AddressLookup
type addressLookupAdapter struct {
	repo address.Repository
}

func NewAddressLookup(repo address.Repository) AddressLookup {
	return &addressLookupAdapter{repo: repo}
}

func (a *addressLookupAdapter) GetAddress(ctx context.Context, addressID, userID string) (*address.Address, error) {
	return a.repo.FindForUser(ctx, addressID, userID)
}

// couponLookupAdapter adapts coupon.Repository to CouponLookup
type couponLookupAdapter struct {
	repo coupon.Repository
}

func NewCouponLookup(repo coupon.Repository) CouponLookup {
	return &couponLookupAdapter{repo: repo}
}

func (a *couponLookupAdapter) GetCouponByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	c, err := a.repo.FindByCode(ctx, code)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return c, err
}
