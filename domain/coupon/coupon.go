// Package coupon holds discount coupons and their redemption ledger.
package coupon

import (
	"fmt"
	"strings"
	"time"

	"marketplace/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const aggregateType = "coupon"

// DiscountType Coupon discount type enum
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE" // Value is a percent of the subtotal
	DiscountFixed      DiscountType = "FIXED"      // Value is an absolute amount
)

// Coupon aggregate root. UsageCount always equals the number of Usage rows
// written for the coupon: both change together in Redeem and are persisted by
// the same staged write.
type Coupon struct {
	shared.Metadata

	code                 string
	discountType         DiscountType
	value                decimal.Decimal
	maxDiscount          decimal.Decimal // zero means uncapped
	minOrderAmount       decimal.Decimal
	usageLimit           int // zero means unlimited
	usageCount           int
	perUserLimit         int // zero means unlimited
	applicableProductIDs []string
	validFrom            time.Time
	validTo              time.Time
	active               bool

	pendingUsages []Usage
	events        shared.EventRecorder
}

// Usage is one append-only ledger entry per successful redemption.
type Usage struct {
	ID             string
	CouponID       string
	UserID         string
	OrderID        string
	DiscountAmount decimal.Decimal
	CreatedAt      time.Time
}

// Terms describes a coupon at creation time.
type Terms struct {
	Code                 string
	DiscountType         DiscountType
	Value                decimal.Decimal
	MaxDiscount          decimal.Decimal
	MinOrderAmount       decimal.Decimal
	UsageLimit           int
	PerUserLimit         int
	ApplicableProductIDs []string
	ValidFrom            time.Time
	ValidTo              time.Time
}

func NewCoupon(t Terms) (*Coupon, error) {
	code := NormalizeCode(t.Code)
	if code == "" {
		return nil, shared.NewValidationError(aggregateType, "code", "coupon code is required")
	}
	if !t.Value.IsPositive() {
		return nil, shared.NewValidationError(aggregateType, "value", "discount value must be positive")
	}
	switch t.DiscountType {
	case DiscountPercentage:
		if t.Value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, shared.NewValidationError(aggregateType, "value", "percentage cannot exceed 100")
		}
	case DiscountFixed:
	default:
		return nil, shared.NewValidationError(aggregateType, "discount_type", "unknown discount type")
	}
	if !t.ValidTo.IsZero() && t.ValidTo.Before(t.ValidFrom) {
		return nil, shared.NewValidationError(aggregateType, "valid_to", "validity window ends before it starts")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate coupon ID: %w", err)
	}

	return &Coupon{
		Metadata:             shared.NewMetadata(id.String()),
		code:                 code,
		discountType:         t.DiscountType,
		value:                t.Value,
		maxDiscount:          t.MaxDiscount,
		minOrderAmount:       t.MinOrderAmount,
		usageLimit:           t.UsageLimit,
		perUserLimit:         t.PerUserLimit,
		applicableProductIDs: append([]string(nil), t.ApplicableProductIDs...),
		validFrom:            t.ValidFrom,
		validTo:              t.ValidTo,
		active:               true,
	}, nil
}

// ReconstructionDTO Repository use only.
type ReconstructionDTO struct {
	ID         string
	Terms      Terms
	UsageCount int
	Active     bool
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Coupon {
	t := dto.Terms
	return &Coupon{
		Metadata:             shared.RestoreMetadata(dto.ID, dto.Version, dto.CreatedAt, dto.UpdatedAt, dto.DeletedAt),
		code:                 NormalizeCode(t.Code),
		discountType:         t.DiscountType,
		value:                t.Value,
		maxDiscount:          t.MaxDiscount,
		minOrderAmount:       t.MinOrderAmount,
		usageLimit:           t.UsageLimit,
		usageCount:           dto.UsageCount,
		perUserLimit:         t.PerUserLimit,
		applicableProductIDs: t.ApplicableProductIDs,
		validFrom:            t.ValidFrom,
		validTo:              t.ValidTo,
		active:               dto.Active,
	}
}

// NormalizeCode makes codes case and whitespace insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CalculateDiscount returns the discount for subtotal, never more than subtotal.
func (c *Coupon) CalculateDiscount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.discountType {
	case DiscountPercentage:
		discount = subtotal.Mul(c.value).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountFixed:
		discount = c.value
	}

	if c.maxDiscount.IsPositive() && discount.GreaterThan(c.maxDiscount) {
		discount = c.maxDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount
}

// Redeem records one use of the coupon for an order. The usage counter and
// the new ledger entry move together.
func (c *Coupon) Redeem(userID, orderID string, discount decimal.Decimal, at time.Time) (Usage, error) {
	if !c.active {
		return Usage{}, shared.NewBusinessRuleError(aggregateType, "coupon "+c.code+" is not active")
	}
	if c.usageLimit > 0 && c.usageCount >= c.usageLimit {
		return Usage{}, shared.NewBusinessRuleError(aggregateType, "coupon "+c.code+" has reached its usage limit")
	}
	if !discount.IsPositive() {
		return Usage{}, shared.NewValidationError(aggregateType, "discount", "redeemed discount must be positive")
	}
	if userID == "" || orderID == "" {
		return Usage{}, shared.NewValidationError(aggregateType, "order_id", "redemption needs a user and an order")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Usage{}, fmt.Errorf("failed to generate coupon usage ID: %w", err)
	}

	usage := Usage{
		ID:             id.String(),
		CouponID:       c.ID(),
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
		CreatedAt:      at,
	}
	c.usageCount++
	c.pendingUsages = append(c.pendingUsages, usage)
	c.events.Record(RedeemedEvent{
		EventMeta:      shared.NewEventMeta(c.ID()),
		CouponID:       c.ID(),
		Code:           c.code,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: discount,
		UsageCount:     c.usageCount,
	})
	return usage, nil
}

func (c *Coupon) Deactivate() { c.active = false }

// PendingUsages lists ledger entries not yet written. Repository use only.
func (c *Coupon) PendingUsages() []Usage {
	out := make([]Usage, len(c.pendingUsages))
	copy(out, c.pendingUsages)
	return out
}

// ClearPendingUsages is called once the ledger entries are flushed.
func (c *Coupon) ClearPendingUsages() { c.pendingUsages = nil }

func (c *Coupon) Terms() Terms {
	return Terms{
		Code:                 c.code,
		DiscountType:         c.discountType,
		Value:                c.value,
		MaxDiscount:          c.maxDiscount,
		MinOrderAmount:       c.minOrderAmount,
		UsageLimit:           c.usageLimit,
		PerUserLimit:         c.perUserLimit,
		ApplicableProductIDs: append([]string(nil), c.applicableProductIDs...),
		ValidFrom:            c.validFrom,
		ValidTo:              c.validTo,
	}
}

func (c *Coupon) Code() string                        { return c.code }
func (c *Coupon) UsageCount() int                     { return c.usageCount }
func (c *Coupon) IsActive() bool                      { return c.active }
func (c *Coupon) AggregateType() string               { return aggregateType }
func (c *Coupon) PendingEvents() []shared.DomainEvent { return c.events.Pending() }
func (c *Coupon) ClearEvents()                        { c.events.Clear() }

var _ shared.Persistable = (*Coupon)(nil)
