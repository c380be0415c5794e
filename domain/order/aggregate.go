/*
Package order Order subdomain

Order is the aggregate root for a checkout result. Lines are appended while
the order is being assembled and frozen once it is placed; prices and the
delivery address are copies, never live references, so later catalog or
address book edits cannot rewrite history.

Lifecycle:
  - NewOrder → AddItem* → ApplyPricing → ApplyCoupon? → Place (OrderCreated)
  - PENDING → CONFIRMED → SHIPPED → DELIVERED
  - PENDING | CONFIRMED → CANCELLED
*/
package order

import (
	"fmt"
	"time"

	"marketplace/domain/address"
	"marketplace/domain/catalog"
	"marketplace/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const aggregateType = "order"

// Order Order aggregate root
// All modifications to Order and its items must go through the Order aggregate root
type Order struct {
	shared.Metadata

	userID          string
	shippingAddress address.Snapshot
	currency        string
	items           []Item
	subTotal        shared.Money
	shippingCost    shared.Money
	tax             shared.Money
	couponCode      string
	couponDiscount  shared.Money
	totalAmount     shared.Money
	status          Status
	cancelReason    string
	placed          bool

	events shared.EventRecorder
}

// Item Order line - entity inside the aggregate, reachable only through Order
type Item struct {
	id          string
	productID   string
	productName string
	quantity    int
	unitPrice   shared.Money
}

// Status Order status enum
type Status string

const (
	StatusPending   Status = "PENDING"   // Pending
	StatusConfirmed Status = "CONFIRMED" // Confirmed
	StatusShipped   Status = "SHIPPED"   // Shipped
	StatusDelivered Status = "DELIVERED" // Delivered
	StatusCancelled Status = "CANCELLED" // Cancelled
)

// ============================================================================
// Factory Methods
// ============================================================================

// NewOrder starts an order for userID delivering to the given address snapshot.
// The order raises no event until Place is called.
func NewOrder(userID string, shipTo address.Snapshot, currency string) (*Order, error) {
	if userID == "" {
		return nil, shared.NewValidationError(aggregateType, "user_id", "user id is required")
	}
	if currency == "" {
		return nil, shared.NewValidationError(aggregateType, "currency", "currency is required")
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	zero := shared.ZeroMoney(currency)
	return &Order{
		Metadata:        shared.NewMetadata(orderID.String()),
		userID:          userID,
		shippingAddress: shipTo,
		currency:        currency,
		subTotal:        zero,
		shippingCost:    zero,
		tax:             zero,
		couponDiscount:  zero,
		totalAmount:     zero,
		status:          StatusPending,
	}, nil
}

// ============================================================================
// ReconstructionDTO - For Repository Layer Use Only
// ============================================================================

// ReconstructionDTO Order reconstruction data transfer object
// ⚠️ Note: This DTO should only be used in repository implementation
type ReconstructionDTO struct {
	ID              string
	UserID          string
	ShippingAddress address.Snapshot
	Currency        string
	Items           []ItemReconstructionDTO
	SubTotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Tax             decimal.Decimal
	CouponCode      string
	CouponDiscount  decimal.NullDecimal
	TotalAmount     decimal.Decimal
	Status          Status
	CancelReason    string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// ItemReconstructionDTO Order item reconstruction data transfer object
type ItemReconstructionDTO struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// RebuildFromDTO Reconstruct Order aggregate root from DTO
func RebuildFromDTO(dto ReconstructionDTO) *Order {
	money := func(d decimal.Decimal) shared.Money { return shared.NewMoney(d, dto.Currency) }

	items := make([]Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, Item{
			id:          it.ID,
			productID:   it.ProductID,
			productName: it.ProductName,
			quantity:    it.Quantity,
			unitPrice:   money(it.UnitPrice),
		})
	}

	discount := shared.ZeroMoney(dto.Currency)
	if dto.CouponDiscount.Valid {
		discount = money(dto.CouponDiscount.Decimal)
	}

	return &Order{
		Metadata:        shared.RestoreMetadata(dto.ID, dto.Version, dto.CreatedAt, dto.UpdatedAt, dto.DeletedAt),
		userID:          dto.UserID,
		shippingAddress: dto.ShippingAddress,
		currency:        dto.Currency,
		items:           items,
		subTotal:        money(dto.SubTotal),
		shippingCost:    money(dto.ShippingCost),
		tax:             money(dto.Tax),
		couponCode:      dto.CouponCode,
		couponDiscount:  discount,
		totalAmount:     money(dto.TotalAmount),
		status:          dto.Status,
		cancelReason:    dto.CancelReason,
		placed:          true,
	}
}

// ============================================================================
// Assembly - only before Place
// ============================================================================

// AddItem copies the product's current name and price into a new order line.
func (o *Order) AddItem(product *catalog.Product, quantity int) error {
	if o.placed {
		return ErrCannotModifyPlacedOrder
	}
	if product == nil {
		return shared.NewValidationError(aggregateType, "product", "product is required")
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if product.Price().Currency() != o.currency {
		return shared.NewBusinessRuleError(aggregateType,
			fmt.Sprintf("product %s is priced in %s, order is in %s", product.Name(), product.Price().Currency(), o.currency))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate order item ID: %w", err)
	}

	o.items = append(o.items, Item{
		id:          id.String(),
		productID:   product.ID(),
		productName: product.Name(),
		quantity:    quantity,
		unitPrice:   product.Price(),
	})
	o.recalculate()
	return nil
}

// ApplyPricing sets shipping and tax from the current subtotal.
func (o *Order) ApplyPricing(policy PricingPolicy) error {
	if o.placed {
		return ErrCannotModifyPlacedOrder
	}
	o.shippingCost = policy.ShippingCost(o.subTotal)
	o.tax = policy.Tax(o.subTotal)
	o.recalculate()
	return nil
}

// ApplyCoupon records a discount granted by code. The discount is clamped to
// the subtotal so the total can never become negative.
func (o *Order) ApplyCoupon(code string, discount decimal.Decimal) error {
	if o.placed {
		return ErrCannotModifyPlacedOrder
	}
	if code == "" {
		return shared.NewValidationError(aggregateType, "coupon_code", "coupon code is required")
	}
	if !discount.IsPositive() {
		return shared.NewValidationError(aggregateType, "coupon_discount", "coupon discount must be positive")
	}
	if discount.GreaterThan(o.subTotal.Amount()) {
		discount = o.subTotal.Amount()
	}

	o.couponCode = code
	o.couponDiscount = shared.NewMoney(discount, o.currency)
	o.recalculate()
	return nil
}

// Place freezes the order and raises OrderCreated with the final pricing.
func (o *Order) Place() error {
	if o.placed {
		return ErrCannotModifyPlacedOrder
	}
	if len(o.items) == 0 {
		return NewEmptyOrderItemsError()
	}

	o.recalculate()
	o.placed = true

	lines := make([]CreatedLine, 0, len(o.items))
	for _, it := range o.items {
		lines = append(lines, CreatedLine{
			ProductID: it.productID,
			Quantity:  it.quantity,
			UnitPrice: it.unitPrice.Amount(),
		})
	}

	o.events.Record(OrderCreatedEvent{
		EventMeta:      shared.NewEventMeta(o.ID()),
		OrderID:        o.ID(),
		UserID:         o.userID,
		Lines:          lines,
		SubTotal:       o.subTotal.Amount(),
		ShippingCost:   o.shippingCost.Amount(),
		Tax:            o.tax.Amount(),
		CouponCode:     o.couponCode,
		CouponDiscount: o.couponDiscount.Amount(),
		TotalAmount:    o.totalAmount.Amount(),
		Currency:       o.currency,
	})
	if o.couponCode != "" {
		o.events.Record(OrderCouponAppliedEvent{
			EventMeta:      shared.NewEventMeta(o.ID()),
			OrderID:        o.ID(),
			CouponCode:     o.couponCode,
			CouponDiscount: o.couponDiscount.Amount(),
		})
	}
	return nil
}

// recalculate keeps TotalAmount = SubTotal + Shipping + Tax - Discount, floored at zero.
func (o *Order) recalculate() {
	sub := decimal.Zero
	for _, it := range o.items {
		sub = sub.Add(it.unitPrice.Amount().Mul(decimal.NewFromInt(int64(it.quantity))))
	}
	o.subTotal = shared.NewMoney(sub, o.currency)

	total := sub.Add(o.shippingCost.Amount()).Add(o.tax.Amount()).Sub(o.couponDiscount.Amount())
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.totalAmount = shared.NewMoney(total, o.currency)
}

// ============================================================================
// State Change Methods
// ============================================================================
//
// Version is NOT incremented here; the repository bumps it after a successful
// versioned update.

// Confirm Confirm order (status from PENDING -> CONFIRMED)
func (o *Order) Confirm() error {
	if o.status != StatusPending {
		return NewInvalidOrderStateError(string(o.status), string(StatusConfirmed))
	}
	o.status = StatusConfirmed
	o.events.Record(OrderConfirmedEvent{EventMeta: shared.NewEventMeta(o.ID()), OrderID: o.ID()})
	return nil
}

// Cancel Cancel order
// Business rule: only pending or confirmed orders can be cancelled
func (o *Order) Cancel(reason string) error {
	if o.status != StatusPending && o.status != StatusConfirmed {
		return NewInvalidOrderStateError(string(o.status), string(StatusCancelled))
	}
	o.status = StatusCancelled
	o.cancelReason = reason
	o.events.Record(OrderCancelledEvent{EventMeta: shared.NewEventMeta(o.ID()), OrderID: o.ID(), Reason: reason})
	return nil
}

// Ship Ship order (status from CONFIRMED -> SHIPPED)
func (o *Order) Ship() error {
	if o.status != StatusConfirmed {
		return NewInvalidOrderStateError(string(o.status), string(StatusShipped))
	}
	o.status = StatusShipped
	o.events.Record(OrderShippedEvent{EventMeta: shared.NewEventMeta(o.ID()), OrderID: o.ID()})
	return nil
}

// Deliver Deliver order (status from SHIPPED -> DELIVERED)
func (o *Order) Deliver() error {
	if o.status != StatusShipped {
		return NewInvalidOrderStateError(string(o.status), string(StatusDelivered))
	}
	o.status = StatusDelivered
	o.events.Record(OrderDeliveredEvent{EventMeta: shared.NewEventMeta(o.ID()), OrderID: o.ID()})
	return nil
}

// ============================================================================
// Getters
// ============================================================================

// Items Return copy of order items
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// CouponDiscount reports the discount and whether a coupon was applied.
func (o *Order) CouponDiscount() (shared.Money, bool) {
	return o.couponDiscount, o.couponCode != ""
}

func (o *Order) UserID() string                      { return o.userID }
func (o *Order) ShippingAddress() address.Snapshot   { return o.shippingAddress }
func (o *Order) Currency() string                    { return o.currency }
func (o *Order) SubTotal() shared.Money              { return o.subTotal }
func (o *Order) ShippingCost() shared.Money          { return o.shippingCost }
func (o *Order) Tax() shared.Money                   { return o.tax }
func (o *Order) CouponCode() string                  { return o.couponCode }
func (o *Order) TotalAmount() shared.Money           { return o.totalAmount }
func (o *Order) Status() Status                      { return o.status }
func (o *Order) CancelReason() string                { return o.cancelReason }
func (o *Order) IsPlaced() bool                      { return o.placed }
func (o *Order) AggregateType() string               { return aggregateType }
func (o *Order) PendingEvents() []shared.DomainEvent { return o.events.Pending() }
func (o *Order) ClearEvents()                        { o.events.Clear() }

// Item Getters - read only

func (item Item) ID() string              { return item.id }
func (item Item) ProductID() string       { return item.productID }
func (item Item) ProductName() string     { return item.productName }
func (item Item) Quantity() int           { return item.quantity }
func (item Item) UnitPrice() shared.Money { return item.unitPrice }
func (item Item) Subtotal() shared.Money  { return item.unitPrice.Multiply(item.quantity) }

// Compile-time check that Order implements Persistable interface
var _ shared.Persistable = (*Order)(nil)
