package order

import (
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// CreatedLine is one order line inside OrderCreatedEvent.
type CreatedLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderCreatedEvent carries the final pricing of a placed order.
type OrderCreatedEvent struct {
	shared.EventMeta
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	Lines          []CreatedLine   `json:"lines"`
	SubTotal       decimal.Decimal `json:"sub_total"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Tax            decimal.Decimal `json:"tax"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

type OrderCouponAppliedEvent struct {
	shared.EventMeta
	OrderID        string          `json:"order_id"`
	CouponCode     string          `json:"coupon_code"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
}

func (OrderCouponAppliedEvent) EventName() string { return "order.coupon_applied" }

type OrderConfirmedEvent struct {
	shared.EventMeta
	OrderID string `json:"order_id"`
}

func (OrderConfirmedEvent) EventName() string { return "order.confirmed" }

type OrderShippedEvent struct {
	shared.EventMeta
	OrderID string `json:"order_id"`
}

func (OrderShippedEvent) EventName() string { return "order.shipped" }

type OrderDeliveredEvent struct {
	shared.EventMeta
	OrderID string `json:"order_id"`
}

func (OrderDeliveredEvent) EventName() string { return "order.delivered" }

type OrderCancelledEvent struct {
	shared.EventMeta
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }
