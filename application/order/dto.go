package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest 表示从购物车下单的入参。
type CheckoutRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	AddressID  string `json:"address_id" binding:"required"`
	CouponCode string `json:"coupon_code"`
}

// UpdateOrderStatusRequest 表示更新订单状态入参。
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CONFIRMED SHIPPED DELIVERED"`
	Reason string `json:"reason"`
}

// CancelOrderRequest 表示取消订单入参。
type CancelOrderRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

// ListOrdersQuery 表示订单列表的过滤条件，全部可选。
type ListOrdersQuery struct {
	Status      string    `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED SHIPPED DELIVERED CANCELLED"`
	From        time.Time `form:"from"`
	To          time.Time `form:"to"`
	Cancellable bool      `form:"cancellable"`
}

// OrderResponse 表示订单返回模型。
type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Status          string              `json:"status"`
	Items           []OrderItemResponse `json:"items"`
	ShippingAddress AddressResponse     `json:"shipping_address"`
	SubTotal        MoneyResponse       `json:"sub_total"`
	ShippingCost    MoneyResponse       `json:"shipping_cost"`
	Tax             MoneyResponse       `json:"tax"`
	CouponCode      string              `json:"coupon_code,omitempty"`
	CouponDiscount  *MoneyResponse      `json:"coupon_discount,omitempty"`
	TotalAmount     MoneyResponse       `json:"total_amount"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	Version         int                 `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderItemResponse 表示订单项返回模型。
type OrderItemResponse struct {
	ID          string        `json:"id"`
	ProductID   string        `json:"product_id"`
	ProductName string        `json:"product_name"`
	Quantity    int           `json:"quantity"`
	UnitPrice   MoneyResponse `json:"unit_price"`
	Subtotal    MoneyResponse `json:"subtotal"`
}

// AddressResponse 表示下单时的收货地址快照。
type AddressResponse struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// MoneyResponse 表示金额返回模型，金额以十进制字符串输出。
type MoneyResponse struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}
