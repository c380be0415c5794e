package po

import (
	"marketplace/domain/address"
	"marketplace/domain/order"

	"github.com/shopspring/decimal"
)

// OrderPO Order persistence object
// Note: Only used for database mapping, does not contain any business logic
// Defining GORM associations is prohibited here
type OrderPO struct {
	BaseModel
	UserID          string              `gorm:"size:36;index;not null"` // Only store ID, no association with User
	Currency        string              `gorm:"size:3;not null"`
	ShippingAddress address.Snapshot    `gorm:"embedded;embeddedPrefix:ship_"`
	SubTotal        decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	ShippingCost    decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Tax             decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	CouponCode      string              `gorm:"size:64"`
	CouponDiscount  decimal.NullDecimal `gorm:"type:decimal(12,2)"` // NULL when no coupon applied
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Status          string              `gorm:"size:20;index;not null"`
	CancelReason    string              `gorm:"size:255"`
}

// TableName Specify table name
func (OrderPO) TableName() string {
	return "orders"
}

// OrderItemPO Order item persistence object
type OrderItemPO struct {
	ID          string          `gorm:"primaryKey;size:36"`
	OrderID     string          `gorm:"size:36;index;not null"` // Only store ID, no GORM association
	ProductID   string          `gorm:"size:36;index;not null"`
	ProductName string          `gorm:"size:255;not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName Specify table name
func (OrderItemPO) TableName() string {
	return "order_items"
}

// FromOrderDomain Convert domain model to persistence object
func FromOrderDomain(o *order.Order) (*OrderPO, []OrderItemPO) {
	var discount decimal.NullDecimal
	if d, ok := o.CouponDiscount(); ok {
		discount = decimal.NewNullDecimal(d.Amount())
	}

	orderPO := &OrderPO{
		BaseModel:       baseFrom(o),
		UserID:          o.UserID(),
		Currency:        o.Currency(),
		ShippingAddress: o.ShippingAddress(),
		SubTotal:        o.SubTotal().Amount(),
		ShippingCost:    o.ShippingCost().Amount(),
		Tax:             o.Tax().Amount(),
		CouponCode:      o.CouponCode(),
		CouponDiscount:  discount,
		TotalAmount:     o.TotalAmount().Amount(),
		Status:          string(o.Status()),
		CancelReason:    o.CancelReason(),
	}

	items := o.Items()
	itemPOs := make([]OrderItemPO, len(items))
	for i, item := range items {
		itemPOs[i] = OrderItemPO{
			ID:          item.ID(),
			OrderID:     o.ID(),
			ProductID:   item.ProductID(),
			ProductName: item.ProductName(),
			Quantity:    item.Quantity(),
			UnitPrice:   item.UnitPrice().Amount(),
		}
	}
	return orderPO, itemPOs
}

// ToDomain Convert persistence object to domain model
func (po *OrderPO) ToDomain(itemPOs []OrderItemPO) *order.Order {
	items := make([]order.ItemReconstructionDTO, len(itemPOs))
	for i, it := range itemPOs {
		items[i] = order.ItemReconstructionDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}

	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:              po.ID,
		UserID:          po.UserID,
		ShippingAddress: po.ShippingAddress,
		Currency:        po.Currency,
		Items:           items,
		SubTotal:        po.SubTotal,
		ShippingCost:    po.ShippingCost,
		Tax:             po.Tax,
		CouponCode:      po.CouponCode,
		CouponDiscount:  po.CouponDiscount,
		TotalAmount:     po.TotalAmount,
		Status:          order.Status(po.Status),
		CancelReason:    po.CancelReason,
		Version:         po.Version,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
		DeletedAt:       po.DeletedAt,
	})
}
