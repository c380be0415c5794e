package po

import (
	"marketplace/domain/cart"
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// CartPO Cart persistence object, one live row per user
// ActiveUserID mirrors UserID while the cart is live and is NULL once it is
// soft deleted, so the unique key only binds live carts.
type CartPO struct {
	BaseModel
	UserID       string  `gorm:"size:36;index;not null"`
	ActiveUserID *string `gorm:"size:36;uniqueIndex:uk_carts_active_user"`
	Currency     string  `gorm:"size:3;not null"`
}

func (CartPO) TableName() string {
	return "carts"
}

// CartItemPO Cart line, replaced wholesale on every cart update
type CartItemPO struct {
	CartID        string          `gorm:"primaryKey;size:36"`
	ProductID     string          `gorm:"primaryKey;size:36"`
	ProductName   string          `gorm:"size:255;not null"`
	Quantity      int             `gorm:"not null"`
	PriceSnapshot decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency      string          `gorm:"size:3;not null"`
}

func (CartItemPO) TableName() string {
	return "cart_items"
}

func FromCartDomain(c *cart.Cart) (*CartPO, []CartItemPO) {
	items := c.Items()
	itemPOs := make([]CartItemPO, len(items))
	for i, item := range items {
		itemPOs[i] = CartItemPO{
			CartID:        c.ID(),
			ProductID:     item.ProductID(),
			ProductName:   item.ProductName(),
			Quantity:      item.Quantity(),
			PriceSnapshot: item.PriceSnapshot().Amount(),
			Currency:      item.PriceSnapshot().Currency(),
		}
	}
	row := &CartPO{BaseModel: baseFrom(c), UserID: c.UserID(), Currency: c.Currency()}
	if !c.IsDeleted() {
		userID := c.UserID()
		row.ActiveUserID = &userID
	}
	return row, itemPOs
}

func (po *CartPO) ToDomain(itemPOs []CartItemPO) *cart.Cart {
	items := make([]cart.ItemReconstructionDTO, len(itemPOs))
	for i, it := range itemPOs {
		items[i] = cart.ItemReconstructionDTO{
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			PriceSnapshot: shared.NewMoney(it.PriceSnapshot, it.Currency),
		}
	}
	return cart.RebuildFromDTO(cart.ReconstructionDTO{
		ID:        po.ID,
		UserID:    po.UserID,
		Currency:  po.Currency,
		Items:     items,
		Version:   po.Version,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
		DeletedAt: po.DeletedAt,
	})
}
