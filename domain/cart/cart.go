// Package cart models the per-user shopping cart.
package cart

import (
	"fmt"
	"time"

	"marketplace/domain/shared"

	"github.com/google/uuid"
)

const aggregateType = "cart"

// Cart is the single active cart of a user.
type Cart struct {
	shared.Metadata

	userID   string
	currency string
	items    []Item

	events shared.EventRecorder
}

// Item is one cart line. The price is a snapshot taken when the line was
// added; checkout copies the live product price instead.
type Item struct {
	productID     string
	productName   string
	quantity      int
	priceSnapshot shared.Money
}

func NewCart(userID, currency string) (*Cart, error) {
	if userID == "" {
		return nil, shared.NewValidationError(aggregateType, "user_id", "user id is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cart ID: %w", err)
	}
	return &Cart{
		Metadata: shared.NewMetadata(id.String()),
		userID:   userID,
		currency: currency,
	}, nil
}

// ReconstructionDTO Repository use only.
type ReconstructionDTO struct {
	ID        string
	UserID    string
	Currency  string
	Items     []ItemReconstructionDTO
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type ItemReconstructionDTO struct {
	ProductID     string
	ProductName   string
	Quantity      int
	PriceSnapshot shared.Money
}

func RebuildFromDTO(dto ReconstructionDTO) *Cart {
	items := make([]Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, Item{
			productID:     it.ProductID,
			productName:   it.ProductName,
			quantity:      it.Quantity,
			priceSnapshot: it.PriceSnapshot,
		})
	}
	return &Cart{
		Metadata: shared.RestoreMetadata(dto.ID, dto.Version, dto.CreatedAt, dto.UpdatedAt, dto.DeletedAt),
		userID:   dto.UserID,
		currency: dto.Currency,
		items:    items,
	}
}

// AddItem adds quantity of a product, merging with an existing line.
func (c *Cart) AddItem(productID, productName string, quantity int, price shared.Money) error {
	if quantity <= 0 {
		return shared.NewValidationError(aggregateType, "quantity", "quantity must be positive")
	}
	if price.Currency() != c.currency {
		return shared.NewBusinessRuleError(aggregateType, "price currency does not match cart currency")
	}

	for i := range c.items {
		if c.items[i].productID == productID {
			c.items[i].quantity += quantity
			c.items[i].priceSnapshot = price
			c.recordChange(productID, c.items[i].quantity)
			return nil
		}
	}

	c.items = append(c.items, Item{
		productID:     productID,
		productName:   productName,
		quantity:      quantity,
		priceSnapshot: price,
	})
	c.recordChange(productID, quantity)
	return nil
}

func (c *Cart) RemoveItem(productID string) error {
	for i := range c.items {
		if c.items[i].productID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.recordChange(productID, 0)
			return nil
		}
	}
	return shared.NewNotFoundError("cart item")
}

// Clear empties the cart. Clearing an empty cart records nothing.
func (c *Cart) Clear() {
	if len(c.items) == 0 {
		return
	}
	removed := len(c.items)
	c.items = nil
	c.events.Record(ClearedEvent{
		EventMeta:    shared.NewEventMeta(c.ID()),
		CartID:       c.ID(),
		UserID:       c.userID,
		RemovedLines: removed,
	})
}

func (c *Cart) recordChange(productID string, quantity int) {
	c.events.Record(ItemChangedEvent{
		EventMeta: shared.NewEventMeta(c.ID()),
		CartID:    c.ID(),
		ProductID: productID,
		Quantity:  quantity,
	})
}

// Subtotal sums the snapshot prices.
func (c *Cart) Subtotal() shared.Money {
	total := shared.ZeroMoney(c.currency)
	for _, it := range c.items {
		// currencies are checked in AddItem
		total, _ = total.Add(it.priceSnapshot.Multiply(it.quantity))
	}
	return total
}

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Items returns a copy of the cart lines.
func (c *Cart) Items() []Item {
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return items
}

// ProductIDs lists the distinct products in the cart.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.items))
	for _, it := range c.items {
		ids = append(ids, it.productID)
	}
	return ids
}

func (c *Cart) UserID() string                      { return c.userID }
func (c *Cart) Currency() string                    { return c.currency }
func (c *Cart) AggregateType() string               { return aggregateType }
func (c *Cart) PendingEvents() []shared.DomainEvent { return c.events.Pending() }
func (c *Cart) ClearEvents()                        { c.events.Clear() }

func (i Item) ProductID() string           { return i.productID }
func (i Item) ProductName() string         { return i.productName }
func (i Item) Quantity() int               { return i.quantity }
func (i Item) PriceSnapshot() shared.Money { return i.priceSnapshot }

var _ shared.Persistable = (*Cart)(nil)
