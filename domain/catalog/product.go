// Package catalog owns products and their stock.
package catalog

import (
	"fmt"
	"time"

	"marketplace/domain/shared"

	"github.com/google/uuid"
)

const aggregateType = "product"

// Product aggregate root. StockQuantity is a contended field guarded by the
// optimistic version in shared.Metadata.
type Product struct {
	shared.Metadata

	sellerID      string
	name          string
	price         shared.Money
	stockQuantity int
	active        bool

	events shared.EventRecorder
}

// NewProduct creates an active product with initial stock.
func NewProduct(sellerID, name string, price shared.Money, stock int) (*Product, error) {
	if name == "" {
		return nil, shared.NewValidationError(aggregateType, "name", "product name is required")
	}
	if !price.IsPositive() {
		return nil, shared.NewValidationError(aggregateType, "price", "price must be positive")
	}
	if stock < 0 {
		return nil, shared.NewValidationError(aggregateType, "stock_quantity", "stock cannot be negative")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate product ID: %w", err)
	}

	return &Product{
		Metadata:      shared.NewMetadata(id.String()),
		sellerID:      sellerID,
		name:          name,
		price:         price,
		stockQuantity: stock,
		active:        true,
	}, nil
}

// ReconstructionDTO rebuilds a product from storage. Repository use only.
type ReconstructionDTO struct {
	ID            string
	SellerID      string
	Name          string
	Price         shared.Money
	StockQuantity int
	Active        bool
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Product {
	return &Product{
		Metadata:      shared.RestoreMetadata(dto.ID, dto.Version, dto.CreatedAt, dto.UpdatedAt, dto.DeletedAt),
		sellerID:      dto.SellerID,
		name:          dto.Name,
		price:         dto.Price,
		stockQuantity: dto.StockQuantity,
		active:        dto.Active,
	}
}

// ReduceStock takes quantity units out of stock. Stock never goes negative.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError(aggregateType, "quantity", "quantity must be positive")
	}
	if !p.active {
		return shared.NewBusinessRuleError(aggregateType, fmt.Sprintf("product %s is not available", p.name))
	}
	if p.stockQuantity-quantity < 0 {
		return shared.NewBusinessRuleError(aggregateType,
			fmt.Sprintf("insufficient stock for %s: requested %d, available %d", p.name, quantity, p.stockQuantity))
	}

	p.stockQuantity -= quantity
	p.events.Record(StockReducedEvent{
		EventMeta: shared.NewEventMeta(p.ID()),
		ProductID: p.ID(),
		Quantity:  quantity,
		Remaining: p.stockQuantity,
	})
	return nil
}

// Restock puts quantity units back, e.g. when an order is cancelled.
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError(aggregateType, "quantity", "quantity must be positive")
	}

	p.stockQuantity += quantity
	p.events.Record(StockRestoredEvent{
		EventMeta: shared.NewEventMeta(p.ID()),
		ProductID: p.ID(),
		Quantity:  quantity,
		Available: p.stockQuantity,
	})
	return nil
}

// ChangePrice does not affect orders already placed; they hold a copy.
func (p *Product) ChangePrice(price shared.Money) error {
	if !price.IsPositive() {
		return shared.NewValidationError(aggregateType, "price", "price must be positive")
	}
	old := p.price
	p.price = price
	p.events.Record(PriceChangedEvent{
		EventMeta: shared.NewEventMeta(p.ID()),
		ProductID: p.ID(),
		OldPrice:  old.Amount(),
		NewPrice:  price.Amount(),
		Currency:  price.Currency(),
	})
	return nil
}

func (p *Product) Deactivate() { p.active = false }

func (p *Product) SellerID() string                    { return p.sellerID }
func (p *Product) Name() string                        { return p.name }
func (p *Product) Price() shared.Money                 { return p.price }
func (p *Product) StockQuantity() int                  { return p.stockQuantity }
func (p *Product) IsActive() bool                      { return p.active }
func (p *Product) AggregateType() string               { return aggregateType }
func (p *Product) PendingEvents() []shared.DomainEvent { return p.events.Pending() }
func (p *Product) ClearEvents()                        { p.events.Clear() }

var _ shared.Persistable = (*Product)(nil)
