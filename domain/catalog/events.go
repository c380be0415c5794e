package catalog

import (
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

type StockReducedEvent struct {
	shared.EventMeta
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Remaining int    `json:"remaining"`
}

func (StockReducedEvent) EventName() string { return "product.stock_reduced" }

type StockRestoredEvent struct {
	shared.EventMeta
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
}

func (StockRestoredEvent) EventName() string { return "product.stock_restored" }

type PriceChangedEvent struct {
	shared.EventMeta
	ProductID string          `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	Currency  string          `json:"currency"`
}

func (PriceChangedEvent) EventName() string { return "product.price_changed" }
