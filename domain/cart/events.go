package cart

import "marketplace/domain/shared"

type ItemChangedEvent struct {
	shared.EventMeta
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (ItemChangedEvent) EventName() string { return "cart.item_changed" }

type ClearedEvent struct {
	shared.EventMeta
	CartID       string `json:"cart_id"`
	UserID       string `json:"user_id"`
	RemovedLines int    `json:"removed_lines"`
}

func (ClearedEvent) EventName() string { return "cart.cleared" }
