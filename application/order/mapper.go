package order

import (
	"fmt"

	"marketplace/config"
	"marketplace/domain/order"
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

func toMoneyResponse(m shared.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount(), Currency: m.Currency()}
}

func toOrderResponse(o *order.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, OrderItemResponse{
			ID:          item.ID(),
			ProductID:   item.ProductID(),
			ProductName: item.ProductName(),
			Quantity:    item.Quantity(),
			UnitPrice:   toMoneyResponse(item.UnitPrice()),
			Subtotal:    toMoneyResponse(item.Subtotal()),
		})
	}

	ship := o.ShippingAddress()
	resp := &OrderResponse{
		ID:     o.ID(),
		UserID: o.UserID(),
		Status: string(o.Status()),
		Items:  items,
		ShippingAddress: AddressResponse{
			RecipientName: ship.RecipientName,
			Phone:         ship.Phone,
			Line1:         ship.Line1,
			Line2:         ship.Line2,
			City:          ship.City,
			State:         ship.State,
			PostalCode:    ship.PostalCode,
			Country:       ship.Country,
		},
		SubTotal:     toMoneyResponse(o.SubTotal()),
		ShippingCost: toMoneyResponse(o.ShippingCost()),
		Tax:          toMoneyResponse(o.Tax()),
		CouponCode:   o.CouponCode(),
		TotalAmount:  toMoneyResponse(o.TotalAmount()),
		CancelReason: o.CancelReason(),
		Version:      o.Version(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
	if discount, ok := o.CouponDiscount(); ok {
		d := toMoneyResponse(discount)
		resp.CouponDiscount = &d
	}
	return resp
}

func toOrderResponses(orders []*order.Order) []*OrderResponse {
	out := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

// PricingFromConfig parses the decimal strings of the pricing section.
func PricingFromConfig(cfg config.PricingConfig) (order.PricingPolicy, error) {
	parse := func(name, v string) (decimal.Decimal, error) {
		if v == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid pricing.%s %q: %w", name, v, err)
		}
		if d.IsNegative() {
			return decimal.Zero, fmt.Errorf("pricing.%s cannot be negative", name)
		}
		return d, nil
	}

	threshold, err := parse("free_shipping_threshold", cfg.FreeShippingThreshold)
	if err != nil {
		return order.PricingPolicy{}, err
	}
	flat, err := parse("flat_shipping_cost", cfg.FlatShippingCost)
	if err != nil {
		return order.PricingPolicy{}, err
	}
	rate, err := parse("tax_rate", cfg.TaxRate)
	if err != nil {
		return order.PricingPolicy{}, err
	}
	return order.PricingPolicy{
		FreeShippingThreshold: threshold,
		FlatShippingCost:      flat,
		TaxRate:               rate,
	}, nil
}
