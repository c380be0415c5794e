package order

import (
	"marketplace/domain/shared"

	"github.com/shopspring/decimal"
)

// PricingPolicy computes shipping and tax as pure functions of the subtotal.
type PricingPolicy struct {
	FreeShippingThreshold decimal.Decimal // zero disables free shipping
	FlatShippingCost      decimal.Decimal
	TaxRate               decimal.Decimal // 0.08 means 8%
}

// ShippingCost is free at or above the threshold, flat otherwise.
func (p PricingPolicy) ShippingCost(subtotal shared.Money) shared.Money {
	if p.FreeShippingThreshold.IsPositive() && subtotal.Amount().GreaterThanOrEqual(p.FreeShippingThreshold) {
		return shared.ZeroMoney(subtotal.Currency())
	}
	return shared.NewMoney(p.FlatShippingCost, subtotal.Currency())
}

// Tax is the subtotal times the rate, rounded to cents.
func (p PricingPolicy) Tax(subtotal shared.Money) shared.Money {
	return shared.NewMoney(subtotal.Amount().Mul(p.TaxRate), subtotal.Currency()).Round(2)
}
