package shared

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic mixes currencies.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is an immutable decimal amount in one currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount, currency: currency}
}

// ZeroMoney returns 0 in the given currency.
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount by an integer quantity.
func (m Money) Multiply(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity))), currency: m.currency}
}

// Round returns the amount rounded half away from zero to places decimals.
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

func (m Money) IsGreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

func (m Money) IsGreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount) && m.currency == other.currency
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}
