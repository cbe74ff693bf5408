// Package fx converts amounts between currencies using stored rates.
package fx

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoRate indicates no conversion rate exists for a currency pair.
var ErrNoRate = errors.New("fx: no rate found")

// RatesPort resolves the stored rate for a currency pair.
type RatesPort interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Converter converts amounts into a common currency.
type Converter struct {
	rates RatesPort
}

// NewConverter constructs a converter instance.
func NewConverter(rates RatesPort) *Converter {
	return &Converter{rates: rates}
}

// Convert returns amount expressed in the target currency, rounded to
// two decimal places. Identical currency codes pass through unchanged.
func (c *Converter) Convert(ctx context.Context, from, to string, amount float64) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || from == to {
		return amount, nil
	}
	rate, err := c.rates.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	converted := decimal.NewFromFloat(amount).Mul(rate).Round(2)
	result, _ := converted.Float64()
	return result, nil
}
