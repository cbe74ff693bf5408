package fx

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRates struct {
	rates map[string]decimal.Decimal
}

func (r memoryRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	rate, ok := r.rates[from+"/"+to]
	if !ok {
		return decimal.Zero, ErrNoRate
	}
	return rate, nil
}

func TestConvertAppliesStoredRate(t *testing.T) {
	c := NewConverter(memoryRates{rates: map[string]decimal.Decimal{
		"USD/INR": decimal.NewFromFloat(83.25),
	}})

	got, err := c.Convert(context.Background(), "usd", "inr", 100)
	require.NoError(t, err)
	require.Equal(t, 8325.0, got)
}

func TestConvertRoundsToTwoDecimals(t *testing.T) {
	c := NewConverter(memoryRates{rates: map[string]decimal.Decimal{
		"EUR/INR": decimal.NewFromFloat(90.333),
	}})

	got, err := c.Convert(context.Background(), "EUR", "INR", 1.5)
	require.NoError(t, err)
	require.Equal(t, 135.5, got)
}

func TestConvertSameCurrencyPassthrough(t *testing.T) {
	c := NewConverter(memoryRates{})

	got, err := c.Convert(context.Background(), "INR", "INR", 42.42)
	require.NoError(t, err)
	require.Equal(t, 42.42, got)

	got, err = c.Convert(context.Background(), "", "INR", 7)
	require.NoError(t, err)
	require.Equal(t, 7.0, got)
}

func TestConvertMissingRate(t *testing.T) {
	c := NewConverter(memoryRates{})

	_, err := c.Convert(context.Background(), "GBP", "INR", 10)
	require.ErrorIs(t, err, ErrNoRate)
}
