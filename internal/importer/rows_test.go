package importer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opex-suite/opex-suite/internal/budget"
)

func TestMapHeadersBudgets(t *testing.T) {
	headers := []string{"UID", "Description", "Tower", "Budget Head", "JAN-25", "Feb", "Total Budget", "Owner"}
	cm := MapHeaders(headers, TypeBudgets)

	require.Equal(t, 0, cm.UID)
	require.Equal(t, 1, cm.Description)
	require.Equal(t, 2, cm.Tower)
	require.Equal(t, 3, cm.BudgetHead)
	require.Equal(t, 6, cm.Total)
	require.Equal(t, budget.Jan, cm.MonthCols[4])
	require.Equal(t, budget.Feb, cm.MonthCols[5])

	// Unrecognised headers pass through unchanged.
	require.Equal(t, "Owner", cm.Mapping.NormalizedHeaders[7])
	require.Equal(t, "Jan", cm.Mapping.NormalizedHeaders[4])
}

func TestValidateBudgetRowWithinTolerance(t *testing.T) {
	cm := MapHeaders([]string{"UID", "Jan", "Feb", "Total"}, TypeBudgets)

	accepted, errs := ValidateBudgetRow([]string{"X-1", "100", "200", "300.5"}, cm, 2)
	require.Empty(t, errs)
	require.Equal(t, 300.0, accepted.SumMonths)
	require.Equal(t, 300.5, accepted.TotalBudget)

	_, errs = ValidateBudgetRow([]string{"X-1", "100", "200", "300.51"}, cm, 2)
	require.Equal(t, []string{"Total mismatch"}, errs)
}

func TestValidateBudgetRowCollectsAllErrors(t *testing.T) {
	cm := MapHeaders([]string{"UID", "Jan", "Total"}, TypeBudgets)

	accepted, errs := ValidateBudgetRow([]string{"", "abc", "1000"}, cm, 3)
	require.Equal(t, 3, accepted.RowIndex)
	require.Len(t, errs, 3)
	require.Contains(t, errs, "UID is required")
	require.Contains(t, errs, `invalid value for Jan: "abc"`)
	require.Contains(t, errs, "Total mismatch")
}

func TestValidateBudgetRowErrorOrderIsStable(t *testing.T) {
	cm := MapHeaders([]string{"UID", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Total"}, TypeBudgets)
	row := []string{"X-1", "a", "b", "c", "d", "e", "f", "0"}

	_, first := ValidateBudgetRow(row, cm, 2)
	require.Equal(t, []string{
		`invalid value for Jan: "a"`,
		`invalid value for Feb: "b"`,
		`invalid value for Mar: "c"`,
		`invalid value for Apr: "d"`,
		`invalid value for May: "e"`,
		`invalid value for Jun: "f"`,
	}, first)
	for i := 0; i < 50; i++ {
		_, errs := ValidateBudgetRow(row, cm, 2)
		require.Equal(t, first, errs)
	}
}

func TestValidateBudgetRowParsesThousandsSeparators(t *testing.T) {
	cm := MapHeaders([]string{"UID", "Jan", "Total"}, TypeBudgets)

	accepted, errs := ValidateBudgetRow([]string{"X-1", "1,234.50", "1,234.50"}, cm, 2)
	require.Empty(t, errs)
	require.Equal(t, 1234.5, accepted.Months[budget.Jan])
}

func TestValidateActualsRow(t *testing.T) {
	cm := MapHeaders([]string{"Invoice Number", "Invoice Date", "Amount", "Currency", "Vendor", "UID"}, TypeActuals)

	accepted, errs := ValidateActualsRow([]string{"INV-9", "2025-06-15", "2,500", "usd", "Acme", "X-1"}, cm, 2)
	require.Empty(t, errs)
	require.Equal(t, "INV-9", accepted.InvoiceNumber)
	require.Equal(t, budget.Jun, accepted.Month)
	require.Equal(t, 2500.0, accepted.Amount)
	require.Equal(t, "USD", accepted.Currency)
	require.Equal(t, "X-1", accepted.UID)
}

func TestValidateActualsRowDefaultsCurrency(t *testing.T) {
	cm := MapHeaders([]string{"Invoice Number", "Invoice Date", "Amount"}, TypeActuals)

	accepted, errs := ValidateActualsRow([]string{"INV-1", "15/01/2026", "10"}, cm, 2)
	require.Empty(t, errs)
	require.Equal(t, BaseCurrency, accepted.Currency)
	require.Equal(t, budget.Jan, accepted.Month)
}

func TestValidateActualsRowRequiredFields(t *testing.T) {
	cm := MapHeaders([]string{"Invoice Number", "Invoice Date", "Amount"}, TypeActuals)

	_, errs := ValidateActualsRow([]string{"", "not a date", ""}, cm, 2)
	require.Len(t, errs, 3)
	require.Contains(t, errs, "invoice number is required")
	require.Contains(t, errs, `invalid invoice date: "not a date"`)
	require.Contains(t, errs, "amount is required")
}
