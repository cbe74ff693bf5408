package budget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeVarianceZeroBudgetMonth(t *testing.T) {
	months := []BudgetMonth{{Month: Jan, Amount: 0}}
	actuals := []Actual{{Month: Jan, Amount: 500}}

	v := ComputeVariance(months, actuals)

	cell := v.Monthly[Jan]
	require.Equal(t, 0.0, cell.Budget)
	require.Equal(t, 500.0, cell.Actual)
	require.Equal(t, -500.0, cell.Variance)
	require.Equal(t, 0.0, cell.VariancePercentage)
}

func TestComputeVarianceCumulativeSumsBeforeDeriving(t *testing.T) {
	// Jan overruns against a zero budget, Feb underruns by the same
	// amount. The cumulative cell derives from summed totals, not an
	// average of the monthly percentages.
	months := []BudgetMonth{
		{Month: Jan, Amount: 0},
		{Month: Feb, Amount: 1000},
	}
	actuals := []Actual{
		{Month: Jan, Amount: 100},
		{Month: Feb, Amount: 900},
	}

	v := ComputeVariance(months, actuals)

	require.Equal(t, 1000.0, v.Cumulative.Budget)
	require.Equal(t, 1000.0, v.Cumulative.Actual)
	require.Equal(t, 0.0, v.Cumulative.Variance)
	require.Equal(t, 0.0, v.Cumulative.VariancePercentage)
}

func TestComputeVarianceIgnoresActualsOutsideBudgetMonths(t *testing.T) {
	months := []BudgetMonth{{Month: Jan, Amount: 100}}
	actuals := []Actual{
		{Month: Jan, Amount: 40},
		{Month: Mar, Amount: 999},
	}

	v := ComputeVariance(months, actuals)

	require.Len(t, v.Monthly, 1)
	require.Equal(t, 60.0, v.Monthly[Jan].Variance)
	require.Equal(t, 40.0, v.Cumulative.Actual)
}

func TestComputeVariancePrefersConvertedAmount(t *testing.T) {
	months := []BudgetMonth{{Month: Jan, Amount: 100}}
	actuals := []Actual{{Month: Jan, Amount: 1200, ConvertedAmount: 60, Currency: "USD"}}

	v := ComputeVariance(months, actuals)

	require.Equal(t, 60.0, v.Monthly[Jan].Actual)
	require.Equal(t, 40.0, v.Monthly[Jan].Variance)
	require.Equal(t, 40.0, v.Monthly[Jan].VariancePercentage)
}
