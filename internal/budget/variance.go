package budget

import "math"

// ComputeVariance derives per-month and cumulative budget/actual cells
// for one line item. Actuals are grouped by canonical month, summing
// converted amounts with the raw amount as fallback. Only months
// present in the budget input produce a cell; the cumulative cell sums
// budget and actual across those months first and derives variance and
// percentage from the sums.
func ComputeVariance(months []BudgetMonth, actuals []Actual) Variance {
	actualByMonth := make(map[Month]float64)
	for _, a := range actuals {
		amount := a.ConvertedAmount
		if amount == 0 {
			amount = a.Amount
		}
		actualByMonth[a.Month] += amount
	}

	monthly := make(map[Month]VarianceCell, len(months))
	var totalBudget, totalActual float64
	for _, bm := range months {
		cell := makeCell(bm.Amount, actualByMonth[bm.Month])
		monthly[bm.Month] = cell
		totalBudget += cell.Budget
		totalActual += cell.Actual
	}

	return Variance{
		Monthly:    monthly,
		Cumulative: makeCell(totalBudget, totalActual),
	}
}

func makeCell(budget, actual float64) VarianceCell {
	budget = round2(budget)
	actual = round2(actual)
	cell := VarianceCell{
		Budget:   budget,
		Actual:   actual,
		Variance: round2(budget - actual),
	}
	if budget > 0 {
		cell.VariancePercentage = round2(cell.Variance / budget * 100)
	}
	return cell
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
