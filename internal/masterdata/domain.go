package masterdata

// Tower is a top-level organisational grouping budget heads roll up into.
type Tower struct {
	ID   int64
	Name string
}

// BudgetHead is a spending category under a tower.
type BudgetHead struct {
	ID      int64
	TowerID int64
	Name    string
}

// Vendor is a supplier actuals and POs reference.
type Vendor struct {
	ID   int64
	Name string
}

// CostCentre is a charging bucket for allocated spend.
type CostCentre struct {
	ID   int64
	Name string
}
