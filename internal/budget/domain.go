package budget

import (
	"fmt"
	"time"

	"github.com/opex-suite/opex-suite/internal/shared"
)

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("budget: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("budget: %w", shared.ErrValidation)
)

// LineItem is one budgeted contract/service identified by a UID.
type LineItem struct {
	ID             int64           `json:"id"`
	UID            string          `json:"uid"`
	ParentUID      string          `json:"parentUid,omitempty"`
	VendorID       int64           `json:"vendorId,omitempty"`
	VendorName     string          `json:"vendorName,omitempty"`
	TowerID        int64           `json:"towerId,omitempty"`
	TowerName      string          `json:"towerName,omitempty"`
	BudgetHeadID   int64           `json:"budgetHeadId,omitempty"`
	BudgetHeadName string          `json:"budgetHeadName,omitempty"`
	Description    string          `json:"description"`
	ServiceStart   time.Time       `json:"serviceStart,omitempty"`
	ServiceEnd     time.Time       `json:"serviceEnd,omitempty"`
	UnitCost       float64         `json:"unitCost"`
	Quantity       float64         `json:"quantity"`
	TotalCost      float64         `json:"totalCost"`
	Allocations    map[int]float64 `json:"allocations"`
	LinkedPOID     int64           `json:"linkedPoId,omitempty"`
}

// BudgetMonth is one (line item, month) pair with a budget amount.
// At most one record exists per pair.
type BudgetMonth struct {
	LineItemID int64   `json:"-"`
	Month      Month   `json:"month"`
	Amount     float64 `json:"amount"`
}

// Actual is a recorded invoice/spend event.
type Actual struct {
	ID              int64     `json:"id"`
	InvoiceNumber   string    `json:"invoiceNumber"`
	InvoiceDate     time.Time `json:"invoiceDate"`
	Amount          float64   `json:"amount"`
	ConvertedAmount float64   `json:"convertedAmount,omitempty"`
	Currency        string    `json:"currency"`
	Month           Month     `json:"month"`
	FiscalYear      int       `json:"fiscalYear"`
	LineItemUID     string    `json:"lineItemUid,omitempty"`
	VendorID        int64     `json:"vendorId,omitempty"`
	VendorName      string    `json:"vendorName,omitempty"`
	Remarks         string    `json:"remarks,omitempty"`
}

// PORef is a purchase order linked to a line item.
type PORef struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	VendorName     string    `json:"vendorName,omitempty"`
	Date           time.Time `json:"date"`
	Value          float64   `json:"value"`
	Currency       string    `json:"currency"`
	ConvertedValue float64   `json:"convertedValue"`
	Status         string    `json:"status"`
}

// ReconciliationNote is an append-only annotation on a line item.
type ReconciliationNote struct {
	ID          int64     `json:"id"`
	LineItemUID string    `json:"lineItemUid"`
	ActualID    *int64    `json:"actualId,omitempty"`
	Text        string    `json:"text"`
	AuthorID    int64     `json:"authorId"`
	AuthorName  string    `json:"authorName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AuditEntry is one audit-log record scoped to a line item.
type AuditEntry struct {
	ID      int64          `json:"id"`
	ActorID int64          `json:"actorId"`
	Action  string         `json:"action"`
	Meta    map[string]any `json:"meta,omitempty"`
	At      time.Time      `json:"at"`
}

// VarianceCell holds budget/actual figures for one month or the total.
type VarianceCell struct {
	Budget             float64 `json:"budget"`
	Actual             float64 `json:"actual"`
	Variance           float64 `json:"variance"`
	VariancePercentage float64 `json:"variancePercentage"`
}

// Variance is the computed budget-vs-actual view for a line item.
type Variance struct {
	Monthly    map[Month]VarianceCell `json:"monthly"`
	Cumulative VarianceCell           `json:"cumulative"`
}

// Detail assembles a line item's full picture for the detail view.
type Detail struct {
	LineItem       LineItem             `json:"lineItem"`
	BudgetMonths   []BudgetMonth        `json:"budgetMonths"`
	MonthlyActuals map[Month][]Actual   `json:"monthlyActuals"`
	POs            []PORef              `json:"purchaseOrders"`
	Notes          []ReconciliationNote `json:"reconciliationNotes"`
	AuditHistory   []AuditEntry         `json:"auditHistory"`
	Variance       Variance             `json:"variance"`
}

// TrackerCell pairs budget and actual totals for one fiscal year.
type TrackerCell struct {
	Budget float64 `json:"budget"`
	Actual float64 `json:"actual"`
}

// TrackerRow is one flattened budget-vs-actual row per line item.
type TrackerRow struct {
	UID            string              `json:"uid"`
	Description    string              `json:"description"`
	VendorName     string              `json:"vendorName,omitempty"`
	TowerName      string              `json:"towerName,omitempty"`
	BudgetHeadName string              `json:"budgetHeadName,omitempty"`
	FiscalYears    map[int]TrackerCell `json:"fiscalYears"`
}
