package po

import (
	"fmt"
	"time"

	"github.com/opex-suite/opex-suite/internal/budget"
	"github.com/opex-suite/opex-suite/internal/shared"
)

// Purchase order lifecycle statuses.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusClosed    Status = "CLOSED"
)

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("po: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("po: %w", shared.ErrValidation)
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = fmt.Errorf("po: invalid state transition: %w", shared.ErrValidation)
)

// PurchaseOrder is a commitment attached to budget line items.
type PurchaseOrder struct {
	ID             int64        `json:"id"`
	Number         string       `json:"number"`
	VendorID       int64        `json:"vendorId,omitempty"`
	Date           time.Time    `json:"date"`
	Value          float64      `json:"value"`
	Currency       string       `json:"currency"`
	ConvertedValue float64      `json:"convertedValue"`
	Status         Status       `json:"status"`
	PRNumber       string       `json:"prNumber,omitempty"`
	TowerID        int64        `json:"towerId,omitempty"`
	BudgetHeadID   int64        `json:"budgetHeadId,omitempty"`
	LineItemUID    string       `json:"lineItemUid,omitempty"`
	FiscalYear     int          `json:"fiscalYear"`
	Month          budget.Month `json:"month"`
}

// ActualsBucket accumulates derived actuals per
// (fiscal year, month, tower, budget head, cost centre).
type ActualsBucket struct {
	ID           int64
	FiscalYear   int
	Month        budget.Month
	TowerID      int64
	BudgetHeadID int64
	CostCentreID int64
	Amount       float64
	Remarks      string
}

// BucketKey identifies the bucket a PO posts into.
type BucketKey struct {
	FiscalYear   int
	Month        budget.Month
	TowerID      int64
	BudgetHeadID int64
	CostCentreID int64
}
