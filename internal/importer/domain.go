package importer

import (
	"fmt"
	"time"

	"github.com/opex-suite/opex-suite/internal/budget"
	"github.com/opex-suite/opex-suite/internal/shared"
)

// ImportType distinguishes the two supported tabular imports.
type ImportType string

const (
	TypeBudgets ImportType = "budgets"
	TypeActuals ImportType = "actuals"
)

// Import job statuses.
const (
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

var (
	// ErrUnparseable indicates the uploaded file is not a readable workbook.
	ErrUnparseable = fmt.Errorf("importer: unparseable file: %w", shared.ErrValidation)
	// ErrMissingColumn indicates a structural column (UID, invoice number)
	// could not be identified. Raised before any row is processed.
	ErrMissingColumn = fmt.Errorf("importer: required column missing: %w", shared.ErrValidation)
	// ErrUnknownType indicates an unsupported import type.
	ErrUnknownType = fmt.Errorf("importer: unknown import type: %w", shared.ErrValidation)
)

// Options control one import execution.
type Options struct {
	DryRun               bool
	CreateMissingMasters bool
}

// AcceptedRow is a validated row ready for (or already) committed.
// Budget and actuals imports populate different field subsets.
type AcceptedRow struct {
	RowIndex int    `json:"rowIndex"`
	UID      string `json:"uid"`

	Description string                   `json:"description,omitempty"`
	Tower       string                   `json:"tower,omitempty"`
	BudgetHead  string                   `json:"budgetHead,omitempty"`
	Months      map[budget.Month]float64 `json:"months,omitempty"`
	SumMonths   float64                  `json:"sumMonths,omitempty"`
	TotalBudget float64                  `json:"totalBudget,omitempty"`

	InvoiceNumber string       `json:"invoiceNumber,omitempty"`
	InvoiceDate   time.Time    `json:"invoiceDate,omitzero"`
	Amount        float64      `json:"amount,omitempty"`
	Currency      string       `json:"currency,omitempty"`
	Month         budget.Month `json:"month,omitempty"`
	Vendor        string       `json:"vendor,omitempty"`
}

// RejectedRow carries every validation error found on one source row.
type RejectedRow struct {
	RowIndex int      `json:"rowIndex"`
	UID      string   `json:"uid"`
	Errors   []string `json:"errors"`
}

// Report summarises row outcomes for one import execution.
type Report struct {
	TotalRows int           `json:"totalRows"`
	Accepted  []AcceptedRow `json:"accepted"`
	Rejected  []RejectedRow `json:"rejected"`
}

// HeaderMapping echoes the file's headers and their normalized forms
// in file order. Unrecognized headers pass through unchanged.
type HeaderMapping struct {
	RawHeaders        []string `json:"rawHeaders"`
	NormalizedHeaders []string `json:"normalizedHeaders"`
}

// Result is the response body shape consumed by the UI verbatim.
type Result struct {
	DryRun        bool           `json:"dryRun"`
	Report        Report         `json:"report"`
	HeaderMapping *HeaderMapping `json:"headerMapping,omitempty"`
}

// ImportJob is the audit record of one committed import execution.
type ImportJob struct {
	ID        int64      `json:"id"`
	BatchID   string     `json:"batchId"`
	Filename  string     `json:"filename"`
	Type      ImportType `json:"type"`
	TotalRows int        `json:"totalRows"`
	Accepted  int        `json:"accepted"`
	Rejected  int        `json:"rejected"`
	Status    string     `json:"status"`
	CreatedBy int64      `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}
