package importer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/opex-suite/opex-suite/internal/budget"
)

// BaseCurrency is the organisation's common reporting currency.
const BaseCurrency = "INR"

// monthTolerance is the allowed drift between the summed month values
// and the declared annual total.
const monthTolerance = 0.5

// ColumnMap locates the recognised columns of an import file.
// Indices are -1 when the column is absent.
type ColumnMap struct {
	UID         int
	Description int
	Tower       int
	BudgetHead  int
	Total       int

	InvoiceNumber int
	InvoiceDate   int
	Amount        int
	Currency      int
	Vendor        int

	MonthCols map[int]budget.Month
	Mapping   HeaderMapping
}

// monthColumnIndexes returns the month column positions in file order,
// keeping row validation output stable across runs.
func (cm ColumnMap) monthColumnIndexes() []int {
	idxs := make([]int, 0, len(cm.MonthCols))
	for idx := range cm.MonthCols {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	return idxs
}

var budgetFixedColumns = map[string]func(*ColumnMap, int){
	"uid":          func(cm *ColumnMap, i int) { cm.UID = i },
	"description":  func(cm *ColumnMap, i int) { cm.Description = i },
	"details":      func(cm *ColumnMap, i int) { cm.Description = i },
	"tower":        func(cm *ColumnMap, i int) { cm.Tower = i },
	"budget head":  func(cm *ColumnMap, i int) { cm.BudgetHead = i },
	"budgethead":   func(cm *ColumnMap, i int) { cm.BudgetHead = i },
	"total":        func(cm *ColumnMap, i int) { cm.Total = i },
	"total budget": func(cm *ColumnMap, i int) { cm.Total = i },
}

var actualsFixedColumns = map[string]func(*ColumnMap, int){
	"uid":            func(cm *ColumnMap, i int) { cm.UID = i },
	"line item uid":  func(cm *ColumnMap, i int) { cm.UID = i },
	"invoice number": func(cm *ColumnMap, i int) { cm.InvoiceNumber = i },
	"invoice no":     func(cm *ColumnMap, i int) { cm.InvoiceNumber = i },
	"invoice date":   func(cm *ColumnMap, i int) { cm.InvoiceDate = i },
	"date":           func(cm *ColumnMap, i int) { cm.InvoiceDate = i },
	"amount":         func(cm *ColumnMap, i int) { cm.Amount = i },
	"invoice amount": func(cm *ColumnMap, i int) { cm.Amount = i },
	"currency":       func(cm *ColumnMap, i int) { cm.Currency = i },
	"vendor":         func(cm *ColumnMap, i int) { cm.Vendor = i },
	"vendor name":    func(cm *ColumnMap, i int) { cm.Vendor = i },
}

// MapHeaders classifies each header as a known fixed column, a month
// column (budget imports), or an unrecognised pass-through.
func MapHeaders(headers []string, importType ImportType) ColumnMap {
	cm := ColumnMap{
		UID: -1, Description: -1, Tower: -1, BudgetHead: -1, Total: -1,
		InvoiceNumber: -1, InvoiceDate: -1, Amount: -1, Currency: -1, Vendor: -1,
		MonthCols: make(map[int]budget.Month),
	}
	fixed := budgetFixedColumns
	if importType == TypeActuals {
		fixed = actualsFixedColumns
	}
	for i, raw := range headers {
		cleaned := strings.Join(strings.Fields(raw), " ")
		normalized := raw
		if assign, ok := fixed[strings.ToLower(cleaned)]; ok {
			assign(&cm, i)
			normalized = cleaned
		} else if importType == TypeBudgets {
			if m, err := budget.ParseMonth(raw); err == nil {
				cm.MonthCols[i] = m
				normalized = string(m)
			}
		}
		cm.Mapping.RawHeaders = append(cm.Mapping.RawHeaders, raw)
		cm.Mapping.NormalizedHeaders = append(cm.Mapping.NormalizedHeaders, normalized)
	}
	return cm
}

// ValidateBudgetRow validates one budget data row. Every applicable
// error is collected; the row only commits when errors is empty.
func ValidateBudgetRow(row []string, cm ColumnMap, rowIndex int) (AcceptedRow, []string) {
	var errs []string
	accepted := AcceptedRow{
		RowIndex:    rowIndex,
		UID:         cell(row, cm.UID),
		Description: cell(row, cm.Description),
		Tower:       cell(row, cm.Tower),
		BudgetHead:  cell(row, cm.BudgetHead),
		Months:      make(map[budget.Month]float64),
	}
	if accepted.UID == "" {
		errs = append(errs, "UID is required")
	}

	var sum float64
	for _, idx := range cm.monthColumnIndexes() {
		month := cm.MonthCols[idx]
		raw := cell(row, idx)
		if raw == "" {
			continue
		}
		value, err := parseAmount(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid value for %s: %q", month, raw))
			continue
		}
		accepted.Months[month] = value
		sum += value
	}
	accepted.SumMonths = sum

	if raw := cell(row, cm.Total); raw != "" {
		total, err := parseAmount(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid value for Total: %q", raw))
		} else {
			accepted.TotalBudget = total
		}
	}
	if math.Abs(accepted.SumMonths-accepted.TotalBudget) > monthTolerance {
		errs = append(errs, "Total mismatch")
	}
	return accepted, errs
}

var invoiceDateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01-02-06",
	"1/2/06",
	time.RFC3339,
}

// ValidateActualsRow validates one actuals data row. The canonical
// month comes from the invoice date's calendar month.
func ValidateActualsRow(row []string, cm ColumnMap, rowIndex int) (AcceptedRow, []string) {
	var errs []string
	accepted := AcceptedRow{
		RowIndex:      rowIndex,
		UID:           cell(row, cm.UID),
		InvoiceNumber: cell(row, cm.InvoiceNumber),
		Currency:      strings.ToUpper(cell(row, cm.Currency)),
		Vendor:        cell(row, cm.Vendor),
	}
	if accepted.InvoiceNumber == "" {
		errs = append(errs, "invoice number is required")
	}
	if accepted.Currency == "" {
		accepted.Currency = BaseCurrency
	}

	rawDate := cell(row, cm.InvoiceDate)
	if rawDate == "" {
		errs = append(errs, "invoice date is required")
	} else if date, ok := parseInvoiceDate(rawDate); ok {
		accepted.InvoiceDate = date
		accepted.Month = budget.MonthOf(date)
	} else {
		errs = append(errs, fmt.Sprintf("invalid invoice date: %q", rawDate))
	}

	rawAmount := cell(row, cm.Amount)
	if rawAmount == "" {
		errs = append(errs, "amount is required")
	} else if amount, err := parseAmount(rawAmount); err != nil {
		errs = append(errs, fmt.Sprintf("invalid amount: %q", rawAmount))
	} else {
		accepted.Amount = amount
	}
	return accepted, errs
}

func parseInvoiceDate(raw string) (time.Time, bool) {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseAmount(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, strconv.ErrRange
	}
	return value, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
