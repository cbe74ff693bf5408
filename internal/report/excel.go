// Package report renders downloadable workbook exports.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/opex-suite/opex-suite/internal/budget"
	"github.com/opex-suite/opex-suite/internal/shared"
)

const trackerSheet = "Tracker"

// WriteTrackerWorkbook renders the budget tracker as an xlsx workbook
// with one Budget/Actual column pair per tracked fiscal year.
func WriteTrackerWorkbook(w io.Writer, rows []budget.TrackerRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(trackerSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []any{"UID", "Description", "Vendor", "Tower", "Budget Head"}
	for _, fy := range shared.TrackedFiscalYears {
		headers = append(headers, fmt.Sprintf("FY%d Budget", fy), fmt.Sprintf("FY%d Actual", fy))
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(trackerSheet, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []any{row.UID, row.Description, row.VendorName, row.TowerName, row.BudgetHeadName}
		for _, fy := range shared.TrackedFiscalYears {
			cell := row.FiscalYears[fy]
			values = append(values, cell.Budget, cell.Actual)
		}
		for col, v := range values {
			name, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(trackerSheet, name, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
