package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/opex-suite/opex-suite/internal/budget"
)

func TestWriteTrackerWorkbook(t *testing.T) {
	rows := []budget.TrackerRow{
		{
			UID:         "X-1",
			Description: "Network links",
			VendorName:  "Acme",
			FiscalYears: map[int]budget.TrackerCell{
				25: {Budget: 1200, Actual: 800},
				26: {Budget: 1500, Actual: 0},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTrackerWorkbook(&buf, rows))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(trackerSheet)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, []string{"UID", "Description", "Vendor", "Tower", "Budget Head", "FY25 Budget", "FY25 Actual", "FY26 Budget", "FY26 Actual"}, got[0])
	require.Equal(t, "X-1", got[1][0])
	require.Equal(t, "1200", got[1][5])
	require.Equal(t, "800", got[1][6])
}
