package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFiscalYearAprilBoundary(t *testing.T) {
	require.Equal(t, 25, FiscalYear(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 25, FiscalYear(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 26, FiscalYear(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 26, FiscalYear(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCalendarYear(t *testing.T) {
	require.Equal(t, 25, CalendarYear(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 26, CalendarYear(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}
