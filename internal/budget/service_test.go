package budget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryBudgetRepo struct {
	items     map[string]LineItem
	months    map[int64][]BudgetMonth
	actuals   map[string][]Actual
	pos       map[string][]PORef
	notes     map[string][]ReconciliationNote
	history   map[string][]AuditEntry
	allocated map[string]map[int]float64
	nextID    int64
}

func newMemoryBudgetRepo() *memoryBudgetRepo {
	return &memoryBudgetRepo{
		items:     make(map[string]LineItem),
		months:    make(map[int64][]BudgetMonth),
		actuals:   make(map[string][]Actual),
		pos:       make(map[string][]PORef),
		notes:     make(map[string][]ReconciliationNote),
		history:   make(map[string][]AuditEntry),
		allocated: make(map[string]map[int]float64),
	}
}

func (r *memoryBudgetRepo) GetLineItem(ctx context.Context, uid string) (LineItem, error) {
	item, ok := r.items[uid]
	if !ok {
		return LineItem{}, ErrNotFound
	}
	return item, nil
}

func (r *memoryBudgetRepo) ListBudgetMonths(ctx context.Context, lineItemID int64) ([]BudgetMonth, error) {
	return r.months[lineItemID], nil
}

func (r *memoryBudgetRepo) ListActuals(ctx context.Context, uid string) ([]Actual, error) {
	return r.actuals[uid], nil
}

func (r *memoryBudgetRepo) ListLinkedPOs(ctx context.Context, uid string) ([]PORef, error) {
	return r.pos[uid], nil
}

func (r *memoryBudgetRepo) ListNotes(ctx context.Context, uid string) ([]ReconciliationNote, error) {
	return r.notes[uid], nil
}

func (r *memoryBudgetRepo) ListAuditHistory(ctx context.Context, uid string, limit int) ([]AuditEntry, error) {
	entries := r.history[uid]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *memoryBudgetRepo) InsertNote(ctx context.Context, note ReconciliationNote) (ReconciliationNote, error) {
	r.nextID++
	note.ID = r.nextID
	r.notes[note.LineItemUID] = append(r.notes[note.LineItemUID], note)
	return note, nil
}

func (r *memoryBudgetRepo) ListLineItems(ctx context.Context) ([]LineItem, error) {
	items := make([]LineItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	return items, nil
}

func (r *memoryBudgetRepo) AllocatedActuals(ctx context.Context) (map[string]map[int]float64, error) {
	return r.allocated, nil
}

func TestLineItemDetailComputesVariance(t *testing.T) {
	repo := newMemoryBudgetRepo()
	repo.items["X-1"] = LineItem{ID: 1, UID: "X-1", Description: "Network links"}
	repo.months[1] = []BudgetMonth{
		{LineItemID: 1, Month: Jan, Amount: 100},
		{LineItemID: 1, Month: Feb, Amount: 100},
	}
	repo.actuals["X-1"] = []Actual{
		{ID: 10, Month: Feb, Amount: 40},
		{ID: 11, Month: Feb, Amount: 20},
	}

	svc := NewService(repo)
	detail, err := svc.LineItemDetail(context.Background(), "X-1")
	require.NoError(t, err)

	require.Equal(t, "X-1", detail.LineItem.UID)
	require.Len(t, detail.MonthlyActuals[Feb], 2)

	jan := detail.Variance.Monthly[Jan]
	require.Equal(t, VarianceCell{Budget: 100, Actual: 0, Variance: 100, VariancePercentage: 100}, jan)

	feb := detail.Variance.Monthly[Feb]
	require.Equal(t, 60.0, feb.Actual)
	require.Equal(t, 40.0, feb.Variance)

	require.Equal(t, 200.0, detail.Variance.Cumulative.Budget)
	require.Equal(t, 60.0, detail.Variance.Cumulative.Actual)
}

func TestLineItemDetailUnknownUID(t *testing.T) {
	svc := NewService(newMemoryBudgetRepo())
	_, err := svc.LineItemDetail(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddReconciliationNote(t *testing.T) {
	repo := newMemoryBudgetRepo()
	repo.items["X-1"] = LineItem{ID: 1, UID: "X-1"}
	svc := NewService(repo)

	note, err := svc.AddReconciliationNote(context.Background(), "X-1", "  checked with vendor  ", 7, nil)
	require.NoError(t, err)
	require.Equal(t, "checked with vendor", note.Text)
	require.Equal(t, int64(7), note.AuthorID)

	_, err = svc.AddReconciliationNote(context.Background(), "X-1", "   ", 7, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddReconciliationNote(context.Background(), "missing", "note", 7, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBudgetTrackerUsesAllocationBasis(t *testing.T) {
	repo := newMemoryBudgetRepo()
	repo.items["X-1"] = LineItem{
		ID:          1,
		UID:         "X-1",
		Description: "Licences",
		Allocations: map[int]float64{25: 1200, 26: 1500},
	}
	// Only the allocated portion counts, not the invoice total.
	repo.allocated["X-1"] = map[int]float64{26: 300.456}

	svc := NewService(repo)
	rows, err := svc.BudgetTracker(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Equal(t, TrackerCell{Budget: 1200, Actual: 0}, row.FiscalYears[25])
	require.Equal(t, TrackerCell{Budget: 1500, Actual: 300.46}, row.FiscalYears[26])
}
