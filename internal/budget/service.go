package budget

import (
	"context"
	"strings"

	"github.com/opex-suite/opex-suite/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	GetLineItem(ctx context.Context, uid string) (LineItem, error)
	ListBudgetMonths(ctx context.Context, lineItemID int64) ([]BudgetMonth, error)
	ListActuals(ctx context.Context, uid string) ([]Actual, error)
	ListLinkedPOs(ctx context.Context, uid string) ([]PORef, error)
	ListNotes(ctx context.Context, uid string) ([]ReconciliationNote, error)
	ListAuditHistory(ctx context.Context, uid string, limit int) ([]AuditEntry, error)
	InsertNote(ctx context.Context, note ReconciliationNote) (ReconciliationNote, error)
	ListLineItems(ctx context.Context) ([]LineItem, error)
	AllocatedActuals(ctx context.Context) (map[string]map[int]float64, error)
}

// auditHistoryLimit caps the detail view's audit trail.
const auditHistoryLimit = 50

// Service assembles budget detail and tracker views.
type Service struct {
	repo RepositoryPort
}

// NewService builds the service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// LineItemDetail fetches a line item's full picture: budget months,
// actuals grouped by month, linked POs, reconciliation notes, the
// latest audit entries and the computed variance. Read-only.
func (s *Service) LineItemDetail(ctx context.Context, uid string) (Detail, error) {
	item, err := s.repo.GetLineItem(ctx, uid)
	if err != nil {
		return Detail{}, err
	}
	months, err := s.repo.ListBudgetMonths(ctx, item.ID)
	if err != nil {
		return Detail{}, err
	}
	actuals, err := s.repo.ListActuals(ctx, uid)
	if err != nil {
		return Detail{}, err
	}
	pos, err := s.repo.ListLinkedPOs(ctx, uid)
	if err != nil {
		return Detail{}, err
	}
	notes, err := s.repo.ListNotes(ctx, uid)
	if err != nil {
		return Detail{}, err
	}
	history, err := s.repo.ListAuditHistory(ctx, uid, auditHistoryLimit)
	if err != nil {
		return Detail{}, err
	}

	monthlyActuals := make(map[Month][]Actual)
	for _, a := range actuals {
		monthlyActuals[a.Month] = append(monthlyActuals[a.Month], a)
	}

	return Detail{
		LineItem:       item,
		BudgetMonths:   months,
		MonthlyActuals: monthlyActuals,
		POs:            pos,
		Notes:          notes,
		AuditHistory:   history,
		Variance:       ComputeVariance(months, actuals),
	}, nil
}

// AddReconciliationNote appends a note to a line item, optionally tied
// to one actual. Notes are append-only.
func (s *Service) AddReconciliationNote(ctx context.Context, uid, text string, actorID int64, actualID *int64) (ReconciliationNote, error) {
	if strings.TrimSpace(text) == "" {
		return ReconciliationNote{}, ErrValidation
	}
	if _, err := s.repo.GetLineItem(ctx, uid); err != nil {
		return ReconciliationNote{}, err
	}
	return s.repo.InsertNote(ctx, ReconciliationNote{
		LineItemUID: uid,
		ActualID:    actualID,
		Text:        strings.TrimSpace(text),
		AuthorID:    actorID,
	})
}

// BudgetTracker produces one budget-vs-actual row per line item across
// the tracked fiscal years. Budget figures come straight from the
// stored per-year allocation amounts; actual figures sum only the
// portion of each invoice allocated to the line item via its
// allocation-basis links. Recomputed on every call.
func (s *Service) BudgetTracker(ctx context.Context) ([]TrackerRow, error) {
	return trackerSingleflight(ctx, s.buildTracker)
}

func (s *Service) buildTracker(ctx context.Context) ([]TrackerRow, error) {
	items, err := s.repo.ListLineItems(ctx)
	if err != nil {
		return nil, err
	}
	allocated, err := s.repo.AllocatedActuals(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]TrackerRow, 0, len(items))
	for _, item := range items {
		row := TrackerRow{
			UID:            item.UID,
			Description:    item.Description,
			VendorName:     item.VendorName,
			TowerName:      item.TowerName,
			BudgetHeadName: item.BudgetHeadName,
			FiscalYears:    make(map[int]TrackerCell, len(shared.TrackedFiscalYears)),
		}
		for _, fy := range shared.TrackedFiscalYears {
			row.FiscalYears[fy] = TrackerCell{
				Budget: item.Allocations[fy],
				Actual: round2(allocated[item.UID][fy]),
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
