package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opex-suite/opex-suite/internal/budget"
	"github.com/opex-suite/opex-suite/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListJobs(ctx context.Context, limit int) ([]ImportJob, error)
}

// TxRepository exposes the transactional commit operations. Everything
// a commit writes happens through one TxRepository instance so a
// failure rolls the whole batch back.
type TxRepository interface {
	ResolveTower(ctx context.Context, name string, createMissing bool) (int64, error)
	ResolveBudgetHead(ctx context.Context, name string, towerID int64, createMissing bool) (int64, error)
	FindVendor(ctx context.Context, name string) (int64, error)
	UpsertLineItem(ctx context.Context, row AcceptedRow, towerID, budgetHeadID int64) (int64, bool, error)
	UpsertBudgetMonth(ctx context.Context, lineItemID int64, month string, amount float64) error
	InsertActual(ctx context.Context, row AcceptedRow, vendorID int64, fiscalYear int, batchID string) (int64, error)
	RecordAudit(ctx context.Context, log shared.AuditLog) error
	InsertJob(ctx context.Context, job ImportJob) (int64, error)
}

// MetricsPort records import row outcomes.
type MetricsPort interface {
	ObserveImport(importType string, accepted, rejected int)
}

// Service orchestrates the tabular import pipeline.
type Service struct {
	repo    RepositoryPort
	metrics MetricsPort
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the import service.
func NewService(repo RepositoryPort, metrics MetricsPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Process runs one import execution: parse, map headers, validate
// every row, and either report (dry run) or commit the accepted rows
// in a single transaction. Dry runs are side-effect free and may be
// repeated; the commit of an unmodified file produces exactly the
// per-row outcomes its dry run reported.
func (s *Service) Process(ctx context.Context, importType ImportType, filename string, fileBytes []byte, actorID int64, opts Options) (Result, error) {
	if importType != TypeBudgets && importType != TypeActuals {
		return Result{}, ErrUnknownType
	}
	rows, err := ParseWorkbook(fileBytes)
	if err != nil {
		return Result{}, err
	}

	cm := MapHeaders(rows[0], importType)
	switch importType {
	case TypeBudgets:
		if cm.UID < 0 {
			return Result{}, ErrMissingColumn
		}
	case TypeActuals:
		if cm.InvoiceNumber < 0 {
			return Result{}, ErrMissingColumn
		}
	}

	report := Report{
		Accepted: []AcceptedRow{},
		Rejected: []RejectedRow{},
	}
	for i, row := range rows[1:] {
		// 1-based source index, counting the header row.
		rowIndex := i + 2
		var accepted AcceptedRow
		var errs []string
		if importType == TypeBudgets {
			accepted, errs = ValidateBudgetRow(row, cm, rowIndex)
		} else {
			accepted, errs = ValidateActualsRow(row, cm, rowIndex)
		}
		report.TotalRows++
		if len(errs) > 0 {
			report.Rejected = append(report.Rejected, RejectedRow{RowIndex: rowIndex, UID: accepted.UID, Errors: errs})
			continue
		}
		report.Accepted = append(report.Accepted, accepted)
	}

	result := Result{
		DryRun:        opts.DryRun,
		Report:        report,
		HeaderMapping: &cm.Mapping,
	}
	if opts.DryRun {
		return result, nil
	}

	batchID := uuid.NewString()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if importType == TypeBudgets {
			if err := s.commitBudgets(ctx, tx, report.Accepted, actorID, opts); err != nil {
				return err
			}
		} else {
			if err := s.commitActuals(ctx, tx, report.Accepted, actorID, batchID); err != nil {
				return err
			}
		}
		_, err := tx.InsertJob(ctx, ImportJob{
			BatchID:   batchID,
			Filename:  filename,
			Type:      importType,
			TotalRows: report.TotalRows,
			Accepted:  len(report.Accepted),
			Rejected:  len(report.Rejected),
			Status:    JobStatusCompleted,
			CreatedBy: actorID,
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if s.metrics != nil {
		s.metrics.ObserveImport(string(importType), len(report.Accepted), len(report.Rejected))
	}
	s.logger.Info("import committed",
		slog.String("type", string(importType)),
		slog.String("batch", batchID),
		slog.Int("accepted", len(report.Accepted)),
		slog.Int("rejected", len(report.Rejected)))
	return result, nil
}

func (s *Service) commitBudgets(ctx context.Context, tx TxRepository, accepted []AcceptedRow, actorID int64, opts Options) error {
	for _, row := range accepted {
		towerID, err := tx.ResolveTower(ctx, row.Tower, opts.CreateMissingMasters)
		if err != nil {
			return err
		}
		budgetHeadID, err := tx.ResolveBudgetHead(ctx, row.BudgetHead, towerID, opts.CreateMissingMasters)
		if err != nil {
			return err
		}
		lineItemID, created, err := tx.UpsertLineItem(ctx, row, towerID, budgetHeadID)
		if err != nil {
			return err
		}
		for _, month := range budget.Months {
			amount, ok := row.Months[month]
			if !ok {
				continue
			}
			if err := tx.UpsertBudgetMonth(ctx, lineItemID, string(month), amount); err != nil {
				return err
			}
		}
		action := "LINE_ITEM_IMPORT_UPDATE"
		if created {
			action = "LINE_ITEM_IMPORT_CREATE"
		}
		if err := tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "line_item",
			EntityID: row.UID,
			Meta: map[string]any{
				"sumMonths":   row.SumMonths,
				"totalBudget": row.TotalBudget,
				"months":      len(row.Months),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) commitActuals(ctx context.Context, tx TxRepository, accepted []AcceptedRow, actorID int64, batchID string) error {
	for _, row := range accepted {
		vendorID, err := tx.FindVendor(ctx, row.Vendor)
		if err != nil {
			return err
		}
		fiscalYear := shared.FiscalYear(row.InvoiceDate)
		actualID, err := tx.InsertActual(ctx, row, vendorID, fiscalYear, batchID)
		if err != nil {
			return err
		}
		if err := tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "ACTUAL_IMPORT_CREATE",
			Entity:   "actual",
			EntityID: row.InvoiceNumber,
			Meta: map[string]any{
				"actualId":   actualID,
				"amount":     row.Amount,
				"currency":   row.Currency,
				"fiscalYear": fiscalYear,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// Jobs lists recent import job records, newest first.
func (s *Service) Jobs(ctx context.Context, limit int) ([]ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListJobs(ctx, limit)
}
