package importer

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/opex-suite/opex-suite/internal/shared"
)

type memoryImportRepo struct {
	towers      map[string]int64
	budgetHeads map[string]int64
	vendors     map[string]int64
	lineItems   map[string]int64
	months      map[string]float64
	actuals     []AcceptedRow
	audits      []shared.AuditLog
	jobs        []ImportJob
	nextID      int64
}

type memoryImportTx struct {
	repo *memoryImportRepo
}

func newMemoryImportRepo() *memoryImportRepo {
	return &memoryImportRepo{
		towers:      make(map[string]int64),
		budgetHeads: make(map[string]int64),
		vendors:     make(map[string]int64),
		lineItems:   make(map[string]int64),
		months:      make(map[string]float64),
	}
}

func (r *memoryImportRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryImportTx{repo: r})
}

func (r *memoryImportRepo) ListJobs(ctx context.Context, limit int) ([]ImportJob, error) {
	if len(r.jobs) > limit {
		return r.jobs[:limit], nil
	}
	return r.jobs, nil
}

func (tx *memoryImportTx) ResolveTower(ctx context.Context, name string, createMissing bool) (int64, error) {
	if name == "" {
		return 0, nil
	}
	if id, ok := tx.repo.towers[name]; ok {
		return id, nil
	}
	if !createMissing {
		return 0, nil
	}
	tx.repo.nextID++
	tx.repo.towers[name] = tx.repo.nextID
	return tx.repo.nextID, nil
}

func (tx *memoryImportTx) ResolveBudgetHead(ctx context.Context, name string, towerID int64, createMissing bool) (int64, error) {
	if name == "" {
		return 0, nil
	}
	if id, ok := tx.repo.budgetHeads[name]; ok {
		return id, nil
	}
	if !createMissing {
		return 0, nil
	}
	tx.repo.nextID++
	tx.repo.budgetHeads[name] = tx.repo.nextID
	return tx.repo.nextID, nil
}

func (tx *memoryImportTx) FindVendor(ctx context.Context, name string) (int64, error) {
	return tx.repo.vendors[name], nil
}

func (tx *memoryImportTx) UpsertLineItem(ctx context.Context, row AcceptedRow, towerID, budgetHeadID int64) (int64, bool, error) {
	if id, ok := tx.repo.lineItems[row.UID]; ok {
		return id, false, nil
	}
	tx.repo.nextID++
	tx.repo.lineItems[row.UID] = tx.repo.nextID
	return tx.repo.nextID, true, nil
}

func (tx *memoryImportTx) UpsertBudgetMonth(ctx context.Context, lineItemID int64, month string, amount float64) error {
	tx.repo.months[fmt.Sprintf("%d/%s", lineItemID, month)] = amount
	return nil
}

func (tx *memoryImportTx) InsertActual(ctx context.Context, row AcceptedRow, vendorID int64, fiscalYear int, batchID string) (int64, error) {
	tx.repo.actuals = append(tx.repo.actuals, row)
	tx.repo.nextID++
	return tx.repo.nextID, nil
}

func (tx *memoryImportTx) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	tx.repo.audits = append(tx.repo.audits, log)
	return nil
}

func (tx *memoryImportTx) InsertJob(ctx context.Context, job ImportJob) (int64, error) {
	tx.repo.jobs = append(tx.repo.jobs, job)
	return int64(len(tx.repo.jobs)), nil
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func budgetWorkbook(t *testing.T) []byte {
	return buildWorkbook(t, [][]any{
		{"UID", "Description", "Tower", "Budget Head", "Jan", "Feb", "Total"},
		{"X-1", "Network links", "Infra", "Connectivity", 100, 200, 300},
		{"", "Missing uid", "Infra", "Connectivity", 50, 50, 100},
		{"X-2", "Licences", "Apps", "Software", 10, 20, 300},
	})
}

func TestProcessDryRunIsSideEffectFree(t *testing.T) {
	repo := newMemoryImportRepo()
	svc := NewService(repo, nil, nil)

	first, err := svc.Process(context.Background(), TypeBudgets, "budget.xlsx", budgetWorkbook(t), 1, Options{DryRun: true})
	require.NoError(t, err)
	second, err := svc.Process(context.Background(), TypeBudgets, "budget.xlsx", budgetWorkbook(t), 1, Options{DryRun: true})
	require.NoError(t, err)

	require.True(t, first.DryRun)
	require.Equal(t, first.Report, second.Report)
	require.Empty(t, repo.lineItems)
	require.Empty(t, repo.jobs)
	require.Empty(t, repo.audits)
}

func TestProcessCommitMatchesDryRun(t *testing.T) {
	repo := newMemoryImportRepo()
	svc := NewService(repo, nil, nil)
	opts := Options{CreateMissingMasters: true}

	dry, err := svc.Process(context.Background(), TypeBudgets, "budget.xlsx", budgetWorkbook(t), 1, Options{DryRun: true, CreateMissingMasters: true})
	require.NoError(t, err)
	commit, err := svc.Process(context.Background(), TypeBudgets, "budget.xlsx", budgetWorkbook(t), 1, opts)
	require.NoError(t, err)

	require.Equal(t, dry.Report, commit.Report)
	require.False(t, commit.DryRun)

	require.Equal(t, 3, commit.Report.TotalRows)
	require.Len(t, commit.Report.Accepted, 1)
	require.Len(t, commit.Report.Rejected, 2)

	// Only the accepted row persists.
	require.Len(t, repo.lineItems, 1)
	require.Contains(t, repo.lineItems, "X-1")
	require.Equal(t, 100.0, repo.months[fmt.Sprintf("%d/Jan", repo.lineItems["X-1"])])

	// Exactly one job record per committed execution.
	require.Len(t, repo.jobs, 1)
	job := repo.jobs[0]
	require.Equal(t, TypeBudgets, job.Type)
	require.Equal(t, 3, job.TotalRows)
	require.Equal(t, 1, job.Accepted)
	require.Equal(t, 2, job.Rejected)
	require.Equal(t, JobStatusCompleted, job.Status)
}

func TestProcessRejectionReasons(t *testing.T) {
	svc := NewService(newMemoryImportRepo(), nil, nil)

	result, err := svc.Process(context.Background(), TypeBudgets, "budget.xlsx", budgetWorkbook(t), 1, Options{DryRun: true})
	require.NoError(t, err)

	require.Equal(t, 3, result.Report.Rejected[0].RowIndex)
	require.Contains(t, result.Report.Rejected[0].Errors, "UID is required")
	require.Equal(t, 4, result.Report.Rejected[1].RowIndex)
	require.Contains(t, result.Report.Rejected[1].Errors, "Total mismatch")
}

func TestProcessActualsCommit(t *testing.T) {
	repo := newMemoryImportRepo()
	repo.vendors["Acme"] = 42
	svc := NewService(repo, nil, nil)

	data := buildWorkbook(t, [][]any{
		{"Invoice Number", "Invoice Date", "Amount", "Currency", "Vendor", "UID"},
		{"INV-1", "2025-06-15", 2500, "USD", "Acme", "X-1"},
		{"INV-2", "", 100, "", "", ""},
	})

	result, err := svc.Process(context.Background(), TypeActuals, "actuals.xlsx", data, 1, Options{})
	require.NoError(t, err)

	require.Len(t, result.Report.Accepted, 1)
	require.Len(t, result.Report.Rejected, 1)
	require.Len(t, repo.actuals, 1)
	require.Equal(t, "INV-1", repo.actuals[0].InvoiceNumber)
	require.Len(t, repo.jobs, 1)
	require.Equal(t, TypeActuals, repo.jobs[0].Type)
}

func TestProcessMissingStructuralColumn(t *testing.T) {
	svc := NewService(newMemoryImportRepo(), nil, nil)

	data := buildWorkbook(t, [][]any{
		{"Description", "Jan", "Total"},
		{"No uid column", 10, 10},
	})

	_, err := svc.Process(context.Background(), TypeBudgets, "budget.xlsx", data, 1, Options{DryRun: true})
	require.ErrorIs(t, err, ErrMissingColumn)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestProcessUnknownType(t *testing.T) {
	svc := NewService(newMemoryImportRepo(), nil, nil)
	_, err := svc.Process(context.Background(), ImportType("forecast"), "f.xlsx", nil, 1, Options{})
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestProcessUnparseablePayload(t *testing.T) {
	svc := NewService(newMemoryImportRepo(), nil, nil)
	_, err := svc.Process(context.Background(), TypeBudgets, "junk.bin", []byte("not a workbook"), 1, Options{})
	require.ErrorIs(t, err, ErrUnparseable)
}
