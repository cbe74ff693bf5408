package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opex-suite/opex-suite/internal/platform/db"
	"github.com/opex-suite/opex-suite/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListJobs returns recent import jobs, newest first.
func (r *Repository) ListJobs(ctx context.Context, limit int) ([]ImportJob, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, batch_id, filename, import_type, total_rows, accepted_rows, rejected_rows, status, created_by, created_at
FROM import_jobs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []ImportJob
	for rows.Next() {
		var job ImportJob
		if err := rows.Scan(&job.ID, &job.BatchID, &job.Filename, &job.Type, &job.TotalRows, &job.Accepted, &job.Rejected, &job.Status, &job.CreatedBy, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ResolveTower looks a tower up by name; creates it only when asked.
// A miss without createMissing leaves the foreign key null (0).
func (tx *txRepo) ResolveTower(ctx context.Context, name string, createMissing bool) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}
	var id int64
	err := tx.tx.QueryRow(ctx, `SELECT id FROM towers WHERE LOWER(name)=LOWER($1)`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	if !createMissing {
		return 0, nil
	}
	err = tx.tx.QueryRow(ctx, `INSERT INTO towers (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if shared.IsUniqueViolation(err) {
		return 0, fmt.Errorf("importer: tower %q: %w", name, shared.ErrDuplicate)
	}
	return id, err
}

// ResolveBudgetHead mirrors ResolveTower for budget heads.
func (tx *txRepo) ResolveBudgetHead(ctx context.Context, name string, towerID int64, createMissing bool) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}
	var id int64
	err := tx.tx.QueryRow(ctx, `SELECT id FROM budget_heads WHERE LOWER(name)=LOWER($1)`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	if !createMissing {
		return 0, nil
	}
	err = tx.tx.QueryRow(ctx, `INSERT INTO budget_heads (name, tower_id) VALUES ($1,$2) RETURNING id`, name, nullInt(towerID)).Scan(&id)
	if shared.IsUniqueViolation(err) {
		return 0, fmt.Errorf("importer: budget head %q: %w", name, shared.ErrDuplicate)
	}
	return id, err
}

// FindVendor resolves a vendor by name match, 0 on miss.
func (tx *txRepo) FindVendor(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}
	var id int64
	err := tx.tx.QueryRow(ctx, `SELECT id FROM vendors WHERE LOWER(name)=LOWER($1)`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// UpsertLineItem creates or partially updates a line item by UID.
// Existing unrelated fields are preserved on update.
func (tx *txRepo) UpsertLineItem(ctx context.Context, row AcceptedRow, towerID, budgetHeadID int64) (int64, bool, error) {
	var id int64
	var created bool
	err := tx.tx.QueryRow(ctx, `INSERT INTO line_items (uid, description, tower_id, budget_head_id, total_cost, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
ON CONFLICT (uid) DO UPDATE SET
	description = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE line_items.description END,
	tower_id = COALESCE(EXCLUDED.tower_id, line_items.tower_id),
	budget_head_id = COALESCE(EXCLUDED.budget_head_id, line_items.budget_head_id),
	total_cost = EXCLUDED.total_cost,
	updated_at = NOW()
RETURNING id, (xmax = 0)`,
		row.UID, row.Description, nullInt(towerID), nullInt(budgetHeadID), row.TotalBudget).Scan(&id, &created)
	return id, created, err
}

// UpsertBudgetMonth replaces the amount for a (line item, month) pair.
func (tx *txRepo) UpsertBudgetMonth(ctx context.Context, lineItemID int64, month string, amount float64) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO budget_months (line_item_id, month, amount)
VALUES ($1,$2,$3)
ON CONFLICT (line_item_id, month) DO UPDATE SET amount = EXCLUDED.amount`, lineItemID, month, amount)
	return err
}

// InsertActual records one imported invoice.
func (tx *txRepo) InsertActual(ctx context.Context, row AcceptedRow, vendorID int64, fiscalYear int, batchID string) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO actuals (invoice_number, invoice_date, amount, currency, month, fiscal_year, line_item_uid, vendor_id, import_batch_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW()) RETURNING id`,
		row.InvoiceNumber, row.InvoiceDate, row.Amount, row.Currency, string(row.Month), fiscalYear,
		nullString(row.UID), nullInt(vendorID), batchID).Scan(&id)
	return id, err
}

// RecordAudit writes one audit entry inside the commit transaction.
func (tx *txRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	meta, err := metaJSON(log.Meta)
	if err != nil {
		return err
	}
	_, err = tx.tx.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1,$2,$3,$4,$5,NOW())`,
		log.ActorID, log.Action, log.Entity, log.EntityID, meta)
	return err
}

// InsertJob writes the single summary record for one commit.
func (tx *txRepo) InsertJob(ctx context.Context, job ImportJob) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO import_jobs (batch_id, filename, import_type, total_rows, accepted_rows, rejected_rows, status, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		job.BatchID, job.Filename, string(job.Type), job.TotalRows, job.Accepted, job.Rejected, job.Status, job.CreatedBy, job.CreatedAt).Scan(&id)
	return id, err
}

func metaJSON(meta map[string]any) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	return json.Marshal(meta)
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
