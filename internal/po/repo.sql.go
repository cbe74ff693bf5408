package po

import (
	"context"
	"errors"
	"fmt"

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

const poColumns = `id, number, vendor_id, po_date, value, currency, converted_value, status, pr_number, tower_id, budget_head_id, linked_line_item_uid, fiscal_year, month`

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var order PurchaseOrder
	err := row.Scan(&order.ID, &order.Number, &order.VendorID, &order.Date, &order.Value, &order.Currency, &order.ConvertedValue, &order.Status, &order.PRNumber, &order.TowerID, &order.BudgetHeadID, &order.LineItemUID, &order.FiscalYear, &order.Month)
	return order, err
}

// GetPO fetches one purchase order by id.
func (r *Repository) GetPO(ctx context.Context, id int64) (PurchaseOrder, error) {
	order, err := scanPO(r.pool.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, fmt.Errorf("%w: purchase order %d", ErrNotFound, id)
	}
	return order, err
}

// ListPOs returns a page of purchase orders, newest first, plus the
// total count for pagination.
func (r *Repository) ListPOs(ctx context.Context, limit, offset int) ([]PurchaseOrder, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+poColumns+` FROM purchase_orders ORDER BY po_date DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	orders := make([]PurchaseOrder, 0, limit)
	for rows.Next() {
		order, err := scanPO(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

// LineItemTotals aggregates the budget allocation and posted actuals
// for one line item across tracked fiscal years.
func (r *Repository) LineItemTotals(ctx context.Context, uid string) (float64, float64, error) {
	var budgetTotal, actualTotal float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(li.fy25_allocation_amount, 0) + COALESCE(li.fy26_allocation_amount, 0),
COALESCE((SELECT SUM(al.allocated_amount) FROM actual_allocations al WHERE al.line_item_uid = li.uid), 0)
FROM line_items li WHERE li.uid = $1`, uid).Scan(&budgetTotal, &actualTotal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: line item %s", ErrNotFound, uid)
	}
	return budgetTotal, actualTotal, err
}

// CreatePO inserts the order and returns its id.
func (tx *txRepo) CreatePO(ctx context.Context, order PurchaseOrder) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO purchase_orders (number, vendor_id, po_date, value, currency, converted_value, status, pr_number, tower_id, budget_head_id, linked_line_item_uid, fiscal_year, month)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		order.Number, nullID(order.VendorID), order.Date, order.Value, order.Currency, order.ConvertedValue, order.Status, order.PRNumber, nullID(order.TowerID), nullID(order.BudgetHeadID), nullText(order.LineItemUID), order.FiscalYear, order.Month).Scan(&id)
	if shared.IsUniqueViolation(err) {
		return 0, fmt.Errorf("po: number %q: %w", order.Number, shared.ErrDuplicate)
	}
	return id, err
}

// UpdatePO persists value, currency, date and derived fields.
func (tx *txRepo) UpdatePO(ctx context.Context, order PurchaseOrder) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE purchase_orders SET value=$2, currency=$3, converted_value=$4, po_date=$5, month=$6, updated_at=NOW() WHERE id=$1`,
		order.ID, order.Value, order.Currency, order.ConvertedValue, order.Date, order.Month)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: purchase order %d", ErrNotFound, order.ID)
	}
	return nil
}

// UpdatePOStatus moves the order to the given status.
func (tx *txRepo) UpdatePOStatus(ctx context.Context, id int64, status Status) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: purchase order %d", ErrNotFound, id)
	}
	return nil
}

// GetBucketForUpdate locks the matching bucket row so concurrent PO
// posts serialise their increments. Returns nil when absent.
func (tx *txRepo) GetBucketForUpdate(ctx context.Context, key BucketKey) (*ActualsBucket, error) {
	var bucket ActualsBucket
	err := tx.tx.QueryRow(ctx, `SELECT id, fiscal_year, month, tower_id, budget_head_id, cost_centre_id, amount, COALESCE(remarks, '')
FROM actuals_buckets WHERE fiscal_year=$1 AND month=$2 AND tower_id=$3 AND budget_head_id=$4 AND cost_centre_id=$5 FOR UPDATE`,
		key.FiscalYear, key.Month, key.TowerID, key.BudgetHeadID, key.CostCentreID).
		Scan(&bucket.ID, &bucket.FiscalYear, &bucket.Month, &bucket.TowerID, &bucket.BudgetHeadID, &bucket.CostCentreID, &bucket.Amount, &bucket.Remarks)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bucket, nil
}

// CreateBucket inserts a fresh bucket seeded with the first amount.
func (tx *txRepo) CreateBucket(ctx context.Context, bucket ActualsBucket) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO actuals_buckets (fiscal_year, month, tower_id, budget_head_id, cost_centre_id, amount, remarks)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		bucket.FiscalYear, bucket.Month, bucket.TowerID, bucket.BudgetHeadID, bucket.CostCentreID, bucket.Amount, bucket.Remarks).Scan(&id)
	return id, err
}

// AddToBucket increments the locked bucket and appends the remark.
func (tx *txRepo) AddToBucket(ctx context.Context, id int64, delta float64, remark string) error {
	_, err := tx.tx.Exec(ctx, `UPDATE actuals_buckets SET amount = amount + $2, remarks = TRIM(BOTH '; ' FROM COALESCE(remarks, '') || '; ' || $3), updated_at=NOW() WHERE id=$1`, id, delta, remark)
	return err
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
