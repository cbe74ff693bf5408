package budget

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const lineItemColumns = `li.id, li.uid, COALESCE(li.parent_uid,''), COALESCE(li.vendor_id,0), COALESCE(v.name,''),
COALESCE(li.tower_id,0), COALESCE(t.name,''), COALESCE(li.budget_head_id,0), COALESCE(bh.name,''),
li.description, COALESCE(li.service_start, 'epoch'), COALESCE(li.service_end, 'epoch'),
li.unit_cost, li.quantity, li.total_cost, COALESCE(li.fy25_allocation_amount,0), COALESCE(li.fy26_allocation_amount,0), COALESCE(li.linked_po_id,0)`

const lineItemJoins = `FROM line_items li
LEFT JOIN vendors v ON v.id = li.vendor_id
LEFT JOIN towers t ON t.id = li.tower_id
LEFT JOIN budget_heads bh ON bh.id = li.budget_head_id`

func scanLineItem(row pgx.Row) (LineItem, error) {
	var item LineItem
	var fy25, fy26 float64
	err := row.Scan(&item.ID, &item.UID, &item.ParentUID, &item.VendorID, &item.VendorName,
		&item.TowerID, &item.TowerName, &item.BudgetHeadID, &item.BudgetHeadName,
		&item.Description, &item.ServiceStart, &item.ServiceEnd,
		&item.UnitCost, &item.Quantity, &item.TotalCost, &fy25, &fy26, &item.LinkedPOID)
	if err != nil {
		return LineItem{}, err
	}
	item.Allocations = map[int]float64{25: fy25, 26: fy26}
	return item, nil
}

// GetLineItem fetches a line item by UID.
func (r *Repository) GetLineItem(ctx context.Context, uid string) (LineItem, error) {
	item, err := scanLineItem(r.pool.QueryRow(ctx, `SELECT `+lineItemColumns+` `+lineItemJoins+` WHERE li.uid=$1`, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LineItem{}, ErrNotFound
		}
		return LineItem{}, err
	}
	return item, nil
}

// ListLineItems returns all line items ordered by UID.
func (r *Repository) ListLineItems(ctx context.Context) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lineItemColumns+` `+lineItemJoins+` ORDER BY li.uid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListBudgetMonths returns the monthly allocations for a line item.
func (r *Repository) ListBudgetMonths(ctx context.Context, lineItemID int64) ([]BudgetMonth, error) {
	rows, err := r.pool.Query(ctx, `SELECT line_item_id, month, amount FROM budget_months WHERE line_item_id=$1`, lineItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var months []BudgetMonth
	for rows.Next() {
		var bm BudgetMonth
		if err := rows.Scan(&bm.LineItemID, &bm.Month, &bm.Amount); err != nil {
			return nil, err
		}
		months = append(months, bm)
	}
	return months, rows.Err()
}

// ListActuals returns actuals linked to a line item with vendor names.
func (r *Repository) ListActuals(ctx context.Context, uid string) ([]Actual, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.invoice_number, a.invoice_date, a.amount, COALESCE(a.converted_amount,0),
a.currency, a.month, a.fiscal_year, COALESCE(a.line_item_uid,''), COALESCE(a.vendor_id,0), COALESCE(v.name,''), COALESCE(a.remarks,'')
FROM actuals a LEFT JOIN vendors v ON v.id = a.vendor_id
WHERE a.line_item_uid=$1 ORDER BY a.invoice_date, a.id`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var actuals []Actual
	for rows.Next() {
		var a Actual
		if err := rows.Scan(&a.ID, &a.InvoiceNumber, &a.InvoiceDate, &a.Amount, &a.ConvertedAmount,
			&a.Currency, &a.Month, &a.FiscalYear, &a.LineItemUID, &a.VendorID, &a.VendorName, &a.Remarks); err != nil {
			return nil, err
		}
		actuals = append(actuals, a)
	}
	return actuals, rows.Err()
}

// ListLinkedPOs returns purchase orders linked to a line item.
func (r *Repository) ListLinkedPOs(ctx context.Context, uid string) ([]PORef, error) {
	rows, err := r.pool.Query(ctx, `SELECT po.id, po.number, COALESCE(v.name,''), po.po_date, po.value, po.currency, po.converted_value, po.status
FROM purchase_orders po
LEFT JOIN vendors v ON v.id = po.vendor_id
JOIN line_items li ON li.linked_po_id = po.id
WHERE li.uid=$1 ORDER BY po.po_date, po.id`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pos []PORef
	for rows.Next() {
		var p PORef
		if err := rows.Scan(&p.ID, &p.Number, &p.VendorName, &p.Date, &p.Value, &p.Currency, &p.ConvertedValue, &p.Status); err != nil {
			return nil, err
		}
		pos = append(pos, p)
	}
	return pos, rows.Err()
}

// ListNotes returns reconciliation notes newest first with author names.
func (r *Repository) ListNotes(ctx context.Context, uid string) ([]ReconciliationNote, error) {
	rows, err := r.pool.Query(ctx, `SELECT n.id, n.line_item_uid, n.actual_id, n.note, n.author_id, COALESCE(u.name,''), n.created_at
FROM reconciliation_notes n
LEFT JOIN users u ON u.id = n.author_id
WHERE n.line_item_uid=$1 ORDER BY n.created_at DESC, n.id DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []ReconciliationNote
	for rows.Next() {
		var n ReconciliationNote
		if err := rows.Scan(&n.ID, &n.LineItemUID, &n.ActualID, &n.Text, &n.AuthorID, &n.AuthorName, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// InsertNote appends a reconciliation note and resolves the author name.
func (r *Repository) InsertNote(ctx context.Context, note ReconciliationNote) (ReconciliationNote, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO reconciliation_notes (line_item_uid, actual_id, note, author_id, created_at)
VALUES ($1,$2,$3,$4,NOW())
RETURNING id, created_at, COALESCE((SELECT name FROM users WHERE id=$4),'')`,
		note.LineItemUID, note.ActualID, note.Text, note.AuthorID).
		Scan(&note.ID, &note.CreatedAt, &note.AuthorName)
	if err != nil {
		return ReconciliationNote{}, err
	}
	return note, nil
}

// ListAuditHistory returns the latest audit entries scoped to a line item.
func (r *Repository) ListAuditHistory(ctx context.Context, uid string, limit int) ([]AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, actor_id, action, meta, occurred_at
FROM audit_logs WHERE entity='line_item' AND entity_id=$1
ORDER BY occurred_at DESC, id DESC LIMIT $2`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &meta, &e.At); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Meta)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AllocatedActuals sums allocation-basis links per line item per fiscal
// year. A shared invoice may be split across line items; only the
// allocated portion counts here.
func (r *Repository) AllocatedActuals(ctx context.Context) (map[string]map[int]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT al.line_item_uid, a.fiscal_year, SUM(al.allocated_amount)
FROM actual_allocations al
JOIN actuals a ON a.id = al.actual_id
GROUP BY al.line_item_uid, a.fiscal_year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]map[int]float64)
	for rows.Next() {
		var uid string
		var fy int
		var sum float64
		if err := rows.Scan(&uid, &fy, &sum); err != nil {
			return nil, err
		}
		if result[uid] == nil {
			result[uid] = make(map[int]float64)
		}
		result[uid][fy] = sum
	}
	return result, rows.Err()
}
