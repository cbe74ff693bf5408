package masterdata

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for master data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTowers returns all towers ordered by name.
func (r *Repository) ListTowers(ctx context.Context) ([]Tower, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM towers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var towers []Tower
	for rows.Next() {
		var t Tower
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		towers = append(towers, t)
	}
	return towers, rows.Err()
}

// ListBudgetHeads returns all budget heads ordered by name.
func (r *Repository) ListBudgetHeads(ctx context.Context) ([]BudgetHead, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, COALESCE(tower_id,0), name FROM budget_heads ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var heads []BudgetHead
	for rows.Next() {
		var h BudgetHead
		if err := rows.Scan(&h.ID, &h.TowerID, &h.Name); err != nil {
			return nil, err
		}
		heads = append(heads, h)
	}
	return heads, rows.Err()
}

// FindVendorByName resolves a vendor by case-insensitive name, nil on miss.
func (r *Repository) FindVendorByName(ctx context.Context, name string) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var v Vendor
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM vendors WHERE LOWER(name)=LOWER($1)`, name).Scan(&v.ID, &v.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// FirstCostCentre returns the lowest-id cost centre, nil when none exist.
func (r *Repository) FirstCostCentre(ctx context.Context) (*CostCentre, error) {
	var c CostCentre
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM cost_centres ORDER BY id LIMIT 1`).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
