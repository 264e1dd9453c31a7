package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/inventory"
)

type InventoryRepo struct {
	db *DB
}

func NewInventoryRepo(db *DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

func (r *InventoryRepo) Seed(ctx context.Context, rows []domain.Stock) error {
	for _, s := range rows {
		_, err := r.db.sql.ExecContext(ctx,
			"INSERT INTO store_stock (store_id, sku, available, reserved, updated_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (store_id, sku) DO NOTHING",
			s.StoreID, s.SKU, s.Available, s.Reserved, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("postgres: seed stock: %w", err)
		}
	}
	return nil
}

func (r *InventoryRepo) List(ctx context.Context, f domain.Filter) ([]domain.Stock, error) {
	var (
		where []string
		args  []any
	)
	if f.StoreID != "" {
		args = append(args, f.StoreID)
		where = append(where, fmt.Sprintf("store_id = $%d", len(args)))
	}
	if f.SKU != "" {
		args = append(args, f.SKU)
		where = append(where, fmt.Sprintf("sku = $%d", len(args)))
	}
	q := "SELECT store_id, sku, available, reserved, updated_at FROM store_stock"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY store_id, sku"

	rows, err := r.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list stock: %w", err)
	}
	defer rows.Close()

	var out []domain.Stock
	for rows.Next() {
		var s domain.Stock
		if err := rows.Scan(&s.StoreID, &s.SKU, &s.Available, &s.Reserved, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Mutate locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (r *InventoryRepo) Mutate(ctx context.Context, storeID, sku string, fn func(*domain.Stock) error) (domain.Stock, error) {
	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return domain.Stock{}, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var s domain.Stock
	err = tx.QueryRowContext(ctx,
		"SELECT store_id, sku, available, reserved, updated_at FROM store_stock WHERE store_id = $1 AND sku = $2 FOR UPDATE",
		storeID, sku,
	).Scan(&s.StoreID, &s.SKU, &s.Available, &s.Reserved, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Stock{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Stock{}, fmt.Errorf("postgres: lock stock: %w", err)
	}

	if err := fn(&s); err != nil {
		return domain.Stock{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE store_stock SET available = $1, reserved = $2, updated_at = $3 WHERE store_id = $4 AND sku = $5",
		s.Available, s.Reserved, s.UpdatedAt.UTC(), s.StoreID, s.SKU,
	); err != nil {
		return domain.Stock{}, fmt.Errorf("postgres: update stock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Stock{}, fmt.Errorf("postgres: commit: %w", err)
	}
	return s, nil
}
