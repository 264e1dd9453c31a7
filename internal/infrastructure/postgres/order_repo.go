package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
)

type OrderRepo struct {
	db *DB
}

func NewOrderRepo(db *DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO orders (id_order, cliente_nombre, total, detalles, fecha) VALUES ($1, $2, $3, $4, $5)",
		o.ID, o.CustomerName, o.Total, string(o.Details), o.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	var details []byte
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id_order, cliente_nombre, total, detalles, fecha FROM orders WHERE id_order = $1", id,
	).Scan(&o.ID, &o.CustomerName, &o.Total, &details, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	o.Details = details
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT id_order, cliente_nombre, total, detalles, fecha FROM orders ORDER BY fecha")
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		var o domain.Order
		var details []byte
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.Total, &details, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan order: %w", err)
		}
		o.Details = details
		out = append(out, &o)
	}
	return out, rows.Err()
}
