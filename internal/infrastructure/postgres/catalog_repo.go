package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/catalog"
)

type CatalogRepo struct {
	db *DB
}

func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

const selectProduct = "SELECT id_producto, nom_producto, cat_producto, pre_producto, sto_producto, imagen, created_at, updated_at FROM producto"

func (r *CatalogRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.sql.QueryContext(ctx, selectProduct+" ORDER BY id_producto")
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.sql.QueryRowContext(ctx, selectProduct+" WHERE id_producto = $1", id).
		Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("postgres: get product: %w", err)
	}
	return p, nil
}

func (r *CatalogRepo) Create(ctx context.Context, d domain.Draft) (domain.Product, error) {
	now := time.Now().UTC()
	p := domain.Product{CreatedAt: now}
	p.Apply(d)
	err := r.db.sql.QueryRowContext(ctx,
		"INSERT INTO producto (nom_producto, cat_producto, pre_producto, sto_producto, imagen, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id_producto",
		p.Name, p.Category, p.Price, p.Stock, p.Image, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("postgres: insert product: %w", err)
	}
	return p, nil
}

func (r *CatalogRepo) Update(ctx context.Context, p domain.Product) error {
	res, err := r.db.sql.ExecContext(ctx,
		"UPDATE producto SET nom_producto = $1, cat_producto = $2, pre_producto = $3, sto_producto = $4, imagen = $5, updated_at = $6 WHERE id_producto = $7",
		p.Name, p.Category, p.Price, p.Stock, p.Image, p.UpdatedAt.UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update product: %w", err)
	}
	return requireOneRow(res, domain.ErrNotFound)
}

func (r *CatalogRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM producto WHERE id_producto = $1", id)
	if err != nil {
		return fmt.Errorf("postgres: delete product: %w", err)
	}
	return requireOneRow(res, domain.ErrNotFound)
}

// Count is used to decide whether the demo assortment still has to be seeded.
func (r *CatalogRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM producto").Scan(&n)
	return n, err
}

func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
