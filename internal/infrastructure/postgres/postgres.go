// Package postgres implements the relational repositories on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DB wraps a *sql.DB and hands out repositories that share it.
type DB struct {
	sql *sql.DB
}

// Open connects, pings, and creates the tables the services need.
func Open(ctx context.Context, connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.PingContext(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, name TEXT NOT NULL, phone TEXT NOT NULL DEFAULT '', email TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL DEFAULT '', provider TEXT NOT NULL, picture TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS store_stock (store_id TEXT NOT NULL, sku TEXT NOT NULL, available INTEGER NOT NULL DEFAULT 0 CHECK(available >= 0), reserved INTEGER NOT NULL DEFAULT 0 CHECK(reserved >= 0), updated_at TIMESTAMPTZ NOT NULL, PRIMARY KEY (store_id, sku));",
		"CREATE TABLE IF NOT EXISTS producto (id_producto BIGSERIAL PRIMARY KEY, nom_producto TEXT NOT NULL, cat_producto TEXT NOT NULL, pre_producto BIGINT NOT NULL, sto_producto INTEGER NOT NULL, imagen TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL, updated_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS orders (id_order TEXT PRIMARY KEY, cliente_nombre TEXT NOT NULL, total DOUBLE PRECISION NOT NULL, detalles JSONB NOT NULL, fecha TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_orders_fecha ON orders(fecha);",
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
