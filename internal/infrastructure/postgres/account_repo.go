package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
)

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const selectUser = "SELECT id, name, phone, email, password_hash, provider, picture, created_at FROM users"

func (r *AccountRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO users (id, name, phone, email, password_hash, provider, picture, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		u.ID, u.Name, u.Phone, domain.NormalizeEmail(u.Email), u.PasswordHash, string(u.Provider), u.Picture, u.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailInUse
	}
	if err != nil {
		return fmt.Errorf("postgres: insert user: %w", err)
	}
	return nil
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanOne(r.db.sql.QueryRowContext(ctx, selectUser+" WHERE email = $1", domain.NormalizeEmail(email)))
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanOne(r.db.sql.QueryRowContext(ctx, selectUser+" WHERE id = $1", id))
}

func (r *AccountRepo) scanOne(row *sql.Row) (domain.User, error) {
	var u domain.User
	var provider string
	err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.PasswordHash, &provider, &u.Picture, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("postgres: scan user: %w", err)
	}
	u.Provider = domain.Provider(provider)
	return u, nil
}
