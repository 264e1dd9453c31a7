package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *AccountRepository) Create(ctx context.Context, u domain.User) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(u.Email)
	if _, taken := r.byEmail[email]; taken {
		return domain.ErrEmailInUse
	}
	u.Email = email
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
