package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
)

var errOrderID = apperr.Validation("order: id is required")

// OrderRepository keeps receipts in arrival order, which is also the order
// List returns them in.
type OrderRepository struct {
	mu    sync.RWMutex
	byID  map[string]int
	items []domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{byID: make(map[string]int)}
}

// Save inserts o, or replaces the receipt with the same ID in place.
func (r *OrderRepository) Save(_ context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return errOrderID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.byID[o.ID]; ok {
		r.items[i] = copyOrder(*o)
		return nil
	}
	r.byID[o.ID] = len(r.items)
	r.items = append(r.items, copyOrder(*o))
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o := copyOrder(r.items[i])
	return &o, nil
}

func (r *OrderRepository) List(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Order, len(r.items))
	for i := range r.items {
		o := copyOrder(r.items[i])
		out[i] = &o
	}
	return out, nil
}

func copyOrder(o domain.Order) domain.Order {
	o.Details = append(json.RawMessage(nil), o.Details...)
	return o
}
