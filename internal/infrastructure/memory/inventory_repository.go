package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/inventory"
)

type stockKey struct{ store, sku string }

// InventoryRepository keeps stock rows in memory. Mutate holds the write lock
// for the whole read-modify-write so reservations never interleave.
type InventoryRepository struct {
	mu   sync.RWMutex
	rows map[stockKey]domain.Stock
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		rows: make(map[stockKey]domain.Stock),
	}
}

func (r *InventoryRepository) Seed(ctx context.Context, rows []domain.Stock) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		k := stockKey{row.StoreID, row.SKU}
		if _, exists := r.rows[k]; exists {
			continue
		}
		r.rows[k] = row
	}
	return nil
}

func (r *InventoryRepository) List(ctx context.Context, f domain.Filter) ([]domain.Stock, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Stock, 0, len(r.rows))
	for _, row := range r.rows {
		if f.Match(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		return out[i].SKU < out[j].SKU
	})
	return out, nil
}

func (r *InventoryRepository) Mutate(ctx context.Context, storeID, sku string, fn func(*domain.Stock) error) (domain.Stock, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	k := stockKey{storeID, sku}
	row, ok := r.rows[k]
	if !ok {
		return domain.Stock{}, domain.ErrNotFound
	}
	if err := fn(&row); err != nil {
		return domain.Stock{}, err
	}
	r.rows[k] = row
	return row, nil
}
