package inventory

import (
	"context"
)

// Filter narrows a stock listing; empty fields match everything.
type Filter struct {
	StoreID string
	SKU     string
}

func (f Filter) Match(s Stock) bool {
	return (f.StoreID == "" || f.StoreID == s.StoreID) && (f.SKU == "" || f.SKU == s.SKU)
}

type Repository interface {
	// Seed inserts rows whose (store, sku) key does not exist yet.
	Seed(ctx context.Context, rows []Stock) error
	List(ctx context.Context, f Filter) ([]Stock, error)
	// Mutate runs fn on the row under an exclusive lock and persists it when fn succeeds.
	Mutate(ctx context.Context, storeID, sku string, fn func(*Stock) error) (Stock, error)
}
