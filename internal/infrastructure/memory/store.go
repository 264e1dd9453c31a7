package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
)

// Store is a process-local kv.Store. Values are cloned on the way in and out
// so callers can never mutate stored state through a shared slice or pointer.
type Store[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	clone func(V) V
}

// NewStore builds an empty store. clone may be nil for values without reference fields.
func NewStore[V any](clone func(V) V) *Store[V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	return &Store[V]{
		items: make(map[string]V),
		clone: clone,
	}
}

func (s *Store[V]) Get(ctx context.Context, key string) (V, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok {
		var zero V
		return zero, kv.ErrNotFound
	}
	return s.clone(v), nil
}

func (s *Store[V]) Put(ctx context.Context, key string, value V) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = s.clone(value)
	return nil
}

func (s *Store[V]) Delete(ctx context.Context, key string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
