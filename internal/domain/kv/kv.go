// Package kv declares the key-value store port used by the stateful services.
package kv

import (
	"context"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

var ErrNotFound = apperr.New(apperr.ErrNotFound, "kv: key not found")

// Store persists values of one type by string key.
// Implementations must return ErrNotFound when Get misses.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Put(ctx context.Context, key string, value V) error
	Delete(ctx context.Context, key string) error
}
