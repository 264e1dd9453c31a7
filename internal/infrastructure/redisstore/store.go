// Package redisstore implements kv.Store on Redis with JSON-encoded values.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
	"github.com/redis/go-redis/v9"
)

type Store[V any] struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New returns a store that writes keys as prefix+key. A zero ttl keeps keys forever.
func New[V any](rdb redis.UniversalClient, prefix string, ttl time.Duration) *Store[V] {
	return &Store[V]{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Store[V]) Get(ctx context.Context, key string) (V, error) {
	var v V
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, kv.ErrNotFound
	}
	if err != nil {
		return v, fmt.Errorf("redisstore: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("redisstore: decode %s: %w", key, err)
	}
	return v, nil
}

func (s *Store[V]) Put(ctx context.Context, key string, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redisstore: encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", key, err)
	}
	return nil
}

func (s *Store[V]) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redisstore: del %s: %w", key, err)
	}
	return nil
}

var _ kv.Store[struct{}] = (*Store[struct{}])(nil)
