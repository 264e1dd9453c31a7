package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/redisstore"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
)

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags("cart", []string{"--config", "/etc/minishop", "-e", "prod"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.ConfigDir != "/etc/minishop" || f.Env != "prod" {
		t.Fatalf("unexpected flags %+v", f)
	}

	f, err = ParseFlags("cart", nil)
	if err != nil || f.ConfigDir != "configs" || f.Env != "" {
		t.Fatalf("defaults: %+v %v", f, err)
	}

	if _, err := ParseFlags("cart", []string{"--nope"}); err == nil {
		t.Fatalf("unknown flag must fail")
	}
}

func newTestRuntime(cfg config.Config) *Runtime {
	return &Runtime{
		Config:   cfg,
		Tel:      observability.Nop(),
		system:   observability.NopLogger(),
		registry: prometheus.NewRegistry(),
	}
}

func TestKVStoreBackends(t *testing.T) {
	ctx := context.Background()

	var cfg config.Config
	cfg.Store.Backend = config.BackendMemory
	r := newTestRuntime(cfg)
	s, err := KVStore(ctx, r, "wallet", func(v string) string { return v })
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := s.(*memory.Store[string]); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}

	mr := miniredis.RunT(t)
	cfg.Store.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	r = newTestRuntime(cfg)
	defer r.Close()

	s, err = KVStore(ctx, r, "wallet", func(v string) string { return v })
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	if _, ok := s.(*redisstore.Store[string]); !ok {
		t.Fatalf("expected redis store, got %T", s)
	}
	if err := s.Put(ctx, "jp", "SAVE10"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("minishop:wallet:jp") {
		t.Fatalf("key not namespaced: %v", mr.Keys())
	}
	if _, err := s.Get(ctx, "ghost"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	var cfg config.Config
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.ShutdownTimeout = time.Second
	r := newTestRuntime(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Serve(ctx, func(rt *httppresentation.Router) {
			rt.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {})
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server did not stop")
	}
}
