// Package bootstrap assembles what every service binary shares: flags,
// configuration, logging, metrics, tracing, backing stores and the HTTP
// server lifecycle.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
	obsprovider "github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/redisstore"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const keyPrefix = "minishop:"

type Flags struct {
	ConfigDir string
	Env       string
}

func ParseFlags(service string, args []string) (Flags, error) {
	fs := pflag.NewFlagSet(service, pflag.ContinueOnError)
	var f Flags
	fs.StringVarP(&f.ConfigDir, "config", "c", "configs", "directory holding base.yaml and <env>.yaml")
	fs.StringVarP(&f.Env, "env", "e", "", "configuration overlay to load (defaults to $RETAIL_ENV)")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// Runtime is the wired ambient stack of one service process.
type Runtime struct {
	Config config.Config
	Tel    observability.Observability

	zap      *zap.Logger
	system   observability.Logger
	registry *prometheus.Registry
	redis    *redis.Client
	pg       *postgres.DB
	closers  []func(context.Context) error
}

// New parses args, loads and validates the configuration of service and
// builds its logger, metrics registry and tracer.
func New(service string, args []string) (*Runtime, error) {
	flags, err := ParseFlags(service, args)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags.ConfigDir, flags.Env, service)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zl, err := logging.NewLogger(service, cfg.Env, logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: logger: %w", err)
	}
	zap.ReplaceGlobals(zl)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters, histograms := prometrics.RegisterStandard(prometrics.New(reg, cfg.Metrics.Namespace, ""))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tel := obsprovider.New(obsprovider.Config{
		Tracer:     oteltrace.New("minishop." + service),
		Logger:     zaplogger.New(zl),
		Counters:   counters,
		Histograms: histograms,
	})

	return &Runtime{
		Config:   cfg,
		Tel:      tel,
		zap:      zl,
		system:   zaplogger.New(logging.WithTrace(zl, logging.SystemTraceID, logging.SystemSpanID)),
		registry: reg,
	}, nil
}

// Logger is the process-level logger, tagged with the system trace ids.
func (r *Runtime) Logger() observability.Logger { return r.system }

// Redis returns the shared client, connecting on first use.
func (r *Runtime) Redis(ctx context.Context) (*redis.Client, error) {
	if r.redis != nil {
		return r.redis, nil
	}
	c := r.Config.Redis
	rdb, err := redisstore.Connect(ctx, redisstore.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	if err != nil {
		return nil, err
	}
	r.redis = rdb
	r.onClose(func(context.Context) error { return rdb.Close() })
	r.system.Info("redis_connected", observability.F("addr", c.Addr))
	return rdb, nil
}

// Postgres returns the shared database, connecting and migrating on first use.
func (r *Runtime) Postgres(ctx context.Context) (*postgres.DB, error) {
	if r.pg != nil {
		return r.pg, nil
	}
	db, err := postgres.Open(ctx, r.Config.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: postgres: %w", err)
	}
	r.pg = db
	r.onClose(func(context.Context) error { return db.Close() })
	r.system.Info("postgres_connected")
	return db, nil
}

// KVStore picks the configured backend for a key-value store named name.
func KVStore[V any](ctx context.Context, r *Runtime, name string, clone func(V) V) (kv.Store[V], error) {
	switch r.Config.Store.Backend {
	case config.BackendRedis:
		rdb, err := r.Redis(ctx)
		if err != nil {
			return nil, err
		}
		return redisstore.New[V](rdb, keyPrefix+name+":", r.Config.Redis.TTL), nil
	default:
		return memory.NewStore(clone), nil
	}
}

// StartBus starts the in-process event bus. It is drained on Close.
func (r *Runtime) StartBus(ctx context.Context) *outbox.Bus {
	c := r.Config.Bus
	bus := outbox.NewBus(outbox.Options{
		QueueSize:      c.QueueSize,
		Concurrency:    c.Concurrency,
		HandlerTimeout: c.HandlerTimeout,
	}, r.Tel)
	bus.Start(context.WithoutCancel(ctx))
	r.onClose(func(ctx context.Context) error {
		bus.Stop(ctx)
		return nil
	})
	return bus
}

func (r *Runtime) onClose(fn func(context.Context) error) {
	r.closers = append(r.closers, fn)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout. /metrics is served next to the routes
// register adds.
func (r *Runtime) Serve(ctx context.Context, register func(*httppresentation.Router)) error {
	router := httppresentation.NewRouter(r.Tel)
	register(router)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	mux.Handle("/", router)

	c := r.Config.HTTP
	server := &http.Server{
		Addr:              c.Addr,
		Handler:           httppresentation.CORS(c.CORSOrigins, true)(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       c.ReadTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		r.system.Info("http_server_start", observability.F("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		r.system.Error("http_server_error", observability.Err(err))
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		r.system.Error("http_server_shutdown_error", observability.Err(err))
		return err
	}
	r.system.Info("http_server_stopped")
	return nil
}

// Close releases stores and the bus in reverse order of acquisition and
// flushes the logger.
func (r *Runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), r.Config.HTTP.ShutdownTimeout)
	defer cancel()
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			r.system.Warn("shutdown_close_failed", observability.Err(err))
		}
	}
	if r.zap != nil {
		_ = r.zap.Sync()
	}
}
