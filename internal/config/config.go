// Package config loads service configuration from compiled defaults, YAML
// files and RETAIL_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "RETAIL_"

// Service names, also used as the logger's service field.
const (
	Gateway   = "gateway"
	Cart      = "cart"
	Pricing   = "pricing"
	Inventory = "inventory"
	Payments  = "payments"
	Wallet    = "wallet"
	Auth      = "auth"
	Catalog   = "catalog"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DefaultAddrs are the listen addresses each service uses out of the box.
var DefaultAddrs = map[string]string{
	Gateway:   ":3000",
	Catalog:   ":4000",
	Inventory: ":4002",
	Pricing:   ":4003",
	Cart:      ":4004",
	Payments:  ":4005",
	Wallet:    ":4006",
	Auth:      ":4010",
}

type Config struct {
	Service string `koanf:"service"`
	Env     string `koanf:"env"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	HTTP struct {
		Addr            string        `koanf:"addr"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
		CORSOrigins     []string      `koanf:"cors_origins"`
	} `koanf:"http"`

	Metrics struct {
		Namespace string `koanf:"namespace"`
	} `koanf:"metrics"`

	Store struct {
		Backend string `koanf:"backend"`
	} `koanf:"store"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		DB       int           `koanf:"db"`
		TTL      time.Duration `koanf:"ttl"`
	} `koanf:"redis"`

	Postgres struct {
		DSN string `koanf:"dsn"`
	} `koanf:"postgres"`

	Bus struct {
		QueueSize      int           `koanf:"queue_size"`
		Concurrency    int           `koanf:"concurrency"`
		HandlerTimeout time.Duration `koanf:"handler_timeout"`
	} `koanf:"bus"`

	Session struct {
		Secret string        `koanf:"secret"`
		TTL    time.Duration `koanf:"ttl"`
		Secure bool          `koanf:"secure"`
	} `koanf:"session"`

	Bearer struct {
		Secret string        `koanf:"secret"`
		TTL    time.Duration `koanf:"ttl"`
	} `koanf:"bearer"`

	Admin struct {
		Emails []string `koanf:"emails"`
	} `koanf:"admin"`

	Local struct {
		Enabled       bool   `koanf:"enabled"`
		Email         string `koanf:"email"`
		PasswordPlain string `koanf:"password_plain"`
		PasswordHash  string `koanf:"password_hash"`
	} `koanf:"local"`

	Google struct {
		ClientID     string `koanf:"client_id"`
		ClientSecret string `koanf:"client_secret"`
		RedirectURL  string `koanf:"redirect_url"`
		IssuerURL    string `koanf:"issuer_url"`
	} `koanf:"google"`

	Upstreams struct {
		Catalog   string `koanf:"catalog"`
		Inventory string `koanf:"inventory"`
		Pricing   string `koanf:"pricing"`
		Cart      string `koanf:"cart"`
		Payments  string `koanf:"payments"`
		Wallet    string `koanf:"wallet"`
		Auth      string `koanf:"auth"`
	} `koanf:"upstreams"`

	Proxy struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"proxy"`

	CatalogProbe struct {
		BasePath    string        `koanf:"base_path"`
		UploadsPath string        `koanf:"uploads_path"`
		Candidates  []string      `koanf:"candidates"`
		Timeout     time.Duration `koanf:"timeout"`
		// Budget bounds a whole catalog read across every candidate.
		Budget time.Duration `koanf:"budget"`
	} `koanf:"catalog_probe"`

	PricingClient struct {
		URL     string        `koanf:"url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"pricing_client"`

	Prices  map[string]float64 `koanf:"prices"`
	Coupons []CouponConfig     `koanf:"coupons"`
}

type CouponConfig struct {
	Code   string  `koanf:"code"`
	Kind   string  `koanf:"kind"`
	Value  float64 `koanf:"value"`
	Active bool    `koanf:"active"`
}

// Defaults returns the compiled-in configuration for service.
func Defaults(service string) map[string]any {
	return map[string]any{
		"service":                    service,
		"env":                        "dev",
		"log.level":                  "info",
		"http.addr":                  DefaultAddrs[service],
		"http.read_timeout":          "15s",
		"http.write_timeout":         "30s",
		"http.idle_timeout":          "60s",
		"http.shutdown_timeout":      "10s",
		"store.backend":              BackendMemory,
		"redis.addr":                 "localhost:6379",
		"redis.ttl":                  "0s",
		"bus.queue_size":             1024,
		"bus.concurrency":            8,
		"bus.handler_timeout":        "30s",
		"session.ttl":                "168h",
		"bearer.ttl":                 "2h",
		"upstreams.catalog":          "http://localhost:4000",
		"upstreams.inventory":        "http://localhost:4002",
		"upstreams.pricing":          "http://localhost:4003",
		"upstreams.cart":             "http://localhost:4004",
		"upstreams.payments":         "http://localhost:4005",
		"upstreams.wallet":           "http://localhost:4006",
		"upstreams.auth":             "http://localhost:4010",
		"proxy.timeout":              "10s",
		"catalog_probe.uploads_path": "/uploads",
		"catalog_probe.timeout":      "10s",
		"catalog_probe.budget":       "20s",
		"pricing_client.url":         "http://localhost:4003",
		"pricing_client.timeout":     "5s",

		"prices": map[string]any{"SKU-001": 100.0, "SKU-002": 50.0},

		"coupons": []any{
			map[string]any{"code": "SAVE10", "kind": "percent", "value": 10.0, "active": true},
		},
	}
}

// Load builds the configuration of service. dir holds base.yaml and
// <env>.yaml; both are optional. env selects the overlay file and falls back
// to $RETAIL_ENV.
func Load(dir, envName, service string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(service), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}

	if envName == "" {
		envName = os.Getenv(EnvPrefix + "ENV")
	}
	files := []string{filepath.Join(dir, "base.yaml")}
	if envName != "" {
		files = append(files, filepath.Join(dir, envName+".yaml"))
	}
	for _, f := range files {
		if err := k.Load(file.Provider(f), yaml.Parser()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: %s: %w", f, err)
		}
	}

	// RETAIL_SESSION__SECRET -> session.secret
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("config: env overlay: %w", err)
	}
	if envName != "" {
		k.Set("env", envName)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Service = service
	return cfg, nil
}

// Validate checks the settings service needs to start. Failures wrap
// apperr.ErrConfiguration.
func (c Config) Validate() error {
	var problems []string
	need := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	need(c.HTTP.Addr != "", "http.addr is required")
	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		need(c.Redis.Addr != "", "redis.addr is required for the redis backend")
	case BackendPostgres:
		need(c.Postgres.DSN != "", "postgres.dsn is required for the postgres backend")
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q is not supported", c.Store.Backend))
	}
	if b, ok := supportedBackends[c.Service]; ok && c.Store.Backend != "" && !b[c.Store.Backend] {
		problems = append(problems, fmt.Sprintf("store.backend %q is not available for %s", c.Store.Backend, c.Service))
	}

	switch c.Service {
	case Gateway:
		need(c.Session.Secret != "", "session.secret is required")
		need(c.Upstreams.Catalog != "", "upstreams.catalog is required")
		need(c.CatalogProbe.Budget > 0, "catalog_probe.budget must be positive")
		need(c.HTTP.WriteTimeout <= 0 || c.CatalogProbe.Budget < c.HTTP.WriteTimeout,
			"catalog_probe.budget must be shorter than http.write_timeout")
		if c.Google.ClientID != "" {
			need(c.Google.ClientSecret != "" && c.Google.RedirectURL != "",
				"google.client_secret and google.redirect_url are required with google.client_id")
		}
	case Auth:
		need(c.Bearer.Secret != "", "bearer.secret is required")
	case Cart:
		need(c.PricingClient.URL != "", "pricing_client.url is required")
	}

	if len(problems) > 0 {
		return apperr.Configuration("%s", strings.Join(problems, "; "))
	}
	return nil
}

var supportedBackends = map[string]map[string]bool{
	Cart:      {BackendMemory: true, BackendRedis: true},
	Payments:  {BackendMemory: true, BackendRedis: true},
	Wallet:    {BackendMemory: true, BackendRedis: true},
	Inventory: {BackendMemory: true, BackendPostgres: true},
	Catalog:   {BackendMemory: true, BackendPostgres: true},
	Auth:      {BackendMemory: true, BackendPostgres: true},
	Gateway:   {BackendMemory: true},
	Pricing:   {BackendMemory: true},
}
