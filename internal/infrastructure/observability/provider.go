package observability

import (
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
)

// Config lists the adapters a service wires into its Observability.
// Nil members fall back to no-op implementations.
type Config struct {
	Tracer     observability.Tracer
	Logger     observability.Logger
	Counters   map[observability.MetricKey]observability.Counter
	Histograms map[observability.MetricKey]observability.Histogram
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// instruments resolves metric keys to registered instruments; unknown keys get a no-op.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m *instruments) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m *instruments) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

func New(cfg Config) observability.Observability {
	p := &provider{
		tracer:  cfg.Tracer,
		logger:  cfg.Logger,
		metrics: observability.NopMetrics(),
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}

	m := &instruments{
		counters:   make(map[observability.MetricKey]observability.Counter, len(cfg.Counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(cfg.Histograms)),
	}
	for k, v := range cfg.Counters {
		if v != nil {
			m.counters[k] = v
		}
	}
	for k, v := range cfg.Histograms {
		if v != nil {
			m.histograms[k] = v
		}
	}
	if len(m.counters) > 0 || len(m.histograms) > 0 {
		p.metrics = m
	}
	return p
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
