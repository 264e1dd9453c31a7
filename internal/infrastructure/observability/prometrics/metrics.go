// Package prometrics backs the observability metric ports with Prometheus vectors.
package prometrics

import (
	"errors"
	"sync"

	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets span 5ms to about 10s, which covers proxied calls with their
// 10s timeout.
var LatencyBuckets = prometheus.ExponentialBuckets(0.005, 2, 12)

// Registry creates instruments by name. Asking twice for the same name
// returns the same underlying vector.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	reg       prometheus.Registerer
	namespace string
	subsystem string

	mu   sync.Mutex
	vecs map[string]prometheus.Collector
}

// New registers instruments on reg, or on the default registerer when reg is nil.
func New(reg prometheus.Registerer, namespace, subsystem string) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{
		reg:       reg,
		namespace: namespace,
		subsystem: subsystem,
		vecs:      make(map[string]prometheus.Collector),
	}
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	v := collector(r, name, func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
		}, labelKeys)
	})
	return &counter{v: v}
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	v := collector(r, name, func() *prometheus.HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
		}, labelKeys)
	})
	return &histogram{v: v}
}

// collector returns the vector cached under name, building and registering it
// on first use. A vector already registered on reg by someone else is adopted.
func collector[C prometheus.Collector](r *registry, name string, build func() C) C {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.vecs[name].(C); ok {
		return prev
	}
	c := build()
	if err := r.reg.Register(c); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if !errors.As(err, &dup) {
			panic(err)
		}
		existing, ok := dup.ExistingCollector.(C)
		if !ok {
			panic(err)
		}
		c = existing
	}
	r.vecs[name] = c
	return c
}

func labels(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, ls ...observability.Label) { c.v.With(labels(ls)).Add(d) }

func (c *counter) Bind(ls ...observability.Label) observability.BoundCounter {
	return c.v.With(labels(ls))
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, ls ...observability.Label) { h.v.With(labels(ls)).Observe(v) }

func (h *histogram) Bind(ls ...observability.Label) observability.BoundHistogram {
	return h.v.With(labels(ls))
}

// RegisterStandard creates every instrument in observability.CounterSpecs and
// observability.HistogramSpecs, keyed the way the provider looks them up.
func RegisterStandard(r Registry) (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := make(map[observability.MetricKey]observability.Counter, len(observability.CounterSpecs))
	for _, s := range observability.CounterSpecs {
		counters[s.Key] = r.Counter(string(s.Key), s.Help, s.Labels...)
	}
	histograms := make(map[observability.MetricKey]observability.Histogram, len(observability.HistogramSpecs))
	for _, s := range observability.HistogramSpecs {
		histograms[s.Key] = r.Histogram(string(s.Key), s.Help, LatencyBuckets, s.Labels...)
	}
	return counters, histograms
}
