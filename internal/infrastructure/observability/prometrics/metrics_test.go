package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "", "")

	first := r.Counter("domain_events_total", "help", "event")
	second := r.Counter("domain_events_total", "help", "event")

	first.Add(1, observability.L("event", "cart.item_added"))
	second.Bind(observability.L("event", "cart.item_added")).Add(2)

	n, err := testutil.GatherAndCount(reg, "domain_events_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one series, got %d", n)
	}

	v := testutil.ToFloat64(first.(*counter).v.WithLabelValues("cart.item_added"))
	if v != 3 {
		t.Errorf("counter = %v; want 3", v)
	}
}

func TestRegisterStandard(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := RegisterStandard(New(reg, "", ""))

	if len(counters) != len(observability.CounterSpecs) {
		t.Errorf("counters = %d; want %d", len(counters), len(observability.CounterSpecs))
	}
	if len(histograms) != len(observability.HistogramSpecs) {
		t.Errorf("histograms = %d; want %d", len(histograms), len(observability.HistogramSpecs))
	}

	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "cart.add_item"))
	n, err := testutil.GatherAndCount(reg, string(observability.MUsecaseDuration))
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("usecase_duration_seconds series = %d; want 1", n)
	}
}

func TestSharedRegistererAdoptsExistingVector(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "minishop", "")
	b := New(reg, "minishop", "")

	a.Histogram("proxy_latency_seconds", "help", LatencyBuckets, "upstream").Observe(0.01, observability.L("upstream", "cart"))
	b.Histogram("proxy_latency_seconds", "help", LatencyBuckets, "upstream").Observe(0.02, observability.L("upstream", "cart"))

	n, err := testutil.GatherAndCount(reg, "minishop_proxy_latency_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one shared series, got %d", n)
	}
}
