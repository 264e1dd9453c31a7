package workerpresentation

import (
	"context"
	"sync"
	"testing"

	domcart "github.com/Zhima-Mochi/minishop-retail/internal/domain/cart"
	domorder "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability/logctx"
)

type fakeSubscriber struct {
	handlers map[string][]domoutbox.Handler
}

func (s *fakeSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = map[string][]domoutbox.Handler{}
	}
	s.handlers[name] = append(s.handlers[name], h)
}

type countingCounter struct {
	observability.Counter
	mu     sync.Mutex
	counts map[string]float64
}

func (c *countingCounter) Add(d float64, labels ...observability.Label) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range labels {
		if l.Key == "event" {
			c.counts[l.Value] += d
		}
	}
}

type fakeMetrics struct {
	observability.Metrics
	events *countingCounter
}

func (m fakeMetrics) Counter(key observability.MetricKey) observability.Counter {
	if key == observability.MDomainEvents {
		return m.events
	}
	return observability.NopCounter()
}

type fakeObs struct {
	observability.Observability
	metrics fakeMetrics
}

func (o fakeObs) Logger() observability.Logger   { return observability.NopLogger() }
func (o fakeObs) Metrics() observability.Metrics { return o.metrics }

type capturingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l *capturingLogger) With(fields ...observability.Field) observability.Logger {
	return &capturingLogger{fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func TestActivityWorkerSubscribesAndCounts(t *testing.T) {
	counter := &countingCounter{counts: map[string]float64{}}
	sub := &fakeSubscriber{}
	w := NewActivityWorker("cart-service", sub, fakeObs{metrics: fakeMetrics{events: counter}})
	w.Start()

	for _, name := range ActivityEvents {
		if len(sub.handlers[name]) != 1 {
			t.Fatalf("expected a handler for %s", name)
		}
	}

	ctx := context.Background()
	events := []domoutbox.Event{
		domcart.ItemAddedEvent{UserID: "ana", SKU: "SKU-001", Quantity: 1, Price: 100, Total: 100},
		domcart.ItemAddedEvent{UserID: "ana", SKU: "SKU-001", Quantity: 1, Price: 100, Total: 200},
		domorder.PlacedEvent{OrderID: "o-1", CustomerName: "Ana", Total: 200},
	}
	for _, e := range events {
		for _, h := range sub.handlers[e.EventName()] {
			if err := h(ctx, e); err != nil {
				t.Fatalf("handler: %v", err)
			}
		}
	}

	if counter.counts[domcart.EventItemAdded] != 2 || counter.counts[domorder.EventPlaced] != 1 {
		t.Fatalf("unexpected counts %v", counter.counts)
	}
}

func TestWithEventContextGeneratesEventID(t *testing.T) {
	base := &capturingLogger{}
	ctx := WithEventContext(context.Background(), base, map[string]string{"event": "order.placed", "tenant": ""})

	got, ok := logctx.From(ctx).(*capturingLogger)
	if !ok {
		t.Fatalf("expected the bound logger in context")
	}
	keys := map[string]any{}
	for _, f := range got.fields {
		keys[f.Key] = f.Value
	}
	if id, _ := keys["event_id"].(string); id == "" {
		t.Fatalf("expected generated event_id, got %v", keys)
	}
	if keys["event"] != "order.placed" {
		t.Fatalf("expected event field, got %v", keys)
	}
	if _, ok := keys["tenant"]; ok {
		t.Fatalf("empty attributes must be skipped")
	}
	if _, ok := keys["trace_id"]; ok {
		t.Fatalf("no trace_id without a span")
	}
}
