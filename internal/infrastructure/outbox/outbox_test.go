package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"

	"go.opentelemetry.io/otel/trace"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(Options{}, nil)
	ctx := context.Background()

	var mu sync.Mutex
	got := map[string]int{}
	done := make(chan struct{}, 2)
	record := func(tag string) domoutbox.Handler {
		return func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			got[tag+":"+e.EventName()]++
			mu.Unlock()
			done <- struct{}{}
			return nil
		}
	}
	bus.Subscribe("cart.item_added", record("a"))
	bus.Subscribe("cart.item_added", record("b"))
	bus.Start(ctx)
	defer bus.Stop(ctx)

	if err := bus.Publish(ctx, testEvent{name: "cart.item_added"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Publish(ctx, testEvent{name: "nobody.listens"}); err != nil {
		t.Fatalf("publish without subscriber: %v", err)
	}
	waitFor(t, done)
	waitFor(t, done)

	mu.Lock()
	defer mu.Unlock()
	if got["a:cart.item_added"] != 1 || got["b:cart.item_added"] != 1 {
		t.Fatalf("unexpected deliveries %v", got)
	}
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewBus(Options{}, nil)
	ctx := context.Background()

	done := make(chan struct{}, 1)
	calls := 0
	bus.Subscribe("order.placed", func(context.Context, domoutbox.Event) error {
		calls++
		if calls == 1 {
			panic("boom")
		}
		done <- struct{}{}
		return errors.New("handler error is only logged")
	})
	bus.Start(ctx)
	defer bus.Stop(ctx)

	_ = bus.Publish(ctx, testEvent{name: "order.placed"})
	_ = bus.Publish(ctx, testEvent{name: "order.placed"})
	waitFor(t, done)
}

func TestBusCarriesPublisherSpan(t *testing.T) {
	bus := NewBus(Options{}, nil)
	ctx := context.Background()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	seen := make(chan trace.SpanContext, 1)
	bus.Subscribe("inventory.reserved", func(ctx context.Context, _ domoutbox.Event) error {
		seen <- trace.SpanContextFromContext(ctx)
		return nil
	})
	bus.Start(ctx)
	defer bus.Stop(ctx)

	_ = bus.Publish(trace.ContextWithSpanContext(ctx, sc), testEvent{name: "inventory.reserved"})
	select {
	case got := <-seen:
		if got.TraceID() != sc.TraceID() || got.SpanID() != sc.SpanID() {
			t.Fatalf("expected publisher span, got %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestBusPublishAfterStop(t *testing.T) {
	bus := NewBus(Options{}, nil)
	ctx := context.Background()
	bus.Start(ctx)
	bus.Stop(ctx)

	if err := bus.Publish(ctx, testEvent{name: "cart.item_added"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestBusPublishHonoursContextWhenFull(t *testing.T) {
	bus := NewBus(Options{QueueSize: 1}, nil)
	ctx := context.Background()

	if err := bus.Publish(ctx, testEvent{name: "a"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := bus.Publish(tctx, testEvent{name: "a"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
