package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	domcatalog "github.com/Zhima-Mochi/minishop-retail/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
)

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() string { return f.id }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func newTestService() (*Service, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewService(Deps{
		Products:  memory.NewCatalogRepository(),
		Orders:    memory.NewOrderRepository(),
		IDs:       fixedIDs{id: "ord-1"},
		Publisher: pub,
	}), pub
}

func TestSeedIfEmpty(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	n, err := svc.SeedIfEmpty(ctx, domcatalog.DemoProducts())
	if err != nil || n != len(domcatalog.DemoProducts()) {
		t.Fatalf("seed: %d %v", n, err)
	}
	n, err = svc.SeedIfEmpty(ctx, domcatalog.DemoProducts())
	if err != nil || n != 0 {
		t.Fatalf("second seed must be a no-op: %d %v", n, err)
	}
	products, _ := svc.List(ctx)
	if len(products) != len(domcatalog.DemoProducts()) {
		t.Fatalf("expected %d products, got %d", len(domcatalog.DemoProducts()), len(products))
	}
}

func TestProductLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, domcatalog.Draft{Name: " Cafetera ", Category: "Hogar", Price: 189000, Stock: 3, Image: "/uploads/c.jpg"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.Name != "Cafetera" {
		t.Fatalf("unexpected product %+v", created)
	}

	updated, err := svc.Update(ctx, created.ID, domcatalog.Draft{Name: "Cafetera XL", Category: "Hogar", Price: 199000, Stock: 2})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Image != "/uploads/c.jpg" || updated.Price != 199000 {
		t.Fatalf("unexpected update %+v", updated)
	}
	got, err := svc.Get(ctx, created.ID)
	if err != nil || got.Name != "Cafetera XL" {
		t.Fatalf("get: %+v %v", got, err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, domcatalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, created.ID, domcatalog.Draft{Name: "x", Category: "y"}); !errors.Is(err, domcatalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if _, err := svc.Create(ctx, domcatalog.Draft{Category: "Hogar"}); !errors.Is(err, domcatalog.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestPlaceOrder(t *testing.T) {
	svc, pub := newTestService()
	ctx := context.Background()

	o, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		CustomerName: "Ana",
		Total:        250,
		Details:      json.RawMessage(`[{"sku":"SKU-001","qty":2}]`),
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if o.ID != "ord-1" {
		t.Fatalf("expected generated id, got %q", o.ID)
	}
	if len(pub.events) != 1 || pub.events[0].EventName() != domorder.EventPlaced {
		t.Fatalf("expected one order.placed event, got %+v", pub.events)
	}

	orders, err := svc.ListOrders(ctx)
	if err != nil || len(orders) != 1 {
		t.Fatalf("list: %v %v", orders, err)
	}

	if _, err := svc.PlaceOrder(ctx, PlaceOrderInput{CustomerName: "Ana", Total: 0, Details: json.RawMessage(`[]`)}); !errors.Is(err, domorder.ErrInvalidTotal) {
		t.Fatalf("expected ErrInvalidTotal, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("rejected orders must not publish")
	}
}
