package inventory

import (
	"context"
	"errors"
	"testing"

	dominv "github.com/Zhima-Mochi/minishop-retail/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-retail/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
)

type capturePublisher struct{ names []string }

func (p *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.names = append(p.names, e.EventName())
	return nil
}

func seeded(t *testing.T) (*Service, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{}
	s := NewService(memory.NewInventoryRepository(), pub, nil, nil)
	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s, pub
}

func TestSeedIsIdempotent(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()
	if _, err := s.Reserve(ctx, MovementInput{StoreID: "S001", SKU: "SKU-001", Quantity: 3}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	rows, err := s.List(ctx, dominv.Filter{SKU: "SKU-001"})
	if err != nil || len(rows) != 1 || rows[0].Available != 7 || rows[0].Reserved != 3 {
		t.Fatalf("reseed must not reset rows: %+v %v", rows, err)
	}
}

func TestListFilters(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()
	all, _ := s.List(ctx, dominv.Filter{})
	store, _ := s.List(ctx, dominv.Filter{StoreID: "S001"})
	none, _ := s.List(ctx, dominv.Filter{StoreID: "S999"})
	if len(all) != 2 || len(store) != 2 || len(none) != 0 {
		t.Fatalf("got %d/%d/%d rows", len(all), len(store), len(none))
	}
}

func TestReserveAndConfirm(t *testing.T) {
	s, pub := seeded(t)
	ctx := context.Background()

	row, err := s.Reserve(ctx, MovementInput{StoreID: "S001", SKU: "SKU-002", Quantity: 5})
	if err != nil || row.Available != 0 || row.Reserved != 5 {
		t.Fatalf("reserve: %+v %v", row, err)
	}
	if _, err := s.Reserve(ctx, MovementInput{StoreID: "S001", SKU: "SKU-002", Quantity: 1}); !errors.Is(err, dominv.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	row, err = s.Confirm(ctx, MovementInput{StoreID: "S001", SKU: "SKU-002", Quantity: 2})
	if err != nil || row.Reserved != 3 {
		t.Fatalf("confirm: %+v %v", row, err)
	}
	if _, err := s.Confirm(ctx, MovementInput{StoreID: "S001", SKU: "SKU-002", Quantity: 4}); !errors.Is(err, dominv.ErrNothingReserved) {
		t.Fatalf("expected ErrNothingReserved, got %v", err)
	}

	want := []string{dominv.EventReserved, dominv.EventConfirmed}
	if len(pub.names) != 2 || pub.names[0] != want[0] || pub.names[1] != want[1] {
		t.Fatalf("events %v, want %v", pub.names, want)
	}
}

func TestMovementOnMissingRow(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()
	if _, err := s.Reserve(ctx, MovementInput{StoreID: "S404", SKU: "SKU-001", Quantity: 1}); !errors.Is(err, dominv.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, err := s.Confirm(ctx, MovementInput{StoreID: "S404", SKU: "SKU-001", Quantity: 1}); !errors.Is(err, dominv.ErrNothingReserved) {
		t.Fatalf("expected ErrNothingReserved, got %v", err)
	}
	if _, err := s.Reserve(ctx, MovementInput{StoreID: "S001", SKU: "SKU-001"}); !errors.Is(err, dominv.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}
