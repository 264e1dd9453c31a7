package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
)

func TestStoreRoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cart.Cart.Clone)

	var c cart.Cart
	_ = c.AddLine("SKU-001", 1, 100)
	if err := s.Put(ctx, "guest", c); err != nil {
		t.Fatalf("put: %v", err)
	}

	c.Items[0].Qty = 50

	got, err := s.Get(ctx, "guest")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Items[0].Qty != 1 {
		t.Fatalf("stored value was mutated through caller slice: %+v", got)
	}

	got.Items[0].Qty = 7
	again, _ := s.Get(ctx, "guest")
	if again.Items[0].Qty != 1 {
		t.Fatalf("stored value was mutated through returned slice: %+v", again)
	}
}

func TestStoreMissAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore[int](nil)

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected kv.ErrNotFound, got %v", err)
	}
	_ = s.Put(ctx, "a", 1)
	if s.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", s.Len())
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}
