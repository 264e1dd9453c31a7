package payment

import (
	"context"
	"errors"
	"testing"

	dompay "github.com/Zhima-Mochi/minishop-retail/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
)

type fixedIDs struct{ id string }

func (f fixedIDs) NewID() string { return f.id }

func TestCreateAndConfirmIntent(t *testing.T) {
	store := memory.NewStore[dompay.Intent](nil)
	s := NewService(store, fixedIDs{"pi_test"}, nil)
	ctx := context.Background()

	intent, err := s.CreateIntent(ctx, 42.5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := dompay.Intent{ID: "pi_test", Amount: 42.5, Currency: "USD", Status: dompay.StatusRequiresConfirmation}
	if intent != want {
		t.Fatalf("got %+v, want %+v", intent, want)
	}

	confirmed, err := s.Confirm(ctx, "pi_test")
	if err != nil || confirmed.Status != dompay.StatusSucceeded {
		t.Fatalf("confirm: %+v %v", confirmed, err)
	}
	stored, _ := store.Get(ctx, "pi_test")
	if stored.Status != dompay.StatusSucceeded {
		t.Fatalf("status not persisted: %+v", stored)
	}
}

func TestIntentErrors(t *testing.T) {
	s := NewService(memory.NewStore[dompay.Intent](nil), fixedIDs{"pi_x"}, nil)
	ctx := context.Background()

	for _, amount := range []float64{0, -3} {
		if _, err := s.CreateIntent(ctx, amount); !errors.Is(err, dompay.ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	for _, id := range []string{"", "pi_missing"} {
		if _, err := s.Confirm(ctx, id); !errors.Is(err, dompay.ErrNotFound) {
			t.Fatalf("id %q: expected ErrNotFound, got %v", id, err)
		}
	}
}
