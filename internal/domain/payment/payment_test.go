package payment

import (
	"errors"
	"testing"
)

func TestNewIntent(t *testing.T) {
	in, err := NewIntent("pi_1", 42.5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if in.Currency != "USD" || in.Status != StatusRequiresConfirmation {
		t.Fatalf("unexpected intent %+v", in)
	}
	in.Confirm()
	in.Confirm()
	if in.Status != StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", in.Status)
	}

	for _, amount := range []float64{0, -3} {
		if _, err := NewIntent("pi_2", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}
