package wallet

import (
	"context"
	"testing"

	domwallet "github.com/Zhima-Mochi/minishop-retail/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
)

func TestGetWallet(t *testing.T) {
	s := NewService(memory.NewStore(domwallet.Wallet.Clone), nil)
	ctx := context.Background()
	if err := s.Seed(ctx, domwallet.DemoWallets()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, user := range []string{"", "guest", "jp"} {
		w, err := s.Get(ctx, user)
		if err != nil {
			t.Fatalf("%q: %v", user, err)
		}
		if len(w.Coupons) != 1 || w.Coupons[0].Code != "SAVE10" || w.Coupons[0].Status != domwallet.StatusActive {
			t.Fatalf("%q: unexpected wallet %+v", user, w)
		}
	}

	w, err := s.Get(ctx, "stranger")
	if err != nil || w.Coupons == nil || len(w.Coupons) != 0 {
		t.Fatalf("unknown users get an empty, non-nil list: %+v %v", w, err)
	}
}
