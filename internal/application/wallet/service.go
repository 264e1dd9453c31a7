package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"
	domwallet "github.com/Zhima-Mochi/minishop-retail/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	walletService = "wallet-service"
	useCaseGet    = "wallet.get"
	DefaultUser   = "guest"
)

type Service struct {
	repo domwallet.Repository
	inst *application.Instruments
}

func NewService(repo domwallet.Repository, tel observability.Observability) *Service {
	return &Service{repo: repo, inst: application.NewInstruments(walletService, tel)}
}

// Seed stores the given wallets, overwriting any existing ones.
func (s *Service) Seed(ctx context.Context, wallets map[string]domwallet.Wallet) error {
	for user, w := range wallets {
		if err := s.repo.Put(ctx, user, w); err != nil {
			return fmt.Errorf("wallet: seed %s: %w", user, err)
		}
	}
	s.inst.Logger().Info("wallets_seeded", observability.F("users", len(wallets)))
	return nil
}

// Get returns the user's wallet. Unknown users have an empty one.
func (s *Service) Get(ctx context.Context, user string) (_ domwallet.Wallet, err error) {
	if user = strings.TrimSpace(user); user == "" {
		user = DefaultUser
	}
	ctx, run := s.inst.Begin(ctx, useCaseGet, "GetWallet", attribute.String("wallet.user", user))
	defer func() { run.End(err) }()

	w, err := s.repo.Get(ctx, user)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		run.Status("EMPTY_WALLET")
		return domwallet.Wallet{Coupons: []domwallet.Coupon{}}, nil
	case err != nil:
		run.Fail("WALLET_LOAD_FAILED")
		return domwallet.Wallet{}, fmt.Errorf("wallet: load: %w", err)
	}
	if w.Coupons == nil {
		w.Coupons = []domwallet.Coupon{}
	}
	run.Annotate(observability.F("coupons", len(w.Coupons)))
	return w, nil
}
