// Command wallet serves the coupons each user has collected.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appwallet "github.com/Zhima-Mochi/minishop-retail/internal/application/wallet"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	domwallet "github.com/Zhima-Mochi/minishop-retail/internal/domain/wallet"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wallet:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Wallet, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wallets, err := bootstrap.KVStore(ctx, rt, "wallet", domwallet.Wallet.Clone)
	if err != nil {
		return err
	}
	svc := appwallet.NewService(wallets, rt.Tel)
	if err := svc.Seed(ctx, domwallet.DemoWallets()); err != nil {
		return err
	}

	return rt.Serve(ctx, httppresentation.NewWalletHandler(svc).Register)
}
