// Command cart serves the shopping cart API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appcart "github.com/Zhima-Mochi/minishop-retail/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	domcart "github.com/Zhima-Mochi/minishop-retail/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/pricingclient"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cart:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Cart, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	carts, err := bootstrap.KVStore(ctx, rt, "cart", domcart.Cart.Clone)
	if err != nil {
		return err
	}

	bus := rt.StartBus(ctx)
	workerpresentation.NewActivityWorker(config.Cart, bus, rt.Tel).Start()

	pricing := pricingclient.New(rt.Config.PricingClient.URL, rt.Config.PricingClient.Timeout, rt.Tel)
	svc := appcart.NewService(appcart.Deps{
		Repo:      carts,
		Prices:    pricing,
		Coupons:   pricing,
		Publisher: bus,
		Tel:       rt.Tel,
	})

	return rt.Serve(ctx, httppresentation.NewCartHandler(svc).Register)
}
