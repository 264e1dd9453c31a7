// Command pricing serves unit prices and coupon validation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	apppricing "github.com/Zhima-Mochi/minishop-retail/internal/application/pricing"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	dompricing "github.com/Zhima-Mochi/minishop-retail/internal/domain/pricing"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pricing:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Pricing, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coupons := make([]dompricing.Coupon, 0, len(rt.Config.Coupons))
	for _, c := range rt.Config.Coupons {
		kind, err := dompricing.ParseKind(c.Kind)
		if err != nil {
			return fmt.Errorf("coupon %s: %w", c.Code, err)
		}
		coupons = append(coupons, dompricing.Coupon{Code: c.Code, Kind: kind, Value: c.Value, Active: c.Active})
	}
	catalog := dompricing.NewCatalog(rt.Config.Prices, coupons)
	svc := apppricing.NewService(catalog, rt.Tel)

	return rt.Serve(ctx, httppresentation.NewPricingHandler(svc).Register)
}
