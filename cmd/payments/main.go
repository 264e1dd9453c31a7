// Command payments serves the payment intent API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	apppay "github.com/Zhima-Mochi/minishop-retail/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	dompay "github.com/Zhima-Mochi/minishop-retail/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/id"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "payments:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Payments, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	intents, err := bootstrap.KVStore(ctx, rt, "payment_intent", func(i dompay.Intent) dompay.Intent { return i })
	if err != nil {
		return err
	}
	svc := apppay.NewService(intents, id.NewPrefixedGenerator("pi_"), rt.Tel)

	return rt.Serve(ctx, httppresentation.NewPaymentsHandler(svc).Register)
}
