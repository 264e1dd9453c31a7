// Command inventory serves per-store stock with reservations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appinv "github.com/Zhima-Mochi/minishop-retail/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	dominv "github.com/Zhima-Mochi/minishop-retail/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/postgres"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "inventory:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Inventory, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo dominv.Repository = memory.NewInventoryRepository()
	if rt.Config.Store.Backend == config.BackendPostgres {
		db, err := rt.Postgres(ctx)
		if err != nil {
			return err
		}
		repo = postgres.NewInventoryRepo(db)
	}

	bus := rt.StartBus(ctx)
	workerpresentation.NewActivityWorker(config.Inventory, bus, rt.Tel).Start()

	svc := appinv.NewService(repo, bus, dominv.DemoStock(), rt.Tel)
	if err := svc.Seed(ctx); err != nil {
		return err
	}
	return rt.Serve(ctx, httppresentation.NewInventoryHandler(svc).Register)
}
