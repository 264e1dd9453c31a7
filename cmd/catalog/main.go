// Command catalog serves products and checkout orders.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appcatalog "github.com/Zhima-Mochi/minishop-retail/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	domcatalog "github.com/Zhima-Mochi/minishop-retail/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-retail/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/postgres"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "catalog:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Catalog, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		products domcatalog.Repository = memory.NewCatalogRepository()
		orders   domorder.Repository   = memory.NewOrderRepository()
	)
	if rt.Config.Store.Backend == config.BackendPostgres {
		db, err := rt.Postgres(ctx)
		if err != nil {
			return err
		}
		products, orders = postgres.NewCatalogRepo(db), postgres.NewOrderRepo(db)
	}

	bus := rt.StartBus(ctx)
	workerpresentation.NewActivityWorker(config.Catalog, bus, rt.Tel).Start()

	svc := appcatalog.NewService(appcatalog.Deps{
		Products:  products,
		Orders:    orders,
		IDs:       id.NewUUIDGenerator(),
		Publisher: bus,
		Tel:       rt.Tel,
	})
	if rt.Config.Store.Backend == config.BackendMemory {
		if _, err := svc.SeedIfEmpty(ctx, domcatalog.DemoProducts()); err != nil {
			return err
		}
	}

	return rt.Serve(ctx, httppresentation.NewCatalogHandler(svc).Register)
}
