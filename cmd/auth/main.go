// Command auth serves account registration, login and bearer-token identity.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appaccount "github.com/Zhima-Mochi/minishop-retail/internal/application/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	domaccount "github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/identity"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/sessiontoken"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "auth:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Auth, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := rt.Config
	var users domaccount.Repository = memory.NewAccountRepository()
	if cfg.Store.Backend == config.BackendPostgres {
		db, err := rt.Postgres(ctx)
		if err != nil {
			return err
		}
		users = postgres.NewAccountRepo(db)
	}

	tokens, err := sessiontoken.New(cfg.Bearer.Secret, sessiontoken.Bearer.WithTTL(cfg.Bearer.TTL))
	if err != nil {
		return err
	}

	deps := appaccount.Deps{
		Users:  users,
		Tokens: tokens,
		IDs:    id.NewUUIDGenerator(),
		Admins: session.NewAdminList(cfg.Admin.Emails...),
		Tel:    rt.Tel,
	}
	if cfg.Google.ClientID != "" {
		google, err := identity.NewGoogle(ctx, identity.GoogleConfig{
			ClientID:  cfg.Google.ClientID,
			IssuerURL: cfg.Google.IssuerURL,
		})
		if err != nil {
			return err
		}
		deps.Google = google
	} else {
		rt.Logger().Warn("google_signin_disabled", observability.F("reason", "google.client_id is not set"))
	}

	svc := appaccount.NewService(deps)
	return rt.Serve(ctx, httppresentation.NewAuthHandler(svc).Register)
}
