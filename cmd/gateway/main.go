// Command gateway serves browser sign-in and fronts the retail services.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	appgateway "github.com/Zhima-Mochi/minishop-retail/internal/application/gateway"
	"github.com/Zhima-Mochi/minishop-retail/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-retail/internal/config"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/identity"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/proxy"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/sessiontoken"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-retail/internal/presentation/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	rt, err := bootstrap.New(config.Gateway, os.Args[1:])
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := rt.Config
	sessions, err := sessiontoken.New(cfg.Session.Secret, sessiontoken.BrowserSession.WithTTL(cfg.Session.TTL))
	if err != nil {
		return err
	}
	admins := session.NewAdminList(cfg.Admin.Emails...)

	authDeps := appgateway.Deps{
		Local: appgateway.LocalLogin{
			Enabled:       cfg.Local.Enabled,
			Email:         cfg.Local.Email,
			PasswordPlain: cfg.Local.PasswordPlain,
			PasswordHash:  cfg.Local.PasswordHash,
		},
		Admins:   admins,
		Sessions: sessions,
		Tel:      rt.Tel,
	}
	if cfg.Google.ClientID != "" {
		google, err := identity.NewGoogle(ctx, identity.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			IssuerURL:    cfg.Google.IssuerURL,
		})
		if err != nil {
			return err
		}
		authDeps.OAuth = google
	} else {
		rt.Logger().Warn("google_oauth_disabled", observability.F("reason", "google.client_id is not set"))
	}

	u := cfg.Upstreams
	table, err := httppresentation.NewGatewayTable(httppresentation.GatewayUpstreams{
		Catalog:     u.Catalog,
		Inventory:   u.Inventory,
		Pricing:     u.Pricing,
		Cart:        u.Cart,
		Payments:    u.Payments,
		Wallet:      u.Wallet,
		Auth:        u.Auth,
		UploadsPath: cfg.CatalogProbe.UploadsPath,
	})
	if err != nil {
		return err
	}

	catalogBase, err := url.Parse(u.Catalog)
	if err != nil {
		return fmt.Errorf("upstreams.catalog: %w", err)
	}
	fallbacks := cfg.CatalogProbe.Candidates
	if len(fallbacks) == 0 {
		fallbacks = proxy.DefaultCatalogCandidates
	}
	prober := proxy.NewProber(catalogBase, proxy.Candidates(cfg.CatalogProbe.BasePath, fallbacks...),
		proxy.ProbeOptions{Timeout: cfg.CatalogProbe.Timeout, Budget: cfg.CatalogProbe.Budget}, rt.Tel)

	h := httppresentation.NewGatewayHandler(httppresentation.GatewayDeps{
		Auth:            appgateway.NewAuthService(authDeps),
		Table:           table,
		Proxy:           proxy.Options{Timeout: cfg.Proxy.Timeout},
		Prober:          prober,
		CatalogBasePath: cfg.CatalogProbe.BasePath,
		UploadsPath:     cfg.CatalogProbe.UploadsPath,
		SecureCookies:   cfg.Session.Secure,
		Debug: httppresentation.AuthDebug{
			GoogleClientID:     cfg.Google.ClientID != "",
			GoogleCallback:     cfg.Google.RedirectURL,
			LocalEnabled:       cfg.Local.Enabled,
			LocalEmail:         cfg.Local.Email,
			LocalPasswordPlain: cfg.Local.PasswordPlain != "",
			AdminEmails:        cfg.Admin.Emails,
		},
		Tel: rt.Tel,
	})

	rt.Logger().Info("gateway_routes", observability.F("routes", len(table.Routes())), observability.F("admins", admins.Len()))
	return rt.Serve(ctx, h.Register)
}
