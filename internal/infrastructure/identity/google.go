// Package identity talks to the Google OpenID Connect provider.
package identity

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const GoogleIssuer = "https://accounts.google.com"

var (
	ErrExchange     = apperr.New(apperr.ErrAuthentication, "identity: authorization code exchange failed")
	ErrInvalidToken = apperr.New(apperr.ErrAuthentication, "identity: id token rejected")
	ErrNoEmail      = apperr.New(apperr.ErrAuthentication, "identity: provider returned no email")
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// IssuerURL overrides the Google issuer, used by tests.
	IssuerURL string
}

type Google struct {
	oauth    *oauth2.Config
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewGoogle fetches the provider discovery document. ClientID is required;
// ClientSecret and RedirectURL are only needed for the authorization-code flow.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if cfg.ClientID == "" {
		return nil, apperr.Configuration("google client id is not set")
	}
	issuer := cfg.IssuerURL
	if issuer == "" {
		issuer = GoogleIssuer
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("identity: discover %s: %w", issuer, err)
	}
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// AuthCodeURL is the consent screen URL for state.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for the user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (account.ExternalIdentity, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return account.ExternalIdentity{}, fmt.Errorf("%w: %w", ErrExchange, err)
	}
	info, err := g.provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return account.ExternalIdentity{}, fmt.Errorf("%w: userinfo: %w", ErrExchange, err)
	}

	var claims struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	_ = info.Claims(&claims)

	if info.Email == "" {
		return account.ExternalIdentity{}, ErrNoEmail
	}
	return account.ExternalIdentity{
		Provider: account.ProviderGoogle,
		Subject:  info.Subject,
		Email:    info.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}

// VerifyIDToken checks a Google ID token issued to our client ID.
func (g *Google) VerifyIDToken(ctx context.Context, raw string) (account.ExternalIdentity, error) {
	tok, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return account.ExternalIdentity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := tok.Claims(&claims); err != nil {
		return account.ExternalIdentity{}, fmt.Errorf("%w: claims: %w", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return account.ExternalIdentity{}, ErrNoEmail
	}
	return account.ExternalIdentity{
		Provider: account.ProviderGoogle,
		Subject:  tok.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}
