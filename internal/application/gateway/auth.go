// Package gateway holds the gateway's own use cases: local and Google sign-in
// and reading the browser session.
package gateway

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	gatewayService     = "gateway"
	useCaseLocalLogin  = "gateway.local_login"
	useCaseBeginOAuth  = "gateway.oauth_begin"
	useCaseFinishOAuth = "gateway.oauth_callback"
	localSubjectPrefix = "local:"
	stateBytes         = 24
)

var (
	ErrLocalDisabled       = apperr.New(apperr.ErrAuthorization, "local auth is disabled")
	ErrMissingCredentials  = apperr.New(apperr.ErrValidation, "missing credentials")
	ErrAdminEmailUnset     = apperr.Configuration("local admin email is not configured")
	ErrAdminHashUnset      = apperr.Configuration("local admin password hash is not configured")
	ErrBadEmail            = apperr.New(apperr.ErrAuthentication, "invalid credentials (email)")
	ErrBadPassword         = apperr.New(apperr.ErrAuthentication, "invalid credentials (password)")
	ErrOAuthNotConfigured  = apperr.Configuration("google oauth is not configured")
	ErrInvalidState        = apperr.New(apperr.ErrValidation, "invalid oauth state")
	ErrOAuthExchangeFailed = apperr.New(apperr.ErrValidation, "could not complete google sign-in")
)

// LocalLogin configures the single local administrator account.
type LocalLogin struct {
	Enabled bool
	Email   string
	// PasswordPlain wins over PasswordHash when both are set.
	PasswordPlain string
	PasswordHash  string
}

type SessionCodec interface {
	Issue(p session.Principal) (string, time.Time, error)
	Verify(token string) (session.Principal, bool)
}

// OAuthProvider runs the authorization-code flow.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (account.ExternalIdentity, error)
}

type Deps struct {
	Local    LocalLogin
	Admins   session.AdminList
	Sessions SessionCodec
	// OAuth may be nil when Google sign-in is not configured.
	OAuth OAuthProvider
	Tel   observability.Observability
}

// Session is an issued browser session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal session.Principal
}

type AuthService struct {
	local    LocalLogin
	admins   session.AdminList
	sessions SessionCodec
	oauth    OAuthProvider
	inst     *application.Instruments
}

func NewAuthService(d Deps) *AuthService {
	return &AuthService{
		local:    d.Local,
		admins:   d.Admins,
		sessions: d.Sessions,
		oauth:    d.OAuth,
		inst:     application.NewInstruments(gatewayService, d.Tel),
	}
}

func (s *AuthService) OAuthConfigured() bool { return s.oauth != nil }

// LocalLogin checks the configured administrator credentials in this order:
// enabled, input present, email configured, email match, password.
func (s *AuthService) LocalLogin(ctx context.Context, email, password string) (_ Session, err error) {
	_, run := s.inst.Begin(ctx, useCaseLocalLogin, "LocalLogin")
	defer func() { run.End(err) }()

	if !s.local.Enabled {
		run.Fail("LOCAL_DISABLED")
		return Session{}, ErrLocalDisabled
	}
	if strings.TrimSpace(email) == "" || password == "" {
		run.Fail("INPUT_INVALID")
		return Session{}, ErrMissingCredentials
	}
	expected := strings.ToLower(strings.TrimSpace(s.local.Email))
	if expected == "" {
		run.Fail("ADMIN_EMAIL_UNSET")
		return Session{}, ErrAdminEmailUnset
	}
	e := strings.ToLower(strings.TrimSpace(email))
	if e != expected {
		run.Fail("EMAIL_MISMATCH")
		return Session{}, ErrBadEmail
	}

	switch {
	case s.local.PasswordPlain != "":
		if subtle.ConstantTimeCompare([]byte(password), []byte(s.local.PasswordPlain)) != 1 {
			run.Fail("PASSWORD_MISMATCH")
			return Session{}, ErrBadPassword
		}
	case s.local.PasswordHash == "":
		run.Fail("ADMIN_HASH_UNSET")
		return Session{}, ErrAdminHashUnset
	default:
		if bcrypt.CompareHashAndPassword([]byte(s.local.PasswordHash), []byte(password)) != nil {
			run.Fail("PASSWORD_MISMATCH")
			return Session{}, ErrBadPassword
		}
	}

	sess, err := s.issue(session.Principal{Subject: localSubjectPrefix + e, Email: e, Name: e})
	if err != nil {
		run.Fail("SESSION_ISSUE_FAILED")
		return Session{}, err
	}
	run.Annotate(observability.F("role", string(sess.Principal.Role)))
	return sess, nil
}

// BeginOAuth returns a fresh state value and the consent screen URL carrying it.
func (s *AuthService) BeginOAuth(ctx context.Context) (state, redirect string, err error) {
	_, run := s.inst.Begin(ctx, useCaseBeginOAuth, "BeginOAuth")
	defer func() { run.End(err) }()

	if s.oauth == nil {
		run.Fail("OAUTH_NOT_CONFIGURED")
		return "", "", ErrOAuthNotConfigured
	}
	state, err = newState()
	if err != nil {
		run.Fail("STATE_GENERATION_FAILED")
		return "", "", err
	}
	return state, s.oauth.AuthCodeURL(state), nil
}

// CompleteOAuth checks the returned state against the one kept in the cookie,
// then exchanges the code and issues a session.
func (s *AuthService) CompleteOAuth(ctx context.Context, code, state, savedState string) (_ Session, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseFinishOAuth, "CompleteOAuth")
	defer func() { run.End(err) }()

	if s.oauth == nil {
		run.Fail("OAUTH_NOT_CONFIGURED")
		return Session{}, ErrOAuthNotConfigured
	}
	if code == "" || state == "" || savedState == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(savedState)) != 1 {
		run.Fail("STATE_MISMATCH")
		return Session{}, ErrInvalidState
	}

	ident, xerr := s.oauth.Exchange(ctx, code)
	if xerr != nil {
		run.Fail("EXCHANGE_FAILED")
		return Session{}, fmt.Errorf("%w: %v", ErrOAuthExchangeFailed, xerr)
	}
	email := strings.ToLower(strings.TrimSpace(ident.Email))
	run.Span().SetAttributes(attribute.String("auth.provider", string(ident.Provider)))

	sess, err := s.issue(session.Principal{
		Subject: ident.Subject,
		Email:   email,
		Name:    ident.Name,
		Picture: ident.Picture,
	})
	if err != nil {
		run.Fail("SESSION_ISSUE_FAILED")
		return Session{}, err
	}
	run.Annotate(observability.F("role", string(sess.Principal.Role)))
	return sess, nil
}

// Verify reads a session token. Missing, forged and expired tokens are all
// anonymous.
func (s *AuthService) Verify(token string) (session.Principal, bool) {
	if token == "" {
		return session.Principal{}, false
	}
	return s.sessions.Verify(token)
}

func (s *AuthService) issue(p session.Principal) (Session, error) {
	p.Role = s.admins.RoleFor(p.Email)
	token, exp, err := s.sessions.Issue(p)
	if err != nil {
		return Session{}, fmt.Errorf("gateway: issue session: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, Principal: p}, nil
}

func newState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("gateway: oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
