package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/application"
	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-retail/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	authService     = "auth-service"
	useCaseRegister = "auth.register"
	useCaseLogin    = "auth.login"
	useCaseGoogle   = "auth.google"
	useCaseMe       = "auth.me"

	// PasswordCost is the bcrypt work factor for stored passwords.
	PasswordCost = 10
	// placeholderPhone fills the phone of users provisioned from Google.
	placeholderPhone = "-"
)

var (
	ErrNoToken             = apperr.New(apperr.ErrAuthentication, "auth: bearer token missing")
	ErrInvalidToken        = apperr.New(apperr.ErrAuthentication, "auth: bearer token invalid or expired")
	ErrMissingIDToken      = apperr.New(apperr.ErrValidation, "auth: id_token is required")
	ErrGoogleNotConfigured = apperr.New(apperr.ErrConfiguration, "auth: google sign-in is not configured")
)

type IDGenerator interface {
	NewID() string
}

// TokenCodec issues and verifies the 2-hour bearer tokens.
type TokenCodec interface {
	Issue(p session.Principal) (string, time.Time, error)
	Verify(token string) (session.Principal, bool)
}

// IDTokenVerifier checks a Google ID token.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, raw string) (domain.ExternalIdentity, error)
}

type Deps struct {
	Users  domain.Repository
	Tokens TokenCodec
	IDs    IDGenerator
	// Google may be nil when sign-in with Google is disabled.
	Google IDTokenVerifier
	Admins session.AdminList
	Tel    observability.Observability
}

// Service implements registration, login and token introspection.
type Service struct {
	users  domain.Repository
	tokens TokenCodec
	ids    IDGenerator
	google IDTokenVerifier
	admins session.AdminList
	inst   *application.Instruments
}

func NewService(d Deps) *Service {
	return &Service{
		users:  d.Users,
		tokens: d.Tokens,
		ids:    d.IDs,
		google: d.Google,
		admins: d.Admins,
		inst:   application.NewInstruments(authService, d.Tel),
	}
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

func (s *Service) Register(ctx context.Context, r domain.Registration) (_ AuthResult, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseRegister, "Register")
	defer func() { run.End(err) }()

	if err := r.Validate(); err != nil {
		run.Fail("INPUT_INVALID")
		return AuthResult{}, err
	}
	email := domain.NormalizeEmail(r.Email)
	if _, ferr := s.users.FindByEmail(ctx, email); ferr == nil {
		run.Fail("EMAIL_IN_USE")
		return AuthResult{}, domain.ErrEmailInUse
	} else if !errors.Is(ferr, domain.ErrNotFound) {
		run.Fail("USER_LOOKUP_FAILED")
		return AuthResult{}, fmt.Errorf("auth: lookup: %w", ferr)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), PasswordCost)
	if err != nil {
		run.Fail("HASH_FAILED")
		return AuthResult{}, fmt.Errorf("auth: hash password: %w", err)
	}
	u := domain.User{
		ID:           s.ids.NewID(),
		Name:         strings.TrimSpace(r.Name),
		Phone:        strings.TrimSpace(r.Phone),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     domain.ProviderLocal,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			run.Fail("EMAIL_IN_USE")
			return AuthResult{}, err
		}
		run.Fail("USER_SAVE_FAILED")
		return AuthResult{}, fmt.Errorf("auth: create user: %w", err)
	}

	run.Annotate(observability.F("user_id", u.ID))
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (_ AuthResult, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseLogin, "Login")
	defer func() { run.End(err) }()

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		run.Fail("INPUT_INVALID")
		return AuthResult{}, domain.ErrMissingFields
	}

	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		run.Fail("INVALID_CREDENTIALS")
		return AuthResult{}, domain.ErrInvalidCredentials
	case err != nil:
		run.Fail("USER_LOOKUP_FAILED")
		return AuthResult{}, fmt.Errorf("auth: lookup: %w", err)
	}
	if u.Provider != domain.ProviderLocal || !u.HasPassword() {
		run.Fail("INVALID_CREDENTIALS")
		return AuthResult{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		run.Fail("INVALID_CREDENTIALS")
		return AuthResult{}, domain.ErrInvalidCredentials
	}

	run.Annotate(observability.F("user_id", u.ID))
	return s.issue(u)
}

// Google signs in with a Google ID token, creating the user on first use.
func (s *Service) Google(ctx context.Context, idToken string) (_ AuthResult, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseGoogle, "GoogleSignIn")
	defer func() { run.End(err) }()

	if s.google == nil {
		run.Fail("GOOGLE_NOT_CONFIGURED")
		return AuthResult{}, ErrGoogleNotConfigured
	}
	if strings.TrimSpace(idToken) == "" {
		run.Fail("ID_TOKEN_MISSING")
		return AuthResult{}, ErrMissingIDToken
	}
	ident, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		run.Fail("ID_TOKEN_REJECTED")
		return AuthResult{}, err
	}

	email := domain.NormalizeEmail(ident.Email)
	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		u, err = s.provision(ctx, ident, email)
		if err != nil {
			run.Fail("USER_SAVE_FAILED")
			return AuthResult{}, err
		}
		run.Status("USER_PROVISIONED")
	case err != nil:
		run.Fail("USER_LOOKUP_FAILED")
		return AuthResult{}, fmt.Errorf("auth: lookup: %w", err)
	}

	run.Annotate(observability.F("user_id", u.ID))
	return s.issue(u)
}

func (s *Service) provision(ctx context.Context, ident domain.ExternalIdentity, email string) (domain.User, error) {
	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name = email
	}
	u := domain.User{
		ID:        s.ids.NewID(),
		Name:      name,
		Phone:     placeholderPhone,
		Email:     email,
		Provider:  domain.ProviderGoogle,
		Picture:   ident.Picture,
		CreatedAt: time.Now().UTC(),
	}
	err := s.users.Create(ctx, u)
	if errors.Is(err, domain.ErrEmailInUse) {
		// Lost a race with a concurrent first sign-in.
		return s.users.FindByEmail(ctx, email)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("auth: provision user: %w", err)
	}
	return u, nil
}

// Me resolves a bearer token to its user.
func (s *Service) Me(ctx context.Context, token string) (_ domain.User, err error) {
	ctx, run := s.inst.Begin(ctx, useCaseMe, "Me")
	defer func() { run.End(err) }()

	if token == "" {
		run.Fail("NO_TOKEN")
		return domain.User{}, ErrNoToken
	}
	p, ok := s.tokens.Verify(token)
	if !ok {
		run.Fail("INVALID_TOKEN")
		return domain.User{}, ErrInvalidToken
	}
	run.Span().SetAttributes(attribute.String("auth.subject", p.Subject))

	u, err := s.users.FindByID(ctx, p.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail("USER_NOT_FOUND")
			return domain.User{}, err
		}
		run.Fail("USER_LOOKUP_FAILED")
		return domain.User{}, fmt.Errorf("auth: lookup: %w", err)
	}
	return u, nil
}

func (s *Service) issue(u domain.User) (AuthResult, error) {
	token, exp, err := s.tokens.Issue(session.Principal{
		Subject: u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Picture: u.Picture,
		Role:    s.admins.RoleFor(u.Email),
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}
