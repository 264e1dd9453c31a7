package account

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/minishop-retail/internal/domain/account"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-retail/internal/infrastructure/sessiontoken"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("u-%d", s.n.Add(1)) }

type mockGoogle struct {
	verifyFn func(ctx context.Context, raw string) (domain.ExternalIdentity, error)
}

func (m *mockGoogle) VerifyIDToken(ctx context.Context, raw string) (domain.ExternalIdentity, error) {
	return m.verifyFn(ctx, raw)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestService(t *testing.T, google IDTokenVerifier) (*Service, *memory.AccountRepository, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := sessiontoken.New("test-secret", sessiontoken.Bearer, sessiontoken.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	repo := memory.NewAccountRepository()
	svc := NewService(Deps{
		Users:  repo,
		Tokens: codec,
		IDs:    &seqIDs{},
		Google: google,
		Admins: session.NewAdminList("boss@shop.test"),
	})
	return svc, repo, clock
}

func registration(email string) domain.Registration {
	return domain.Registration{Name: "Ana", Phone: "555-0101", Email: email, Password: "s3cret"}
}

func TestRegisterThenLogin(t *testing.T) {
	svc, repo, _ := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, registration("Ana@Shop.test"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" || res.User.Email != "ana@shop.test" || res.User.Provider != domain.ProviderLocal {
		t.Fatalf("unexpected result %+v", res)
	}
	stored, _ := repo.FindByID(ctx, res.User.ID)
	if stored.PasswordHash == "" || stored.PasswordHash == "s3cret" {
		t.Fatalf("password must be stored hashed")
	}

	login, err := svc.Login(ctx, "ANA@shop.test", "s3cret")
	if err != nil || login.User.ID != res.User.ID {
		t.Fatalf("login: %+v %v", login, err)
	}

	if _, err := svc.Login(ctx, "ana@shop.test", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@shop.test", "s3cret"); !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("unknown email must look like bad credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "", "s3cret"); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestRegisterRejects(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registration("ana@shop.test")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, registration("ANA@shop.test")); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	if _, err := svc.Register(ctx, domain.Registration{Email: "x@shop.test"}); !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _, clock := newTestService(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, registration("ana@shop.test"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	u, err := svc.Me(ctx, res.Token)
	if err != nil || u.ID != res.User.ID {
		t.Fatalf("me: %+v %v", u, err)
	}

	if _, err := svc.Me(ctx, ""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if _, err := svc.Me(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	clock.now = clock.now.Add(2*time.Hour + time.Second)
	if _, err := svc.Me(ctx, res.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired bearer must be rejected, got %v", err)
	}
}

func TestMeUserGone(t *testing.T) {
	codec, _ := sessiontoken.New("test-secret", sessiontoken.Bearer)
	svc := NewService(Deps{Users: memory.NewAccountRepository(), Tokens: codec, IDs: &seqIDs{}})
	token, _, _ := codec.Issue(session.Principal{Subject: "u-404", Email: "x@shop.test", Role: session.RoleUser})

	if _, err := svc.Me(context.Background(), token); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGoogleSignIn(t *testing.T) {
	google := &mockGoogle{verifyFn: func(_ context.Context, raw string) (domain.ExternalIdentity, error) {
		if raw != "good-token" {
			return domain.ExternalIdentity{}, apperr.New(apperr.ErrAuthentication, "bad token")
		}
		return domain.ExternalIdentity{Provider: domain.ProviderGoogle, Subject: "g-1", Email: "Boss@Shop.test"}, nil
	}}
	svc, repo, _ := newTestService(t, google)
	ctx := context.Background()

	first, err := svc.Google(ctx, "good-token")
	if err != nil {
		t.Fatalf("google: %v", err)
	}
	if first.User.Provider != domain.ProviderGoogle || first.User.Phone != "-" || first.User.Name != "boss@shop.test" {
		t.Fatalf("unexpected provisioned user %+v", first.User)
	}
	second, err := svc.Google(ctx, "good-token")
	if err != nil || second.User.ID != first.User.ID {
		t.Fatalf("second sign-in must reuse the user: %+v %v", second.User, err)
	}
	if _, err := repo.FindByEmail(ctx, "boss@shop.test"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}

	if _, err := svc.Google(ctx, ""); !errors.Is(err, ErrMissingIDToken) {
		t.Fatalf("expected ErrMissingIDToken, got %v", err)
	}
	if _, err := svc.Google(ctx, "forged"); !errors.Is(err, apperr.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if _, err := svc.Login(ctx, "boss@shop.test", "anything"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("google users cannot use password login, got %v", err)
	}
}

func TestGoogleNotConfigured(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	if _, err := svc.Google(context.Background(), "tok"); !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
