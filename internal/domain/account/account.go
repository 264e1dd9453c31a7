// Package account models the users registered with the auth service.
package account

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

var (
	ErrNotFound           = apperr.New(apperr.ErrNotFound, "account: user not found")
	ErrEmailInUse         = apperr.New(apperr.ErrConflict, "account: email already registered")
	ErrMissingFields      = apperr.New(apperr.ErrValidation, "account: name, email and password are required")
	ErrInvalidEmail       = apperr.New(apperr.ErrValidation, "account: email is malformed")
	ErrInvalidCredentials = apperr.New(apperr.ErrAuthentication, "account: invalid credentials")
)

type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

type User struct {
	ID           string
	Name         string
	Phone        string
	Email        string
	PasswordHash string
	Provider     Provider
	Picture      string
	CreatedAt    time.Time
}

// HasPassword reports whether the user can log in with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Registration is the input for a local sign-up.
type Registration struct {
	Name     string
	Phone    string
	Email    string
	Password string
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return ErrMissingFields
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

type Repository interface {
	// Create stores u and fails with ErrEmailInUse when the email is taken.
	Create(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// ExternalIdentity is what a federated provider tells us about a user.
type ExternalIdentity struct {
	Provider Provider
	Subject  string
	Email    string
	Name     string
	Picture  string
}
