// Package sessiontoken signs and verifies principal tokens as HS256 JWTs.
package sessiontoken

import (
	"time"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-retail/internal/domain/session"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "minishop"

// Kind is a token family. Families differ in audience and lifetime and never
// accept each other's tokens.
type Kind struct {
	Name     string
	Audience string
	TTL      time.Duration
}

var (
	// BrowserSession is the gateway cookie.
	BrowserSession = Kind{Name: "session", Audience: "minishop-gateway", TTL: 7 * 24 * time.Hour}
	// Bearer is the auth service API token.
	Bearer = Kind{Name: "bearer", Audience: "minishop-auth", TTL: 2 * time.Hour}
)

// WithTTL returns a copy of k with a different lifetime.
func (k Kind) WithTTL(ttl time.Duration) Kind {
	if ttl > 0 {
		k.TTL = ttl
	}
	return k
}

type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	kind   Kind
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func New(secret string, kind Kind, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, apperr.Configuration("%s token secret is not set", kind.Name)
	}
	c := &Codec{secret: []byte(secret), kind: kind, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) TTL() time.Duration { return c.kind.TTL }

// Issue signs p and returns the token with its expiry.
func (c *Codec) Issue(p session.Principal) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.kind.TTL)
	claims := Claims{
		Email:   p.Email,
		Name:    p.Name,
		Picture: p.Picture,
		Role:    string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings{c.kind.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify returns the principal of a valid token. Missing, tampered, expired,
// or foreign-audience tokens all yield ok=false.
func (c *Codec) Verify(token string) (session.Principal, bool) {
	if token == "" {
		return session.Principal{}, false
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(c.kind.Audience),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return session.Principal{}, false
	}

	role := session.Role(claims.Role)
	if role != session.RoleAdmin && role != session.RoleUser {
		return session.Principal{}, false
	}
	return session.Principal{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Role:    role,
	}, true
}
