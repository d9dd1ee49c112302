// Package token issues HS256 session tokens and tracks which of them are
// currently active. A token is accepted only while it is both in the active
// set and unexpired.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Stewz00/academic-auth/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 24 * time.Hour

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenNotActive = fmt.Errorf("%w: not active", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: token has expired", ErrInvalidToken)
)

// Identity is what a token is bound to.
type Identity struct {
	UserID int64
	Email  string
	Role   model.Role
}

// Claims are the decoded contents of a session token.
type Claims struct {
	UserID int64      `json:"userId"`
	Email  string     `json:"email"`
	Role   model.Role `json:"type"`
	jwt.RegisteredClaims
}

// Registry signs tokens and owns the active-token set. The set is a sync.Map
// keyed by the token string, so issue/verify/revoke on different tokens never
// wait on each other.
type Registry struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
	active sync.Map // token -> expiry
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithClock sets the clock used for issuance and expiry checks.
func WithClock(c clockwork.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// NewRegistry creates a registry signing with secret.
func NewRegistry(secret string, opts ...Option) *Registry {
	r := &Registry{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Issue signs a token for id and adds it to the active set
func (r *Registry) Issue(ctx context.Context, id Identity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := r.clock.Now()
	expiresAt := now.Add(r.ttl)
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", id.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	r.active.Store(tokenString, expiresAt)
	return tokenString, nil
}

// Verify returns the claims of an active, correctly signed, unexpired token.
// Absence from the active set is checked first.
func (r *Registry) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := r.active.Load(tokenString); !ok {
		return nil, ErrTokenNotActive
	}
	return r.parse(tokenString)
}

// Revoke removes a token from the active set. Revoking a token that is not
// active reports ErrTokenNotActive, so a second revoke always fails.
func (r *Registry) Revoke(ctx context.Context, tokenString string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, loaded := r.active.LoadAndDelete(tokenString); !loaded {
		return ErrTokenNotActive
	}
	return nil
}

func (r *Registry) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
