// Package service declares the collaborator contracts the session state machine
// depends on. Implementations live under internal/infrastructure and
// internal/service; the session service only ever sees these interfaces.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rivon0507/courier-back/internal/domain/entity"
)

// AccessToken is a short-lived signed token plus its expiry instant.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// CredentialVerifier validates an email/password pair against the user store.
// All failure modes (unknown email, wrong password, deactivated account)
// collapse into domain errors.ErrUnauthorized.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*entity.User, error)
}

// AccessTokenIssuer mints the short-lived signed token embedded in auth
// responses.
type AccessTokenIssuer interface {
	Issue(user *entity.User) (AccessToken, error)
}

// UserDirectory resolves a principal by id, for the refresh path and for
// protected endpoints.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// PasswordService hashes and verifies login passwords.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenHasher produces the one-way digest under which refresh-token secrets are
// stored. Deterministic: the digest is the lookup key.
type TokenHasher interface {
	Hash(rawSecret string) string
}

// RateLimiter bounds the rate of sensitive operations per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
