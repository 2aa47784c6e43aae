package entity

import (
	"time"

	"github.com/google/uuid"
)

// RevokeReason explains why a refresh token stopped being usable.
type RevokeReason string

const (
	RevokeReasonRotated       RevokeReason = "ROTATED"
	RevokeReasonLogout        RevokeReason = "LOGOUT"
	RevokeReasonReuseDetected RevokeReason = "REUSE_DETECTED"
	RevokeReasonAdmin         RevokeReason = "ADMIN"
)

// RefreshToken is one row of the "refresh_tokens" table. The raw secret is never
// stored; TokenHash is its SHA-256 digest and the only lookup key. Tokens that
// descend from the same login share FamilyID, and rotation links them through
// ReplacedByTokenID. Revocation is terminal: RevokedAt is set once and never
// cleared.
type RefreshToken struct {
	ID                uuid.UUID     `db:"id"`
	UserID            uuid.UUID     `db:"user_id"`
	TokenHash         string        `db:"token_hash"`
	FamilyID          uuid.UUID     `db:"family_id"`
	DeviceID          uuid.UUID     `db:"device_id"`
	ExpiresAt         time.Time     `db:"expires_at"`
	CreatedAt         time.Time     `db:"created_at"`
	RevokedAt         *time.Time    `db:"revoked_at"`           // nil means not revoked
	RevokeReason      *RevokeReason `db:"revoke_reason"`        // set only together with RevokedAt
	ReplacedByTokenID *uuid.UUID    `db:"replaced_by_token_id"` // set only for ROTATED
}

// IsExpired reports whether the token's lifetime has ended. The expiry instant
// itself counts as expired.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// IsActive reports whether the token can still be exchanged: not revoked and not
// expired.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && !t.IsExpired(now)
}

func (t *RefreshToken) WasRotated() bool {
	return t.RevokeReason != nil && *t.RevokeReason == RevokeReasonRotated
}

func (t *RefreshToken) WasReused() bool {
	return t.RevokeReason != nil && *t.RevokeReason == RevokeReasonReuseDetected
}
