package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rivon0507/courier-back/internal/domain/entity"
)

// RefreshTokenRepository persists refresh-token records. Records are append-only
// with respect to revocation: implementations only ever set revoked_at,
// revoke_reason and replaced_by_token_id, and every revoking statement carries
// a `revoked_at IS NULL` predicate so concurrent revocations cannot race each
// other into inconsistent state.
type RefreshTokenRepository interface {
	// FindByTokenHash looks a record up by the digest of its raw secret.
	// Returns domain errors.ErrTokenNotFound when absent.
	FindByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)

	// Create inserts a freshly issued record.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// Rotate atomically inserts the replacement record and revokes the current
	// one as ROTATED with replaced_by_token_id pointing at the replacement.
	// Both writes commit together or not at all. Returns false when the current
	// record was no longer active, i.e. a concurrent rotation won first; in
	// that case the replacement is not persisted either.
	Rotate(ctx context.Context, currentID uuid.UUID, replacement *entity.RefreshToken, now time.Time) (bool, error)

	// RevokeAsLogout revokes a single record with reason LOGOUT. A no-op when
	// the record is already revoked.
	RevokeAsLogout(ctx context.Context, id uuid.UUID, now time.Time) error

	// RevokeActiveByDevice revokes every active record issued to the device.
	// A no-op when none exists.
	RevokeActiveByDevice(ctx context.Context, deviceID uuid.UUID, now time.Time, reason entity.RevokeReason) error

	// RevokeActiveByFamily revokes every active record of a rotation family.
	// A no-op when none exists.
	RevokeActiveByFamily(ctx context.Context, familyID uuid.UUID, now time.Time, reason entity.RevokeReason) error
}
