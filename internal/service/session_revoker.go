package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	"github.com/rivon0507/courier-back/internal/domain/repository"
)

// SessionRevoker performs the family-wide revocation triggered by reuse
// detection. It must be durable no matter what happens to the request that
// detected the reuse.
type SessionRevoker interface {
	RevokeFamilyAsReused(ctx context.Context, familyID uuid.UUID, now time.Time) error
}

type sessionRevoker struct {
	tokens repository.RefreshTokenRepository
	logger *zap.Logger
}

// NewSessionRevoker builds the production SessionRevoker. The revocation is a
// single bulk conditional update executed directly against the store, outside
// any caller-scoped transaction, so it commits on its own: a refresh request
// that fails after detecting reuse cannot undo it.
func NewSessionRevoker(tokens repository.RefreshTokenRepository, logger *zap.Logger) SessionRevoker {
	return &sessionRevoker{
		tokens: tokens,
		logger: logger.Named("session_revoker"),
	}
}

func (r *sessionRevoker) RevokeFamilyAsReused(ctx context.Context, familyID uuid.UUID, now time.Time) error {
	// Detach from the caller's cancellation: once a reuse is detected, the
	// revocation must land even if the triggering request is aborted.
	ctx = context.WithoutCancel(ctx)

	if err := r.tokens.RevokeActiveByFamily(ctx, familyID, now, entity.RevokeReasonReuseDetected); err != nil {
		r.logger.Error("failed to revoke token family after reuse detection",
			zap.Error(err), zap.String("family_id", familyID.String()))
		return err
	}

	r.logger.Warn("refresh token reuse detected, family revoked",
		zap.String("family_id", familyID.String()))
	return nil
}
