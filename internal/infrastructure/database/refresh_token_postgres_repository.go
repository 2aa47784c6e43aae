package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
	"github.com/rivon0507/courier-back/internal/domain/repository"
)

const refreshTokenColumns = `id, user_id, token_hash, family_id, device_id, expires_at, created_at, revoked_at, revoke_reason, replaced_by_token_id`

type pgxRefreshTokenRepository struct {
	db *pgxpool.Pool
}

// NewPgxRefreshTokenRepository creates the Postgres-backed refresh-token store.
func NewPgxRefreshTokenRepository(db *pgxpool.Pool) repository.RefreshTokenRepository {
	return &pgxRefreshTokenRepository{db: db}
}

func (r *pgxRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	token, err := scanRefreshToken(r.db.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token by hash: %w", err)
	}
	return token, nil
}

func (r *pgxRefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.FamilyID, token.DeviceID,
		token.ExpiresAt, token.CreatedAt, token.RevokedAt, token.RevokeReason, token.ReplacedByTokenID,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// Rotate inserts the replacement and revokes the current record in one
// transaction. The conditional update decides the winner between concurrent
// rotations of the same token: whoever finds revoked_at still NULL wins, the
// other caller gets false and nothing persisted.
func (r *pgxRefreshTokenRepository) Rotate(ctx context.Context, currentID uuid.UUID, replacement *entity.RefreshToken, now time.Time) (won bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	insert := `
		INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, NULL, NULL)`
	if _, err := tx.Exec(ctx, insert,
		replacement.ID, replacement.UserID, replacement.TokenHash, replacement.FamilyID,
		replacement.DeviceID, replacement.ExpiresAt, replacement.CreatedAt,
	); err != nil {
		return false, fmt.Errorf("failed to insert replacement token: %w", err)
	}

	update := `
		UPDATE refresh_tokens
		SET revoked_at = $2, revoke_reason = $3, replaced_by_token_id = $4
		WHERE id = $1 AND revoked_at IS NULL`
	tag, err := tx.Exec(ctx, update, currentID, now, entity.RevokeReasonRotated, replacement.ID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke rotated token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the race: leave the presented token untouched and drop the
		// replacement with the rollback.
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit rotation: %w", err)
	}
	return true, nil
}

func (r *pgxRefreshTokenRepository) RevokeAsLogout(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2, revoke_reason = $3
		WHERE id = $1 AND revoked_at IS NULL`

	// Zero rows affected means a concurrent logout already revoked it, which
	// is a success for both callers.
	if _, err := r.db.Exec(ctx, query, id, now, entity.RevokeReasonLogout); err != nil {
		return fmt.Errorf("failed to revoke refresh token on logout: %w", err)
	}
	return nil
}

func (r *pgxRefreshTokenRepository) RevokeActiveByDevice(ctx context.Context, deviceID uuid.UUID, now time.Time, reason entity.RevokeReason) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2, revoke_reason = $3, replaced_by_token_id = NULL
		WHERE device_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(ctx, query, deviceID, now, reason); err != nil {
		return fmt.Errorf("failed to revoke active tokens for device: %w", err)
	}
	return nil
}

func (r *pgxRefreshTokenRepository) RevokeActiveByFamily(ctx context.Context, familyID uuid.UUID, now time.Time, reason entity.RevokeReason) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2, revoke_reason = $3, replaced_by_token_id = NULL
		WHERE family_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.Exec(ctx, query, familyID, now, reason); err != nil {
		return fmt.Errorf("failed to revoke active tokens for family: %w", err)
	}
	return nil
}

func scanRefreshToken(row pgx.Row) (*entity.RefreshToken, error) {
	token := &entity.RefreshToken{}
	err := row.Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.FamilyID, &token.DeviceID,
		&token.ExpiresAt, &token.CreatedAt, &token.RevokedAt, &token.RevokeReason, &token.ReplacedByTokenID,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

var _ repository.RefreshTokenRepository = (*pgxRefreshTokenRepository)(nil)
