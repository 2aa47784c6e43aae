package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
	"github.com/rivon0507/courier-back/internal/domain/repository"
)

const pgUniqueViolation = "23505"

const userColumns = `id, email, display_name, password_hash, role, is_active, default_workspace_id, created_at, updated_at`

type pgxUserRepository struct {
	db *pgxpool.Pool
}

// NewPgxUserRepository creates the Postgres-backed user store.
func NewPgxUserRepository(db *pgxpool.Pool) repository.UserRepository {
	return &pgxUserRepository{db: db}
}

// Create inserts the user and their default workspace in one transaction. A
// unique violation on the email index maps to ErrEmailAlreadyTaken regardless
// of whether the colliding account is active.
func (r *pgxUserRepository) Create(ctx context.Context, user *entity.User) (created *entity.User, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin user creation: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	now := time.Now().UTC()

	insertUser := `
		INSERT INTO users (id, email, display_name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	if _, err := tx.Exec(ctx, insertUser,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.Role, user.Active, now,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domainErrors.ErrEmailAlreadyTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	workspaceID := uuid.New()
	insertWorkspace := `INSERT INTO workspaces (id, owner_id, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, insertWorkspace, workspaceID, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to create default workspace: %w", err)
	}

	setDefault := `UPDATE users SET default_workspace_id = $2 WHERE id = $1`
	if _, err := tx.Exec(ctx, setDefault, user.ID, workspaceID); err != nil {
		return nil, fmt.Errorf("failed to set default workspace: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user creation: %w", err)
	}

	saved := *user
	saved.DefaultWorkspaceID = &workspaceID
	saved.CreatedAt = now
	saved.UpdatedAt = now
	return &saved, nil
}

func (r *pgxUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *pgxUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.findOne(ctx, query, email)
}

func (r *pgxUserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user := &entity.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.Role,
		&user.Active, &user.DefaultWorkspaceID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

var _ repository.UserRepository = (*pgxUserRepository)(nil)
