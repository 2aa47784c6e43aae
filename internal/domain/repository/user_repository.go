package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rivon0507/courier-back/internal/domain/entity"
)

// UserRepository persists principals and their default workspace.
type UserRepository interface {
	// Create inserts the user together with their default workspace in one
	// unit of work. Returns domain errors.ErrEmailAlreadyTaken when the email
	// is already registered, active account or not.
	Create(ctx context.Context, user *entity.User) (*entity.User, error)

	// FindByID returns domain errors.ErrUserNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail returns domain errors.ErrUserNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}
