package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
	"github.com/rivon0507/courier-back/internal/domain/repository"
	domainService "github.com/rivon0507/courier-back/internal/domain/service"
)

type credentialVerifier struct {
	users     repository.UserRepository
	passwords domainService.PasswordService
	logger    *zap.Logger
}

// NewCredentialVerifier builds the production CredentialVerifier on top of the
// user store and the password service. Unknown email, wrong password and
// deactivated account all collapse into ErrUnauthorized; the distinction only
// exists in logs.
func NewCredentialVerifier(users repository.UserRepository, passwords domainService.PasswordService, logger *zap.Logger) domainService.CredentialVerifier {
	return &credentialVerifier{
		users:     users,
		passwords: passwords,
		logger:    logger.Named("credential_verifier"),
	}
}

func (v *credentialVerifier) Verify(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			v.logger.Debug("login attempt for unknown email")
			return nil, domainErrors.ErrUnauthorized
		}
		v.logger.Error("failed to look up user by email", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	match, err := v.passwords.Verify(password, user.PasswordHash)
	if err != nil {
		v.logger.Error("failed to verify password hash", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, domainErrors.ErrInternal
	}
	if !match {
		v.logger.Debug("login attempt with wrong password", zap.String("user_id", user.ID.String()))
		return nil, domainErrors.ErrUnauthorized
	}

	if !user.Active {
		v.logger.Debug("login attempt for deactivated account", zap.String("user_id", user.ID.String()))
		return nil, domainErrors.ErrUnauthorized
	}

	return user, nil
}
