package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
)

func TestCredentialVerifier(t *testing.T) {
	users := newFakeUserStore()
	users.add(&entity.User{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		PasswordHash: "hashed:right",
		Role:         entity.RoleUser,
		Active:       true,
	})
	users.add(&entity.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: "hashed:right",
		Role:         entity.RoleUser,
		Active:       false,
	})
	verifier := NewCredentialVerifier(users, stubPasswords{}, zap.NewNop())

	t.Run("accepts matching credentials", func(t *testing.T) {
		user, err := verifier.Verify(context.Background(), "ada@example.com", "right")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "nobody@example.com", "right")
		assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "ada@example.com", "wrong")
		assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
	})

	t.Run("deactivated account", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "gone@example.com", "right")
		assert.ErrorIs(t, err, domainErrors.ErrUnauthorized)
	})
}
