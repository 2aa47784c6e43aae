package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	"github.com/rivon0507/courier-back/internal/infrastructure/security"
)

func protectedRouter(t *testing.T, parser TokenParser) (*gin.Engine, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen uuid.UUID
	router := gin.New()
	router.GET("/protected", Auth(parser, zap.NewNop()), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		seen = id
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestAuth(t *testing.T) {
	jwtService, err := security.NewJWTService("test-secret", "courier-back", time.Minute)
	require.NoError(t, err)

	user := &entity.User{
		ID:          uuid.New(),
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Role:        entity.RoleUser,
	}
	token, err := jwtService.Issue(user)
	require.NoError(t, err)

	t.Run("accepts a valid bearer token", func(t *testing.T) {
		router, seen := protectedRouter(t, jwtService)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token.Value)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, user.ID, *seen)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		router, _ := protectedRouter(t, jwtService)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a non-bearer scheme", func(t *testing.T) {
		router, _ := protectedRouter(t, jwtService)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic abc")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		router, _ := protectedRouter(t, jwtService)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token.Value+"x")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
