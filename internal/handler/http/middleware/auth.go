package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/infrastructure/security"
)

// ContextKeyUserID is the gin context key under which the authenticated user's
// id is stored.
const ContextKeyUserID = "userID"

// TokenParser validates a presented access token.
type TokenParser interface {
	Parse(tokenString string) (*security.AccessTokenClaims, error)
}

// Auth rejects requests without a valid bearer token and stores the
// authenticated user id in the gin context.
func Auth(parser TokenParser, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("auth_middleware")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := parser.Parse(token)
		if err != nil {
			log.Debug("rejected access token", zap.Error(err))
			abortUnauthorized(c)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			log.Warn("access token with malformed user id", zap.Error(err))
			abortUnauthorized(c)
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// UserID returns the authenticated user's id from the gin context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "AUTH_UNAUTHORIZED",
		"message": "Authentication required",
	})
}
