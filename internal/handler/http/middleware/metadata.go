package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/rivon0507/courier-back/internal/requestmeta"
)

// RequestMetadata attaches the client's address and user agent to the request
// context for services that record security events.
func RequestMetadata() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := requestmeta.WithMeta(c.Request.Context(), requestmeta.Meta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
