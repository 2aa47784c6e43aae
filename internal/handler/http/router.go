package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/handler/http/middleware"
)

// NewRouter assembles the HTTP surface: the public /auth endpoints and the
// bearer-protected /users/me.
func NewRouter(logger *zap.Logger, authHandler *AuthHandler, meHandler *MeHandler, tokenParser middleware.TokenParser) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.RequestMetadata(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	users := router.Group("/users")
	users.Use(middleware.Auth(tokenParser, logger))
	{
		users.GET("/me", meHandler.Me)
	}

	return router
}
