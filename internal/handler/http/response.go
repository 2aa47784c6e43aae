package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResponseError is the error body of the API: a stable machine-readable code
// plus a human-readable message.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError sends an error response and logs it.
func RespondWithError(c *gin.Context, statusCode int, code, message string, logger *zap.Logger) {
	logger.Warn("API error response",
		zap.Int("status_code", statusCode),
		zap.String("error_code", code),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)

	c.JSON(statusCode, ResponseError{Code: code, Message: message})
}
