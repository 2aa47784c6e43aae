package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/config"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
	"github.com/rivon0507/courier-back/internal/service"
)

const (
	refreshTokenCookie = "refresh_token"
	deviceIDCookie     = "device_id"
)

// SessionManager is the slice of the session service the auth handler needs.
type SessionManager interface {
	Login(ctx context.Context, email, password, deviceCookie string) (*service.AuthSessionResult, error)
	Register(ctx context.Context, email, password, displayName, deviceCookie string) (*service.AuthSessionResult, error)
	Refresh(ctx context.Context, refreshCookie, deviceCookie string) (*service.AuthSessionResult, error)
	Logout(ctx context.Context, refreshCookie, deviceCookie string) error
}

// LoginRequest is the login body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the registration body.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName" binding:"required,min=1,max=80"`
}

// AuthHandler owns the /auth endpoints and the session cookie wire contract:
// device_id is long-lived and reissued only when its value changes,
// refresh_token is TTL-bound and reissued on every successful login, register
// or refresh. Refresh failures clear refresh_token; a malformed device cookie
// on refresh clears both.
type AuthHandler struct {
	logger   *zap.Logger
	sessions SessionManager
	session  config.SessionConfig
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(logger *zap.Logger, sessions SessionManager, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{
		logger:   logger.Named("auth_handler"),
		sessions: sessions,
		session:  session,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request payload", h.logger)
		return
	}
	presentedDeviceID, _ := c.Cookie(deviceIDCookie)

	result, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password, presentedDeviceID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.setSessionCookies(c, result, presentedDeviceID)
	c.JSON(http.StatusOK, result.Response)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request payload", h.logger)
		return
	}
	presentedDeviceID, _ := c.Cookie(deviceIDCookie)

	result, err := h.sessions.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName, presentedDeviceID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.setSessionCookies(c, result, presentedDeviceID)
	c.JSON(http.StatusCreated, result.Response)
}

// Refresh handles POST /auth/refresh. The device cookie is never reissued
// here: a valid refresh leaves device identity untouched.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshTokenCookie)
	deviceID, _ := c.Cookie(deviceIDCookie)

	result, err := h.sessions.Refresh(c.Request.Context(), refreshToken, deviceID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.setCookie(c, refreshTokenCookie, result.Cookies.RefreshToken, int(h.session.RefreshTokenTTL.Seconds()))
	c.JSON(http.StatusOK, result.Response)
}

// Logout handles POST /auth/logout. Always succeeds and always clears the
// refresh cookie, whether or not anything was revoked.
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshTokenCookie)
	deviceID, _ := c.Cookie(deviceIDCookie)

	if err := h.sessions.Logout(c.Request.Context(), refreshToken, deviceID); err != nil {
		h.logger.Error("logout failed unexpectedly", zap.Error(err))
	}

	h.clearCookie(c, refreshTokenCookie)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidDeviceID):
		h.clearCookie(c, refreshTokenCookie)
		h.clearCookie(c, deviceIDCookie)
		RespondWithError(c, http.StatusUnauthorized, domainErrors.CodeInvalidSession, "Invalid session", h.logger)
	case errors.Is(err, domainErrors.ErrUnauthorized):
		RespondWithError(c, http.StatusUnauthorized, domainErrors.CodeUnauthorized, "Invalid credentials", h.logger)
	case errors.Is(err, domainErrors.ErrEmailAlreadyTaken):
		RespondWithError(c, http.StatusConflict, domainErrors.CodeEmailAlreadyTaken, "The email is already taken", h.logger)
	case errors.Is(err, domainErrors.ErrRateLimitExceeded):
		RespondWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts, try again later", h.logger)
	default:
		if se, ok := domainErrors.AsSessionError(err); ok {
			h.logger.Warn("invalid session", zap.String("reason", se.Reason), zap.String("path", c.Request.URL.Path))
			h.clearCookie(c, refreshTokenCookie)
			c.JSON(http.StatusUnauthorized, ResponseError{Code: se.Code, Message: "Invalid session"})
			return
		}
		RespondWithError(c, http.StatusInternalServerError, "INTERNAL", "Internal server error", h.logger)
	}
}

// setSessionCookies reissues the refresh cookie and, only when its value
// changed (fresh device or replaced malformed cookie), the device cookie.
func (h *AuthHandler) setSessionCookies(c *gin.Context, result *service.AuthSessionResult, presentedDeviceID string) {
	if presentedDeviceID != result.Cookies.DeviceID {
		h.setCookie(c, deviceIDCookie, result.Cookies.DeviceID, int(h.session.DeviceIDMaxAge.Seconds()))
	}
	h.setCookie(c, refreshTokenCookie, result.Cookies.RefreshToken, int(h.session.RefreshTokenTTL.Seconds()))
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.session.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.session.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
