package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/config"
	"github.com/rivon0507/courier-back/internal/domain/entity"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
	"github.com/rivon0507/courier-back/internal/service"
)

type stubSessions struct {
	result *service.AuthSessionResult
	err    error

	logoutCalled bool
}

func (s *stubSessions) Login(context.Context, string, string, string) (*service.AuthSessionResult, error) {
	return s.result, s.err
}

func (s *stubSessions) Register(context.Context, string, string, string, string) (*service.AuthSessionResult, error) {
	return s.result, s.err
}

func (s *stubSessions) Refresh(context.Context, string, string) (*service.AuthSessionResult, error) {
	return s.result, s.err
}

func (s *stubSessions) Logout(context.Context, string, string) error {
	s.logoutCalled = true
	return nil
}

func sessionResult(deviceID string) *service.AuthSessionResult {
	return &service.AuthSessionResult{
		Response: service.AuthenticationResponse{
			AccessToken: "signed-access-token",
			TokenType:   "Bearer",
			ExpiresIn:   900,
			User: entity.UserProfile{
				ID:          uuid.New(),
				Email:       "ada@example.com",
				DisplayName: "Ada",
				Role:        entity.RoleUser,
			},
		},
		Cookies: service.RefreshCookies{
			RefreshToken: "raw-refresh-secret",
			DeviceID:     deviceID,
		},
	}
}

func newAuthRouter(sessions *stubSessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(zap.NewNop(), sessions, config.SessionConfig{
		RefreshTokenTTL: 30 * 24 * time.Hour,
		DeviceIDMaxAge:  365 * 24 * time.Hour,
		SecureCookies:   true,
	})

	router := gin.New()
	router.POST("/auth/login", handler.Login)
	router.POST("/auth/register", handler.Register)
	router.POST("/auth/refresh", handler.Refresh)
	router.POST("/auth/logout", handler.Logout)
	return router
}

func doRequest(router *gin.Engine, method, path string, body []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func findCookie(t *testing.T, recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func loginBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	return body
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("sets both cookies for a fresh device", func(t *testing.T) {
		deviceID := uuid.NewString()
		router := newAuthRouter(&stubSessions{result: sessionResult(deviceID)})

		recorder := doRequest(router, http.MethodPost, "/auth/login", loginBody(t))
		require.Equal(t, http.StatusOK, recorder.Code)

		refresh := findCookie(t, recorder, "refresh_token")
		require.NotNil(t, refresh)
		assert.Equal(t, "raw-refresh-secret", refresh.Value)
		assert.True(t, refresh.HttpOnly)
		assert.True(t, refresh.Secure)
		assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), refresh.MaxAge)

		device := findCookie(t, recorder, "device_id")
		require.NotNil(t, device)
		assert.Equal(t, deviceID, device.Value)

		var body service.AuthenticationResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "signed-access-token", body.AccessToken)
		assert.Equal(t, "Bearer", body.TokenType)
	})

	t.Run("does not reissue an unchanged device cookie", func(t *testing.T) {
		deviceID := uuid.NewString()
		router := newAuthRouter(&stubSessions{result: sessionResult(deviceID)})

		recorder := doRequest(router, http.MethodPost, "/auth/login", loginBody(t),
			&http.Cookie{Name: "device_id", Value: deviceID})
		require.Equal(t, http.StatusOK, recorder.Code)

		assert.Nil(t, findCookie(t, recorder, "device_id"))
		assert.NotNil(t, findCookie(t, recorder, "refresh_token"))
	})

	t.Run("replaces a malformed device cookie", func(t *testing.T) {
		deviceID := uuid.NewString()
		router := newAuthRouter(&stubSessions{result: sessionResult(deviceID)})

		recorder := doRequest(router, http.MethodPost, "/auth/login", loginBody(t),
			&http.Cookie{Name: "device_id", Value: "garbage"})
		require.Equal(t, http.StatusOK, recorder.Code)

		device := findCookie(t, recorder, "device_id")
		require.NotNil(t, device)
		assert.Equal(t, deviceID, device.Value)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{err: domainErrors.ErrUnauthorized})

		recorder := doRequest(router, http.MethodPost, "/auth/login", loginBody(t))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)

		var body ResponseError
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, domainErrors.CodeUnauthorized, body.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{err: domainErrors.ErrRateLimitExceeded})

		recorder := doRequest(router, http.MethodPost, "/auth/login", loginBody(t))
		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{})

		recorder := doRequest(router, http.MethodPost, "/auth/login", []byte(`{"email":"not-an-email"}`))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	body, err := json.Marshal(RegisterRequest{
		Email:       "new@example.com",
		Password:    "pw",
		DisplayName: "Newcomer",
	})
	require.NoError(t, err)

	t.Run("created", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{result: sessionResult(uuid.NewString())})

		recorder := doRequest(router, http.MethodPost, "/auth/register", body)
		assert.Equal(t, http.StatusCreated, recorder.Code)
		assert.NotNil(t, findCookie(t, recorder, "refresh_token"))
	})

	t.Run("email collision", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{err: domainErrors.ErrEmailAlreadyTaken})

		recorder := doRequest(router, http.MethodPost, "/auth/register", body)
		require.Equal(t, http.StatusConflict, recorder.Code)

		var respBody ResponseError
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &respBody))
		assert.Equal(t, domainErrors.CodeEmailAlreadyTaken, respBody.Code)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("reissues only the refresh cookie", func(t *testing.T) {
		deviceID := uuid.NewString()
		router := newAuthRouter(&stubSessions{result: sessionResult(deviceID)})

		recorder := doRequest(router, http.MethodPost, "/auth/refresh", nil,
			&http.Cookie{Name: "refresh_token", Value: "old-secret"},
			&http.Cookie{Name: "device_id", Value: deviceID})
		require.Equal(t, http.StatusOK, recorder.Code)

		refresh := findCookie(t, recorder, "refresh_token")
		require.NotNil(t, refresh)
		assert.Equal(t, "raw-refresh-secret", refresh.Value)
		assert.Nil(t, findCookie(t, recorder, "device_id"))
	})

	t.Run("invalid session clears the refresh cookie", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{err: domainErrors.NewSessionError("token not found")})

		recorder := doRequest(router, http.MethodPost, "/auth/refresh", nil,
			&http.Cookie{Name: "refresh_token", Value: "stale"},
			&http.Cookie{Name: "device_id", Value: uuid.NewString()})
		require.Equal(t, http.StatusUnauthorized, recorder.Code)

		var body ResponseError
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, domainErrors.CodeInvalidSession, body.Code)

		refresh := findCookie(t, recorder, "refresh_token")
		require.NotNil(t, refresh)
		assert.Empty(t, refresh.Value)
		assert.Equal(t, -1, refresh.MaxAge)
		assert.Nil(t, findCookie(t, recorder, "device_id"))
	})

	t.Run("reuse detection surfaces its own code", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{err: domainErrors.NewReuseDetectedError()})

		recorder := doRequest(router, http.MethodPost, "/auth/refresh", nil,
			&http.Cookie{Name: "refresh_token", Value: "replayed"},
			&http.Cookie{Name: "device_id", Value: uuid.NewString()})
		require.Equal(t, http.StatusUnauthorized, recorder.Code)

		var body ResponseError
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, domainErrors.CodeRefreshTokenReused, body.Code)
	})

	t.Run("malformed device cookie clears both cookies", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{err: domainErrors.ErrInvalidDeviceID})

		recorder := doRequest(router, http.MethodPost, "/auth/refresh", nil,
			&http.Cookie{Name: "refresh_token", Value: "secret"},
			&http.Cookie{Name: "device_id", Value: "garbage"})
		require.Equal(t, http.StatusUnauthorized, recorder.Code)

		refresh := findCookie(t, recorder, "refresh_token")
		require.NotNil(t, refresh)
		assert.Equal(t, -1, refresh.MaxAge)

		device := findCookie(t, recorder, "device_id")
		require.NotNil(t, device)
		assert.Equal(t, -1, device.MaxAge)

		var body ResponseError
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, domainErrors.CodeInvalidSession, body.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("always 204 and clears the refresh cookie", func(t *testing.T) {
		sessions := &stubSessions{}
		router := newAuthRouter(sessions)

		recorder := doRequest(router, http.MethodPost, "/auth/logout", nil,
			&http.Cookie{Name: "refresh_token", Value: "secret"},
			&http.Cookie{Name: "device_id", Value: uuid.NewString()})
		require.Equal(t, http.StatusNoContent, recorder.Code)
		assert.True(t, sessions.logoutCalled)

		refresh := findCookie(t, recorder, "refresh_token")
		require.NotNil(t, refresh)
		assert.Equal(t, -1, refresh.MaxAge)
	})

	t.Run("204 even without cookies", func(t *testing.T) {
		router := newAuthRouter(&stubSessions{})

		recorder := doRequest(router, http.MethodPost, "/auth/logout", nil)
		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.NotNil(t, findCookie(t, recorder, "refresh_token"))
	})
}
