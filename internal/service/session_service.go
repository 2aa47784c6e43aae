// Package service implements the session lifecycle: login, registration,
// silent refresh with token rotation and reuse detection, and logout. All
// session state lives in the refresh-token store; the service itself is
// stateless between calls and tolerates arbitrary interleaving of concurrent
// requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
	"github.com/rivon0507/courier-back/internal/domain/repository"
	domainService "github.com/rivon0507/courier-back/internal/domain/service"
	"github.com/rivon0507/courier-back/internal/events"
	"github.com/rivon0507/courier-back/internal/requestmeta"
)

// AuthenticationResponse is the body returned by login, register and refresh.
type AuthenticationResponse struct {
	AccessToken        string             `json:"accessToken"`
	TokenType          string             `json:"tokenType"`
	ExpiresIn          int64              `json:"expiresIn"`
	User               entity.UserProfile `json:"user"`
	DefaultWorkspaceID *uuid.UUID         `json:"defaultWorkspaceId,omitempty"`
}

// RefreshCookies carries the raw refresh secret and the device id destined for
// the session cookies. The raw secret exists only here; the store keeps its
// digest.
type RefreshCookies struct {
	RefreshToken string
	DeviceID     string
}

// AuthSessionResult bundles the response body with the cookie values the HTTP
// layer must set.
type AuthSessionResult struct {
	Response AuthenticationResponse
	Cookies  RefreshCookies
}

// SessionService is the session state machine. Collaborators are injected as
// interfaces; the only shared mutable resource is the token store.
type SessionService struct {
	tokens    repository.RefreshTokenRepository
	users     repository.UserRepository
	verifier  domainService.CredentialVerifier
	issuer    domainService.AccessTokenIssuer
	passwords domainService.PasswordService
	hasher    domainService.TokenHasher
	revoker   SessionRevoker
	devices   DeviceIdentity
	publisher events.Publisher
	limiter   domainService.RateLimiter

	refreshTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// SessionServiceDeps lists the collaborators of NewSessionService.
type SessionServiceDeps struct {
	Tokens    repository.RefreshTokenRepository
	Users     repository.UserRepository
	Verifier  domainService.CredentialVerifier
	Issuer    domainService.AccessTokenIssuer
	Passwords domainService.PasswordService
	Hasher    domainService.TokenHasher
	Revoker   SessionRevoker
	Publisher events.Publisher
	Limiter   domainService.RateLimiter // optional
}

// NewSessionService wires the session state machine.
func NewSessionService(deps SessionServiceDeps, refreshTTL time.Duration, logger *zap.Logger) *SessionService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SessionService{
		tokens:     deps.Tokens,
		users:      deps.Users,
		verifier:   deps.Verifier,
		issuer:     deps.Issuer,
		passwords:  deps.Passwords,
		hasher:     deps.Hasher,
		revoker:    deps.Revoker,
		publisher:  publisher,
		limiter:    deps.Limiter,
		refreshTTL: refreshTTL,
		logger:     logger.Named("session_service"),
		now:        time.Now,
	}
}

// Login authenticates the credentials and opens a fresh session family on the
// device. Any active session already bound to the device is revoked first,
// whoever it belonged to: one device, one session.
func (s *SessionService) Login(ctx context.Context, email, password, deviceCookie string) (*AuthSessionResult, error) {
	deviceID := s.devices.Ensure(deviceCookie)
	meta := requestmeta.FromContext(ctx)

	if s.limiter != nil {
		key := fmt.Sprintf("login:%s:%s", email, meta.IPAddress)
		allowed, err := s.limiter.Allow(ctx, key)
		if err == nil && !allowed {
			s.logger.Warn("login rate limit exceeded", zap.String("ip", meta.IPAddress))
			return nil, domainErrors.ErrRateLimitExceeded
		}
	}

	user, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUnauthorized) {
			s.publish(ctx, events.EventLoginFailed, email, events.LoginFailedPayload{
				Identifier: email,
				IPAddress:  meta.IPAddress,
				UserAgent:  meta.UserAgent,
				Timestamp:  s.now().UTC(),
			})
		}
		return nil, err
	}

	result, err := s.openSession(ctx, user, deviceID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventLoginSucceeded, user.ID.String(), events.LoginSucceededPayload{
		UserID:    user.ID.String(),
		DeviceID:  deviceID.String(),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Timestamp: s.now().UTC(),
	})
	return result, nil
}

// Register creates the principal with a default workspace and opens a session
// exactly the way login does. An email collision surfaces as
// ErrEmailAlreadyTaken, including against deactivated accounts.
func (s *SessionService) Register(ctx context.Context, email, password, displayName, deviceCookie string) (*AuthSessionResult, error) {
	deviceID := s.devices.Ensure(deviceCookie)

	passwordHash, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	user := &entity.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Role:         entity.RoleUser,
		Active:       true,
	}
	saved, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domainErrors.ErrEmailAlreadyTaken) {
			return nil, err
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	result, err := s.openSession(ctx, saved, deviceID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, saved.ID.String(), events.UserRegisteredPayload{
		UserID:    saved.ID.String(),
		Email:     saved.Email,
		Timestamp: s.now().UTC(),
	})
	return result, nil
}

// Refresh exchanges a valid refresh token for a new access token and a rotated
// refresh token of the same family. Presenting an already-rotated token, or
// losing a rotation race, revokes the entire family and fails with
// REFRESH_TOKEN_REUSED.
func (s *SessionService) Refresh(ctx context.Context, refreshCookie, deviceCookie string) (*AuthSessionResult, error) {
	if deviceCookie == "" {
		return nil, domainErrors.NewSessionError("device_id is null")
	}
	deviceID, err := s.devices.ParseStrict(deviceCookie)
	if err != nil {
		return nil, err
	}
	if refreshCookie == "" {
		return nil, domainErrors.NewSessionError("refresh_token is null or blank")
	}

	current, err := s.tokens.FindByTokenHash(ctx, s.hasher.Hash(refreshCookie))
	if err != nil {
		if errors.Is(err, domainErrors.ErrTokenNotFound) {
			return nil, domainErrors.NewSessionError("token not found")
		}
		s.logger.Error("failed to look up refresh token", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	if current.DeviceID != deviceID {
		return nil, domainErrors.NewSessionError("device mismatch")
	}

	now := s.now()
	if current.IsExpired(now) {
		return nil, domainErrors.NewSessionError("expired")
	}

	if current.RevokedAt != nil {
		if current.WasRotated() || current.WasReused() {
			return nil, s.failAsReused(ctx, current, now)
		}
		return nil, domainErrors.NewSessionError("revoked")
	}

	rawSecret := uuid.NewString()
	replacement := &entity.RefreshToken{
		ID:        uuid.New(),
		UserID:    current.UserID,
		TokenHash: s.hasher.Hash(rawSecret),
		FamilyID:  current.FamilyID,
		DeviceID:  current.DeviceID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	won, err := s.tokens.Rotate(ctx, current.ID, replacement, now)
	if err != nil {
		s.logger.Error("failed to rotate refresh token", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}
	if !won {
		// A concurrent refresh rotated this token first. Indistinguishable
		// from an attacker replaying it, so fail closed.
		return nil, s.failAsReused(ctx, current, now)
	}

	user, err := s.users.FindByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			return nil, domainErrors.NewSessionError("user not found")
		}
		s.logger.Error("failed to resolve refresh token owner", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	accessToken, err := s.issuer.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue access token", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	return s.buildResult(user, accessToken, rawSecret, deviceID), nil
}

// Logout revokes the presented token. Best effort by contract: any
// irregularity (missing or malformed cookies, unknown token, mismatched
// device, expired or already revoked record) is a silent no-op, and repeated
// calls succeed.
func (s *SessionService) Logout(ctx context.Context, refreshCookie, deviceCookie string) error {
	if refreshCookie == "" || deviceCookie == "" {
		return nil
	}
	deviceID, err := s.devices.ParseStrict(deviceCookie)
	if err != nil {
		return nil
	}

	token, err := s.tokens.FindByTokenHash(ctx, s.hasher.Hash(refreshCookie))
	if err != nil {
		if !errors.Is(err, domainErrors.ErrTokenNotFound) {
			s.logger.Error("failed to look up refresh token on logout", zap.Error(err))
		}
		return nil
	}
	if token.DeviceID != deviceID {
		return nil
	}

	now := s.now()
	if token.IsExpired(now) || token.RevokedAt != nil {
		return nil
	}

	if err := s.tokens.RevokeAsLogout(ctx, token.ID, now); err != nil {
		s.logger.Error("failed to revoke refresh token on logout", zap.Error(err))
		return nil
	}

	s.publish(ctx, events.EventLogout, token.UserID.String(), events.LogoutPayload{
		UserID:    token.UserID.String(),
		DeviceID:  deviceID.String(),
		Timestamp: now.UTC(),
	})
	return nil
}

// failAsReused triggers the family-wide revocation and returns the
// REFRESH_TOKEN_REUSED failure. The revocation commits independently of this
// request's outcome.
func (s *SessionService) failAsReused(ctx context.Context, token *entity.RefreshToken, now time.Time) error {
	if err := s.revoker.RevokeFamilyAsReused(ctx, token.FamilyID, now); err != nil {
		// The family could not be revoked; still fail the request closed.
		s.logger.Error("reuse detected but family revocation failed",
			zap.Error(err), zap.String("family_id", token.FamilyID.String()))
	}

	s.publish(ctx, events.EventReuseDetected, token.UserID.String(), events.ReuseDetectedPayload{
		UserID:    token.UserID.String(),
		FamilyID:  token.FamilyID.String(),
		DeviceID:  token.DeviceID.String(),
		Timestamp: now.UTC(),
	})
	return domainErrors.NewReuseDetectedError()
}

// openSession mints the access token, enforces the one-session-per-device
// partition and issues a refresh token under a brand-new family.
func (s *SessionService) openSession(ctx context.Context, user *entity.User, deviceID uuid.UUID) (*AuthSessionResult, error) {
	accessToken, err := s.issuer.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue access token", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	now := s.now()
	if err := s.tokens.RevokeActiveByDevice(ctx, deviceID, now, entity.RevokeReasonLogout); err != nil {
		s.logger.Error("failed to revoke previous device session", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	rawSecret := uuid.NewString()
	record := &entity.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: s.hasher.Hash(rawSecret),
		FamilyID:  uuid.New(),
		DeviceID:  deviceID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		s.logger.Error("failed to store refresh token", zap.Error(err))
		return nil, domainErrors.ErrInternal
	}

	return s.buildResult(user, accessToken, rawSecret, deviceID), nil
}

func (s *SessionService) buildResult(user *entity.User, accessToken domainService.AccessToken, rawSecret string, deviceID uuid.UUID) *AuthSessionResult {
	expiresIn := int64(accessToken.ExpiresAt.Sub(s.now()).Seconds())
	return &AuthSessionResult{
		Response: AuthenticationResponse{
			AccessToken:        accessToken.Value,
			TokenType:          "Bearer",
			ExpiresIn:          expiresIn,
			User:               user.ToProfile(),
			DefaultWorkspaceID: user.DefaultWorkspaceID,
		},
		Cookies: RefreshCookies{
			RefreshToken: rawSecret,
			DeviceID:     deviceID.String(),
		},
	}
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, subject string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, subject, payload); err != nil {
		s.logger.Error("failed to publish session event",
			zap.Error(err), zap.String("event_type", string(eventType)))
	}
}
