package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rivon0507/courier-back/internal/domain/entity"
	"github.com/rivon0507/courier-back/internal/domain/service"
)

// AccessTokenClaims are the claims embedded in issued access tokens. Subject is
// the user's email; UserID carries the stable identifier used by protected
// endpoints.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Scope  string   `json:"scope"`
	Roles  []string `json:"roles"`
	Name   string   `json:"name"`
	UserID string   `json:"userId"`
}

// JWTService issues and parses HS256 access tokens.
type JWTService struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTService creates the production AccessTokenIssuer.
func NewJWTService(secret string, issuer string, accessTTL time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTService{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// Issue mints a signed access token for the user.
func (s *JWTService) Issue(user *entity.User) (service.AccessToken, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	role := string(user.Role)
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope:  "ROLE_" + role,
		Roles:  []string{role},
		Name:   user.DisplayName,
		UserID: user.ID.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return service.AccessToken{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return service.AccessToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse validates a presented access token and returns its claims.
func (s *JWTService) Parse(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid access token")
	}
	return claims, nil
}

var _ service.AccessTokenIssuer = (*JWTService)(nil)
