package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("COURIER_JWT_SECRET", "test-secret")
	t.Setenv("COURIER_SERVER_PORT", "9090")
	t.Setenv("COURIER_SESSION_REFRESH_TOKEN_TTL", "24h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Session.RefreshTokenTTL)

	// Untouched defaults.
	assert.Equal(t, "courier-back", cfg.JWT.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.True(t, cfg.Session.SecureCookies)
	assert.Equal(t, uint32(65536), cfg.Security.PasswordHash.Memory)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("COURIER_JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "courier",
		Password: "pw",
		DBName:   "courier",
		SSLMode:  "require",
	}
	assert.Equal(t, "postgres://courier:pw@db.internal:5432/courier?sslmode=require", cfg.DSN())
}
