package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DevSessionSecret, cfg.Auth.SessionSecret)
	assert.Equal(t, "poolpro_session", cfg.Auth.SessionCookieName)
	assert.Equal(t, "poolpro_csrf", cfg.Auth.CsrfCookieName)
	assert.Equal(t, 7*24*60*60, cfg.Auth.SessionTTLSeconds)
	assert.Equal(t, 10, cfg.RateLimiting.Auth.Limit)
	assert.Equal(t, 5, cfg.RateLimiting.Diagnose.Limit)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("AUTH_SESSION_SECRET", "staging-secret")
	t.Setenv("RATE_LIMIT_AUTH", "25")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "staging-secret", cfg.Auth.SessionSecret)
	assert.Equal(t, 25, cfg.RateLimiting.Auth.Limit)
}

func TestLoadConfig_ProdRefusesDevSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"секрет по умолчанию", DevSessionSecret},
		{"пустой секрет", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "prod")
			t.Setenv("AUTH_SESSION_SECRET", tt.secret)

			_, err := LoadConfig("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "session_secret")
		})
	}
}

func TestLoadConfig_ProdForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("AUTH_SESSION_SECRET", "strong-production-secret")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Auth.CookieSecure)
}

func TestLoadConfig_InvalidEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}
