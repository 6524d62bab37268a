package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func TestDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := FromViper(newViper())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "local", cfg.AuthProvider)
	assert.Equal(t, time.Second, cfg.MockSearchDelay)
	assert.Equal(t, 15*time.Minute, cfg.SearchCacheTTL)
	assert.Equal(t, 83.0, cfg.INRPerUSD)
	assert.Equal(t, 720*time.Hour, cfg.ScrapeKeyTTL)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PORT", "9000")
	t.Setenv("ONLINE_SEARCH_MOCK_DELAY", "0s")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example/ ,https://b.example")

	cfg := FromViper(newViper())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9000", cfg.Port)
	assert.Zero(t, cfg.MockSearchDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	t.Run("local provider needs a secret", func(t *testing.T) {
		cfg := &Config{AuthProvider: "local", INRPerUSD: 83}
		assert.Error(t, cfg.Validate())
	})

	t.Run("gotrue provider needs a url", func(t *testing.T) {
		cfg := &Config{AuthProvider: "gotrue", INRPerUSD: 83}
		assert.Error(t, cfg.Validate())
		cfg.GoTrueURL = "https://auth.example"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &Config{AuthProvider: "ldap", JWTSecret: "s", INRPerUSD: 83}
		assert.Error(t, cfg.Validate())
	})

	t.Run("exchange rate must be positive", func(t *testing.T) {
		cfg := &Config{AuthProvider: "local", JWTSecret: "s"}
		assert.Error(t, cfg.Validate())
	})
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{JWTSecret: "env-secret", ScrapeAPIKey: "env-key"}
	cfg.ApplySecrets(context.Background(), fakeSecrets{"storefront/JWT_SECRET": "sm-secret"})

	assert.Equal(t, "sm-secret", cfg.JWTSecret)
	assert.Equal(t, "env-key", cfg.ScrapeAPIKey)
}
