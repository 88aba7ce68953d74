package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "helpdesk-service", cfg.App.Name)
	assert.False(t, cfg.App.IsProduction())
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3600, cfg.Auth.AccessTokenTTLSecs)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "real-secret", cfg.Auth.JWTSecret)
}

func TestAccessTokenTTL_FallsBackToHour(t *testing.T) {
	assert.Equal(t, time.Hour, AuthConfig{}.AccessTokenTTL())
	assert.Equal(t, 2*time.Hour, AuthConfig{AccessTokenTTLSecs: 7200}.AccessTokenTTL())
}

func TestAddr(t *testing.T) {
	app := AppConfig{Host: "127.0.0.1", Port: "9000"}
	assert.Equal(t, "127.0.0.1:9000", app.Addr())
}
