package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_RequiredAndDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "sqlite:///tmp/quitcoach-test.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("GRPC_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("SIGNUP_REQUIRES_CHECKOUT", " TRUE ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.False(t, cfg.StripeEnabled())
	assert.True(t, cfg.RequiresCheckout())
}

func TestLoadConfig_MissingJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "sqlite:///tmp/quitcoach-test.db")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT Secret")
}

func TestTrustedProxyPrefixes(t *testing.T) {
	cfg := &Config{TrustedProxies: " 10.0.0.0/8, 192.0.2.10 ,,::1"}
	got, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "192.0.2.10/32", got[1].String())
	assert.Equal(t, "::1/128", got[2].String())

	none, err := (&Config{}).TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoadConfig_InvalidTrustedProxy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "sqlite:///tmp/quitcoach-test.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-ip")
}
