package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "storefront", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "v1", cfg.App.APIVersion)
		assert.Equal(t, "http://localhost:8081", cfg.Backend.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, "demo", cfg.Auth.DefaultMode)
		assert.True(t, cfg.Auth.DemoEnabled)
		assert.False(t, cfg.OIDC.Enabled())
		assert.Equal(t, []string{"openid", "profile", "email"}, cfg.OIDC.Scopes)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 0.08, cfg.Pricing.TaxRate)
		assert.Equal(t, 9.99, cfg.Pricing.ShippingFee)
		assert.Equal(t, 100.0, cfg.Pricing.FreeShippingThreshold)
		assert.Equal(t, "storefront_session", cfg.Session.CookieName)
		assert.NotEmpty(t, cfg.Session.Secret)
	})

	t.Run("loads profiling settings", func(t *testing.T) {
		t.Setenv("STOREFRONT_TELEMETRY_PROFILING_ENABLED", "true")
		t.Setenv("STOREFRONT_TELEMETRY_PROFILING_SERVER_ADDRESS", "http://pyroscope:4040")
		t.Setenv("STOREFRONT_TELEMETRY_PROFILING_SPAN_PROFILES", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Profiling.Enabled)
		assert.True(t, cfg.Telemetry.Profiling.SpanProfiles)
		assert.Equal(t, "http://pyroscope:4040", cfg.Telemetry.Profiling.ServerAddress)
		assert.Equal(t, "storefront", cfg.Telemetry.Profiling.ApplicationName)
	})

	t.Run("loads values from environment variables with STOREFRONT prefix", func(t *testing.T) {
		t.Setenv("STOREFRONT_APP_PORT", "9000")
		t.Setenv("STOREFRONT_BACKEND_BASE_URL", "https://api.example.com/")
		t.Setenv("STOREFRONT_OIDC_ISSUER", "https://idp.example.com")
		t.Setenv("STOREFRONT_OIDC_CLIENT_ID", "client-1")
		t.Setenv("STOREFRONT_AUTH_DEFAULT_MODE", "oidc")
		t.Setenv("STOREFRONT_DATABASE_DRIVER", "postgres")
		t.Setenv("STOREFRONT_PRICING_TAX_RATE", "0.15")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "https://api.example.com/", cfg.Backend.BaseURL)
		assert.True(t, cfg.OIDC.Enabled())
		assert.Equal(t, "oidc", cfg.Auth.DefaultMode)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, 0.15, cfg.Pricing.TaxRate)
		assert.Equal(t, "http://localhost:9000/api/v1/auth/oidc/callback", cfg.OIDC.RedirectURL)
	})

	t.Run("rejects oidc default mode without oidc settings", func(t *testing.T) {
		t.Setenv("STOREFRONT_AUTH_DEFAULT_MODE", "oidc")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oidc.issuer")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		t.Setenv("STOREFRONT_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects non-http backend url", func(t *testing.T) {
		t.Setenv("STOREFRONT_BACKEND_BASE_URL", "ftp://files.example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend.base_url")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("STOREFRONT_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("STOREFRONT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("production requires a strong session secret", func(t *testing.T) {
		t.Setenv("STOREFRONT_APP_ENV", "production")
		t.Setenv("STOREFRONT_SESSION_SECRET", "short")
		t.Setenv("STOREFRONT_SESSION_COOKIE_SECURE", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("production requires secure cookies", func(t *testing.T) {
		t.Setenv("STOREFRONT_APP_ENV", "production")
		t.Setenv("STOREFRONT_SESSION_SECRET", "0123456789abcdef0123456789abcdef")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cookie_secure")
	})

	t.Run("same_site none requires secure cookie", func(t *testing.T) {
		t.Setenv("STOREFRONT_SESSION_SAME_SITE", "none")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same_site=none")
	})

	t.Run("strict cookies break the OIDC callback", func(t *testing.T) {
		t.Setenv("STOREFRONT_SESSION_SAME_SITE", "strict")
		t.Setenv("STOREFRONT_OIDC_ISSUER", "https://idp.example.com")
		t.Setenv("STOREFRONT_OIDC_CLIENT_ID", "storefront")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same_site=strict")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss word", DBName: "storefront", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/storefront?sslmode=require", d.DSN())
}
