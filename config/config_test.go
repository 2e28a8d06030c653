package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.RequireConsent)
	assert.Equal(t, 0, cfg.MaxUsers)
	assert.False(t, cfg.AvatarStorageEnabled())
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, 1.0, cfg.OTelSamplingRate)
}

func TestFromViperEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://app@localhost/app")
	t.Setenv("MAX_USERS", "25")
	t.Setenv("ADMIN_PHONE", "+10000000000")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("REGISTRATION_REQUIRE_CONSENT", "false")
	t.Setenv("AVATAR_BUCKET", "avatars")
	t.Setenv("AVATAR_BASE_URL", "https://cdn.example.com")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgres://app@localhost/app", cfg.DatabaseURL)
	assert.Equal(t, 25, cfg.MaxUsers)
	assert.Equal(t, "+10000000000", cfg.AdminPhone)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.RequireConsent)
	assert.True(t, cfg.AvatarStorageEnabled())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() Config {
		return Config{
			Env:            "development",
			Port:           "8080",
			JWTSecret:      defaultJWTSecret,
			SessionTTL:     time.Hour,
			RequestTimeout: time.Second,
			BcryptCost:     10,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Valid", func(c *Config) {}, false},
		{"Missing Port", func(c *Config) { c.Port = "" }, true},
		{"Missing Secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Zero Timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"Negative Cap", func(c *Config) { c.MaxUsers = -1 }, true},
		{"Bcrypt Cost Too Low", func(c *Config) { c.BcryptCost = 2 }, true},
		{"Sampling Rate Above One", func(c *Config) { c.OTelSamplingRate = 1.5 }, true},
		{"Production Default Secret", func(c *Config) { c.Env = "production" }, true},
		{"Production Short Secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"Production Strong Secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
