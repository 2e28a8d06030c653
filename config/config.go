package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds every runtime setting. Values come from the process
// environment, optionally seeded from a .env file.
type Config struct {
	Env            string        `mapstructure:"APP_ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	// AdminPhone names the bootstrap superuser. Registering with this phone
	// yields an admin account and bypasses the registration cap.
	AdminPhone     string `mapstructure:"ADMIN_PHONE"`
	MaxUsers       int    `mapstructure:"MAX_USERS"`
	RequireConsent bool   `mapstructure:"REGISTRATION_REQUIRE_CONSENT"`
	BcryptCost     int    `mapstructure:"BCRYPT_COST"`

	AvatarBucket  string `mapstructure:"AVATAR_BUCKET"`
	AvatarRegion  string `mapstructure:"AVATAR_REGION"`
	AvatarBaseURL string `mapstructure:"AVATAR_BASE_URL"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	OTelEnabled      bool    `mapstructure:"OTEL_ENABLED"`
	OTLPEndpoint     string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplingRate float64 `mapstructure:"OTEL_SAMPLING_RATE"`
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromViper(viper.New())
}

// FromViper decodes a Config from v after registering defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("ADMIN_PHONE", "")
	v.SetDefault("MAX_USERS", 0)
	v.SetDefault("REGISTRATION_REQUIRE_CONSENT", true)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("AVATAR_BUCKET", "")
	v.SetDefault("AVATAR_REGION", "us-east-1")
	v.SetDefault("AVATAR_BASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "server.log")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_SAMPLING_RATE", 1.0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks required values. A missing DATABASE_URL is not fatal:
// every request is answered with a configuration error instead.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.MaxUsers < 0 {
		return errors.New("MAX_USERS must not be negative")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("BCRYPT_COST must be between 4 and 31")
	}
	if c.OTelSamplingRate < 0 || c.OTelSamplingRate > 1 {
		return errors.New("OTEL_SAMPLING_RATE must be between 0 and 1")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AvatarStorageEnabled reports whether avatar uploads have a bucket to go to.
func (c *Config) AvatarStorageEnabled() bool {
	return c.AvatarBucket != "" && c.AvatarBaseURL != ""
}
