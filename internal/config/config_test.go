package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_jwt_secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, time.Hour, cfg.RegisterTokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.LoginTokenTTL)
	assert.Equal(t, 8, cfg.FeedConcurrency)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_jwt_secret")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("FEED_CONCURRENCY", "3")
	t.Setenv("FEED_LOOKUP_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 3, cfg.FeedConcurrency)
	assert.Equal(t, 750*time.Millisecond, cfg.FeedLookupTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AppEnv:            "development",
			DBDriver:          "memory",
			JWTSecret:         "secret",
			BcryptCost:        10,
			FeedConcurrency:   1,
			FeedLookupTimeout: time.Second,
			MaxUploadMB:       1,
		}
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"short production secret", func(c *Config) { c.AppEnv = "production" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DBDriver = "postgres" }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }},
		{"zero concurrency", func(c *Config) { c.FeedConcurrency = 0 }},
		{"zero timeout", func(c *Config) { c.FeedLookupTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
