package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the server reads at startup.
type Config struct {
	AppPort string
	AppEnv  string

	DBDriver    string // memory | sqlite | postgres
	DatabaseDSN string

	JWTSecret        string
	BcryptCost       int
	RegisterTokenTTL time.Duration
	LoginTokenTTL    time.Duration

	RedisURL         string
	UserInfoCacheTTL time.Duration

	RabbitMQURL string

	FeedConcurrency   int
	FeedLookupTimeout time.Duration

	MaxUploadMB        int
	RateLimitPerMinute int
	MetricsEnabled     bool

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load reads an optional .env file and then environment variables, falling
// back to the defaults below.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:            v.GetString("APP_PORT"),
		AppEnv:             strings.ToLower(v.GetString("APP_ENV")),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		BcryptCost:         v.GetInt("BCRYPT_COST"),
		RegisterTokenTTL:   v.GetDuration("REGISTER_TOKEN_TTL"),
		LoginTokenTTL:      v.GetDuration("LOGIN_TOKEN_TTL"),
		RedisURL:           v.GetString("REDIS_URL"),
		UserInfoCacheTTL:   v.GetDuration("USER_INFO_CACHE_TTL"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		FeedConcurrency:    v.GetInt("FEED_CONCURRENCY"),
		FeedLookupTimeout:  v.GetDuration("FEED_LOOKUP_TIMEOUT"),
		MaxUploadMB:        v.GetInt("MAX_UPLOAD_MB"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		LogPath:            v.GetString("LOG_PATH"),
		LogMaxSizeMB:       v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups:      v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays:      v.GetInt("LOG_MAX_AGE_DAYS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "socialfeed.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("REGISTER_TOKEN_TTL", time.Hour)
	v.SetDefault("LOGIN_TOKEN_TTL", 2*time.Hour)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("USER_INFO_CACHE_TTL", 5*time.Minute)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("FEED_CONCURRENCY", 8)
	v.SetDefault("FEED_LOOKUP_TIMEOUT", 2*time.Second)
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PATH", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)
}

// Validate rejects configurations the server cannot safely start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	switch c.DBDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for postgres")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.FeedConcurrency < 1 {
		return fmt.Errorf("FEED_CONCURRENCY must be positive")
	}
	if c.FeedLookupTimeout <= 0 {
		return fmt.Errorf("FEED_LOOKUP_TIMEOUT must be positive")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// MaxUploadBytes is the per-file upload ceiling.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
