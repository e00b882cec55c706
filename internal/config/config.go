// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
// The engine thresholds (quotas, windows, moderation cutoffs) are deliberately
// part of the configuration surface rather than package constants.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	// Thread limits
	MaxThreadDepth int `mapstructure:"MAX_THREAD_DEPTH"`
	MaxCommentLen  int `mapstructure:"MAX_COMMENT_LENGTH"`

	// Edit/delete window for non-moderators, in minutes.
	EditWindowMinutes int `mapstructure:"EDIT_WINDOW_MINUTES"`

	// Mentions
	MaxMentions int `mapstructure:"MAX_MENTIONS"`

	// Moderation thresholds
	TrustedReputation    int     `mapstructure:"MOD_TRUSTED_REPUTATION"`
	TrustedCommentVolume int     `mapstructure:"MOD_TRUSTED_COMMENT_VOLUME"`
	VerifiedReputation   int     `mapstructure:"MOD_VERIFIED_REPUTATION"`
	LinkReviewReputation int     `mapstructure:"MOD_LINK_REVIEW_REPUTATION"`
	SpamFlagThreshold    float64 `mapstructure:"MOD_SPAM_FLAG_THRESHOLD"`
	ProfanityThreshold   float64 `mapstructure:"MOD_PROFANITY_THRESHOLD"`
	NewUserAgeDays       int     `mapstructure:"MOD_NEW_USER_AGE_DAYS"`
	NewUserCommentFloor  int     `mapstructure:"MOD_NEW_USER_COMMENT_FLOOR"`

	// Rate limiting
	RateWindowSeconds        int `mapstructure:"RATE_WINDOW_SECONDS"`
	TierCacheTTLSeconds      int `mapstructure:"TIER_CACHE_TTL_SECONDS"`
	BlockedRetryAfterSeconds int `mapstructure:"BLOCKED_RETRY_AFTER_SECONDS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config.
	// The config file may legitimately not exist yet.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8460")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "colloquy")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("APP_ENV", "development")

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	viper.SetDefault("MAX_THREAD_DEPTH", 4)
	viper.SetDefault("MAX_COMMENT_LENGTH", 5000)
	viper.SetDefault("EDIT_WINDOW_MINUTES", 15)
	viper.SetDefault("MAX_MENTIONS", 5)

	viper.SetDefault("MOD_TRUSTED_REPUTATION", 100)
	viper.SetDefault("MOD_TRUSTED_COMMENT_VOLUME", 20)
	viper.SetDefault("MOD_VERIFIED_REPUTATION", 25)
	viper.SetDefault("MOD_LINK_REVIEW_REPUTATION", 50)
	viper.SetDefault("MOD_SPAM_FLAG_THRESHOLD", 0.6)
	viper.SetDefault("MOD_PROFANITY_THRESHOLD", 0.3)
	viper.SetDefault("MOD_NEW_USER_AGE_DAYS", 7)
	viper.SetDefault("MOD_NEW_USER_COMMENT_FLOOR", 5)

	viper.SetDefault("RATE_WINDOW_SECONDS", 60)
	viper.SetDefault("TIER_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("BLOCKED_RETRY_AFTER_SECONDS", 3600)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MaxThreadDepth < 1 {
		return errors.New("MAX_THREAD_DEPTH must be at least 1")
	}
	if c.RateWindowSeconds < 1 {
		return errors.New("RATE_WINDOW_SECONDS must be at least 1")
	}
	if c.MaxMentions < 0 {
		return errors.New("MAX_MENTIONS cannot be negative")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else {
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}

// EditWindow returns the configured edit window as a duration.
func (c *Config) EditWindow() time.Duration {
	return time.Duration(c.EditWindowMinutes) * time.Minute
}

// RateWindow returns the sliding-window length for rate limiting.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}

// TierCacheTTL returns how long resolved rate-limit tiers may be cached.
func (c *Config) TierCacheTTL() time.Duration {
	return time.Duration(c.TierCacheTTLSeconds) * time.Second
}
