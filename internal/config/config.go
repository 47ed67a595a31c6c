// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Addr is the address the HTTP server listens on (e.g. :8080).
	Addr string `mapstructure:"SMSAUTH_ADDR"`
	// DBPath is the path to the SQLite database file.
	DBPath string `mapstructure:"SMSAUTH_DB_PATH"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"SMSAUTH_LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	// In production an SMS API key is required: the console OTP fallback
	// must never run there.
	Env string `mapstructure:"APP_ENV"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SMSAPIKey is the API key for the SMS gateway. When empty, OTP codes
	// are logged to the console instead of sent.
	SMSAPIKey string `mapstructure:"SMS_API_KEY"`
	// SMSSender is the optional sender ID for the SMS gateway.
	SMSSender string `mapstructure:"SMS_SENDER"`
	// SMSBaseURL overrides the SMS gateway API URL.
	SMSBaseURL string `mapstructure:"SMS_BASE_URL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("SMSAUTH_ADDR", ":8080")
	v.SetDefault("SMSAUTH_DB_PATH", "smsauth.db")
	v.SetDefault("SMSAUTH_LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SMS_API_KEY", "")
	v.SetDefault("SMS_SENDER", "")
	v.SetDefault("SMS_BASE_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("config: SMSAUTH_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.Env == "production" && cfg.SMSAPIKey == "" {
		return nil, errors.New("config: SMS_API_KEY is required when APP_ENV=production")
	}

	return &cfg, nil
}
