package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rohanthewiz/serr"
)

// ============================================================================
// Application Configuration
//
// All settings come from environment variables. A .env file is loaded first
// when present so local development does not need exported variables.
// ============================================================================

const (
	defaultAddress    = ":8000"
	defaultAPITimeout = 15 * time.Second
	defaultLogLevel   = "info"

	// MinSecretLength is the minimum length of the barn API signing secret
	MinSecretLength = 32
)

// Config holds everything the web application needs at startup.
type Config struct {
	Address        string        // Listen address of the web UI (GALPONES_ADDRESS)
	BarnAPIURL     string        // Base URL of the remote barn API (GALPONES_BARN_API_URL)
	BarnAPITimeout time.Duration // Per-request timeout for the barn API (GALPONES_BARN_API_TIMEOUT)
	BarnAPISecret  string        // HS256 secret for service tokens, optional (GALPONES_BARN_API_SECRET)
	LogLevel       string        // logger level: debug, info, warn, error (GALPONES_LOG_LEVEL)
}

// Load reads configuration from the environment, optionally loading envFile
// first. An empty envFile means ".env" in the working directory; a missing
// file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, serr.Wrap(err, "failed loading env file", "file", envFile)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Address:        getenvWithDefault("GALPONES_ADDRESS", defaultAddress),
		BarnAPIURL:     strings.TrimSuffix(os.Getenv("GALPONES_BARN_API_URL"), "/"),
		BarnAPITimeout: defaultAPITimeout,
		BarnAPISecret:  os.Getenv("GALPONES_BARN_API_SECRET"),
		LogLevel:       strings.ToLower(getenvWithDefault("GALPONES_LOG_LEVEL", defaultLogLevel)),
	}

	if timeoutStr := os.Getenv("GALPONES_BARN_API_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, serr.Wrap(err, "invalid GALPONES_BARN_API_TIMEOUT value, expected duration like '15s'")
		}
		cfg.BarnAPITimeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings that would only surface later as
// confusing request errors.
func (c *Config) Validate() error {
	if c == nil {
		return serr.New("config is nil")
	}
	if c.Address == "" {
		return serr.New("GALPONES_ADDRESS must not be empty")
	}
	if c.BarnAPIURL == "" {
		return serr.New("GALPONES_BARN_API_URL is required")
	}
	if !strings.HasPrefix(c.BarnAPIURL, "http://") && !strings.HasPrefix(c.BarnAPIURL, "https://") {
		return serr.New("GALPONES_BARN_API_URL must be an http(s) URL")
	}
	if c.BarnAPITimeout < time.Second {
		return serr.New("GALPONES_BARN_API_TIMEOUT must be at least 1s")
	}
	if c.BarnAPISecret != "" && len(c.BarnAPISecret) < MinSecretLength {
		return serr.New("GALPONES_BARN_API_SECRET must be at least 32 characters")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return serr.New("GALPONES_LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
