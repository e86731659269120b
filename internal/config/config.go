// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	ChatWSURL           string
	UserWSURL           string
	DBPath              string
	Language            string
	QueryTimeout        time.Duration
	ProfileFetchTimeout time.Duration
	FeedbackTimeout     time.Duration
	Port                string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ChatWSURL:           getEnv("CHAT_WS_URL", "ws://localhost:8080/ws/chat"),
		UserWSURL:           getEnv("USER_WS_URL", "ws://localhost:8080/ws/user"),
		DBPath:              getEnv("DB_PATH", "./data/assistant.db"),
		Language:            strings.ToLower(getEnv("LANGUAGE", "english")),
		QueryTimeout:        getEnvDuration("QUERY_TIMEOUT", 60*time.Second),
		ProfileFetchTimeout: getEnvDuration("PROFILE_FETCH_TIMEOUT", 3*time.Second),
		FeedbackTimeout:     getEnvDuration("FEEDBACK_TIMEOUT", 5*time.Second),
		Port:                getEnv("PORT", "8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.ChatWSURL == "" {
		return fmt.Errorf("CHAT_WS_URL cannot be empty")
	}
	if c.UserWSURL == "" {
		return fmt.Errorf("USER_WS_URL cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be > 0")
	}
	if c.ProfileFetchTimeout <= 0 {
		return fmt.Errorf("PROFILE_FETCH_TIMEOUT must be > 0")
	}
	if c.FeedbackTimeout <= 0 {
		return fmt.Errorf("FEEDBACK_TIMEOUT must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
