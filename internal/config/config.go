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
	Port          string
	APIBaseURL    string
	RelayURL      string
	DBPath        string
	FrontendURL   string
	KeyTTL        time.Duration
	VoiceWSURL    string
	VoiceLang     string
	TranscriptLog TranscriptLogConfig
}

// TranscriptLogConfig controls the optional NDJSON transcript log.
type TranscriptLogConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "7525"),
		APIBaseURL:  strings.TrimRight(getEnv("API_URL", "https://aanya-backend.onrender.com"), "/"),
		RelayURL:    getEnv("RELAY_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/aanya-link.db"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		KeyTTL:      getEnvDuration("KEY_TTL", 7*24*time.Hour),
		VoiceWSURL:  getEnv("VOICE_WS_URL", ""),
		VoiceLang:   getEnv("VOICE_LANG", "en-IN"),
		TranscriptLog: TranscriptLogConfig{
			Enabled: getEnvBool("TRANSCRIPT_LOG_ENABLED", false),
			Path:    getEnv("TRANSCRIPT_LOG_PATH", "./data/logs/transcript.ndjson"),
		},
	}

	// The relay and the backend share a host unless overridden.
	if cfg.RelayURL == "" {
		cfg.RelayURL = cfg.APIBaseURL
	}
	cfg.RelayURL = strings.TrimRight(cfg.RelayURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_URL cannot be empty")
	}
	if c.RelayURL == "" {
		return fmt.Errorf("RELAY_URL cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.KeyTTL <= 0 {
		return fmt.Errorf("KEY_TTL must be > 0")
	}
	if c.TranscriptLog.Enabled && c.TranscriptLog.Path == "" {
		return fmt.Errorf("TRANSCRIPT_LOG_PATH cannot be empty when logging is enabled")
	}
	return nil
}

// VoiceEnabled returns true if a voice orchestrator endpoint is configured.
func (c *Config) VoiceEnabled() bool {
	return c.VoiceWSURL != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
