package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the gemchat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	GeminiAPIKey      string
	GeminiModel       string
	SystemInstruction string
	BrainMode         string
	TurnTimeout       time.Duration

	UserID               string
	BackendURL           string
	NotificationToken    string
	ReminderPattern      string
	ReminderPollInterval time.Duration

	// reminderd only.
	BackendBindAddr string
	DatabaseURL     string
}

// Load reads environment variables and applies safe defaults.
//
// GEMINI_API_KEY is deliberately allowed to be empty here: the server falls
// back to the mock brain, while the CLI treats a missing key as fatal.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:             envOrDefault("APP_BIND_ADDR", ":8087"),
		MetricsNamespace:     envOrDefault("APP_METRICS_NAMESPACE", "gemchat"),
		AllowAnyOrigin:       false,
		GeminiAPIKey:         envTrimmed("GEMINI_API_KEY"),
		GeminiModel:          envOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		SystemInstruction:    envTrimmed("GEMINI_SYSTEM_INSTRUCTION"),
		BrainMode:            envOrDefault("BRAIN_MODE", "auto"),
		UserID:               envTrimmed("APP_USER_ID"),
		BackendURL:           envTrimmed("BACKEND_URL"),
		BackendBindAddr:      envOrDefault("REMINDERD_BIND_ADDR", ":8090"),
		NotificationToken:    envTrimmed("NOTIFICATION_TOKEN"),
		ReminderPattern:      envOrDefault("REMINDER_PATTERN", "keyword"),
		DatabaseURL:          envTrimmed("DATABASE_URL"),
		ShutdownTimeout:      15 * time.Second,
		TurnTimeout:          90 * time.Second,
		ReminderPollInterval: 30 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TurnTimeout, err = durationFromEnv("APP_TURN_TIMEOUT", cfg.TurnTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ReminderPollInterval, err = durationFromEnv("REMINDER_POLL_INTERVAL", cfg.ReminderPollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(cfg.BrainMode) {
	case "auto", "gemini", "mock":
	default:
		return Config{}, fmt.Errorf("BRAIN_MODE must be auto, gemini or mock, got %q", cfg.BrainMode)
	}
	switch strings.ToLower(cfg.ReminderPattern) {
	case "keyword", "phrase":
	default:
		return Config{}, fmt.Errorf("REMINDER_PATTERN must be keyword or phrase, got %q", cfg.ReminderPattern)
	}
	if cfg.TurnTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_TURN_TIMEOUT must be at least 5s")
	}
	if cfg.ReminderPollInterval < time.Second {
		return Config{}, fmt.Errorf("REMINDER_POLL_INTERVAL must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
