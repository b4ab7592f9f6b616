package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8087" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8087")
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("GeminiModel = %q, want gemini-2.5-flash", cfg.GeminiModel)
	}
	if cfg.BrainMode != "auto" {
		t.Fatalf("BrainMode = %q, want auto", cfg.BrainMode)
	}
	if cfg.ReminderPattern != "keyword" {
		t.Fatalf("ReminderPattern = %q, want keyword", cfg.ReminderPattern)
	}
	if cfg.ReminderPollInterval != 30*time.Second {
		t.Fatalf("ReminderPollInterval = %v, want 30s", cfg.ReminderPollInterval)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty default (no baked-in key)", cfg.GeminiAPIKey)
	}
	if cfg.BackendURL != "" {
		t.Fatalf("BackendURL = %q, want empty default", cfg.BackendURL)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("BACKEND_URL", "http://localhost:8000")
	t.Setenv("REMINDER_PATTERN", "phrase")
	t.Setenv("APP_TURN_TIMEOUT", "20s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q, want :9191", cfg.BindAddr)
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Fatalf("BackendURL = %q, want explicit value", cfg.BackendURL)
	}
	if cfg.ReminderPattern != "phrase" {
		t.Fatalf("ReminderPattern = %q, want phrase", cfg.ReminderPattern)
	}
	if cfg.TurnTimeout != 20*time.Second {
		t.Fatalf("TurnTimeout = %v, want 20s", cfg.TurnTimeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad brain mode", "BRAIN_MODE", "openai"},
		{"bad reminder pattern", "REMINDER_PATTERN", "nlp"},
		{"turn timeout too low", "APP_TURN_TIMEOUT", "1s"},
		{"poll interval too low", "REMINDER_POLL_INTERVAL", "100ms"},
		{"bad duration", "APP_SHUTDOWN_TIMEOUT", "soon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_TURN_TIMEOUT",
		"APP_USER_ID",
		"REMINDERD_BIND_ADDR",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"GEMINI_SYSTEM_INSTRUCTION",
		"BRAIN_MODE",
		"BACKEND_URL",
		"NOTIFICATION_TOKEN",
		"REMINDER_PATTERN",
		"REMINDER_POLL_INTERVAL",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
