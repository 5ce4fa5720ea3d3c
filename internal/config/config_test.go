package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_DUR_1", "250ms")
	if got := getEnvAsDurationOrDefault("TEST_DUR_1", time.Second); got != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %s", got)
	}

	t.Setenv("TEST_DUR_2", "soon")
	if got := getEnvAsDurationOrDefault("TEST_DUR_2", time.Second); got != time.Second {
		t.Errorf("Expected default for unparsable duration, got %s", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CS_HOST", "CS_PORT", "CS_TIMEOUT", "CS_MAX_REPLY_BYTES", "MAX_BODY_BYTES", "READ_TIMEOUT", "METRICS_PORT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8000" {
		t.Errorf("Expected port 8000, got %q", cfg.Port)
	}
	if cfg.ChatScriptAddr() != "chatscript:1024" {
		t.Errorf("Expected chatscript:1024, got %q", cfg.ChatScriptAddr())
	}
	if cfg.ChatScriptTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.ChatScriptTimeout)
	}
	if cfg.ChatScriptMaxReplyBytes != 4096 {
		t.Errorf("Expected 4096 reply cap, got %d", cfg.ChatScriptMaxReplyBytes)
	}
	if cfg.MetricsPort != "" {
		t.Errorf("Expected metrics disabled by default, got %q", cfg.MetricsPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CS_HOST", "cs.internal")
	t.Setenv("CS_PORT", "2024")
	t.Setenv("CS_TIMEOUT", "2s")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %q", cfg.Port)
	}
	if cfg.ChatScriptAddr() != "cs.internal:2024" {
		t.Errorf("Expected cs.internal:2024, got %q", cfg.ChatScriptAddr())
	}
	if cfg.ChatScriptTimeout != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %s", cfg.ChatScriptTimeout)
	}
}

func TestRegisterFlags_OverrideEnv(t *testing.T) {
	t.Setenv("CS_HOST", "from-env")

	cfg := Load()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, cfg)

	if err := fs.Parse([]string{"--cs-port", "3000", "--log-level", "debug"}); err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if cfg.ChatScriptHost != "from-env" {
		t.Errorf("Expected env value to survive when flag unset, got %q", cfg.ChatScriptHost)
	}
	if cfg.ChatScriptPort != 3000 {
		t.Errorf("Expected flag override 3000, got %d", cfg.ChatScriptPort)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v (%v)", level, err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                    "8000",
			ReadTimeout:             time.Second,
			MaxBodyBytes:            1024,
			ChatScriptHost:          "localhost",
			ChatScriptPort:          1024,
			ChatScriptTimeout:       time.Second,
			ChatScriptMaxReplyBytes: 4096,
			LogLevel:                "info",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"non-numeric port", func(c *Config) { c.Port = "http" }},
		{"port out of range", func(c *Config) { c.Port = "70000" }},
		{"empty host", func(c *Config) { c.ChatScriptHost = "" }},
		{"backend port zero", func(c *Config) { c.ChatScriptPort = 0 }},
		{"zero timeout", func(c *Config) { c.ChatScriptTimeout = 0 }},
		{"zero reply cap", func(c *Config) { c.ChatScriptMaxReplyBytes = 0 }},
		{"zero body cap", func(c *Config) { c.MaxBodyBytes = 0 }},
		{"metrics port clash", func(c *Config) { c.MetricsPort = "8000" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("baseline config should validate: %v", err)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
