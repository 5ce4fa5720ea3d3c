package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	// Server
	Port         string
	ReadTimeout  time.Duration
	MaxBodyBytes int64

	// ChatScript backend
	ChatScriptHost          string
	ChatScriptPort          int
	ChatScriptTimeout       time.Duration
	ChatScriptMaxReplyBytes int

	// Observability
	MetricsPort string
	LogLevel    string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                    getEnvOrDefault("PORT", "8000"),
		ReadTimeout:             getEnvAsDurationOrDefault("READ_TIMEOUT", 15*time.Second),
		MaxBodyBytes:            int64(getEnvAsIntOrDefault("MAX_BODY_BYTES", 1<<20)),
		ChatScriptHost:          getEnvOrDefault("CS_HOST", "chatscript"),
		ChatScriptPort:          getEnvAsIntOrDefault("CS_PORT", 1024),
		ChatScriptTimeout:       getEnvAsDurationOrDefault("CS_TIMEOUT", 5*time.Second),
		ChatScriptMaxReplyBytes: getEnvAsIntOrDefault("CS_MAX_REPLY_BYTES", 4096),
		MetricsPort:             getEnvOrDefault("METRICS_PORT", ""),
		LogLevel:                getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg
}

// RegisterFlags binds command-line overrides to cfg. Flag defaults are the
// values already loaded from the environment, so flags win over env.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Port, "port", cfg.Port, "gateway listen port")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "HTTP request read timeout")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "maximum accepted request body size")
	fs.StringVar(&cfg.ChatScriptHost, "cs-host", cfg.ChatScriptHost, "ChatScript server host")
	fs.IntVar(&cfg.ChatScriptPort, "cs-port", cfg.ChatScriptPort, "ChatScript server port")
	fs.DurationVar(&cfg.ChatScriptTimeout, "cs-timeout", cfg.ChatScriptTimeout, "ChatScript connect and read timeout")
	fs.IntVar(&cfg.ChatScriptMaxReplyBytes, "cs-max-reply-bytes", cfg.ChatScriptMaxReplyBytes, "maximum accepted ChatScript reply size")
	fs.StringVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "prometheus metrics port (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
}

func (c *Config) Validate() error {
	if err := validPort("port", c.Port); err != nil {
		return err
	}
	if c.MetricsPort != "" {
		if err := validPort("metrics port", c.MetricsPort); err != nil {
			return err
		}
		if c.MetricsPort == c.Port {
			return fmt.Errorf("metrics port must differ from port %s", c.Port)
		}
	}
	if c.ChatScriptHost == "" {
		return fmt.Errorf("chatscript host is required")
	}
	if c.ChatScriptPort < 1 || c.ChatScriptPort > 65535 {
		return fmt.Errorf("chatscript port %d out of range", c.ChatScriptPort)
	}
	if c.ChatScriptTimeout <= 0 {
		return fmt.Errorf("chatscript timeout must be positive, got %s", c.ChatScriptTimeout)
	}
	if c.ChatScriptMaxReplyBytes <= 0 {
		return fmt.Errorf("chatscript max reply bytes must be positive, got %d", c.ChatScriptMaxReplyBytes)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// ChatScriptAddr is the backend address in host:port form.
func (c *Config) ChatScriptAddr() string {
	return fmt.Sprintf("%s:%d", c.ChatScriptHost, c.ChatScriptPort)
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

func validPort(name, val string) error {
	n, err := strconv.Atoi(val)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid %s %q", name, val)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
