package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pevans/potd/background"
	"github.com/pevans/potd/cache"
	"github.com/pevans/potd/discovery"
	"github.com/pevans/potd/sources"
	"go.uber.org/zap/zapcore"
)

// Config represents the user configuration for a potd run.
type Config struct {
	Site          string       `yaml:"site"`
	CacheDir      string       `yaml:"cache_dir"`
	RetentionDays int          `yaml:"retention_days"`
	HTTPTimeout   string       `yaml:"http_timeout"`
	UserAgent     string       `yaml:"user_agent"`
	LogLevel      string       `yaml:"log_level"`
	Setter        SetterConfig `yaml:"setter"`
}

// SetterConfig selects the external command that sets the background.
type SetterConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Strict  bool     `yaml:"strict"`
}

// Default returns the built-in configuration. The cache directory is
// ~/.backgrounds under the given home directory.
func Default(homeDir string) *Config {
	return &Config{
		Site:          sources.DefaultSite,
		CacheDir:      filepath.Join(homeDir, ".backgrounds"),
		RetentionDays: cache.DefaultRetentionDays,
		HTTPTimeout:   "30s",
		UserAgent:     discovery.DefaultUserAgent,
		LogLevel:      "info",
		Setter: SetterConfig{
			Command: background.DefaultCommand,
			Args:    append([]string(nil), background.DefaultArgs...),
		},
	}
}

// Validate checks the configuration against the registry of known sites.
func (c *Config) Validate(registry *sources.Registry) error {
	if _, err := registry.Lookup(c.Site); err != nil {
		return fmt.Errorf("invalid site: %w", err)
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir must not be empty")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative (got %d)", c.RetentionDays)
	}
	if d, err := time.ParseDuration(c.HTTPTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid http_timeout: must be a positive duration (e.g., 30s, 1m)")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if strings.TrimSpace(c.Setter.Command) == "" {
		return fmt.Errorf("setter.command must not be empty")
	}
	return nil
}

// Timeout returns the HTTP timeout, falling back to 30 seconds when the value
// does not parse or is not positive.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Level returns the configured log level, or info when it does not parse.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// ExpandHome replaces a leading "~" or "~/" in path with homeDir.
func ExpandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
