package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFilePath returns the path of the optional config file,
// ~/.potd/config.yaml.
func ConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".potd", "config.yaml"), nil
}

// LoadConfigFile parses the config file at path on top of base. Keys missing
// from the file keep the value they have in base. Returns base unchanged if
// the file doesn't exist (not an error). Returns error if the file exists but
// cannot be parsed.
func LoadConfigFile(path string, base *Config) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := *base
	cfg.Setter.Args = append([]string(nil), base.Setter.Args...)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// The default flags belong to the default command; a different command
	// without its own args gets none.
	var raw struct {
		Setter struct {
			Args *[]string `yaml:"args"`
		} `yaml:"setter"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw.Setter.Args == nil && cfg.Setter.Command != base.Setter.Command {
		cfg.Setter.Args = nil
	}

	return &cfg, nil
}

// Load resolves the configuration for a run: defaults, then
// ~/.potd/config.yaml if present. A leading ~ in cache_dir is expanded.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	path, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfigFile(path, Default(homeDir))
	if err != nil {
		return nil, err
	}

	cfg.CacheDir = ExpandHome(cfg.CacheDir, homeDir)

	return cfg, nil
}
