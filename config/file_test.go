package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setHome points HOME at a fresh temporary directory for the test
func setHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	return tmpDir
}

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	potdDir := filepath.Join(home, ".potd")
	require.NoError(t, os.MkdirAll(potdDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(potdDir, "config.yaml"), []byte(content), 0o600))
}

func TestConfigFilePath(t *testing.T) {
	home := setHome(t)

	path, err := ConfigFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".potd", "config.yaml"), path)
}

func TestLoad_NoFile(t *testing.T) {
	home := setHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default(home), cfg, "should return defaults when config file doesn't exist")
}

func TestLoad_ValidConfig(t *testing.T) {
	home := setHome(t)
	writeConfig(t, home, `site: NG
cache_dir: ~/Pictures/potd
retention_days: 7
http_timeout: 1m
log_level: debug
setter:
  command: swaybg
  args: ["-m", "fit", "-i"]
  strict: true
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "NG", cfg.Site)
	assert.Equal(t, filepath.Join(home, "Pictures", "potd"), cfg.CacheDir)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, "1m", cfg.HTTPTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "swaybg", cfg.Setter.Command)
	assert.Equal(t, []string{"-m", "fit", "-i"}, cfg.Setter.Args)
	assert.True(t, cfg.Setter.Strict)
}

func TestLoad_PartialConfig(t *testing.T) {
	home := setHome(t)
	writeConfig(t, home, "retention_days: 0\n")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.RetentionDays, "explicit zero should be kept")
	assert.Equal(t, filepath.Join(home, ".backgrounds"), cfg.CacheDir, "unspecified keys keep defaults")
	assert.Equal(t, "feh", cfg.Setter.Command)
	assert.Equal(t, []string{"--bg-max"}, cfg.Setter.Args)
}

func TestLoad_CommandWithoutArgs(t *testing.T) {
	home := setHome(t)
	writeConfig(t, home, "setter:\n  command: xwallpaper\n")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "xwallpaper", cfg.Setter.Command)
	assert.Empty(t, cfg.Setter.Args, "feh flags should not leak to other commands")
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := setHome(t)
	writeConfig(t, home, `setter:
  - this is invalid yaml because setter should be an object not a list
`)

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfigFile_DoesNotMutateBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("setter:\n  args: [\"--bg-fill\"]\n"), 0o600))

	base := Default("/home/user")
	cfg, err := LoadConfigFile(path, base)
	require.NoError(t, err)

	assert.Equal(t, []string{"--bg-fill"}, cfg.Setter.Args)
	assert.Equal(t, []string{"--bg-max"}, base.Setter.Args)
}
