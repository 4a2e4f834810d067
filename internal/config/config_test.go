package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Dialogs.CloseOnInterstitial)
	assert.True(t, cfg.Dialogs.HostVisible)
	assert.Equal(t, "127.0.0.1:50071", cfg.Daemon.Address())
	assert.Equal(t, 50, cfg.TUI.ActivityLines)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"database", func(c *Config) { c.Database.Path = " " }, "database.path"},
		{"theme", func(c *Config) { c.TUI.Theme = "neon" }, "tui.theme"},
		{"activity", func(c *Config) { c.TUI.ActivityLines = 0 }, "tui.activity_lines"},
		{"port", func(c *Config) { c.Daemon.Port = 70000 }, "daemon.port"},
		{"host", func(c *Config) { c.Daemon.Host = "" }, "daemon.host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
dialogs:
  close_on_interstitial: false
tui:
  theme: high-contrast
daemon:
  port: 6000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.Dialogs.CloseOnInterstitial)
	assert.True(t, cfg.Dialogs.HostVisible)
	assert.Equal(t, "high-contrast", cfg.TUI.Theme)
	assert.Equal(t, 6000, cfg.Daemon.Port)
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WEBMODAL_DAEMON_PORT", "6100")
	t.Setenv("WEBMODAL_DIALOGS_HOST_VISIBLE", "false")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tui:\n  activity_lines: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6100, cfg.Daemon.Port)
	assert.False(t, cfg.Dialogs.HostVisible)
	assert.Equal(t, 10, cfg.TUI.ActivityLines)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("daemon:\n  port: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon.port")
}

func TestDefaultConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", "webmodal"), DefaultConfigDir())
}

func TestUsedFile(t *testing.T) {
	assert.Equal(t, "/explicit.yaml", UsedFile("/explicit.yaml"))

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.Equal(t, "", UsedFile(""))

	path := filepath.Join(dir, "webmodal", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	assert.Equal(t, path, UsedFile(""))
}
