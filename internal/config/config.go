// Package config defines webmodal configuration and its defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

// Config is the effective webmodal configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Dialogs  DialogsConfig  `mapstructure:"dialogs" yaml:"dialogs"`
	TUI      TUIConfig      `mapstructure:"tui" yaml:"tui"`
	Daemon   DaemonConfig   `mapstructure:"daemon" yaml:"daemon"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// DatabaseConfig locates the event log.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DialogsConfig holds defaults applied to every host surface.
type DialogsConfig struct {
	// CloseOnInterstitial is the flag new dialogs start with.
	CloseOnInterstitial bool `mapstructure:"close_on_interstitial" yaml:"close_on_interstitial"`

	// HostVisible is the visibility new surfaces start with.
	HostVisible bool `mapstructure:"host_visible" yaml:"host_visible"`
}

// TUIConfig controls the terminal UI.
type TUIConfig struct {
	Theme         string `mapstructure:"theme" yaml:"theme"`
	ActivityLines int    `mapstructure:"activity_lines" yaml:"activity_lines"`
}

// DaemonConfig controls the remote control service.
type DaemonConfig struct {
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	RateLimit bool   `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			Path: defaultDatabasePath(),
		},
		Dialogs: DialogsConfig{
			CloseOnInterstitial: true,
			HostVisible:         true,
		},
		TUI: TUIConfig{
			Theme:         "default",
			ActivityLines: 50,
		},
		Daemon: DaemonConfig{
			Host:      "127.0.0.1",
			Port:      50071,
			RateLimit: true,
		},
	}
}

// Address returns the daemon listen address.
func (d DaemonConfig) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// LoggingOptions converts the section for logging.Init.
func (l LoggingConfig) LoggingOptions() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format, File: l.File}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var problems []string

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		problems = append(problems, "database.path is required")
	}
	if _, ok := styles.ResolveTheme(c.TUI.Theme); !ok {
		problems = append(problems, fmt.Sprintf("tui.theme %q is not a known theme (%s)", c.TUI.Theme, strings.Join(styles.ThemeNames(), ", ")))
	}
	if c.TUI.ActivityLines <= 0 {
		problems = append(problems, "tui.activity_lines must be positive")
	}
	if strings.TrimSpace(c.Daemon.Host) == "" {
		problems = append(problems, "daemon.host is required")
	}
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		problems = append(problems, fmt.Sprintf("daemon.port must be between 1 and 65535, got %d", c.Daemon.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "webmodal")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".webmodal")
	}
	return filepath.Join(home, ".config", "webmodal")
}

func defaultDatabasePath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "webmodal", "webmodal.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".webmodal", "webmodal.db")
	}
	return filepath.Join(home, ".local", "share", "webmodal", "webmodal.db")
}
