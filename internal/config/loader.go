package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. WEBMODAL_DAEMON_PORT.
const EnvPrefix = "WEBMODAL"

// Load reads configuration from path, or from the default search paths
// when path is empty. A missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(".", ".webmodal"))
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UsedFile reports which file Load would read for path, or "" if none.
func UsedFile(path string) string {
	if path != "" {
		return path
	}
	for _, dir := range []string{filepath.Join(".", ".webmodal"), DefaultConfigDir()} {
		candidate := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("dialogs.close_on_interstitial", cfg.Dialogs.CloseOnInterstitial)
	v.SetDefault("dialogs.host_visible", cfg.Dialogs.HostVisible)
	v.SetDefault("tui.theme", cfg.TUI.Theme)
	v.SetDefault("tui.activity_lines", cfg.TUI.ActivityLines)
	v.SetDefault("daemon.host", cfg.Daemon.Host)
	v.SetDefault("daemon.port", cfg.Daemon.Port)
	v.SetDefault("daemon.rate_limit", cfg.Daemon.RateLimit)
}
