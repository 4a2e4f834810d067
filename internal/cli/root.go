// Package cli implements the webmodal command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/webmodal/internal/config"
	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/logging"
)

var (
	cfgFile        string
	logLevel       string
	jsonOutput     bool
	jsonlOutput    bool
	nonInteractive bool
	noProgress     bool

	appConfig *config.Config
	version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "webmodal",
	Short: "Tab-modal dialog sequencing",
	Long: `webmodal sequences tab-modal dialogs on host surfaces: one dialog
is shown at a time, the rest wait in order, and the host stays blocked
until the queue drains.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./.webmodal/config.yaml or ~/.config/webmodal/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt; use defaults")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress output")
}

// Execute runs the root command.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	rootCmd.Version = version
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context, buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	rootCmd.Version = version
	return rootCmd.ExecuteContext(ctx)
}

func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return &PreflightError{
			Message:  err.Error(),
			Hint:     "Fix the configuration file or pass --config with a valid file",
			NextStep: "webmodal config show",
		}
	}
	if strings.TrimSpace(logLevel) != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return err
		}
		cfg.Logging.Level = logLevel
	}
	if err := logging.Init(cfg.Logging.LoggingOptions()); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	appConfig = cfg
	return nil
}

// GetConfig returns the loaded configuration, or defaults before loading.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// openDatabase opens and migrates the event log.
func openDatabase() (*db.DB, error) {
	cfg := GetConfig()
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(context.Background()); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// exitError carries a process exit code without printing a message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCode maps an Execute error to a process exit code and prints it.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(os.Stderr, formatError(err))
	return 1
}
