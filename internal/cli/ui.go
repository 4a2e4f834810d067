package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/tui"
)

var uiRecord bool

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().BoolVar(&uiRecord, "record", true, "record lifecycle events in the event log")
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the webmodal TUI",
	Long: `Launch the terminal UI. Each tab is a host surface with its own
dialog queue; open dialogs, switch tabs, attach interstitials and
navigate to watch the queue at work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func runTUI() error {
	if err := requireInteractive("TUI", "webmodal scenario run"); err != nil {
		return err
	}

	cfg := GetConfig()

	// The TUI owns the terminal; logs go to the configured file or nowhere.
	if cfg.Logging.File == "" {
		logging.SetOutput(io.Discard)
	}
	logger := logging.Component("tui")

	opts := tui.Options{
		Theme:               cfg.TUI.Theme,
		ActivityLines:       cfg.TUI.ActivityLines,
		CloseOnInterstitial: cfg.Dialogs.CloseOnInterstitial,
		Logger:              &logger,
	}

	if uiRecord {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		opts.Events = db.NewEventRepository(database)
	}

	return tui.Run(opts)
}
