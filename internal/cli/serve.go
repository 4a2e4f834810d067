package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/webmodal/internal/config"
	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/events"
	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/modald"
)

var (
	serveHost   string
	servePort   int
	serveRecord bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "address to bind (default: daemon.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default: daemon.port)")
	serveCmd.Flags().BoolVar(&serveRecord, "record", true, "record lifecycle events in the event log")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dialog daemon",
	Long: `Run the gRPC daemon that owns remote host surfaces. Other processes
open, close and inspect dialogs through it with the dialog commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		logger := logging.Component("serve")

		opts := modald.Options{
			Hostname: serveHost,
			Port:     servePort,
			Version:  version,
		}

		if serveRecord {
			database, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()
			opts.Observer = events.NewRecorder(db.NewEventRepository(database))
		}

		daemon, err := modald.New(cfg, logger, opts)
		if err != nil {
			return err
		}

		if path := config.UsedFile(cfgFile); path != "" {
			watcher, err := config.Watch(path, func(next *config.Config) {
				daemon.RateLimiter().SetEnabled(next.Daemon.RateLimit)
				daemon.Server().SetSurfaceDefaults(next.Dialogs.CloseOnInterstitial, next.Dialogs.HostVisible)
				logger.Info().
					Str("path", path).
					Bool("rate_limit", next.Daemon.RateLimit).
					Msg("config reloaded")
			}, config.WithReloadError(func(err error) {
				logger.Warn().Err(err).Str("path", path).Msg("config reload failed")
			}))
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("config watch unavailable")
			} else {
				defer watcher.Close()
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !IsJSONOutput() && !IsJSONLOutput() {
			fmt.Fprintf(os.Stderr, "webmodal daemon %s listening on %s\n", version, daemon.Address())
		}
		return daemon.Run(ctx)
	},
}
