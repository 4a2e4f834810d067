package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/models"
	"github.com/opencode-ai/webmodal/internal/modald"
)

var (
	exportHost   string
	exportSince  string
	exportDaemon bool
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportStatusCmd)
	exportCmd.AddCommand(exportEventsCmd)

	exportCmd.PersistentFlags().StringVar(&exportHost, "host", "", "only this host surface")
	exportStatusCmd.Flags().BoolVar(&exportDaemon, "daemon", true, "include live surfaces from a running daemon")
	exportEventsCmd.Flags().StringVar(&exportSince, "since", "", "events at or after this time (1h, 2d, RFC3339)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export webmodal data",
	Long:  "Export the event log and live surface state for automation or reporting.",
}

var exportStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Export full status",
	Long:  "Export event counts by type and, when a daemon is running, its surfaces and dialog queues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		counts, err := db.NewEventRepository(database).CountByType(ctx, exportHost)
		if err != nil {
			return err
		}

		status := ExportStatus{
			GeneratedAt: time.Now().UTC(),
			Database:    database.Path(),
			EventCounts: counts,
		}
		for _, count := range counts {
			status.TotalEvents += count
		}

		if exportDaemon {
			status.Surfaces, status.DaemonError = fetchSurfaces(ctx, exportHost)
			status.DaemonReachable = status.DaemonError == ""
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, status)
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(writer, "Database:\t%s\n", status.Database)
		fmt.Fprintf(writer, "Events:\t%d\n", status.TotalEvents)
		types := make([]string, 0, len(counts))
		for eventType := range counts {
			types = append(types, string(eventType))
		}
		sort.Strings(types)
		for _, eventType := range types {
			fmt.Fprintf(writer, "  %s:\t%d\n", eventType, counts[models.EventType(eventType)])
		}
		if exportDaemon {
			if status.DaemonReachable {
				fmt.Fprintf(writer, "Surfaces:\t%d\n", len(status.Surfaces))
				fmt.Fprintf(writer, "Open dialogs:\t%d\n", countDialogs(status.Surfaces))
			} else {
				fmt.Fprintf(writer, "Daemon:\t%s\n", "not reachable")
			}
		}
		if err := writer.Flush(); err != nil {
			return err
		}

		fmt.Println("Use --json or --jsonl for full export output.")
		return nil
	},
}

var exportEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Export the event log",
	Long:  "Export every matching event, oldest first. Defaults to JSON lines.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		since, err := ParseSince(exportSince)
		if err != nil {
			return err
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		all, err := exportEvents(ctx, db.NewEventRepository(database), exportHost, since)
		if err != nil {
			return err
		}

		if IsJSONOutput() {
			return WriteOutput(os.Stdout, all)
		}
		return writeJSONL(os.Stdout, all)
	},
}

// ExportStatus is the payload returned by `webmodal export status`.
type ExportStatus struct {
	GeneratedAt     time.Time                  `json:"generated_at"`
	Database        string                     `json:"database"`
	TotalEvents     int64                      `json:"total_events"`
	EventCounts     map[models.EventType]int64 `json:"event_counts"`
	DaemonReachable bool                       `json:"daemon_reachable"`
	DaemonError     string                     `json:"daemon_error,omitempty"`
	Surfaces        []models.SurfaceStatus     `json:"surfaces,omitempty"`
}

const exportPageSize = 500

// exportEvents pages through the event log.
func exportEvents(ctx context.Context, repo *db.EventRepository, host string, since *time.Time) ([]*models.Event, error) {
	query := db.EventQuery{
		Since: since,
		Limit: exportPageSize,
	}
	if host != "" {
		query.Host = &host
	}

	var all []*models.Event
	for {
		page, err := repo.Query(ctx, query)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Events...)
		if !page.HasMore {
			return all, nil
		}
		query.Cursor = page.NextCursor
	}
}

func fetchSurfaces(ctx context.Context, host string) ([]models.SurfaceStatus, string) {
	client, err := modald.Dial(GetConfig().Daemon.Address())
	if err != nil {
		return nil, err.Error()
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if host != "" {
		surface, err := client.GetSurface(ctx, host)
		if err != nil {
			return nil, err.Error()
		}
		return []models.SurfaceStatus{*surface}, ""
	}
	surfaces, err := client.ListSurfaces(ctx)
	if err != nil {
		return nil, err.Error()
	}
	return surfaces, ""
}

func countDialogs(surfaces []models.SurfaceStatus) int {
	total := 0
	for _, surface := range surfaces {
		total += len(surface.Dialogs)
	}
	return total
}
