package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/models"
)

var (
	eventsHost     string
	eventsTypes    []string
	eventsEntity   string
	eventsEntityID string
	eventsSince    string
	eventsUntil    string
	eventsCursor   string
	eventsLimit    int
)

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsHost, "host", "", "only events from this host surface")
	eventsCmd.Flags().StringSliceVar(&eventsTypes, "type", nil, "only events of this type (repeatable)")
	eventsCmd.Flags().StringVar(&eventsEntity, "entity", "", "only events for this entity type (dialog, host, system)")
	eventsCmd.Flags().StringVar(&eventsEntityID, "entity-id", "", "only events for this entity id")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "events at or after this time (1h, 2d, RFC3339)")
	eventsCmd.Flags().StringVar(&eventsUntil, "until", "", "events before this time")
	eventsCmd.Flags().StringVar(&eventsCursor, "cursor", "", "resume after this event id")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum events to return")
	eventsCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "follow new events (requires --jsonl)")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the dialog event log",
	Long: `Query the append-only log of dialog and host lifecycle events.

With --watch the command follows the log and writes one JSON event per line.`,
	Example: `  webmodal events --host tab-1 --since 1h
  webmodal events --type dialog.closed --limit 10
  webmodal events --watch --jsonl --entity dialog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MustBeJSONLForWatch(); err != nil {
			return err
		}

		since, err := ParseSince(eventsSince)
		if err != nil {
			return err
		}
		until, err := ParseSince(eventsUntil)
		if err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
		types, err := parseEventTypes(eventsTypes)
		if err != nil {
			return err
		}
		var entityType *models.EntityType
		if eventsEntity != "" {
			parsed, err := parseEntityType(eventsEntity)
			if err != nil {
				return err
			}
			entityType = &parsed
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()
		repo := db.NewEventRepository(database)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if watchMode {
			config := DefaultStreamConfig()
			config.Host = eventsHost
			config.Types = types
			config.Since = since
			config.Cursor = eventsCursor
			config.IncludeExisting = since != nil
			if entityType != nil {
				config.EntityTypes = []models.EntityType{*entityType}
			}
			config.Reconnect.OnStatusChange = func(status ConnectionStatus, attempt int, nextRetry time.Duration, err error) {
				if status == ConnectionStatusReconnecting {
					fmt.Fprintf(os.Stderr, "event log unavailable (attempt %d), retrying in %s: %v\n", attempt, nextRetry, err)
				}
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return NewEventStreamer(repo, os.Stdout, config).Stream(ctx)
		}

		query := db.EventQuery{
			EntityType: entityType,
			Since:      since,
			Until:      until,
			Cursor:     eventsCursor,
			Limit:      eventsLimit,
		}
		if eventsHost != "" {
			query.Host = &eventsHost
		}
		if eventsEntityID != "" {
			query.EntityID = &eventsEntityID
		}
		if len(types) == 1 {
			query.Type = &types[0]
		}

		page, err := repo.Query(ctx, query)
		if err != nil {
			return err
		}
		if len(types) > 1 {
			page.Events = filterEventsByType(page.Events, types)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if IsJSONLOutput() {
				return WriteOutput(os.Stdout, page.Events)
			}
			return WriteOutput(os.Stdout, page)
		}

		if len(page.Events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		rows := make([][]string, 0, len(page.Events))
		for _, event := range page.Events {
			rows = append(rows, []string{
				event.Timestamp.Local().Format("2006-01-02 15:04:05"),
				formatEventType(event.Type),
				event.Host,
				event.EntityID,
				summarizePayload(event),
			})
		}
		if err := writeTable(os.Stdout, []string{"TIME", "TYPE", "HOST", "ENTITY", "DETAILS"}, rows); err != nil {
			return err
		}
		if page.HasMore {
			fmt.Printf("\nMore events available: --cursor %s\n", page.NextCursor)
		}
		return nil
	},
}

func parseEventTypes(values []string) ([]models.EventType, error) {
	types := make([]models.EventType, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		eventType := models.EventType(value)
		if !models.IsKnownEventType(eventType) {
			return nil, fmt.Errorf("unknown event type %q", value)
		}
		types = append(types, eventType)
	}
	return types, nil
}

func parseEntityType(value string) (models.EntityType, error) {
	switch entityType := models.EntityType(strings.ToLower(strings.TrimSpace(value))); entityType {
	case models.EntityTypeDialog, models.EntityTypeHost, models.EntityTypeSystem:
		return entityType, nil
	default:
		return "", fmt.Errorf("unknown entity type %q (expected dialog, host or system)", value)
	}
}

func filterEventsByType(events []*models.Event, types []models.EventType) []*models.Event {
	filtered := make([]*models.Event, 0, len(events))
	for _, event := range events {
		if containsEventType(types, event.Type) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// summarizePayload renders the interesting payload fields of an event.
func summarizePayload(event *models.Event) string {
	switch event.EntityType {
	case models.EntityTypeDialog:
		payload, err := event.DialogPayload()
		if err != nil {
			return ""
		}
		parts := []string{fmt.Sprintf("queue=%d", payload.QueueLen)}
		if payload.Title != "" {
			parts = append(parts, fmt.Sprintf("%q", payload.Title))
		}
		return strings.Join(parts, " ")
	case models.EntityTypeHost:
		payload, err := event.HostPayload()
		if err != nil {
			return ""
		}
		return fmt.Sprintf("blocked=%s queue=%d", formatYesNo(payload.Blocked), payload.QueueLen)
	default:
		return truncate(string(event.Payload), 60)
	}
}
