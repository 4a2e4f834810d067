package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/models"
)

// watchMode is set by --watch on commands that can follow the event log.
var watchMode bool

// ConnectionStatus describes the streamer's link to the event log.
type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusReconnecting ConnectionStatus = "reconnecting"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
)

// ReconnectConfig controls retries after a failed poll.
type ReconnectConfig struct {
	Enabled bool
	// MaxAttempts of 0 retries forever.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// OnStatusChange is called on every status transition. nextRetry is
	// only set while reconnecting.
	OnStatusChange func(status ConnectionStatus, attempt int, nextRetry time.Duration, err error)
}

// DefaultReconnectConfig retries forever with exponential backoff.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Enabled:           true,
		MaxAttempts:       0,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// StreamConfig configures an EventStreamer.
type StreamConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// IncludeExisting replays events from Since (or the beginning of the
	// log) before following new ones.
	IncludeExisting bool
	Since           *time.Time
	// Cursor resumes after this event id. It implies IncludeExisting.
	Cursor          string
	EntityTypes     []models.EntityType
	Types           []models.EventType
	Host            string
	Reconnect       ReconnectConfig
}

// DefaultStreamConfig follows only new events.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		PollInterval:    500 * time.Millisecond,
		BatchSize:       100,
		IncludeExisting: false,
		Reconnect:       DefaultReconnectConfig(),
	}
}

type eventQuerier interface {
	Query(ctx context.Context, q db.EventQuery) (*db.EventPage, error)
}

// EventStreamer polls the event log and writes each event as a JSON line.
type EventStreamer struct {
	repo   eventQuerier
	out    io.Writer
	config StreamConfig
	mu     sync.Mutex
}

// NewEventStreamer creates a streamer writing to out.
func NewEventStreamer(repo *db.EventRepository, out io.Writer, config StreamConfig) *EventStreamer {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultStreamConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultStreamConfig().BatchSize
	}
	return &EventStreamer{
		repo:   repo,
		out:    out,
		config: config,
	}
}

// Stream follows the event log until ctx is done. Cancellation is not an
// error.
func (s *EventStreamer) Stream(ctx context.Context) error {
	logger := logging.Component("watch")

	var since *time.Time
	if s.config.IncludeExisting || s.config.Cursor != "" {
		since = s.config.Since
	} else {
		now := time.Now().UTC()
		since = &now
	}

	cursor := s.config.Cursor
	attempt := 0
	var backoff time.Duration

	s.notify(ConnectionStatusConnected, 0, 0, nil)

	for {
		events, next, err := s.poll(ctx, cursor, since)
		if err != nil {
			if ctx.Err() != nil {
				s.notify(ConnectionStatusDisconnected, attempt, 0, nil)
				return nil
			}
			// An unknown cursor never resolves; retrying would stall silently.
			if errors.Is(err, db.ErrEventNotFound) || !s.config.Reconnect.Enabled {
				s.notify(ConnectionStatusDisconnected, attempt, 0, err)
				return fmt.Errorf("failed to poll events: %w", err)
			}

			attempt++
			if maxAttempts := s.config.Reconnect.MaxAttempts; maxAttempts > 0 && attempt > maxAttempts {
				s.notify(ConnectionStatusDisconnected, attempt, 0, err)
				return fmt.Errorf("max reconnection attempts (%d) exceeded: %w", maxAttempts, err)
			}

			backoff = s.calculateBackoff(attempt, backoff)
			logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", backoff).Msg("event poll failed")
			s.notify(ConnectionStatusReconnecting, attempt, backoff, err)

			if !sleepContext(ctx, backoff) {
				s.notify(ConnectionStatusDisconnected, attempt, 0, nil)
				return nil
			}
			continue
		}

		if attempt > 0 {
			attempt = 0
			backoff = 0
			s.notify(ConnectionStatusConnected, 0, 0, nil)
		}

		for _, event := range events {
			if err := s.writeEvent(event); err != nil {
				s.notify(ConnectionStatusDisconnected, 0, 0, err)
				return err
			}
		}
		cursor = next

		// A full batch means more may be waiting.
		if len(events) >= s.config.BatchSize {
			if ctx.Err() != nil {
				s.notify(ConnectionStatusDisconnected, 0, 0, nil)
				return nil
			}
			continue
		}

		if !sleepContext(ctx, s.config.PollInterval) {
			s.notify(ConnectionStatusDisconnected, 0, 0, nil)
			return nil
		}
	}
}

// poll fetches up to BatchSize events after cursor and returns the cursor
// to resume from.
func (s *EventStreamer) poll(ctx context.Context, cursor string, since *time.Time) ([]*models.Event, string, error) {
	query := db.EventQuery{
		Since:  since,
		Cursor: cursor,
		Limit:  s.config.BatchSize,
	}
	if s.config.Host != "" {
		host := s.config.Host
		query.Host = &host
	}
	if len(s.config.EntityTypes) == 1 {
		entityType := s.config.EntityTypes[0]
		query.EntityType = &entityType
	}
	if len(s.config.Types) == 1 {
		eventType := s.config.Types[0]
		query.Type = &eventType
	}

	page, err := s.repo.Query(ctx, query)
	if err != nil {
		return nil, cursor, err
	}

	events := make([]*models.Event, 0, len(page.Events))
	for _, event := range page.Events {
		if s.matches(event) {
			events = append(events, event)
		}
	}
	return events, page.NextCursor, nil
}

func (s *EventStreamer) matches(event *models.Event) bool {
	if len(s.config.EntityTypes) > 1 && !containsEntityType(s.config.EntityTypes, event.EntityType) {
		return false
	}
	if len(s.config.Types) > 1 && !containsEventType(s.config.Types, event.Type) {
		return false
	}
	return true
}

func (s *EventStreamer) writeEvent(event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	data = append(data, '\n')
	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

func (s *EventStreamer) notify(status ConnectionStatus, attempt int, nextRetry time.Duration, err error) {
	if s.config.Reconnect.OnStatusChange != nil {
		s.config.Reconnect.OnStatusChange(status, attempt, nextRetry, err)
	}
}

func (s *EventStreamer) calculateBackoff(attempt int, current time.Duration) time.Duration {
	cfg := s.config.Reconnect
	if attempt <= 1 || current <= 0 {
		return cfg.InitialBackoff
	}
	next := time.Duration(float64(current) * cfg.BackoffMultiplier)
	if cfg.MaxBackoff > 0 && next > cfg.MaxBackoff {
		next = cfg.MaxBackoff
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func containsEntityType(types []models.EntityType, value models.EntityType) bool {
	for _, t := range types {
		if t == value {
			return true
		}
	}
	return false
}

func containsEventType(types []models.EventType, value models.EventType) bool {
	for _, t := range types {
		if t == value {
			return true
		}
	}
	return false
}

// ParseSince parses a --since value: a duration ago ("1h", "2d") or an
// absolute time (RFC3339, "2006-01-02T15:04:05" or "2006-01-02").
func ParseSince(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if d, err := parseDurationWithDays(value); err == nil {
		t := time.Now().UTC().Add(-d)
		return &t, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("invalid time %q: use a duration (1h, 2d) or a timestamp (RFC3339 or YYYY-MM-DD)", value)
}

// parseDurationWithDays extends time.ParseDuration with a "d" suffix.
func parseDurationWithDays(value string) (time.Duration, error) {
	if strings.HasSuffix(value, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(value, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(value)
}
