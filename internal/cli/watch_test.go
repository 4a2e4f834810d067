package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// seedEvents appends the events in order.
func seedEvents(t *testing.T, repo *db.EventRepository, seed ...models.Event) {
	t.Helper()
	for i := range seed {
		event := seed[i]
		if err := repo.Create(context.Background(), &event); err != nil {
			t.Fatalf("failed to create event %d: %v", i, err)
		}
	}
}

func dialogShown(host, id string) models.Event {
	return models.Event{
		Type:       models.EventTypeDialogShown,
		EntityType: models.EntityTypeDialog,
		EntityID:   id,
		Host:       host,
		Payload:    json.RawMessage(`{"dialog_id":"` + id + `","state":"shown","queue_len":1}`),
	}
}

func hostBlocked(host string) models.Event {
	return models.Event{
		Type:       models.EventTypeHostBlocked,
		EntityType: models.EntityTypeHost,
		EntityID:   host,
		Host:       host,
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []models.Event {
	t.Helper()
	var events []models.Event
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var event models.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line is not a JSON event: %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func hourAgo() *time.Time {
	past := time.Now().Add(-time.Hour)
	return &past
}

func TestEventStreamerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	streamer := NewEventStreamer(nil, &buf, DefaultStreamConfig())

	event := &models.Event{
		ID:         "evt-1",
		Timestamp:  time.Now().UTC(),
		Type:       models.EventTypeDialogRegistered,
		EntityType: models.EntityTypeDialog,
		EntityID:   "dialog-1",
		Host:       "tab-1",
	}
	if err := streamer.writeEvent(event); err != nil {
		t.Fatalf("writeEvent failed: %v", err)
	}
	if err := streamer.writeEvent(event); err != nil {
		t.Fatalf("writeEvent failed: %v", err)
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ID != "evt-1" || lines[0].Type != models.EventTypeDialogRegistered || lines[0].Host != "tab-1" {
		t.Errorf("unexpected decoded event: %+v", lines[0])
	}
}

func TestEventStreamerPollPagesByBatch(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	seedEvents(t, repo,
		dialogShown("tab-1", "dialog-1"),
		dialogShown("tab-1", "dialog-2"),
		dialogShown("tab-1", "dialog-3"),
		dialogShown("tab-1", "dialog-4"),
		dialogShown("tab-1", "dialog-5"),
	)

	config := DefaultStreamConfig()
	config.BatchSize = 2
	streamer := NewEventStreamer(repo, &bytes.Buffer{}, config)

	ctx := context.Background()
	var seen []string
	cursor := ""
	for page := 0; page < 4; page++ {
		events, next, err := streamer.poll(ctx, cursor, hourAgo())
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		if len(events) > 2 {
			t.Fatalf("poll returned %d events, batch size is 2", len(events))
		}
		for _, event := range events {
			seen = append(seen, event.EntityID)
		}
		if next == "" {
			t.Fatal("expected a cursor to resume from")
		}
		cursor = next
	}

	want := "dialog-1,dialog-2,dialog-3,dialog-4,dialog-5"
	if got := strings.Join(seen, ","); got != want {
		t.Errorf("paged events = %s, want %s", got, want)
	}
}

func TestEventStreamerPollFilters(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	seedEvents(t, repo,
		dialogShown("tab-1", "dialog-1"),
		hostBlocked("tab-1"),
		dialogShown("tab-2", "dialog-2"),
		hostBlocked("tab-2"),
		models.Event{Type: models.EventTypeWarning, EntityType: models.EntityTypeSystem, EntityID: "daemon"},
	)

	tests := []struct {
		name   string
		mutate func(*StreamConfig)
		want   []string
	}{
		{
			name:   "single entity type",
			mutate: func(c *StreamConfig) { c.EntityTypes = []models.EntityType{models.EntityTypeDialog} },
			want:   []string{"dialog-1", "dialog-2"},
		},
		{
			name: "several entity types",
			mutate: func(c *StreamConfig) {
				c.EntityTypes = []models.EntityType{models.EntityTypeHost, models.EntityTypeSystem}
			},
			want: []string{"tab-1", "tab-2", "daemon"},
		},
		{
			name:   "host",
			mutate: func(c *StreamConfig) { c.Host = "tab-2" },
			want:   []string{"dialog-2", "tab-2"},
		},
		{
			name: "several event types on one host",
			mutate: func(c *StreamConfig) {
				c.Host = "tab-1"
				c.Types = []models.EventType{models.EventTypeHostBlocked, models.EventTypeDialogShown}
			},
			want: []string{"dialog-1", "tab-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultStreamConfig()
			tt.mutate(&config)
			streamer := NewEventStreamer(repo, &bytes.Buffer{}, config)

			events, _, err := streamer.poll(context.Background(), "", hourAgo())
			if err != nil {
				t.Fatalf("poll failed: %v", err)
			}
			got := make([]string, 0, len(events))
			for _, event := range events {
				got = append(got, event.EntityID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("entities = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventStreamerStreamReplaysExisting(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	seedEvents(t, repo,
		dialogShown("tab-1", "dialog-1"),
		hostBlocked("tab-1"),
		dialogShown("tab-1", "dialog-2"),
	)

	var buf bytes.Buffer
	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.BatchSize = 2
	config.IncludeExisting = true
	config.Since = hourAgo()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := NewEventStreamer(repo, &buf, config).Stream(ctx); err != nil {
		t.Fatalf("Stream returned %v, want nil on cancellation", err)
	}

	events := decodeLines(t, &buf)
	if len(events) != 3 {
		t.Fatalf("expected 3 replayed events, got %d", len(events))
	}
	if events[0].EntityID != "dialog-1" || events[2].EntityID != "dialog-2" {
		t.Errorf("events out of order: %+v", events)
	}
}

func TestEventStreamerStreamSkipsExistingByDefault(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	old := dialogShown("tab-1", "dialog-old")
	old.Timestamp = time.Now().Add(-time.Minute)
	seedEvents(t, repo, old)

	var buf bytes.Buffer
	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	streamer := NewEventStreamer(repo, &buf, config)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- streamer.Stream(ctx) }()

	time.Sleep(30 * time.Millisecond)
	seedEvents(t, repo, dialogShown("tab-1", "dialog-new"))
	time.Sleep(60 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Stream returned %v", err)
	}
	events := decodeLines(t, &buf)
	if len(events) != 1 || events[0].EntityID != "dialog-new" {
		t.Fatalf("expected only the new event, got %+v", events)
	}
}

func TestEventStreamerStreamResumesAfterCursor(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	seedEvents(t, repo,
		dialogShown("tab-1", "dialog-1"),
		dialogShown("tab-1", "dialog-2"),
		dialogShown("tab-1", "dialog-3"),
	)
	first, err := repo.Query(context.Background(), db.EventQuery{Limit: 1})
	if err != nil || len(first.Events) != 1 {
		t.Fatalf("failed to read first event: %v", err)
	}

	var buf bytes.Buffer
	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.Cursor = first.Events[0].ID

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if err := NewEventStreamer(repo, &buf, config).Stream(ctx); err != nil {
		t.Fatalf("Stream returned %v", err)
	}

	events := decodeLines(t, &buf)
	if len(events) != 2 || events[0].EntityID != "dialog-2" || events[1].EntityID != "dialog-3" {
		t.Fatalf("expected dialog-2 and dialog-3, got %+v", events)
	}
}

func TestEventStreamerUnknownCursorFailsFast(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	seedEvents(t, repo, dialogShown("tab-1", "dialog-1"))

	var statuses []ConnectionStatus
	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.Cursor = "no-such-id"
	config.Reconnect.OnStatusChange = func(status ConnectionStatus, attempt int, nextRetry time.Duration, err error) {
		statuses = append(statuses, status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := NewEventStreamer(repo, &bytes.Buffer{}, config).Stream(ctx)
	if !errors.Is(err, db.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("Stream should fail before the context expires")
	}
	for _, status := range statuses {
		if status == ConnectionStatusReconnecting {
			t.Fatalf("unknown cursor must not be retried, statuses = %v", statuses)
		}
	}
}

func TestEventStreamerStatusCallbacks(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))

	var mu sync.Mutex
	var statuses []ConnectionStatus

	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.Reconnect.OnStatusChange = func(status ConnectionStatus, attempt int, nextRetry time.Duration, err error) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := NewEventStreamer(repo, &bytes.Buffer{}, config).Stream(ctx); err != nil {
		t.Fatalf("Stream returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) != 2 {
		t.Fatalf("expected connected then disconnected, got %v", statuses)
	}
	if statuses[0] != ConnectionStatusConnected || statuses[1] != ConnectionStatusDisconnected {
		t.Errorf("unexpected statuses %v", statuses)
	}
}

// flakyRepo fails a fixed number of polls before delegating.
type flakyRepo struct {
	failures int
	calls    int
	inner    eventQuerier
}

func (r *flakyRepo) Query(ctx context.Context, q db.EventQuery) (*db.EventPage, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, errors.New("database is locked")
	}
	return r.inner.Query(ctx, q)
}

func TestEventStreamerRecoversAfterFailures(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	seedEvents(t, repo, hostBlocked("tab-1"))

	var statuses []ConnectionStatus
	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.IncludeExisting = true
	config.Reconnect = ReconnectConfig{
		Enabled:           true,
		MaxAttempts:       5,
		InitialBackoff:    5 * time.Millisecond,
		MaxBackoff:        20 * time.Millisecond,
		BackoffMultiplier: 2.0,
		OnStatusChange: func(status ConnectionStatus, attempt int, nextRetry time.Duration, err error) {
			statuses = append(statuses, status)
		},
	}

	var buf bytes.Buffer
	streamer := NewEventStreamer(repo, &buf, config)
	streamer.repo = &flakyRepo{failures: 2, inner: repo}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := streamer.Stream(ctx); err != nil {
		t.Fatalf("Stream returned %v", err)
	}

	if events := decodeLines(t, &buf); len(events) != 1 {
		t.Fatalf("expected the event after recovery, got %d", len(events))
	}
	want := []ConnectionStatus{
		ConnectionStatusConnected,
		ConnectionStatusReconnecting,
		ConnectionStatusReconnecting,
		ConnectionStatusConnected,
		ConnectionStatusDisconnected,
	}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", statuses, want)
		}
	}
}

func TestEventStreamerReconnectDisabled(t *testing.T) {
	database := setupTestDB(t)
	_ = database.Close()
	repo := db.NewEventRepository(database)

	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.Reconnect.Enabled = false

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := NewEventStreamer(repo, &bytes.Buffer{}, config).Stream(ctx); err == nil {
		t.Error("expected an error when reconnect is disabled and poll fails")
	}
}

func TestEventStreamerReconnectMaxAttempts(t *testing.T) {
	database := setupTestDB(t)
	_ = database.Close()
	repo := db.NewEventRepository(database)

	config := DefaultStreamConfig()
	config.PollInterval = 10 * time.Millisecond
	config.Reconnect = ReconnectConfig{
		Enabled:           true,
		MaxAttempts:       3,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        50 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	err := NewEventStreamer(repo, &bytes.Buffer{}, config).Stream(ctx)
	if err == nil || !strings.Contains(err.Error(), "max reconnection attempts") {
		t.Fatalf("expected max attempts error, got %v", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	config := DefaultStreamConfig()
	config.Reconnect = ReconnectConfig{
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	}
	streamer := NewEventStreamer(nil, &bytes.Buffer{}, config)

	current := time.Duration(0)
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, expected := range want {
		current = streamer.calculateBackoff(i+1, current)
		if current != expected {
			t.Errorf("attempt %d: backoff = %v, want %v", i+1, current, expected)
		}
	}
}

func TestStreamDefaults(t *testing.T) {
	config := DefaultStreamConfig()
	if config.PollInterval != 500*time.Millisecond || config.BatchSize != 100 || config.IncludeExisting {
		t.Errorf("unexpected stream defaults: %+v", config)
	}

	reconnect := DefaultReconnectConfig()
	if !reconnect.Enabled || reconnect.MaxAttempts != 0 {
		t.Errorf("reconnect should be enabled without an attempt limit: %+v", reconnect)
	}
	if reconnect.InitialBackoff != time.Second || reconnect.MaxBackoff != 30*time.Second || reconnect.BackoffMultiplier != 2.0 {
		t.Errorf("unexpected backoff defaults: %+v", reconnect)
	}

	streamer := NewEventStreamer(nil, &bytes.Buffer{}, StreamConfig{})
	if streamer.config.PollInterval <= 0 || streamer.config.BatchSize <= 0 {
		t.Errorf("zero config should fall back to defaults: %+v", streamer.config)
	}
}

func TestMustBeJSONLForWatch(t *testing.T) {
	origWatch, origJSONL := watchMode, jsonlOutput
	defer func() {
		watchMode, jsonlOutput = origWatch, origJSONL
	}()

	tests := []struct {
		watch, jsonl, wantErr bool
	}{
		{watch: true, jsonl: false, wantErr: true},
		{watch: true, jsonl: true},
		{watch: false, jsonl: false},
		{watch: false, jsonl: true},
	}
	for _, tt := range tests {
		watchMode, jsonlOutput = tt.watch, tt.jsonl
		err := MustBeJSONLForWatch()
		if (err != nil) != tt.wantErr {
			t.Errorf("watch=%t jsonl=%t: err = %v, wantErr %t", tt.watch, tt.jsonl, err, tt.wantErr)
		}
	}
}

func TestParseSince(t *testing.T) {
	within := func(ago, slack time.Duration) func(*time.Time) bool {
		return func(got *time.Time) bool {
			if got == nil {
				return false
			}
			diff := time.Since(*got)
			return diff >= ago-slack && diff <= ago+slack
		}
	}
	exactly := func(want time.Time) func(*time.Time) bool {
		return func(got *time.Time) bool { return got != nil && got.Equal(want) }
	}

	tests := []struct {
		input   string
		wantErr bool
		check   func(*time.Time) bool
	}{
		{input: "", check: func(got *time.Time) bool { return got == nil }},
		{input: "1h", check: within(time.Hour, time.Minute)},
		{input: "  30m  ", check: within(30*time.Minute, time.Minute)},
		{input: "7d", check: within(7*24*time.Hour, time.Hour)},
		{input: "2024-01-15T10:30:00Z", check: exactly(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{input: "2024-01-15T10:30:00-05:00", check: exactly(time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC))},
		{input: "2024-01-15T10:30:00", check: exactly(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))},
		{input: "2024-01-15", check: exactly(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))},
		{input: "yesterday", wantErr: true},
		{input: "abc123", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSince(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSince(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSince(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if !tt.check(got) {
			t.Errorf("ParseSince(%q) = %v", tt.input, got)
		}
	}
}

func TestParseDurationWithDays(t *testing.T) {
	tests := map[string]time.Duration{
		"1d":    24 * time.Hour,
		"0.5d":  12 * time.Hour,
		"1h30m": 90 * time.Minute,
	}
	for input, want := range tests {
		got, err := parseDurationWithDays(input)
		if err != nil || got != want {
			t.Errorf("parseDurationWithDays(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := parseDurationWithDays("xd"); err == nil {
		t.Error("expected error for a bad day count")
	}
}
