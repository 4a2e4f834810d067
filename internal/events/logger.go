// Package events records dialog lifecycle events in the event log.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/models"
	"github.com/opencode-ai/webmodal/internal/webmodal"
	"github.com/rs/zerolog"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

var dialogEventTypes = map[webmodal.EventKind]models.EventType{
	webmodal.EventRegistered: models.EventTypeDialogRegistered,
	webmodal.EventShown:      models.EventTypeDialogShown,
	webmodal.EventHidden:     models.EventTypeDialogHidden,
	webmodal.EventClosed:     models.EventTypeDialogClosed,
}

var hostEventTypes = map[webmodal.EventKind]models.EventType{
	webmodal.EventBlocked:      models.EventTypeHostBlocked,
	webmodal.EventUnblocked:    models.EventTypeHostUnblocked,
	webmodal.EventInterstitial: models.EventTypeHostInterstitial,
	webmodal.EventNavigated:    models.EventTypeHostNavigated,
}

// LogDialogTransition records a dialog.* event.
func LogDialogTransition(ctx context.Context, repo Repository, eventType models.EventType, host string, payload models.DialogTransitionPayload) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if payload.DialogID == "" {
		return fmt.Errorf("dialog id is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dialog payload: %w", err)
	}

	event := &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeDialog,
		EntityID:   payload.DialogID,
		Host:       host,
		Payload:    data,
	}
	return repo.Create(ctx, event)
}

// LogHostTransition records a host.* event.
func LogHostTransition(ctx context.Context, repo Repository, eventType models.EventType, host string, payload models.HostPayload) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if host == "" {
		return fmt.Errorf("host is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal host payload: %w", err)
	}

	event := &models.Event{
		Type:       eventType,
		EntityType: models.EntityTypeHost,
		EntityID:   host,
		Host:       host,
		Payload:    data,
	}
	return repo.Create(ctx, event)
}

// Recorder persists manager lifecycle events. It implements
// webmodal.Observer; write failures are logged, never surfaced to the
// manager.
type Recorder struct {
	repo   Repository
	logger zerolog.Logger
	titles func(webmodal.DialogID) string
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithTitles attaches a title lookup used to annotate dialog events.
func WithTitles(lookup func(webmodal.DialogID) string) RecorderOption {
	return func(r *Recorder) {
		r.titles = lookup
	}
}

// WithRecorderLogger overrides the component logger.
func WithRecorderLogger(logger zerolog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(repo Repository, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		repo:   repo,
		logger: logging.Component("events"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnDialogEvent implements webmodal.Observer.
func (r *Recorder) OnDialogEvent(event webmodal.Event) {
	if err := r.Record(context.Background(), event); err != nil {
		r.logger.Warn().
			Err(err).
			Str("kind", string(event.Kind)).
			Str("host", event.Host).
			Msg("failed to record dialog event")
	}
}

// Record writes one manager event to the repository.
func (r *Recorder) Record(ctx context.Context, event webmodal.Event) error {
	if eventType, ok := dialogEventTypes[event.Kind]; ok {
		payload := models.DialogTransitionPayload{
			DialogID: event.Dialog.String(),
			State:    dialogState(event.Kind).String(),
			QueueLen: event.QueueLen,
		}
		if r.titles != nil {
			payload.Title = r.titles(event.Dialog)
		}
		return LogDialogTransition(ctx, r.repo, eventType, event.Host, payload)
	}

	if eventType, ok := hostEventTypes[event.Kind]; ok {
		payload := models.HostPayload{
			Blocked:  event.QueueLen > 0,
			QueueLen: event.QueueLen,
		}
		return LogHostTransition(ctx, r.repo, eventType, event.Host, payload)
	}

	return fmt.Errorf("unknown dialog event kind %q", event.Kind)
}

func dialogState(kind webmodal.EventKind) webmodal.State {
	switch kind {
	case webmodal.EventRegistered:
		return webmodal.StateManaged
	case webmodal.EventShown:
		return webmodal.StateShown
	case webmodal.EventHidden:
		return webmodal.StateHidden
	case webmodal.EventClosed:
		return webmodal.StateClosed
	default:
		return webmodal.StateUnmanaged
	}
}
