// Package models defines the records shared by the event log, the daemon
// and the command line.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes events in the system.
type EventType string

const (
	// Dialog events
	EventTypeDialogRegistered EventType = "dialog.registered"
	EventTypeDialogShown      EventType = "dialog.shown"
	EventTypeDialogHidden     EventType = "dialog.hidden"
	EventTypeDialogClosed     EventType = "dialog.closed"

	// Host events
	EventTypeHostBlocked      EventType = "host.blocked"
	EventTypeHostUnblocked    EventType = "host.unblocked"
	EventTypeHostInterstitial EventType = "host.interstitial"
	EventTypeHostNavigated    EventType = "host.navigated"

	// System events
	EventTypeError   EventType = "error"
	EventTypeWarning EventType = "warning"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeDialog EntityType = "dialog"
	EntityTypeHost   EntityType = "host"
	EntityTypeSystem EntityType = "system"
)

// Event represents an append-only log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Host names the host surface the event happened on.
	Host string `json:"host,omitempty"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// DialogTransitionPayload is the payload for dialog.* events.
type DialogTransitionPayload struct {
	DialogID string `json:"dialog_id"`
	State    string `json:"state"`
	QueueLen int    `json:"queue_len"`
	Title    string `json:"title,omitempty"`
}

// HostPayload is the payload for host.* events.
type HostPayload struct {
	Blocked  bool `json:"blocked"`
	QueueLen int  `json:"queue_len"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}

var knownEventTypes = map[EventType]bool{
	EventTypeDialogRegistered: true,
	EventTypeDialogShown:      true,
	EventTypeDialogHidden:     true,
	EventTypeDialogClosed:     true,
	EventTypeHostBlocked:      true,
	EventTypeHostUnblocked:    true,
	EventTypeHostInterstitial: true,
	EventTypeHostNavigated:    true,
	EventTypeError:            true,
	EventTypeWarning:          true,
}

// IsKnownEventType reports whether t is one of the defined event types.
func IsKnownEventType(t EventType) bool {
	return knownEventTypes[t]
}

// DialogPayload decodes the payload of a dialog.* event.
func (e *Event) DialogPayload() (DialogTransitionPayload, error) {
	var payload DialogTransitionPayload
	if len(e.Payload) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(e.Payload, &payload)
	return payload, err
}

// HostPayload decodes the payload of a host.* event.
func (e *Event) HostPayload() (HostPayload, error) {
	var payload HostPayload
	if len(e.Payload) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(e.Payload, &payload)
	return payload, err
}
