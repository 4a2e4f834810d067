package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventValidate(t *testing.T) {
	event := &Event{}
	err := event.Validate()
	require.Error(t, err)

	var validation *ValidationErrors
	require.ErrorAs(t, err, &validation)
	assert.Len(t, validation.Errors, 3)
	assert.Contains(t, err.Error(), "entity_id")

	event = &Event{Type: EventTypeDialogShown, EntityType: EntityTypeDialog, EntityID: "dialog-1"}
	assert.NoError(t, event.Validate())
}

func TestIsKnownEventType(t *testing.T) {
	assert.True(t, IsKnownEventType(EventTypeDialogRegistered))
	assert.True(t, IsKnownEventType(EventTypeHostNavigated))
	assert.False(t, IsKnownEventType("agent.spawned"))
}

func TestEventPayloadDecoding(t *testing.T) {
	data, err := json.Marshal(DialogTransitionPayload{DialogID: "dialog-4", State: "hidden", QueueLen: 3})
	require.NoError(t, err)

	event := &Event{Type: EventTypeDialogHidden, Payload: data}
	payload, err := event.DialogPayload()
	require.NoError(t, err)
	assert.Equal(t, "dialog-4", payload.DialogID)
	assert.Equal(t, 3, payload.QueueLen)

	empty := &Event{Type: EventTypeHostBlocked}
	host, err := empty.HostPayload()
	require.NoError(t, err)
	assert.Equal(t, HostPayload{}, host)

	broken := &Event{Payload: json.RawMessage(`{`)}
	_, err = broken.HostPayload()
	assert.Error(t, err)
}
