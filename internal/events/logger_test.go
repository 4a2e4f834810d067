package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/opencode-ai/webmodal/internal/models"
	"github.com/opencode-ai/webmodal/internal/webmodal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	events []*models.Event
	err    error
}

func (r *fakeRepo) Create(ctx context.Context, event *models.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRepo) last() *models.Event {
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func TestLogDialogTransition(t *testing.T) {
	repo := &fakeRepo{}

	err := LogDialogTransition(context.Background(), repo, models.EventTypeDialogShown, "tab-1", models.DialogTransitionPayload{
		DialogID: "dialog-1",
		State:    "shown",
		QueueLen: 2,
	})
	require.NoError(t, err)

	event := repo.last()
	require.NotNil(t, event)
	assert.Equal(t, models.EventTypeDialogShown, event.Type)
	assert.Equal(t, models.EntityTypeDialog, event.EntityType)
	assert.Equal(t, "dialog-1", event.EntityID)
	assert.Equal(t, "tab-1", event.Host)

	var payload models.DialogTransitionPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, 2, payload.QueueLen)
}

func TestLogDialogTransitionRequiresInputs(t *testing.T) {
	err := LogDialogTransition(context.Background(), nil, models.EventTypeDialogShown, "tab-1", models.DialogTransitionPayload{DialogID: "dialog-1"})
	assert.Error(t, err)

	err = LogDialogTransition(context.Background(), &fakeRepo{}, models.EventTypeDialogShown, "tab-1", models.DialogTransitionPayload{})
	assert.Error(t, err)

	err = LogHostTransition(context.Background(), &fakeRepo{}, models.EventTypeHostBlocked, "", models.HostPayload{})
	assert.Error(t, err)
}

func TestRecorderMapsManagerEvents(t *testing.T) {
	repo := &fakeRepo{}
	recorder := NewRecorder(repo,
		WithRecorderLogger(zerolog.Nop()),
		WithTitles(func(id webmodal.DialogID) string { return "Confirm " + id.String() }),
	)

	manager := webmodal.New(nil, webmodal.Config{Host: "tab-7"},
		webmodal.WithLogger(zerolog.Nop()),
		webmodal.WithObserver(recorder),
	)

	var ids webmodal.IDAllocator
	id := ids.Next()
	require.NoError(t, manager.Register(id, webmodal.ControllerFuncs{}))
	require.NoError(t, manager.Close(id))

	types := make([]models.EventType, 0, len(repo.events))
	for _, event := range repo.events {
		types = append(types, event.Type)
		assert.Equal(t, "tab-7", event.Host)
	}
	assert.Equal(t, []models.EventType{
		models.EventTypeDialogRegistered,
		models.EventTypeDialogShown,
		models.EventTypeHostBlocked,
		models.EventTypeDialogClosed,
		models.EventTypeHostUnblocked,
	}, types)

	var payload models.DialogTransitionPayload
	require.NoError(t, json.Unmarshal(repo.events[0].Payload, &payload))
	assert.Equal(t, "Confirm dialog-1", payload.Title)
	assert.Equal(t, "managed", payload.State)
}

func TestRecorderSwallowsWriteErrors(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	recorder := NewRecorder(repo, WithRecorderLogger(zerolog.Nop()))

	assert.NotPanics(t, func() {
		recorder.OnDialogEvent(webmodal.Event{Kind: webmodal.EventBlocked, Host: "tab-1", QueueLen: 1})
	})

	err := recorder.Record(context.Background(), webmodal.Event{Kind: "bogus", Host: "tab-1"})
	assert.Error(t, err)
}
