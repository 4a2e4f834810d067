package modald

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/webmodal/internal/models"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

// remoteDialog is the controller for a dialog opened over the wire. It
// records the state the manager drives it to; clients read it back.
type remoteDialog struct {
	handle   string
	id       webmodal.DialogID
	title    string
	kind     string
	state    webmodal.State
	shown    bool
	openedAt time.Time
}

func (d *remoteDialog) Manage(webmodal.DialogID) { d.state = webmodal.StateManaged }
func (d *remoteDialog) Hide(webmodal.DialogID)   { d.state = webmodal.StateHidden }
func (d *remoteDialog) Close(webmodal.DialogID)  { d.state = webmodal.StateClosed }
func (d *remoteDialog) Focus(webmodal.DialogID)  {}
func (d *remoteDialog) Pulse(webmodal.DialogID)  {}

func (d *remoteDialog) Show(webmodal.DialogID) {
	d.state = webmodal.StateShown
	d.shown = true
}

// surface is a named remote host surface with its own manager.
type surface struct {
	name      string
	visible   bool
	blocked   bool
	closed    int64
	createdAt time.Time
	manager   *webmodal.Manager
	dialogs   map[webmodal.DialogID]*remoteDialog
}

func newSurface(name string, visible, closeOnInterstitial bool, observer webmodal.Observer, logger zerolog.Logger) *surface {
	s := &surface{
		name:      name,
		visible:   visible,
		createdAt: time.Now(),
		dialogs:   make(map[webmodal.DialogID]*remoteDialog),
	}
	s.manager = webmodal.New(s, webmodal.Config{
		Host:                name,
		CloseOnInterstitial: closeOnInterstitial,
	},
		webmodal.WithObserver(webmodal.MultiObserver{observer, s}),
		webmodal.WithLogger(logger.With().Str("surface", name).Logger()),
	)
	return s
}

// SetHostBlocked implements webmodal.Delegate.
func (s *surface) SetHostBlocked(blocked bool) {
	s.blocked = blocked
}

// IsHostVisible implements webmodal.Delegate.
func (s *surface) IsHostVisible() bool {
	return s.visible
}

// OnDialogEvent drops closed dialogs from the handle table.
func (s *surface) OnDialogEvent(event webmodal.Event) {
	if event.Kind != webmodal.EventClosed {
		return
	}
	delete(s.dialogs, event.Dialog)
	s.closed++
}

func (s *surface) setVisible(visible bool) {
	s.visible = visible
	s.manager.OnHostVisibilityChanged(visible)
}

func (s *surface) status() models.SurfaceStatus {
	infos := s.manager.Dialogs()
	records := make([]models.DialogRecord, 0, len(infos))
	for _, info := range infos {
		record := models.DialogRecord{
			ID:                  info.ID.String(),
			State:               info.State.String(),
			Front:               info.Front,
			CloseOnInterstitial: info.CloseOnInterstitial,
		}
		if d := s.dialogs[info.ID]; d != nil {
			record.Handle = d.handle
			record.Title = d.title
			record.OpenedAt = d.openedAt
		}
		records = append(records, record)
	}
	return models.SurfaceStatus{
		Name:    s.name,
		Visible: s.visible,
		Blocked: s.blocked,
		Dialogs: records,
		Closed:  s.closed,
	}
}
