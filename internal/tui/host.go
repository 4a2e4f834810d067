package tui

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/webmodal/internal/tui/components"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

// tab is one browser tab. It is the host surface its manager blocks.
type tab struct {
	name    string
	site    string
	visible bool
	blocked bool
	manager *webmodal.Manager
	dialogs map[webmodal.DialogID]*dialogView
	closed  int
	ignored int
	clock   func() time.Time
}

func newTab(name, site string, visible, closeOnInterstitial bool, clock func() time.Time, observer webmodal.Observer, logger zerolog.Logger) *tab {
	if clock == nil {
		clock = time.Now
	}
	t := &tab{
		name:    name,
		site:    site,
		visible: visible,
		dialogs: make(map[webmodal.DialogID]*dialogView),
		clock:   clock,
	}
	t.manager = webmodal.New(t, webmodal.Config{
		Host:                name,
		CloseOnInterstitial: closeOnInterstitial,
	},
		webmodal.WithObserver(webmodal.MultiObserver{observer, t}),
		webmodal.WithLogger(logger),
	)
	return t
}

// SetHostBlocked implements webmodal.Delegate.
func (t *tab) SetHostBlocked(blocked bool) {
	t.blocked = blocked
}

// IsHostVisible implements webmodal.Delegate.
func (t *tab) IsHostVisible() bool {
	return t.visible
}

// OnDialogEvent forgets dialogs once the manager has closed them.
func (t *tab) OnDialogEvent(event webmodal.Event) {
	if event.Kind != webmodal.EventClosed {
		return
	}
	delete(t.dialogs, event.Dialog)
	t.closed++
}

func (t *tab) setVisible(visible bool) {
	t.visible = visible
	t.manager.OnHostVisibilityChanged(visible)
}

// open registers a new dialog of kind on this tab.
func (t *tab) open(id webmodal.DialogID, kind dialogKind) error {
	view := &dialogView{
		id:       id,
		kind:     kind,
		title:    kind.title(t.site),
		body:     kind.Body,
		openedAt: t.clock(),
		clock:    t.clock,
	}
	t.dialogs[id] = view
	if err := t.manager.Register(id, view); err != nil {
		delete(t.dialogs, id)
		return err
	}
	if kind.Sticky {
		return t.manager.SetCloseOnInterstitial(id, false)
	}
	return nil
}

func (t *tab) front() *dialogView {
	id, ok := t.manager.Front()
	if !ok {
		return nil
	}
	return t.dialogs[id]
}

func (t *tab) cards(now time.Time) []components.DialogCard {
	infos := t.manager.Dialogs()
	cards := make([]components.DialogCard, 0, len(infos))
	for i, info := range infos {
		view := t.dialogs[info.ID]
		if view == nil {
			continue
		}
		cards = append(cards, view.card(info, i+1, len(infos), now))
	}
	return cards
}
