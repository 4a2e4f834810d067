package tui

import (
	"time"

	"github.com/opencode-ai/webmodal/internal/tui/components"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

const pulseDuration = 600 * time.Millisecond

// dialogView presents one dialog in the terminal. The manager drives its
// state; View renders whichever dialog is shown. Focus and pulse are
// highlights that expire pulseDuration after the request, measured on the
// session's frame clock.
type dialogView struct {
	id         webmodal.DialogID
	kind       dialogKind
	title      string
	body       string
	state      webmodal.State
	openedAt   time.Time
	focusUntil time.Time
	pulseUntil time.Time
	clock      func() time.Time
}

func (d *dialogView) Manage(webmodal.DialogID) { d.state = webmodal.StateManaged }
func (d *dialogView) Show(webmodal.DialogID)   { d.state = webmodal.StateShown }

func (d *dialogView) Hide(webmodal.DialogID) {
	d.state = webmodal.StateHidden
	d.clearHighlight()
}

func (d *dialogView) Close(webmodal.DialogID) {
	d.state = webmodal.StateClosed
	d.clearHighlight()
}

func (d *dialogView) Focus(webmodal.DialogID) { d.focusUntil = d.now().Add(pulseDuration) }
func (d *dialogView) Pulse(webmodal.DialogID) { d.pulseUntil = d.now().Add(pulseDuration) }

func (d *dialogView) now() time.Time {
	if d.clock == nil {
		return time.Now()
	}
	return d.clock()
}

func (d *dialogView) clearHighlight() {
	d.focusUntil = time.Time{}
	d.pulseUntil = time.Time{}
}

func (d *dialogView) focused(now time.Time) bool {
	return now.Before(d.focusUntil)
}

func (d *dialogView) pulsing(now time.Time) bool {
	return now.Before(d.pulseUntil)
}

func (d *dialogView) card(info webmodal.DialogInfo, position, queueLen int, now time.Time) components.DialogCard {
	return components.DialogCard{
		Title:               d.title,
		Kind:                d.kind.Name,
		Body:                d.body,
		State:               d.state,
		CloseOnInterstitial: info.CloseOnInterstitial,
		Position:            position,
		QueueLen:            queueLen,
		Focused:             d.focused(now),
		Pulsing:             d.pulsing(now),
	}
}
