package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/opencode-ai/webmodal/internal/webmodal"
)

// activityLog keeps the last N lifecycle lines for the activity pane.
type activityLog struct {
	mu    sync.Mutex
	size  int
	lines []string
	next  int
	full  bool
	clock func() time.Time
}

func newActivityLog(size int) *activityLog {
	if size <= 0 {
		size = 1
	}
	return &activityLog{
		size:  size,
		lines: make([]string, size),
		clock: time.Now,
	}
}

// OnDialogEvent implements webmodal.Observer.
func (a *activityLog) OnDialogEvent(event webmodal.Event) {
	when := event.Timestamp
	if when.IsZero() {
		when = a.clock()
	}
	if event.Dialog.Valid() {
		a.add(fmt.Sprintf("%s %s %s %s (queue %d)", when.Format("15:04:05"), event.Host, event.Dialog, event.Kind, event.QueueLen))
		return
	}
	a.add(fmt.Sprintf("%s %s %s (queue %d)", when.Format("15:04:05"), event.Host, event.Kind, event.QueueLen))
}

// note records a host-side line that is not a manager event.
func (a *activityLog) note(host, format string, args ...any) {
	a.add(fmt.Sprintf("%s %s %s", a.clock().Format("15:04:05"), host, fmt.Sprintf(format, args...)))
}

func (a *activityLog) add(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lines[a.next] = line
	a.next++
	if a.next >= a.size {
		a.next = 0
		a.full = true
	}
}

// snapshot returns the buffered lines in chronological order.
func (a *activityLog) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.full {
		out := make([]string, a.next)
		copy(out, a.lines[:a.next])
		return out
	}

	out := make([]string, a.size)
	copy(out, a.lines[a.next:])
	copy(out[a.size-a.next:], a.lines[:a.next])
	return out
}
