package webmodal

import "time"

// EventKind names a lifecycle transition reported to observers.
type EventKind string

const (
	EventRegistered   EventKind = "registered"
	EventShown        EventKind = "shown"
	EventHidden       EventKind = "hidden"
	EventClosed       EventKind = "closed"
	EventBlocked      EventKind = "blocked"
	EventUnblocked    EventKind = "unblocked"
	EventInterstitial EventKind = "interstitial"
	EventNavigated    EventKind = "navigated"
)

// Event describes one lifecycle transition. Dialog is zero for host-level
// events (blocked, unblocked, interstitial, navigated).
type Event struct {
	Kind      EventKind
	Host      string
	Dialog    DialogID
	QueueLen  int
	Timestamp time.Time
}

// Observer receives lifecycle events synchronously, after the manager has
// updated its own state.
type Observer interface {
	OnDialogEvent(event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnDialogEvent implements Observer.
func (f ObserverFunc) OnDialogEvent(event Event) {
	f(event)
}

// MultiObserver fans an event out to several observers in order.
type MultiObserver []Observer

// OnDialogEvent implements Observer.
func (m MultiObserver) OnDialogEvent(event Event) {
	for _, observer := range m {
		if observer != nil {
			observer.OnDialogEvent(event)
		}
	}
}
