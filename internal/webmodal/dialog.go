// Package webmodal sequences modal dialogs on top of a single host surface.
//
// A Manager owns an ordered queue of dialogs for one host (a window, tab or
// content area). The oldest open dialog is the front; it is the only one a
// controller is ever told to show. The host is reported blocked for as long
// as the queue is non-empty.
//
// Managers are not safe for concurrent use. Hosts drive them from a single
// logical thread (a bubbletea Update loop, or a caller holding a lock).
package webmodal

import (
	"fmt"
	"sync/atomic"
)

// DialogID identifies one dialog for the lifetime of its presentation.
// The zero value is never issued.
type DialogID uint64

// String implements fmt.Stringer.
func (id DialogID) String() string {
	return fmt.Sprintf("dialog-%d", uint64(id))
}

// Valid reports whether the id could have been issued by an IDAllocator.
func (id DialogID) Valid() bool {
	return id != 0
}

// IDAllocator hands out unique dialog ids. The zero value is ready to use.
type IDAllocator struct {
	next atomic.Uint64
}

// Next returns a fresh id.
func (a *IDAllocator) Next() DialogID {
	return DialogID(a.next.Add(1))
}

var defaultAllocator IDAllocator

// NewDialogID returns a process-wide unique id.
func NewDialogID() DialogID {
	return defaultAllocator.Next()
}

// State is the presentation state a manager last drove a dialog to.
type State int

const (
	StateUnmanaged State = iota
	StateManaged
	StateShown
	StateHidden
	StateClosed
)

var stateNames = map[State]string{
	StateUnmanaged: "unmanaged",
	StateManaged:   "managed",
	StateShown:     "shown",
	StateHidden:    "hidden",
	StateClosed:    "closed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState converts a state name back to a State.
func ParseState(name string) (State, error) {
	for state, stateName := range stateNames {
		if stateName == name {
			return state, nil
		}
	}
	return StateUnmanaged, fmt.Errorf("unknown dialog state %q", name)
}

// DialogInfo is a read-only snapshot of one queued dialog.
type DialogInfo struct {
	ID                  DialogID
	State               State
	Front               bool
	CloseOnInterstitial bool
}

// entry pairs a dialog with the controller it exclusively owns.
type entry struct {
	id                  DialogID
	controller          Controller
	closeOnInterstitial bool
	state               State
}
