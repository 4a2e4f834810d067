package models

import "time"

// DialogRecord describes one queued dialog for display and export.
type DialogRecord struct {
	// ID is the dialog id as issued by the host.
	ID string `json:"id"`

	// Handle is the remote handle for dialogs opened through the daemon.
	Handle string `json:"handle,omitempty"`

	// Title is the human-readable dialog title.
	Title string `json:"title,omitempty"`

	// State is the presentation state the manager last drove it to.
	State string `json:"state"`

	// Front is true for the oldest open dialog.
	Front bool `json:"front"`

	// CloseOnInterstitial reports whether an interstitial closes it.
	CloseOnInterstitial bool `json:"close_on_interstitial"`

	// OpenedAt is when the dialog was registered.
	OpenedAt time.Time `json:"opened_at,omitempty"`
}

// SurfaceStatus is a snapshot of one host surface and its dialog queue.
type SurfaceStatus struct {
	// Name identifies the host surface.
	Name string `json:"name"`

	// Visible is the host's last known visibility.
	Visible bool `json:"visible"`

	// Blocked is true while any dialog is queued.
	Blocked bool `json:"blocked"`

	// Dialogs lists the queue, front first.
	Dialogs []DialogRecord `json:"dialogs"`

	// Closed counts dialogs closed since the surface was created.
	Closed int64 `json:"closed"`
}
