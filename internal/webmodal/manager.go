package webmodal

import (
	"fmt"
	"time"

	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/rs/zerolog"
)

// Config contains manager configuration.
type Config struct {
	// Host names the host surface in logs and events.
	Host string

	// CloseOnInterstitial is the flag newly registered dialogs start with.
	// Default: true.
	CloseOnInterstitial bool
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{
		Host:                "default",
		CloseOnInterstitial: true,
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver registers an observer for lifecycle events.
func WithObserver(observer Observer) Option {
	return func(m *Manager) {
		m.observer = observer
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager sequences the modal dialogs of one host surface.
type Manager struct {
	config   Config
	delegate Delegate
	observer Observer
	logger   zerolog.Logger
	now      func() time.Time

	queue       []*entry
	hostVisible bool
	destroyed   bool

	// closing holds dialogs whose controller Close call is in flight, so a
	// controller that reports WillClose from inside Close is ignored.
	closing map[DialogID]struct{}
	// closingAll suppresses front promotion while CloseAll drains the queue.
	closingAll bool
}

// New creates a manager for one host surface. A nil delegate is allowed;
// the host is then assumed visible until told otherwise.
func New(delegate Delegate, config Config, opts ...Option) *Manager {
	if config.Host == "" {
		config.Host = DefaultConfig().Host
	}

	m := &Manager{
		config:      config,
		delegate:    delegate,
		logger:      logging.Component("webmodal"),
		now:         time.Now,
		hostVisible: true,
		closing:     make(map[DialogID]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("host", config.Host).Logger()

	if delegate != nil {
		m.hostVisible = delegate.IsHostVisible()
	}
	return m
}

// Host returns the host name the manager was configured with.
func (m *Manager) Host() string {
	return m.config.Host
}

// IsActive reports whether any dialog is queued. The host is blocked
// exactly while IsActive is true.
func (m *Manager) IsActive() bool {
	return len(m.queue) > 0
}

// HostVisible reports the manager's last known host visibility.
func (m *Manager) HostVisible() bool {
	return m.hostVisible
}

// Len returns the number of queued dialogs.
func (m *Manager) Len() int {
	return len(m.queue)
}

// Front returns the id of the front dialog, if any.
func (m *Manager) Front() (DialogID, bool) {
	if len(m.queue) == 0 {
		return 0, false
	}
	return m.queue[0].id, true
}

// Dialogs returns a snapshot of the queue, front first.
func (m *Manager) Dialogs() []DialogInfo {
	infos := make([]DialogInfo, 0, len(m.queue))
	for i, e := range m.queue {
		infos = append(infos, DialogInfo{
			ID:                  e.id,
			State:               e.state,
			Front:               i == 0,
			CloseOnInterstitial: e.closeOnInterstitial,
		})
	}
	return infos
}

// Register appends a dialog to the back of the queue and transfers
// ownership of its controller to the manager. The controller is told to
// manage the dialog; it is shown immediately only when it is the sole
// entry and the host is visible.
func (m *Manager) Register(id DialogID, controller Controller) error {
	if m.destroyed {
		return m.fail(ErrHostDestroyed, id)
	}
	if !id.Valid() {
		return m.fail(ErrInvalidDialogID, id)
	}
	if controller == nil {
		return m.fail(ErrNilController, id)
	}
	if m.index(id) >= 0 {
		return m.fail(ErrDuplicateDialog, id)
	}

	e := &entry{
		id:                  id,
		controller:          controller,
		closeOnInterstitial: m.config.CloseOnInterstitial,
	}
	m.queue = append(m.queue, e)

	e.controller.Manage(id)
	e.state = StateManaged
	m.emit(EventRegistered, id)

	if len(m.queue) == 1 {
		if m.hostVisible {
			m.show(e)
		}
		m.setBlocked(true)
	}

	m.logger.Debug().
		Stringer("dialog", id).
		Int("queue_len", len(m.queue)).
		Msg("dialog registered")
	return nil
}

// Close removes a dialog wherever it sits in the queue and tells its
// controller to close. When the front dialog closes, the next-oldest is
// shown if the host is visible. Closing the last dialog unblocks the host.
func (m *Manager) Close(id DialogID) error {
	if _, inFlight := m.closing[id]; inFlight {
		return nil
	}
	idx := m.index(id)
	if idx < 0 {
		return m.fail(ErrUnknownDialog, id)
	}

	e := m.queue[idx]
	m.closing[id] = struct{}{}
	e.controller.Close(id)
	delete(m.closing, id)

	m.detach(id)
	return nil
}

// WillClose reports that a dialog closed itself (for example, the user
// dismissed it). The dialog leaves the queue exactly as in Close, but its
// controller is not told to close again.
func (m *Manager) WillClose(id DialogID) error {
	if _, inFlight := m.closing[id]; inFlight {
		return nil
	}
	if m.index(id) < 0 {
		return m.fail(ErrUnknownDialog, id)
	}
	m.detach(id)
	return nil
}

// SetCloseOnInterstitial sets whether a dialog closes when an interstitial
// attaches to the host.
func (m *Manager) SetCloseOnInterstitial(id DialogID, closeOnInterstitial bool) error {
	idx := m.index(id)
	if idx < 0 {
		return m.fail(ErrUnknownDialog, id)
	}
	m.queue[idx].closeOnInterstitial = closeOnInterstitial
	return nil
}

// OnHostVisibilityChanged shows or hides the front dialog as the host
// becomes visible or invisible. Repeated reports of the same visibility
// are ignored.
func (m *Manager) OnHostVisibilityChanged(visible bool) {
	if m.hostVisible == visible {
		return
	}
	m.hostVisible = visible

	if len(m.queue) == 0 {
		return
	}
	front := m.queue[0]
	if visible {
		m.show(front)
		return
	}
	front.controller.Hide(front.id)
	front.state = StateHidden
	m.emit(EventHidden, front.id)
}

// OnInterstitialAttached closes every dialog flagged to close on
// interstitial pages, in queue order. Promotion runs after each close, so
// a surviving dialog that becomes front is shown.
func (m *Manager) OnInterstitialAttached() {
	m.emit(EventInterstitial, 0)

	flagged := make([]DialogID, 0, len(m.queue))
	for _, e := range m.queue {
		if e.closeOnInterstitial {
			flagged = append(flagged, e.id)
		}
	}
	for _, id := range flagged {
		// A controller may have closed a later dialog re-entrantly.
		if m.index(id) < 0 {
			continue
		}
		_ = m.Close(id)
	}

	m.logger.Debug().
		Int("closed", len(flagged)).
		Int("remaining", len(m.queue)).
		Msg("interstitial attached")
}

// CloseAll closes every dialog front to back. No dialog is promoted while
// the queue drains; the host is unblocked after the last close.
func (m *Manager) CloseAll() {
	if len(m.queue) == 0 {
		return
	}
	prev := m.closingAll
	m.closingAll = true
	defer func() { m.closingAll = prev }()

	ids := make([]DialogID, 0, len(m.queue))
	for _, e := range m.queue {
		ids = append(ids, e.id)
	}
	for _, id := range ids {
		if m.index(id) < 0 {
			continue
		}
		_ = m.Close(id)
	}
}

// FocusFront forwards a focus request to the front dialog.
func (m *Manager) FocusFront() {
	if len(m.queue) == 0 {
		return
	}
	front := m.queue[0]
	front.controller.Focus(front.id)
}

// PulseFront asks the front dialog to draw attention to itself.
func (m *Manager) PulseFront() {
	if len(m.queue) == 0 {
		return
	}
	front := m.queue[0]
	front.controller.Pulse(front.id)
}

// OnIgnoredInput reports user input that the blocked host swallowed. The
// front dialog is focused so the user can see what is blocking them.
func (m *Manager) OnIgnoredInput() {
	m.FocusFront()
}

// OnNavigated reports a main-frame navigation of the host. Navigating to
// a different site closes every dialog.
func (m *Manager) OnNavigated(sameSite bool) {
	m.emit(EventNavigated, 0)
	if sameSite {
		return
	}
	m.CloseAll()
}

// OnHostDestroyed closes every dialog. The manager rejects registrations
// afterwards.
func (m *Manager) OnHostDestroyed() {
	m.CloseAll()
	m.destroyed = true
	m.logger.Debug().Msg("host destroyed")
}

// SetDelegate attaches the manager to a different host delegate. The new
// delegate's visibility becomes the manager's view of the host, and it is
// told the current blocked state.
func (m *Manager) SetDelegate(delegate Delegate) {
	m.delegate = delegate

	if delegate != nil {
		m.OnHostVisibilityChanged(delegate.IsHostVisible())
		delegate.SetHostBlocked(len(m.queue) > 0)
	}

	for _, e := range m.queue {
		if observer, ok := e.controller.(HostChangeObserver); ok {
			observer.HostChanged(delegate)
		}
	}
}

// detach removes a dialog from the queue and restores the front and
// blocked invariants.
func (m *Manager) detach(id DialogID) {
	idx := m.index(id)
	if idx < 0 {
		return
	}
	e := m.queue[idx]
	m.queue = append(m.queue[:idx], m.queue[idx+1:]...)

	e.state = StateClosed
	e.controller = nil
	m.emit(EventClosed, id)

	m.logger.Debug().
		Stringer("dialog", id).
		Bool("was_front", idx == 0).
		Int("queue_len", len(m.queue)).
		Msg("dialog closed")

	if len(m.queue) == 0 {
		m.setBlocked(false)
		return
	}
	if idx == 0 && !m.closingAll && m.hostVisible {
		m.show(m.queue[0])
	}
}

func (m *Manager) show(e *entry) {
	e.controller.Show(e.id)
	e.state = StateShown
	m.emit(EventShown, e.id)
}

func (m *Manager) setBlocked(blocked bool) {
	if m.delegate != nil {
		m.delegate.SetHostBlocked(blocked)
	}
	if blocked {
		m.emit(EventBlocked, 0)
	} else {
		m.emit(EventUnblocked, 0)
	}
}

func (m *Manager) index(id DialogID) int {
	for i, e := range m.queue {
		if e.id == id {
			return i
		}
	}
	return -1
}

func (m *Manager) emit(kind EventKind, id DialogID) {
	if m.observer == nil {
		return
	}
	m.observer.OnDialogEvent(Event{
		Kind:      kind,
		Host:      m.config.Host,
		Dialog:    id,
		QueueLen:  len(m.queue),
		Timestamp: m.now(),
	})
}

func (m *Manager) fail(err error, id DialogID) error {
	m.logger.Error().Err(err).Stringer("dialog", id).Msg("dialog manager misuse")
	return fmt.Errorf("%w: %s", err, id)
}
