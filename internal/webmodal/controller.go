package webmodal

// Controller presents one dialog on behalf of the host platform.
//
// A manager calls Manage once when the dialog is registered, Show and Hide
// only while the dialog is the front of the queue, and Close exactly once.
// After Close returns the manager drops its reference to the controller.
// Focus and Pulse are forwarded from the host without any sequencing.
type Controller interface {
	Manage(id DialogID)
	Show(id DialogID)
	Hide(id DialogID)
	Close(id DialogID)
	Focus(id DialogID)
	Pulse(id DialogID)
}

// HostChangeObserver is implemented by controllers that need to know when
// the manager is attached to a different host delegate.
type HostChangeObserver interface {
	HostChanged(delegate Delegate)
}

// Delegate is the host surface a manager blocks.
type Delegate interface {
	// SetHostBlocked is called on every transition of Manager.IsActive.
	SetHostBlocked(blocked bool)
	// IsHostVisible reports the host's current visibility. It seeds the
	// manager's view of the host when the delegate is attached.
	IsHostVisible() bool
}

// ControllerFuncs adapts plain functions to the Controller interface.
// Nil fields are no-ops.
type ControllerFuncs struct {
	OnManage func(DialogID)
	OnShow   func(DialogID)
	OnHide   func(DialogID)
	OnClose  func(DialogID)
	OnFocus  func(DialogID)
	OnPulse  func(DialogID)
}

func (c ControllerFuncs) Manage(id DialogID) { call(c.OnManage, id) }
func (c ControllerFuncs) Show(id DialogID)   { call(c.OnShow, id) }
func (c ControllerFuncs) Hide(id DialogID)   { call(c.OnHide, id) }
func (c ControllerFuncs) Close(id DialogID)  { call(c.OnClose, id) }
func (c ControllerFuncs) Focus(id DialogID)  { call(c.OnFocus, id) }
func (c ControllerFuncs) Pulse(id DialogID)  { call(c.OnPulse, id) }

func call(fn func(DialogID), id DialogID) {
	if fn != nil {
		fn(id)
	}
}
