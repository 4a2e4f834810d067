package scenarios

import (
	"errors"
	"fmt"
	"slices"

	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/webmodal"
	"github.com/rs/zerolog"
)

// Result reports what happened while a scenario ran.
type Result struct {
	Scenario string
	Host     string
	// Dialogs lists every dialog the scenario named, in first-use order.
	Dialogs []DialogResult
	// Blocked holds every SetHostBlocked transition, in order.
	Blocked []bool
	// CloseOrder names dialogs in the order they left the queue.
	CloseOrder []string
	Active     bool
	Front      string
	Failures   []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Dialog returns the result for a named dialog.
func (r *Result) Dialog(name string) (DialogResult, bool) {
	for _, d := range r.Dialogs {
		if d.Name == name {
			return d, true
		}
	}
	return DialogResult{}, false
}

// DialogResult is the final record of one scripted dialog.
type DialogResult struct {
	Name     string
	ID       webmodal.DialogID
	State    webmodal.State
	WasShown bool
	Shows    int
	Hides    int
	Closes   int
	Focuses  int
	Pulses   int
}

// RunOption configures Run.
type RunOption func(*runner)

// WithObserver forwards manager events to observer as well.
func WithObserver(observer webmodal.Observer) RunOption {
	return func(r *runner) {
		r.observers = append(r.observers, observer)
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) RunOption {
	return func(r *runner) {
		r.logger = logger
	}
}

// WithHost overrides the host name, which defaults to "scenario:<name>".
func WithHost(host string) RunOption {
	return func(r *runner) {
		r.host = host
	}
}

// Run executes a scenario against a fresh manager. Expectation failures
// are reported in the Result; an error means the scenario could not run.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is required")
	}

	r := &runner{
		scenario: scenario,
		logger:   logging.Component("scenarios"),
		host:     "scenario:" + scenario.Name,
		byName:   make(map[string]*tracker),
		byID:     make(map[webmodal.DialogID]*tracker),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.result = &Result{Scenario: scenario.Name, Host: r.host}

	closeOnInterstitial := true
	if scenario.CloseOnInterstitial != nil {
		closeOnInterstitial = *scenario.CloseOnInterstitial
	}
	r.visible = true
	if scenario.HostVisible != nil {
		r.visible = *scenario.HostVisible
	}

	observers := append(webmodal.MultiObserver{webmodal.ObserverFunc(r.observe)}, r.observers...)
	r.manager = webmodal.New(r, webmodal.Config{
		Host:                r.host,
		CloseOnInterstitial: closeOnInterstitial,
	},
		webmodal.WithObserver(observers),
		webmodal.WithLogger(r.logger),
	)

	for i, step := range scenario.Steps {
		where := fmt.Sprintf("step %d (%s)", i+1, step.Op)
		r.apply(step, where)
		for _, expect := range step.Expect {
			r.check(expect, "after "+where)
		}
	}
	for _, expect := range scenario.Expect {
		r.check(expect, "at end")
	}

	r.result.Active = r.manager.IsActive()
	if id, ok := r.manager.Front(); ok {
		r.result.Front = r.byID[id].name
	}
	for _, t := range r.order {
		r.result.Dialogs = append(r.result.Dialogs, t.result())
	}

	r.logger.Debug().
		Str("scenario", scenario.Name).
		Int("failures", len(r.result.Failures)).
		Msg("scenario finished")
	return r.result, nil
}

type runner struct {
	scenario  *Scenario
	manager   *webmodal.Manager
	logger    zerolog.Logger
	host      string
	visible   bool
	observers []webmodal.Observer
	ids       webmodal.IDAllocator

	byName map[string]*tracker
	byID   map[webmodal.DialogID]*tracker
	order  []*tracker
	result *Result
}

// SetHostBlocked implements webmodal.Delegate.
func (r *runner) SetHostBlocked(blocked bool) {
	r.result.Blocked = append(r.result.Blocked, blocked)
}

// IsHostVisible implements webmodal.Delegate.
func (r *runner) IsHostVisible() bool {
	return r.visible
}

func (r *runner) observe(event webmodal.Event) {
	if event.Kind != webmodal.EventClosed {
		return
	}
	if t, ok := r.byID[event.Dialog]; ok {
		r.result.CloseOrder = append(r.result.CloseOrder, t.name)
	}
}

func (r *runner) dialog(name string) *tracker {
	if t, ok := r.byName[name]; ok {
		return t
	}
	t := &tracker{name: name, id: r.ids.Next()}
	r.byName[name] = t
	r.byID[t.id] = t
	r.order = append(r.order, t)
	return t
}

func (r *runner) apply(step Step, where string) {
	var err error
	switch step.Op {
	case OpRegister:
		t := r.dialog(step.Dialog)
		err = r.manager.Register(t.id, t)
		if err == nil && step.CloseOnInterstitial != nil {
			err = r.manager.SetCloseOnInterstitial(t.id, *step.CloseOnInterstitial)
		}
	case OpClose:
		err = r.manager.Close(r.dialog(step.Dialog).id)
	case OpWillClose:
		t := r.dialog(step.Dialog)
		if err = r.manager.WillClose(t.id); err == nil {
			t.state = webmodal.StateClosed
		}
	case OpSetFlag:
		err = r.manager.SetCloseOnInterstitial(r.dialog(step.Dialog).id, *step.CloseOnInterstitial)
	case OpVisibility:
		r.visible = *step.Visible
		r.manager.OnHostVisibilityChanged(r.visible)
	case OpInterstitial:
		r.manager.OnInterstitialAttached()
	case OpCloseAll:
		r.manager.CloseAll()
	case OpNavigate:
		r.manager.OnNavigated(step.SameSite)
	case OpFocus:
		r.manager.FocusFront()
	case OpPulse:
		r.manager.PulseFront()
	case OpIgnoredInput:
		r.manager.OnIgnoredInput()
	case OpDestroy:
		r.manager.OnHostDestroyed()
	default:
		r.failf("%s: unknown op", where)
		return
	}

	want := knownErrors[step.Error]
	switch {
	case want == nil && err != nil:
		r.failf("%s: unexpected error: %v", where, err)
	case want != nil && !errors.Is(err, want):
		r.failf("%s: error = %v, want %v", where, err, want)
	}
}

func (r *runner) check(expect Expectation, where string) {
	if expect.Dialog != "" {
		t, ok := r.byName[expect.Dialog]
		if !ok {
			r.failf("%s: dialog %s was never used", where, expect.Dialog)
			return
		}
		label := where + ": dialog " + t.name
		if expect.State != "" && t.state.String() != expect.State {
			r.failf("%s: state = %s, want %s", label, t.state, expect.State)
		}
		if wasShown := t.shows > 0; expect.WasShown != nil && wasShown != *expect.WasShown {
			r.failf("%s: was_shown = %t, want %t", label, wasShown, *expect.WasShown)
		}
		r.checkCount(label, "shows", t.shows, expect.Shows)
		r.checkCount(label, "closes", t.closes, expect.Closes)
		r.checkCount(label, "focuses", t.focuses, expect.Focuses)
		r.checkCount(label, "pulses", t.pulses, expect.Pulses)
	}

	if expect.Active != nil && r.manager.IsActive() != *expect.Active {
		r.failf("%s: active = %t, want %t", where, r.manager.IsActive(), *expect.Active)
	}
	if expect.Front != nil {
		front := ""
		if id, ok := r.manager.Front(); ok {
			front = r.byID[id].name
		}
		if front != *expect.Front {
			r.failf("%s: front = %q, want %q", where, front, *expect.Front)
		}
	}
	r.checkCount(where, "queue_len", r.manager.Len(), expect.QueueLen)
	if expect.Blocked != nil && !slices.Equal(r.result.Blocked, expect.Blocked) {
		r.failf("%s: blocked transitions = %v, want %v", where, r.result.Blocked, expect.Blocked)
	}
	if expect.CloseOrder != nil && !slices.Equal(r.result.CloseOrder, expect.CloseOrder) {
		r.failf("%s: close order = %v, want %v", where, r.result.CloseOrder, expect.CloseOrder)
	}
}

func (r *runner) checkCount(where, field string, got int, want *int) {
	if want != nil && got != *want {
		r.failf("%s: %s = %d, want %d", where, field, got, *want)
	}
}

func (r *runner) failf(format string, args ...any) {
	r.result.Failures = append(r.result.Failures, fmt.Sprintf(format, args...))
}

// tracker is the controller the runner registers for each named dialog.
type tracker struct {
	name    string
	id      webmodal.DialogID
	state   webmodal.State
	shows   int
	hides   int
	closes  int
	focuses int
	pulses  int
}

func (t *tracker) Manage(webmodal.DialogID) { t.state = webmodal.StateManaged }
func (t *tracker) Hide(webmodal.DialogID)   { t.state = webmodal.StateHidden; t.hides++ }
func (t *tracker) Close(webmodal.DialogID)  { t.state = webmodal.StateClosed; t.closes++ }
func (t *tracker) Focus(webmodal.DialogID)  { t.focuses++ }
func (t *tracker) Pulse(webmodal.DialogID)  { t.pulses++ }

func (t *tracker) Show(webmodal.DialogID) {
	t.state = webmodal.StateShown
	t.shows++
}

func (t *tracker) result() DialogResult {
	return DialogResult{
		Name:     t.name,
		ID:       t.id,
		State:    t.state,
		WasShown: t.shows > 0,
		Shows:    t.shows,
		Hides:    t.hides,
		Closes:   t.closes,
		Focuses:  t.focuses,
		Pulses:   t.pulses,
	}
}
