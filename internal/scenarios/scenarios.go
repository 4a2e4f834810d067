// Package scenarios loads and runs scripted dialog sequencer scenarios.
package scenarios

// Scenario is an ordered script of manager operations with expectations
// checked once all steps have run.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// HostVisible is the host visibility when the manager is created.
	// Defaults to true.
	HostVisible *bool `yaml:"host_visible,omitempty"`
	// CloseOnInterstitial is the default flag for registered dialogs.
	// Defaults to true.
	CloseOnInterstitial *bool         `yaml:"close_on_interstitial,omitempty"`
	Steps               []Step        `yaml:"steps"`
	Expect              []Expectation `yaml:"expect,omitempty"`
	Tags                []string      `yaml:"tags,omitempty"`
	Source              string        `yaml:"-"` // file path or "builtin"
}

// Step is a single manager operation.
type Step struct {
	Op     Op     `yaml:"op"`
	Dialog string `yaml:"dialog,omitempty"`
	// CloseOnInterstitial sets the flag for register and set_flag.
	CloseOnInterstitial *bool `yaml:"close_on_interstitial,omitempty"`
	// Visible is the new host visibility for visibility steps.
	Visible *bool `yaml:"visible,omitempty"`
	// SameSite marks a navigate step as staying on the same site.
	SameSite bool `yaml:"same_site,omitempty"`
	// Error names the error the step must fail with, e.g. "unknown".
	Error string `yaml:"error,omitempty"`
	// Expect is checked right after the step runs.
	Expect []Expectation `yaml:"expect,omitempty"`
}

// Expectation asserts on one dialog or on the host. Unset fields are not
// checked.
type Expectation struct {
	Dialog   string `yaml:"dialog,omitempty"`
	State    string `yaml:"state,omitempty"`
	WasShown *bool  `yaml:"was_shown,omitempty"`
	Shows    *int   `yaml:"shows,omitempty"`
	Closes   *int   `yaml:"closes,omitempty"`
	Focuses  *int   `yaml:"focuses,omitempty"`
	Pulses   *int   `yaml:"pulses,omitempty"`

	Active     *bool    `yaml:"active,omitempty"`
	Front      *string  `yaml:"front,omitempty"`
	QueueLen   *int     `yaml:"queue_len,omitempty"`
	Blocked    []bool   `yaml:"blocked,omitempty"`
	CloseOrder []string `yaml:"close_order,omitempty"`
}

// Op names a manager operation.
type Op string

const (
	OpRegister     Op = "register"
	OpClose        Op = "close"
	OpWillClose    Op = "will_close"
	OpSetFlag      Op = "set_flag"
	OpVisibility   Op = "visibility"
	OpInterstitial Op = "interstitial"
	OpCloseAll     Op = "close_all"
	OpNavigate     Op = "navigate"
	OpFocus        Op = "focus"
	OpPulse        Op = "pulse"
	OpIgnoredInput Op = "ignored_input"
	OpDestroy      Op = "destroy"
)

// needsDialog reports whether the op addresses a single dialog.
func (o Op) needsDialog() bool {
	switch o {
	case OpRegister, OpClose, OpWillClose, OpSetFlag:
		return true
	default:
		return false
	}
}
