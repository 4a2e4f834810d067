package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencode-ai/webmodal/internal/webmodal"
	"gopkg.in/yaml.v3"
)

var knownErrors = map[string]error{
	"duplicate": webmodal.ErrDuplicateDialog,
	"unknown":   webmodal.ErrUnknownDialog,
	"destroyed": webmodal.ErrHostDestroyed,
}

// LoadScenario reads a single scenario from disk.
func LoadScenario(path string) (*Scenario, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("scenario path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	scenario, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	scenario.Source = path
	return scenario, nil
}

// LoadScenariosFromDir loads all scenarios from a directory. A missing
// directory yields no scenarios.
func LoadScenariosFromDir(dir string) ([]*Scenario, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Scenario{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Scenario{}, nil
		}
		return nil, fmt.Errorf("read scenarios dir %s: %w", dir, err)
	}

	scenarios := make([]*Scenario, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		scenario, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Name < scenarios[j].Name
	})
	return scenarios, nil
}

// Parse decodes and normalizes a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	scenario.Name = strings.TrimSpace(scenario.Name)
	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario name is required")
	}
	scenario.Description = strings.TrimSpace(scenario.Description)

	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario steps are required")
	}

	for i := range scenario.Steps {
		if err := normalizeStep(&scenario.Steps[i]); err != nil {
			return nil, fmt.Errorf("scenario step %d: %w", i+1, err)
		}
	}
	for i := range scenario.Expect {
		if err := normalizeExpectation(&scenario.Expect[i]); err != nil {
			return nil, fmt.Errorf("scenario expectation %d: %w", i+1, err)
		}
	}

	return &scenario, nil
}

func normalizeStep(step *Step) error {
	step.Op = Op(strings.ToLower(strings.TrimSpace(string(step.Op))))
	step.Dialog = strings.TrimSpace(step.Dialog)
	step.Error = strings.ToLower(strings.TrimSpace(step.Error))

	switch step.Op {
	case OpRegister, OpClose, OpWillClose, OpInterstitial, OpCloseAll,
		OpNavigate, OpFocus, OpPulse, OpIgnoredInput, OpDestroy:
	case OpSetFlag:
		if step.CloseOnInterstitial == nil {
			return fmt.Errorf("set_flag requires close_on_interstitial")
		}
	case OpVisibility:
		if step.Visible == nil {
			return fmt.Errorf("visibility requires visible")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.Op.needsDialog() && step.Dialog == "" {
		return fmt.Errorf("%s requires dialog", step.Op)
	}
	if step.Error != "" {
		if _, ok := knownErrors[step.Error]; !ok {
			return fmt.Errorf("unknown error name %q", step.Error)
		}
	}

	for i := range step.Expect {
		if err := normalizeExpectation(&step.Expect[i]); err != nil {
			return fmt.Errorf("expectation %d: %w", i+1, err)
		}
	}
	return nil
}

func normalizeExpectation(expect *Expectation) error {
	expect.Dialog = strings.TrimSpace(expect.Dialog)
	expect.State = strings.ToLower(strings.TrimSpace(expect.State))

	if expect.State != "" {
		if expect.Dialog == "" {
			return fmt.Errorf("state expectation requires dialog")
		}
		if _, err := webmodal.ParseState(expect.State); err != nil {
			return err
		}
	}
	if expect.Dialog == "" && (expect.WasShown != nil || expect.Shows != nil ||
		expect.Closes != nil || expect.Focuses != nil || expect.Pulses != nil) {
		return fmt.Errorf("dialog counters require dialog")
	}
	return nil
}
