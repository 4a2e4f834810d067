package scenarios

import (
	"os"
	"path/filepath"
)

// ScenarioSearchPaths returns scenario search directories in precedence
// order.
func ScenarioSearchPaths(projectDir string) []string {
	paths := make([]string, 0, 2)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".webmodal", "scenarios"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "webmodal", "scenarios"))
	}
	return paths
}

// LoadScenariosFromSearchPaths loads scenarios from the search paths and
// the builtins. The first scenario with a given name wins.
func LoadScenariosFromSearchPaths(projectDir string) ([]*Scenario, error) {
	seen := make(map[string]*Scenario)
	order := make([]string, 0)
	add := func(list []*Scenario) {
		for _, scenario := range list {
			if _, exists := seen[scenario.Name]; exists {
				continue
			}
			seen[scenario.Name] = scenario
			order = append(order, scenario.Name)
		}
	}

	for _, path := range ScenarioSearchPaths(projectDir) {
		scenarios, err := LoadScenariosFromDir(path)
		if err != nil {
			return nil, err
		}
		add(scenarios)
	}

	builtins, err := LoadBuiltinScenarios()
	if err != nil {
		return nil, err
	}
	add(builtins)

	resolved := make([]*Scenario, 0, len(order))
	for _, name := range order {
		resolved = append(resolved, seen[name])
	}
	return resolved, nil
}

// Find returns the scenario with the given name.
func Find(scenarios []*Scenario, name string) (*Scenario, bool) {
	for _, scenario := range scenarios {
		if scenario.Name == name {
			return scenario, true
		}
	}
	return nil, false
}
