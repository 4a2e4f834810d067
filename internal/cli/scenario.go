package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/events"
	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/scenarios"
)

var (
	scenarioTags   []string
	scenarioFiles  []string
	scenarioRecord bool
)

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)
	scenarioCmd.AddCommand(scenarioRunCmd)

	scenarioListCmd.Flags().StringSliceVar(&scenarioTags, "tag", nil, "only list scenarios with this tag")
	scenarioRunCmd.Flags().StringSliceVarP(&scenarioFiles, "file", "f", nil, "run a scenario file instead of a named scenario")
	scenarioRunCmd.Flags().BoolVar(&scenarioRecord, "record", false, "record lifecycle events in the event log")
}

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "List and run dialog scenarios",
	Long: `Scenarios are YAML scripts of dialog manager operations with
expectations. They are loaded from ./.webmodal/scenarios,
~/.config/webmodal/scenarios and the builtin set.`,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := loadScenarios()
		if err != nil {
			return err
		}
		filtered := filterScenarios(all, scenarioTags)

		if IsJSONOutput() || IsJSONLOutput() {
			summaries := make([]scenarioSummary, 0, len(filtered))
			for _, scenario := range filtered {
				summaries = append(summaries, scenarioSummary{
					Name:        scenario.Name,
					Description: scenario.Description,
					Source:      scenarioSourceLabel(scenario.Source),
					Tags:        scenario.Tags,
					Steps:       len(scenario.Steps),
				})
			}
			return WriteOutput(os.Stdout, summaries)
		}
		if len(filtered) == 0 {
			fmt.Println("No scenarios found.")
			return nil
		}

		rows := make([][]string, 0, len(filtered))
		for _, scenario := range filtered {
			rows = append(rows, []string{
				scenario.Name,
				scenarioSourceLabel(scenario.Source),
				fmt.Sprintf("%d", len(scenario.Steps)),
				scenario.Description,
			})
		}
		return writeTable(os.Stdout, []string{"NAME", "SOURCE", "STEPS", "DESCRIPTION"}, rows)
	},
}

var scenarioShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := loadScenarios()
		if err != nil {
			return err
		}
		scenario, ok := scenarios.Find(all, args[0])
		if !ok {
			return fmt.Errorf("scenario %q not found", args[0])
		}
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(scenario)
	},
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run [name...]",
	Short: "Run scenarios and check their expectations",
	Long: `Run the named scenarios, or every scenario when no name is given.
The command exits non-zero when any expectation fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		selected, err := selectScenarios(args, scenarioFiles)
		if err != nil {
			return err
		}

		var opts []scenarios.RunOption
		if scenarioRecord {
			database, err := openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()
			opts = append(opts, scenarios.WithObserver(events.NewRecorder(db.NewEventRepository(database))))
		}

		logger := logging.Component("scenario")
		reports := make([]scenarioReport, 0, len(selected))
		failed := 0
		for i, scenario := range selected {
			step := startCountedProgress(i+1, len(selected), scenario.Name)
			result, err := scenarios.Run(scenario, opts...)
			if err != nil {
				step.Fail(err)
				return fmt.Errorf("scenario %s: %w", scenario.Name, err)
			}
			if result.Passed() {
				step.Done()
			} else {
				step.Fail(nil)
				failed++
			}
			logger.Debug().
				Str("scenario", scenario.Name).
				Bool("passed", result.Passed()).
				Int("failures", len(result.Failures)).
				Msg("scenario finished")
			reports = append(reports, newScenarioReport(scenario, result))
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if err := WriteOutput(os.Stdout, reports); err != nil {
				return err
			}
		} else {
			printScenarioReports(reports)
		}

		if failed > 0 {
			return &exitError{code: 1}
		}
		return nil
	},
}

type scenarioSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags,omitempty"`
	Steps       int      `json:"steps"`
}

// scenarioReport is the output of `webmodal scenario run`.
type scenarioReport struct {
	Name       string               `json:"name"`
	Source     string               `json:"source"`
	Passed     bool                 `json:"passed"`
	Host       string               `json:"host"`
	Active     bool                 `json:"active"`
	Front      string               `json:"front,omitempty"`
	CloseOrder []string             `json:"close_order"`
	Dialogs    []scenarioDialogView `json:"dialogs"`
	Failures   []string             `json:"failures,omitempty"`
}

type scenarioDialogView struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	State    string `json:"state"`
	WasShown bool   `json:"was_shown"`
	Shows    int    `json:"shows"`
	Closes   int    `json:"closes"`
}

func newScenarioReport(scenario *scenarios.Scenario, result *scenarios.Result) scenarioReport {
	report := scenarioReport{
		Name:       scenario.Name,
		Source:     scenarioSourceLabel(scenario.Source),
		Passed:     result.Passed(),
		Host:       result.Host,
		Active:     result.Active,
		Front:      result.Front,
		CloseOrder: append([]string{}, result.CloseOrder...),
		Failures:   result.Failures,
	}
	for _, d := range result.Dialogs {
		report.Dialogs = append(report.Dialogs, scenarioDialogView{
			Name:     d.Name,
			ID:       d.ID.String(),
			State:    d.State.String(),
			WasShown: d.WasShown,
			Shows:    d.Shows,
			Closes:   d.Closes,
		})
	}
	return report
}

func printScenarioReports(reports []scenarioReport) {
	passed := 0
	for _, report := range reports {
		if report.Passed {
			passed++
			fmt.Printf("%s %s\n", colorize("PASS", colorGreen), report.Name)
			continue
		}
		fmt.Printf("%s %s\n", colorize("FAIL", colorRed), report.Name)
		for _, failure := range report.Failures {
			fmt.Printf("  - %s\n", failure)
		}
	}
	fmt.Printf("\n%d/%d scenarios passed\n", passed, len(reports))
}

func loadScenarios() ([]*scenarios.Scenario, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return scenarios.LoadScenariosFromSearchPaths(cwd)
}

// selectScenarios resolves names and files; nothing given means all.
func selectScenarios(names, files []string) ([]*scenarios.Scenario, error) {
	var selected []*scenarios.Scenario
	for _, path := range files {
		scenario, err := scenarios.LoadScenario(path)
		if err != nil {
			return nil, err
		}
		selected = append(selected, scenario)
	}
	if len(files) > 0 && len(names) == 0 {
		return selected, nil
	}

	all, err := loadScenarios()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return all, nil
	}
	for _, name := range names {
		scenario, ok := scenarios.Find(all, normalizeScenarioName(name))
		if !ok {
			return nil, &PreflightError{
				Message:  fmt.Sprintf("scenario %q not found", name),
				NextStep: "webmodal scenario list",
			}
		}
		selected = append(selected, scenario)
	}
	return selected, nil
}

func filterScenarios(all []*scenarios.Scenario, tags []string) []*scenarios.Scenario {
	if len(tags) == 0 {
		return all
	}
	filtered := make([]*scenarios.Scenario, 0, len(all))
	for _, scenario := range all {
		if hasAnyTag(scenario.Tags, tags) {
			filtered = append(filtered, scenario)
		}
	}
	return filtered
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}

func normalizeScenarioName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".yaml")
	name = strings.TrimSuffix(name, ".yml")
	return name
}

func scenarioSourceLabel(source string) string {
	switch {
	case source == "", source == "builtin":
		return "builtin"
	default:
		if home, err := os.UserHomeDir(); err == nil && home != "" && strings.HasPrefix(source, home) {
			return "~" + strings.TrimPrefix(source, home)
		}
		return source
	}
}
