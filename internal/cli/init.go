package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/opencode-ai/webmodal/internal/config"
	"github.com/opencode-ai/webmodal/internal/db"
	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

var (
	initForce        bool
	initSkipDatabase bool
	initYes          bool

	// configDirFunc is replaced in tests.
	configDirFunc = defaultConfigDir
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
	initCmd.Flags().BoolVar(&initSkipDatabase, "skip-database", false, "do not create the event log database")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "accept defaults without prompting")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file, scenario directory and event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		answers := defaultInitAnswers(GetConfig())
		if !initYes && !IsNonInteractive() && !IsJSONOutput() && !IsJSONLOutput() {
			if err := promptInitAnswers(&answers); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return &exitError{code: 130}
				}
				return err
			}
		}

		results := []initResult{
			checkPrerequisites(),
			createConfigFile(answers),
			createScenarioDir(),
		}
		if !initSkipDatabase {
			results = append(results, initDatabase())
		}

		if IsJSONOutput() || IsJSONLOutput() {
			views := make([]initResultView, 0, len(results))
			for _, r := range results {
				views = append(views, initResultView{Name: r.name, Status: r.status, Message: r.message})
			}
			if err := WriteOutput(os.Stdout, views); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				fmt.Printf("%s %s: %s\n", initStatusMarker(r.status), r.name, r.message)
			}
		}

		for _, r := range results {
			if r.status == "failed" {
				return &exitError{code: 1}
			}
		}
		return nil
	},
}

// initResult is the outcome of one init step: done, skipped or failed.
type initResult struct {
	name    string
	status  string
	message string
}

type initResultView struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func initStatusMarker(status string) string {
	switch status {
	case "done":
		return colorize("[ok]  ", colorGreen)
	case "skipped":
		return colorize("[skip]", colorYellow)
	default:
		return colorize("[fail]", colorRed)
	}
}

// checkPrerequisites verifies the daemon port can be bound.
func checkPrerequisites() initResult {
	result := initResult{name: "Prerequisites"}
	cfg := GetConfig()

	addr := net.JoinHostPort(cfg.Daemon.Host, strconv.Itoa(cfg.Daemon.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		result.status = "failed"
		result.message = fmt.Sprintf("daemon port %s unavailable: %v", addr, err)
		return result
	}
	_ = listener.Close()

	tty := "no"
	if hasTTY() {
		tty = "yes"
	}
	result.status = "done"
	result.message = fmt.Sprintf("daemon port %s free, tty %s", addr, tty)
	return result
}

// initAnswers are the values written into a new config file.
type initAnswers struct {
	Theme               string
	Port                int
	CloseOnInterstitial bool
	HostVisible         bool
}

func defaultInitAnswers(cfg *config.Config) initAnswers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return initAnswers{
		Theme:               cfg.TUI.Theme,
		Port:                cfg.Daemon.Port,
		CloseOnInterstitial: cfg.Dialogs.CloseOnInterstitial,
		HostVisible:         cfg.Dialogs.HostVisible,
	}
}

func promptInitAnswers(answers *initAnswers) error {
	themes := styles.ThemeNames()
	themeOpts := make([]huh.Option[string], 0, len(themes))
	for _, name := range themes {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	port := strconv.Itoa(answers.Port)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("theme").
				Title("TUI theme").
				Options(themeOpts...).
				Value(&answers.Theme),

			huh.NewInput().
				Key("port").
				Title("Daemon port").
				Description("Port the dialog daemon listens on").
				Validate(validatePort).
				Value(&port),

			huh.NewConfirm().
				Key("close_on_interstitial").
				Title("Close dialogs on interstitial pages?").
				Value(&answers.CloseOnInterstitial),

			huh.NewConfirm().
				Key("host_visible").
				Title("Treat new host surfaces as visible?").
				Value(&answers.HostVisible),
		),
	).WithShowHelp(true).WithShowErrors(true)

	if err := form.Run(); err != nil {
		return err
	}
	answers.Port, _ = strconv.Atoi(strings.TrimSpace(port))
	return nil
}

func validatePort(value string) error {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

func renderConfigTemplate(answers initAnswers) ([]byte, error) {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, answers); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return buf.Bytes(), nil
}

func createConfigFile(answers initAnswers) initResult {
	result := initResult{name: "Config file"}
	dir := configDirFunc()
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil && !initForce {
		result.status = "skipped"
		result.message = fmt.Sprintf("%s already exists (use --force to overwrite)", path)
		return result
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.status = "failed"
		result.message = fmt.Sprintf("failed to create %s: %v", dir, err)
		return result
	}
	data, err := renderConfigTemplate(answers)
	if err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		result.status = "failed"
		result.message = fmt.Sprintf("failed to write %s: %v", path, err)
		return result
	}

	result.status = "done"
	result.message = path
	return result
}

func createScenarioDir() initResult {
	result := initResult{name: "Scenarios"}
	dir := filepath.Join(configDirFunc(), "scenarios")
	path := filepath.Join(dir, "example.yaml")

	if _, err := os.Stat(path); err == nil && !initForce {
		result.status = "skipped"
		result.message = fmt.Sprintf("%s already exists", path)
		return result
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.status = "failed"
		result.message = fmt.Sprintf("failed to create %s: %v", dir, err)
		return result
	}
	if err := os.WriteFile(path, []byte(exampleScenario), 0o644); err != nil {
		result.status = "failed"
		result.message = fmt.Sprintf("failed to write %s: %v", path, err)
		return result
	}

	result.status = "done"
	result.message = path
	return result
}

func initDatabase() initResult {
	result := initResult{name: "Event log"}
	database, err := openDatabase()
	if err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}
	defer database.Close()

	if _, err := db.NewEventRepository(database).CountByType(context.Background(), ""); err != nil {
		result.status = "failed"
		result.message = err.Error()
		return result
	}

	result.status = "done"
	result.message = database.Path()
	return result
}

func defaultConfigDir() string {
	return config.DefaultConfigDir()
}

var configTemplate = template.Must(template.New("config").Parse(`# webmodal Configuration File
#
# Values here override the built-in defaults. Every key can also be set
# from the environment, e.g. WEBMODAL_DAEMON_PORT=50072.

logging:
  # trace, debug, info, warn, error
  level: info
  # console or json
  format: console
  # file: ~/.local/state/webmodal/webmodal.log

# Event log location. Defaults to $XDG_DATA_HOME/webmodal/webmodal.db.
# database:
#   path: ~/.local/share/webmodal/webmodal.db

dialogs:
  # Whether an interstitial page closes newly opened dialogs.
  close_on_interstitial: {{.CloseOnInterstitial}}
  # Visibility of a host surface when the daemon first sees it.
  host_visible: {{.HostVisible}}

tui:
  # default or high-contrast
  theme: {{.Theme}}
  activity_lines: 50

daemon:
  host: 127.0.0.1
  port: {{.Port}}
  rate_limit: true
`))

const exampleScenario = `name: example
description: Two dialogs queue behind each other; closing the first shows the second.
tags: [example]
steps:
  - op: register
    dialog: first
  - op: register
    dialog: second
    expect:
      - dialog: second
        state: managed
      - front: first
  - op: close
    dialog: first
expect:
  - dialog: second
    state: shown
  - active: true
    close_order: [first]
`
