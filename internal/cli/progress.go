package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

// progressOut receives progress lines; stdout stays clean for results.
var progressOut io.Writer = os.Stderr

// progressStep reports one long-running step as "label... done (12ms)".
// A nil step is valid and silent.
type progressStep struct {
	label   string
	started time.Time
}

func startProgress(label string) *progressStep {
	if !progressEnabled() {
		return nil
	}
	fmt.Fprintf(progressOut, "%s... ", label)
	return &progressStep{label: label, started: time.Now()}
}

// startCountedProgress prefixes the label with "[n/total]".
func startCountedProgress(n, total int, label string) *progressStep {
	return startProgress(fmt.Sprintf("[%d/%d] %s", n, total, label))
}

func (p *progressStep) Done() {
	if p == nil {
		return
	}
	fmt.Fprintf(progressOut, "done (%s)\n", formatDuration(time.Since(p.started)))
}

func (p *progressStep) Fail(err error) {
	if p == nil {
		return
	}
	if err == nil {
		fmt.Fprintln(progressOut, "failed")
		return
	}
	fmt.Fprintf(progressOut, "failed: %v\n", err)
}

// progressEnabled is false for machine output and when disabled by
// --no-progress, WEBMODAL_NO_PROGRESS or NO_PROGRESS.
func progressEnabled() bool {
	if noProgress || IsJSONOutput() || IsJSONLOutput() {
		return false
	}
	for _, name := range []string{"WEBMODAL_NO_PROGRESS", "NO_PROGRESS"} {
		if _, ok := os.LookupEnv(name); ok {
			return false
		}
	}
	return true
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
