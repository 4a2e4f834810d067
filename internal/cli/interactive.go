package cli

import (
	"os"

	"golang.org/x/term"
)

// IsNonInteractive reports whether prompts and the TUI are unavailable:
// --non-interactive, WEBMODAL_NON_INTERACTIVE, or no terminal.
func IsNonInteractive() bool {
	if nonInteractive {
		return true
	}
	if _, ok := os.LookupEnv("WEBMODAL_NON_INTERACTIVE"); ok {
		return true
	}
	return !hasTTY()
}

// requireInteractive fails with a hint when what needs a terminal.
func requireInteractive(what, fallback string) error {
	if !IsNonInteractive() {
		return nil
	}
	return &PreflightError{
		Message:  what + " requires an interactive terminal",
		Hint:     "Run without --non-interactive and with a TTY, or use CLI subcommands",
		NextStep: fallback,
	}
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
