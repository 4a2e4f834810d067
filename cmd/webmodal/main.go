// Command webmodal sequences tab-modal dialogs on host surfaces.
package main

import (
	"os"

	"github.com/opencode-ai/webmodal/internal/cli"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.ExitCode(cli.Execute(version)))
}
