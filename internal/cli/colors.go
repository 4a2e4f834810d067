package cli

import "os"

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

var noColor = func() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return false
}

func colorize(text, color string) string {
	if color == "" || noColor() || !hasTTY() || IsJSONOutput() || IsJSONLOutput() {
		return text
	}
	return color + text + colorReset
}
