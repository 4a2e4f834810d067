package cli

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/webmodal/internal/models"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

func formatDialogState(state string) string {
	label, color := statusLabelForDialog(state)
	return colorize(formatStatusLabel(label, state), color)
}

func formatSurfaceStatus(status models.SurfaceStatus) string {
	label, color := statusLabelForSurface(status)
	visibility := "visible"
	if !status.Visible {
		visibility = "hidden"
	}
	return colorize(formatStatusLabel(label, visibility), color)
}

func formatEventType(eventType models.EventType) string {
	label, color := statusLabelForEvent(eventType)
	return colorize(formatStatusLabel(label, string(eventType)), color)
}

func statusLabelForDialog(state string) (string, string) {
	parsed, err := webmodal.ParseState(state)
	if err != nil {
		return "WARN", colorYellow
	}
	switch parsed {
	case webmodal.StateShown:
		return "OK", colorGreen
	case webmodal.StateManaged:
		return "WAIT", colorCyan
	case webmodal.StateHidden:
		return "WAIT", colorYellow
	case webmodal.StateClosed:
		return "DONE", colorMagenta
	default:
		return "WARN", colorYellow
	}
}

func statusLabelForSurface(status models.SurfaceStatus) (string, string) {
	if status.Blocked {
		return "BLOCKED", colorYellow
	}
	return "OK", colorGreen
}

func statusLabelForEvent(eventType models.EventType) (string, string) {
	switch eventType {
	case models.EventTypeDialogShown, models.EventTypeHostUnblocked:
		return "OK", colorGreen
	case models.EventTypeDialogRegistered, models.EventTypeDialogHidden, models.EventTypeHostBlocked:
		return "WAIT", colorCyan
	case models.EventTypeDialogClosed, models.EventTypeHostInterstitial, models.EventTypeHostNavigated:
		return "DONE", colorMagenta
	case models.EventTypeError:
		return "ERR", colorRed
	default:
		return "WARN", colorYellow
	}
}

func formatStatusLabel(label, status string) string {
	normalized := strings.TrimSpace(status)
	if normalized != "" {
		normalized = strings.ReplaceAll(normalized, "_", " ")
	}
	if normalized == "" {
		return label
	}
	return fmt.Sprintf("%s %s", label, normalized)
}
