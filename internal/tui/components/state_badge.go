// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

// RenderDialogStateBadge renders a dialog presentation state with icon and color.
func RenderDialogStateBadge(styleSet styles.Styles, state webmodal.State) string {
	icon, label, style := stateDescriptor(styleSet, state)
	return style.Render(fmt.Sprintf("%s %s", icon, label))
}

// RenderHostBadge renders a host surface's blocked and visibility state.
func RenderHostBadge(styleSet styles.Styles, blocked, visible bool) string {
	switch {
	case blocked && visible:
		return styleSet.Warning.Render("BLK Blocked")
	case blocked:
		return styleSet.Muted.Render("BLK Blocked (hidden)")
	case visible:
		return styleSet.Success.Render("OK Interactive")
	default:
		return styleSet.Muted.Render("- Hidden")
	}
}

func stateDescriptor(styleSet styles.Styles, state webmodal.State) (string, string, lipgloss.Style) {
	switch state {
	case webmodal.StateShown:
		return ">", "Shown", styleSet.StateShown
	case webmodal.StateHidden:
		return "~", "Hidden", styleSet.StateHidden
	case webmodal.StateManaged:
		return "..", "Queued", styleSet.StateManaged
	case webmodal.StateClosed:
		return "x", "Closed", styleSet.StateClosed
	default:
		return "-", "Unmanaged", styleSet.Muted
	}
}
