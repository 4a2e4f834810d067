package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

// QuickAction represents a keyboard-triggered action.
type QuickAction struct {
	Key     string // Keyboard key (e.g., "y", "esc")
	Label   string // Display label (e.g., "Accept", "Dismiss")
	Enabled bool   // Whether the action is available
}

// RenderQuickActionBar renders a horizontal bar of available quick actions.
// Format: "y:Accept  esc:Dismiss  t:Sticky"
func RenderQuickActionBar(styleSet styles.Styles, actions []QuickAction) string {
	var parts []string
	for _, action := range actions {
		if !action.Enabled {
			continue
		}
		keyStyle := styleSet.Accent.Bold(true)
		part := fmt.Sprintf("%s:%s", keyStyle.Render(action.Key), styleSet.Muted.Render(action.Label))
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

// DialogQuickActions returns the actions available on a host surface.
// Dialog actions only apply while a dialog is queued.
func DialogQuickActions(hasDialog, closeOnInterstitial bool) []QuickAction {
	flagLabel := "Sticky"
	if !closeOnInterstitial {
		flagLabel = "Dismissable"
	}
	return []QuickAction{
		{Key: "y", Label: "Accept", Enabled: hasDialog},
		{Key: "esc", Label: "Dismiss", Enabled: hasDialog},
		{Key: "t", Label: flagLabel, Enabled: hasDialog},
		{Key: "o", Label: "Open", Enabled: true},
		{Key: "i", Label: "Interstitial", Enabled: true},
		{Key: "g", Label: "Navigate", Enabled: true},
		{Key: "x", Label: "Close all", Enabled: hasDialog},
	}
}

// RenderCenteredActions renders an action bar centered in width.
func RenderCenteredActions(styleSet styles.Styles, actions []QuickAction, width int) string {
	bar := RenderQuickActionBar(styleSet, actions)
	if bar == "" {
		return ""
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(bar)
}
