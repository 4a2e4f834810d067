// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

// EmptyState is the placeholder shown where a pane has nothing to list.
type EmptyState struct {
	Icon    string
	Title   string
	Detail  string
	Actions []KeyHint
}

// KeyHint pairs a key (or a shell command) with what it does.
type KeyHint struct {
	Key    string
	Action string
}

// Render draws the icon and title, the detail line, then one line per
// action.
func (e EmptyState) Render(styleSet styles.Styles) string {
	lines := []string{styleSet.Muted.Render(e.heading("  "))}
	if e.Detail != "" {
		lines = append(lines, styleSet.Muted.Render(e.Detail))
	}
	if len(e.Actions) == 0 {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "", styleSet.Text.Render("Try:"))
	for _, hint := range e.Actions {
		line := "  " + styleSet.Accent.Render(hint.Key)
		if hint.Action != "" {
			line += "  " + styleSet.Muted.Render(hint.Action)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderCompact draws a single line suitable for a list row.
func (e EmptyState) RenderCompact(styleSet styles.Styles) string {
	line := e.heading(" ")
	if len(e.Actions) > 0 {
		line = fmt.Sprintf("%s (%s: %s)", line, e.Actions[0].Key, e.Actions[0].Action)
	}
	return styleSet.Muted.Render(line)
}

func (e EmptyState) heading(sep string) string {
	if e.Icon == "" {
		return e.Title
	}
	return e.Icon + sep + e.Title
}

// EmptyTab is shown on a host surface with an empty dialog queue.
func EmptyTab() EmptyState {
	return EmptyState{
		Icon:   "🪟",
		Title:  "No dialogs on this tab",
		Detail: "The page is interactive. Open a dialog to block it.",
		Actions: []KeyHint{
			{Key: "o", Action: "open a dialog"},
			{Key: "n", Action: "open a new tab"},
		},
	}
}

// EmptyTabs is shown once every tab is closed.
func EmptyTabs() EmptyState {
	return EmptyState{
		Icon:   "🚀",
		Title:  "No tabs open",
		Detail: "Each tab is a host surface with its own dialog queue.",
		Actions: []KeyHint{
			{Key: "n", Action: "open a new tab"},
			{Key: "webmodal scenario run", Action: "replay the builtin scenarios"},
		},
	}
}

func EmptyActivity() EmptyState {
	return EmptyState{Icon: "📋", Title: "No dialog activity yet"}
}

// EmptyPaletteFiltered is shown when no dialog kind matches filter.
func EmptyPaletteFiltered(filter string) EmptyState {
	return EmptyState{
		Icon:    "🔍",
		Title:   fmt.Sprintf("No dialogs match %q", filter),
		Actions: []KeyHint{{Key: "backspace", Action: "edit the filter"}},
	}
}
