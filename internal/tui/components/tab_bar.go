package components

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

// Tab is one entry in the tab bar.
type Tab struct {
	Title   string
	Blocked bool
	Active  bool
}

// RenderTabBar renders tabs left to right with their shortcut numbers,
// truncated to width.
func RenderTabBar(styleSet styles.Styles, tabs []Tab, width int) string {
	if len(tabs) == 0 {
		return styleSet.Muted.Render("(no tabs)")
	}

	parts := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf("%d %s", i+1, truncate(defaultIfEmpty(tab.Title, "tab"), 18))
		if tab.Blocked {
			label += " ●"
		}
		switch {
		case tab.Active:
			parts = append(parts, styleSet.TabActive.Render(label))
		case tab.Blocked:
			parts = append(parts, styleSet.TabBlocked.Render(label))
		default:
			parts = append(parts, styleSet.TabInactive.Render(label))
		}
	}

	bar := strings.Join(parts, styleSet.Border.Render("│"))
	if width > 0 {
		bar = truncate(bar, width)
	}
	return bar
}
