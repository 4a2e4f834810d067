package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

const hostCardWidth = 34

// HostCard contains data needed to render a host surface summary.
type HostCard struct {
	Name     string
	Site     string
	Visible  bool
	Blocked  bool
	Queued   int
	Closed   int
	Ignored  int
	Dialogs  []DialogCard
	MaxLines int
}

// RenderHostCard renders the surface state and its dialog queue.
func RenderHostCard(styleSet styles.Styles, card HostCard) string {
	inner := hostCardWidth - 4
	lines := []string{
		styleSet.Accent.Render(truncate(defaultIfEmpty(card.Name, "tab"), inner)),
		styleSet.Muted.Render(truncate("Site: "+defaultIfEmpty(card.Site, "about:blank"), inner)),
		RenderHostBadge(styleSet, card.Blocked, card.Visible),
		styleSet.Text.Render(fmt.Sprintf("Queued: %d  Closed: %d", card.Queued, card.Closed)),
	}
	if card.Ignored > 0 {
		lines = append(lines, styleSet.Warning.Render(fmt.Sprintf("Ignored input: %d", card.Ignored)))
	}

	if len(card.Dialogs) > 0 {
		lines = append(lines, "", styleSet.Muted.Render("QUEUE"))
		limit := len(card.Dialogs)
		if card.MaxLines > 0 && limit > card.MaxLines {
			limit = card.MaxLines
		}
		for _, dialog := range card.Dialogs[:limit] {
			lines = append(lines, RenderQueueLine(styleSet, dialog, inner))
		}
		if hidden := len(card.Dialogs) - limit; hidden > 0 {
			lines = append(lines, styleSet.Muted.Render(fmt.Sprintf("  +%d more", hidden)))
		}
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(styleSet.Theme.Tokens.Border)).
		Padding(0, 1).
		Width(hostCardWidth).
		MaxWidth(hostCardWidth + 2)

	return cardStyle.Render(strings.Join(lines, "\n"))
}
