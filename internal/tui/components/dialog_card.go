package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

const dialogCardWidth = 48

// DialogCard contains data needed to render a modal dialog.
type DialogCard struct {
	Title               string
	Kind                string
	Body                string
	State               webmodal.State
	CloseOnInterstitial bool
	// Position is the 1-based place in the queue; QueueLen the queue size.
	Position int
	QueueLen int
	Focused  bool
	Pulsing  bool
}

// RenderDialogCard renders the shown dialog as a bordered box.
func RenderDialogCard(styleSet styles.Styles, card DialogCard) string {
	width := dialogCardWidth - 6

	header := styleSet.Title.Render(truncate(defaultIfEmpty(card.Title, "Dialog"), width))
	kind := styleSet.Muted.Render(defaultIfEmpty(card.Kind, "dialog"))

	body := strings.TrimSpace(card.Body)
	if body == "" {
		body = "(no message)"
	}
	bodyBlock := lipgloss.NewStyle().Width(width).Render(styleSet.Text.Render(body))

	flag := styleSet.FlagDismisses.Render("closes on interstitial")
	if !card.CloseOnInterstitial {
		flag = styleSet.FlagSticky.Render("survives interstitial")
	}
	status := fmt.Sprintf("%s  %s", RenderDialogStateBadge(styleSet, card.State), flag)

	queue := ""
	if card.QueueLen > 1 {
		queue = styleSet.Muted.Render(fmt.Sprintf("%d of %d queued", card.Position, card.QueueLen))
	}

	lines := []string{header, kind, "", bodyBlock, "", status}
	if queue != "" {
		lines = append(lines, queue)
	}
	lines = append(lines, RenderQuickActionBar(styleSet, []QuickAction{
		{Key: "y", Label: "OK", Enabled: true},
		{Key: "esc", Label: "Cancel", Enabled: true},
	}))
	if card.Focused {
		lines = append(lines, styleSet.Focus.Render("Finish this dialog first."))
	}

	style := styleSet.Dialog
	if card.Pulsing {
		style = styleSet.DialogPulse
	}
	return style.Width(dialogCardWidth).Render(strings.Join(lines, "\n"))
}

// RenderQueueLine renders one compact line for a queued dialog.
func RenderQueueLine(styleSet styles.Styles, card DialogCard, width int) string {
	badge := RenderDialogStateBadge(styleSet, card.State)
	label := fmt.Sprintf("%d. %s", card.Position, defaultIfEmpty(card.Title, "Dialog"))
	room := width - lipgloss.Width(badge) - 1
	return fmt.Sprintf("%s %s", badge, styleSet.Text.Render(truncate(label, room)))
}
