package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const tickInterval = 250 * time.Millisecond

// tickMsg advances the clock used for pulse animation.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// statusMsg sets the transient status line.
type statusMsg struct {
	text  string
	isErr bool
}
