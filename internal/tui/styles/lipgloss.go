package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles derived from theme tokens.
type Styles struct {
	Theme   Theme
	Title   lipgloss.Style
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Panel   lipgloss.Style
	Border  lipgloss.Style
	Focus   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Tab bar.
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabBlocked  lipgloss.Style

	// Host content; Blocked replaces Content while dialogs are queued.
	Content lipgloss.Style
	Blocked lipgloss.Style

	// Dialog presentation states.
	Dialog        lipgloss.Style
	DialogPulse   lipgloss.Style
	StateManaged  lipgloss.Style
	StateShown    lipgloss.Style
	StateHidden   lipgloss.Style
	StateClosed   lipgloss.Style
	FlagSticky    lipgloss.Style
	FlagDismisses lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() Styles {
	return BuildStyles(DefaultTheme)
}

// BuildStyles converts theme tokens into lipgloss styles.
func BuildStyles(theme Theme) Styles {
	tokens := theme.Tokens
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}

	return Styles{
		Theme:   theme,
		Title:   fg(tokens.Text).Bold(true),
		Text:    fg(tokens.Text),
		Muted:   fg(tokens.TextMuted),
		Accent:  fg(tokens.Accent),
		Panel:   fg(tokens.Text).Background(lipgloss.Color(tokens.Panel)).BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color(tokens.Border)),
		Border:  fg(tokens.Border),
		Focus:   fg(tokens.Focus).Bold(true),
		Success: fg(tokens.Success),
		Warning: fg(tokens.Warning),
		Error:   fg(tokens.Error),
		Info:    fg(tokens.Info),

		TabActive:   fg(tokens.Background).Background(lipgloss.Color(tokens.Accent)).Bold(true).Padding(0, 1),
		TabInactive: fg(tokens.TextMuted).Padding(0, 1),
		TabBlocked:  fg(tokens.Warning).Padding(0, 1),

		Content: lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color(tokens.Border)).Padding(0, 1),
		Blocked: fg(tokens.Scrim).BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color(tokens.Scrim)).Padding(0, 1),

		Dialog:        fg(tokens.Text).Background(lipgloss.Color(tokens.Dialog)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(tokens.Focus)).Padding(0, 2),
		DialogPulse:   fg(tokens.Text).Background(lipgloss.Color(tokens.Dialog)).BorderStyle(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color(tokens.Warning)).Padding(0, 2),
		StateManaged:  fg(tokens.TextMuted),
		StateShown:    fg(tokens.Success).Bold(true),
		StateHidden:   fg(tokens.Info),
		StateClosed:   fg(tokens.Error),
		FlagSticky:    fg(tokens.Accent),
		FlagDismisses: fg(tokens.Warning),
	}
}
