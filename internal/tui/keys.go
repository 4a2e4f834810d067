package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NewTab       key.Binding
	CloseTab     key.Binding
	NextTab      key.Binding
	SelectTab    key.Binding
	Open         key.Binding
	Accept       key.Binding
	Dismiss      key.Binding
	ToggleFlag   key.Binding
	Interstitial key.Binding
	Navigate     key.Binding
	Reload       key.Binding
	CloseAll     key.Binding
	Click        key.Binding
	Minimize     key.Binding
	Search       key.Binding
	NextHit      key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NewTab:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new tab")),
		CloseTab:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "close tab")),
		NextTab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		SelectTab:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "go to tab")),
		Open:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open dialog")),
		Accept:       key.NewBinding(key.WithKeys("enter", "y"), key.WithHelp("y/enter", "accept")),
		Dismiss:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		ToggleFlag:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle close on interstitial")),
		Interstitial: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "interstitial")),
		Navigate:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "navigate cross-site")),
		Reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "navigate same-site")),
		CloseAll:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close all")),
		Click:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "click page")),
		Minimize:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "minimize window")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search activity")),
		NextHit:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next match")),
		ScrollUp:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll activity")),
		ScrollDown:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll activity")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Accept, k.Dismiss, k.Interstitial, k.NewTab, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Accept, k.Dismiss, k.ToggleFlag, k.CloseAll},
		{k.Interstitial, k.Navigate, k.Reload, k.Click, k.Minimize},
		{k.NewTab, k.CloseTab, k.NextTab, k.SelectTab},
		{k.Search, k.NextHit, k.ScrollUp, k.ScrollDown, k.Help, k.Quit},
	}
}
