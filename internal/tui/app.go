// Package tui implements the webmodal terminal user interface: a tabbed
// browser mock-up in which every tab is a host surface with its own
// modal dialog queue.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/webmodal/internal/events"
	"github.com/opencode-ai/webmodal/internal/logging"
	"github.com/opencode-ai/webmodal/internal/tui/components"
	"github.com/opencode-ai/webmodal/internal/tui/styles"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

// Options configures the TUI.
type Options struct {
	Theme               string
	ActivityLines       int
	CloseOnInterstitial bool
	// Events persists lifecycle events when set.
	Events events.Repository
	Logger *zerolog.Logger
}

// Run launches the webmodal TUI program.
func Run(opts Options) error {
	program := tea.NewProgram(initialModel(opts), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// session holds the state shared by every copy of the model.
type session struct {
	tabs      []*tab
	active    int
	minimized bool
	nextTab   int
	nextSite  int
	ids       webmodal.IDAllocator
	activity  *activityLog
	observer  webmodal.Observer
	logger    zerolog.Logger
	// now is the frame clock, advanced by ticks. Highlights are timed on it.
	now       time.Time

	closeOnInterstitial bool
}

func (s *session) clock() time.Time { return s.now }

type inputMode int

const (
	modeNormal inputMode = iota
	modePalette
	modeSearch
)

type model struct {
	width   int
	height  int
	styles  styles.Styles
	keys    keyMap
	help    help.Model
	s       *session
	mode    inputMode
	palette *components.DialogPalette
	viewer  *components.ActivityViewer
	search  string
	status  statusMsg
}

const (
	minWidth  = 80
	minHeight = 24
)

func initialModel(opts Options) model {
	theme, ok := styles.ResolveTheme(opts.Theme)
	if !ok {
		theme = styles.DefaultTheme
	}
	lines := opts.ActivityLines
	if lines <= 0 {
		lines = 50
	}
	logger := logging.Component("tui")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	s := &session{
		activity:            newActivityLog(lines),
		logger:              logger,
		closeOnInterstitial: opts.CloseOnInterstitial,
		now:                 time.Now(),
	}
	s.observer = s.activity
	if opts.Events != nil {
		recorder := events.NewRecorder(opts.Events, events.WithTitles(s.title))
		s.observer = webmodal.MultiObserver{s.activity, recorder}
	}

	m := model{
		styles:  styles.BuildStyles(theme),
		keys:    defaultKeyMap(),
		help:    help.New(),
		s:       s,
		palette: components.NewDialogPalette(paletteItems()),
		viewer:  components.NewActivityViewer(),
	}
	m.s.openTab()
	return m
}

// title looks up a dialog title across tabs for the event recorder.
func (s *session) title(id webmodal.DialogID) string {
	for _, t := range s.tabs {
		if view, ok := t.dialogs[id]; ok {
			return view.title
		}
	}
	return ""
}

func (s *session) current() *tab {
	if s.active < 0 || s.active >= len(s.tabs) {
		return nil
	}
	return s.tabs[s.active]
}

func (s *session) openTab() *tab {
	s.nextTab++
	site := sites[s.nextSite%len(sites)]
	s.nextSite++

	t := newTab(fmt.Sprintf("tab-%d", s.nextTab), site, false, s.closeOnInterstitial, s.clock, s.observer, s.logger)
	s.tabs = append(s.tabs, t)
	s.activity.note(t.name, "opened %s", site)
	s.switchTo(len(s.tabs) - 1)
	return t
}

// switchTo makes tab i the visible one. The previous tab is hidden first.
func (s *session) switchTo(i int) {
	if i < 0 || i >= len(s.tabs) {
		return
	}
	if prev := s.current(); prev != nil && s.active != i && prev.visible {
		prev.setVisible(false)
	}
	s.active = i
	s.tabs[i].setVisible(!s.minimized)
}

func (s *session) closeTab() {
	t := s.current()
	if t == nil {
		return
	}
	t.manager.OnHostDestroyed()
	s.activity.note(t.name, "tab closed")

	s.tabs = append(s.tabs[:s.active], s.tabs[s.active+1:]...)
	if len(s.tabs) == 0 {
		s.active = 0
		return
	}
	next := s.active
	if next >= len(s.tabs) {
		next = len(s.tabs) - 1
	}
	s.active = -1
	s.switchTo(next)
}

func (s *session) setMinimized(minimized bool) {
	s.minimized = minimized
	if t := s.current(); t != nil {
		t.setVisible(!minimized)
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modePalette:
			return m.updatePalette(msg)
		case modeSearch:
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tickMsg:
		m.s.now = time.Time(msg)
		return m, tickCmd()
	case statusMsg:
		m.status = msg
	}
	return m, nil
}

func (m model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.s
	t := s.current()
	m.status = statusMsg{}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NewTab):
		s.openTab()
	case key.Matches(msg, m.keys.NextTab):
		if len(s.tabs) > 0 {
			s.switchTo((s.active + 1) % len(s.tabs))
		}
	case key.Matches(msg, m.keys.SelectTab):
		s.switchTo(int(msg.String()[0]-'1'))
	case key.Matches(msg, m.keys.Minimize):
		s.setMinimized(!s.minimized)
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search = ""
	case key.Matches(msg, m.keys.NextHit):
		m.viewer.NextSearchHit()
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewer.ScrollUp(1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewer.ScrollDown(1)
	case t == nil:
		m.status = statusMsg{text: "No tab open. Press n for a new tab."}
	default:
		return m.updateTab(msg, t)
	}
	return m, nil
}

// updateTab handles keys that act on the current tab.
func (m model) updateTab(msg tea.KeyMsg, t *tab) (tea.Model, tea.Cmd) {
	s := m.s
	front := t.front()

	switch {
	case key.Matches(msg, m.keys.CloseTab):
		s.closeTab()
	case key.Matches(msg, m.keys.Open):
		m.mode = modePalette
		m.palette.Reset()
	case key.Matches(msg, m.keys.Accept):
		if front == nil {
			m.status = statusMsg{text: "No dialog to accept."}
			break
		}
		// The dialog closes itself; the manager is only told about it.
		front.Close(front.id)
		m.report(t.manager.WillClose(front.id))
	case key.Matches(msg, m.keys.Dismiss):
		if front == nil {
			break
		}
		m.report(t.manager.Close(front.id))
	case key.Matches(msg, m.keys.ToggleFlag):
		if front == nil {
			break
		}
		info := t.manager.Dialogs()[0]
		m.report(t.manager.SetCloseOnInterstitial(front.id, !info.CloseOnInterstitial))
	case key.Matches(msg, m.keys.Interstitial):
		t.manager.OnInterstitialAttached()
	case key.Matches(msg, m.keys.Navigate):
		t.site = sites[s.nextSite%len(sites)]
		s.nextSite++
		t.manager.OnNavigated(false)
		s.activity.note(t.name, "navigated to %s", t.site)
	case key.Matches(msg, m.keys.Reload):
		t.manager.OnNavigated(true)
	case key.Matches(msg, m.keys.CloseAll):
		t.manager.CloseAll()
	case key.Matches(msg, m.keys.Click):
		if t.blocked {
			t.ignored++
			t.manager.OnIgnoredInput()
			t.manager.PulseFront()
			s.activity.note(t.name, "input ignored while blocked")
			break
		}
		s.activity.note(t.name, "page clicked")
	}
	return m, nil
}

func (m model) updatePalette(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
	case tea.KeyEnter:
		m.mode = modeNormal
		item := m.palette.SelectedItem()
		t := m.s.current()
		if item == nil || t == nil {
			break
		}
		kind, ok := findDialogKind(item.Kind)
		if !ok {
			break
		}
		m.report(t.open(m.s.ids.Next(), kind))
	case tea.KeyUp:
		m.palette.Move(-1)
	case tea.KeyDown, tea.KeyTab:
		m.palette.Move(1)
	case tea.KeyBackspace:
		m.palette.Backspace()
	case tea.KeyRunes, tea.KeySpace:
		m.palette.Type(string(msg.Runes))
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.search = ""
		m.viewer.SetSearch("")
	case tea.KeyEnter:
		m.mode = modeNormal
		m.viewer.SetSearch(m.search)
	case tea.KeyBackspace:
		if runes := []rune(m.search); len(runes) > 0 {
			m.search = string(runes[:len(runes)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.search += string(msg.Runes)
	}
	return m, nil
}

func (m *model) report(err error) {
	if err != nil {
		m.status = statusMsg{text: err.Error(), isErr: true}
	}
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 {
		if m.width < minWidth || m.height < minHeight {
			return fmt.Sprintf("%s\n", joinLines(m.smallViewLines()))
		}
	}

	width := m.width
	if width <= 0 {
		width = minWidth
	}

	m.viewer.SetLines(m.s.activity.snapshot())

	lines := []string{
		m.styles.Title.Render("webmodal") + m.styles.Muted.Render("  modal dialog sequencer"),
		m.renderTabBar(width),
		"",
	}

	if m.mode == modePalette {
		lines = append(lines, m.styles.Panel.Width(width-2).Render(joinLines(m.palette.Render(m.styles))))
	} else {
		lines = append(lines, m.renderMain(width))
	}

	lines = append(lines, components.RenderActivityPanel(m.styles, m.viewer, "Activity", width-2))
	lines = append(lines, m.statusLine())
	lines = append(lines, m.help.View(m.keys))

	return fmt.Sprintf("%s\n", joinLines(lines))
}

func (m model) renderTabBar(width int) string {
	tabs := make([]components.Tab, 0, len(m.s.tabs))
	for i, t := range m.s.tabs {
		tabs = append(tabs, components.Tab{
			Title:   siteHost(t.site),
			Blocked: t.blocked,
			Active:  i == m.s.active,
		})
	}
	bar := components.RenderTabBar(m.styles, tabs, width)
	if m.s.minimized {
		bar += m.styles.Muted.Render("  (minimized)")
	}
	return bar
}

func (m model) renderMain(width int) string {
	t := m.s.current()
	if t == nil {
		return components.EmptyTabs().Render(m.styles)
	}

	cards := t.cards(m.s.now)
	card := components.RenderHostCard(m.styles, components.HostCard{
		Name:     t.name,
		Site:     t.site,
		Visible:  t.visible,
		Blocked:  t.blocked,
		Queued:   t.manager.Len(),
		Closed:   t.closed,
		Ignored:  t.ignored,
		Dialogs:  cards,
		MaxLines: 6,
	})

	pageWidth := width - lipgloss.Width(card) - 3
	pageHeight := 12
	var page string
	switch {
	case !t.blocked:
		page = m.styles.Content.Width(pageWidth).Height(pageHeight).Render(
			m.styles.Muted.Render(t.site) + "\n\n" + components.EmptyTab().Render(m.styles))
	case !t.visible:
		page = m.styles.Blocked.Width(pageWidth).Height(pageHeight).Render("Window minimized.")
	default:
		dialog := ""
		if front := t.front(); front != nil && front.state == webmodal.StateShown {
			info := t.manager.Dialogs()[0]
			dialog = components.RenderDialogCard(m.styles, front.card(info, 1, len(cards), m.s.now))
		}
		page = m.styles.Blocked.Width(pageWidth).Height(pageHeight).Render(
			lipgloss.Place(pageWidth-2, pageHeight, lipgloss.Center, lipgloss.Center, dialog))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, page, " ", card)
}

func (m model) statusLine() string {
	switch {
	case m.mode == modeSearch:
		return m.styles.Accent.Render("/" + m.search)
	case m.status.isErr:
		return m.styles.Error.Render(m.status.text)
	case m.status.text != "":
		return m.styles.Muted.Render(m.status.text)
	}
	t := m.s.current()
	if t == nil {
		return ""
	}
	front := t.front()
	flag := true
	if front != nil {
		flag = t.manager.Dialogs()[0].CloseOnInterstitial
	}
	return components.RenderQuickActionBar(m.styles, components.DialogQuickActions(front != nil, flag))
}

func (m model) smallViewLines() []string {
	message := fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)
	hint := fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)

	return []string{
		m.styles.Warning.Render(message),
		m.styles.Muted.Render(hint),
		m.styles.Muted.Render("Press q to quit."),
	}
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
