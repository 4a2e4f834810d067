package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

// ActivityViewer displays a scrollable, searchable list of activity lines.
type ActivityViewer struct {
	Lines        []string
	ScrollOffset int
	Height       int
	Width        int
	SearchQuery  string
	SearchIndex  int
	follow       bool
	searchHits   []int
}

// NewActivityViewer creates a viewer that follows new lines.
func NewActivityViewer() *ActivityViewer {
	return &ActivityViewer{Height: 8, Width: 60, follow: true}
}

// SetLines replaces the content. While following, the view sticks to
// the newest line.
func (v *ActivityViewer) SetLines(lines []string) {
	v.Lines = lines
	if v.follow {
		v.ScrollToBottom()
	}
	v.clampScroll()
	v.updateSearchHits()
}

// ScrollUp scrolls the view up by n lines and stops following.
func (v *ActivityViewer) ScrollUp(n int) {
	v.ScrollOffset -= n
	v.follow = false
	v.clampScroll()
}

// ScrollDown scrolls the view down by n lines, following again at the end.
func (v *ActivityViewer) ScrollDown(n int) {
	v.ScrollOffset += n
	v.clampScroll()
	v.follow = v.ScrollOffset >= v.maxOffset()
}

// ScrollToBottom jumps to the newest line.
func (v *ActivityViewer) ScrollToBottom() {
	v.ScrollOffset = v.maxOffset()
	v.follow = true
}

// Following reports whether the view sticks to new lines.
func (v *ActivityViewer) Following() bool {
	return v.follow
}

// SetSearch highlights lines containing query and jumps to the first hit.
func (v *ActivityViewer) SetSearch(query string) {
	v.SearchQuery = query
	v.SearchIndex = 0
	v.updateSearchHits()
	if len(v.searchHits) > 0 {
		v.follow = false
		v.scrollToLine(v.searchHits[0])
	}
}

// NextSearchHit moves to the next search result.
func (v *ActivityViewer) NextSearchHit() {
	if len(v.searchHits) == 0 {
		return
	}
	v.SearchIndex = (v.SearchIndex + 1) % len(v.searchHits)
	v.scrollToLine(v.searchHits[v.SearchIndex])
}

// SearchHitCount returns the number of search matches.
func (v *ActivityViewer) SearchHitCount() int {
	return len(v.searchHits)
}

func (v *ActivityViewer) updateSearchHits() {
	v.searchHits = nil
	if v.SearchQuery == "" {
		return
	}
	query := strings.ToLower(v.SearchQuery)
	for i, line := range v.Lines {
		if strings.Contains(strings.ToLower(line), query) {
			v.searchHits = append(v.searchHits, i)
		}
	}
}

func (v *ActivityViewer) scrollToLine(lineIdx int) {
	visible := v.visibleLines()
	if lineIdx < v.ScrollOffset {
		v.ScrollOffset = lineIdx
	} else if lineIdx >= v.ScrollOffset+visible {
		v.ScrollOffset = lineIdx - visible + 1
	}
	v.clampScroll()
}

func (v *ActivityViewer) visibleLines() int {
	if v.Height <= 1 {
		return 1
	}
	return v.Height - 1 // footer
}

func (v *ActivityViewer) maxOffset() int {
	maxOffset := len(v.Lines) - v.visibleLines()
	if maxOffset < 0 {
		return 0
	}
	return maxOffset
}

func (v *ActivityViewer) clampScroll() {
	if v.ScrollOffset > v.maxOffset() {
		v.ScrollOffset = v.maxOffset()
	}
	if v.ScrollOffset < 0 {
		v.ScrollOffset = 0
	}
}

// Render renders the visible lines and a scroll footer.
func (v *ActivityViewer) Render(styleSet styles.Styles) string {
	if len(v.Lines) == 0 {
		return EmptyActivity().RenderCompact(styleSet)
	}

	end := v.ScrollOffset + v.visibleLines()
	if end > len(v.Lines) {
		end = len(v.Lines)
	}

	current := -1
	if len(v.searchHits) > 0 {
		current = v.searchHits[v.SearchIndex]
	}

	rendered := make([]string, 0, end-v.ScrollOffset+1)
	for i := v.ScrollOffset; i < end; i++ {
		line := v.Lines[i]
		if v.Width > 0 && lipgloss.Width(line) > v.Width {
			line = truncate(line, v.Width)
		}
		style := lineStyle(styleSet, line)
		if i == current {
			style = styleSet.Focus
		}
		rendered = append(rendered, style.Render(line))
	}
	rendered = append(rendered, v.footer(styleSet))
	return strings.Join(rendered, "\n")
}

func (v *ActivityViewer) footer(styleSet styles.Styles) string {
	total := len(v.Lines)
	end := v.ScrollOffset + v.visibleLines()
	if end > total {
		end = total
	}
	info := fmt.Sprintf("─── %d-%d of %d ───", v.ScrollOffset+1, end, total)
	if v.SearchQuery != "" && len(v.searchHits) > 0 {
		info = fmt.Sprintf("─── %d-%d of %d | Match %d/%d ───", v.ScrollOffset+1, end, total, v.SearchIndex+1, len(v.searchHits))
	}
	if !v.follow {
		info += " (paused)"
	}
	return styleSet.Muted.Render(info)
}

func lineStyle(styleSet styles.Styles, line string) lipgloss.Style {
	switch {
	case strings.Contains(line, " shown "):
		return styleSet.StateShown
	case strings.Contains(line, " hidden "):
		return styleSet.StateHidden
	case strings.Contains(line, " closed "):
		return styleSet.StateClosed
	case strings.Contains(line, " blocked"), strings.Contains(line, " ignored"):
		return styleSet.Warning
	case strings.Contains(line, " interstitial"), strings.Contains(line, " navigated"):
		return styleSet.Info
	default:
		return styleSet.Text
	}
}

// RenderActivityPanel renders a titled activity panel.
func RenderActivityPanel(styleSet styles.Styles, viewer *ActivityViewer, title string, width int) string {
	viewer.Width = width - 4
	header := styleSet.Accent.Render(title)
	if viewer.SearchQuery != "" {
		header += styleSet.Muted.Render(fmt.Sprintf(" (/%s %d)", viewer.SearchQuery, len(viewer.searchHits)))
	}
	return styleSet.Panel.Width(width).Padding(0, 1).Render(header + "\n" + viewer.Render(styleSet))
}
