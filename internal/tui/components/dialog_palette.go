package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

// PaletteItem is one dialog kind the user can open.
type PaletteItem struct {
	Kind        string
	Name        string
	Description string
	Tags        []string
}

func (i PaletteItem) haystack() string {
	return strings.Join([]string{i.Name, i.Description, strings.Join(i.Tags, " ")}, " ")
}

// paletteSource adapts items to fuzzy.Source.
type paletteSource []PaletteItem

func (s paletteSource) String(i int) string { return s[i].haystack() }
func (s paletteSource) Len() int            { return len(s) }

// DialogPalette stores state for the open-dialog palette.
type DialogPalette struct {
	Query string
	Index int
	Items []PaletteItem
}

// NewDialogPalette creates a palette over items, sorted by name.
func NewDialogPalette(items []PaletteItem) *DialogPalette {
	p := &DialogPalette{}
	p.SetItems(items)
	return p
}

// SetItems replaces the palette entries.
func (p *DialogPalette) SetItems(items []PaletteItem) {
	p.Items = append([]PaletteItem(nil), items...)
	sort.Slice(p.Items, func(i, j int) bool {
		return strings.ToLower(p.Items[i].Name) < strings.ToLower(p.Items[j].Name)
	})
	p.ClampIndex()
}

// Reset clears the query and selection.
func (p *DialogPalette) Reset() {
	p.Query = ""
	p.Index = 0
}

// Type appends text to the query.
func (p *DialogPalette) Type(text string) {
	p.Query += text
	p.Index = 0
}

// Backspace removes the last rune of the query.
func (p *DialogPalette) Backspace() {
	if p.Query == "" {
		return
	}
	runes := []rune(p.Query)
	p.Query = string(runes[:len(runes)-1])
	p.Index = 0
}

// Move shifts the selection, wrapping at both ends.
func (p *DialogPalette) Move(delta int) {
	items := p.Filtered()
	if len(items) == 0 {
		p.Index = 0
		return
	}
	idx := p.Index
	if idx < 0 || idx >= len(items) {
		idx = 0
	}
	idx += delta
	if idx < 0 {
		idx = len(items) - 1
	} else if idx >= len(items) {
		idx = 0
	}
	p.Index = idx
}

// ClampIndex keeps the selection index in bounds.
func (p *DialogPalette) ClampIndex() {
	items := p.Filtered()
	if len(items) == 0 || p.Index < 0 {
		p.Index = 0
		return
	}
	if p.Index >= len(items) {
		p.Index = len(items) - 1
	}
}

// SelectedItem returns the highlighted entry, or nil when nothing matches.
func (p *DialogPalette) SelectedItem() *PaletteItem {
	items := p.Filtered()
	if p.Index < 0 || p.Index >= len(items) {
		return nil
	}
	selected := items[p.Index]
	return &selected
}

// Filtered returns the items matching the query, best match first.
func (p *DialogPalette) Filtered() []PaletteItem {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return p.Items
	}
	matches := fuzzy.FindFrom(query, paletteSource(p.Items))
	filtered := make([]PaletteItem, 0, len(matches))
	for _, match := range matches {
		filtered = append(filtered, p.Items[match.Index])
	}
	return filtered
}

// Render renders the palette lines.
func (p *DialogPalette) Render(styleSet styles.Styles) []string {
	lines := []string{
		styleSet.Accent.Render("Open Dialog"),
		styleSet.Muted.Render("Type to filter. Enter to open. Esc to close."),
		styleSet.Text.Render(fmt.Sprintf("> %s", p.Query)),
	}

	items := p.Filtered()
	if len(items) == 0 {
		return append(lines, EmptyPaletteFiltered(p.Query).RenderCompact(styleSet))
	}
	for idx, item := range items {
		label := item.Name
		if desc := strings.TrimSpace(item.Description); desc != "" {
			label = fmt.Sprintf("%s - %s", item.Name, desc)
		}
		label = truncate(label, 72)
		if idx == p.Index {
			lines = append(lines, styleSet.Focus.Render("> "+label))
			continue
		}
		lines = append(lines, styleSet.Muted.Render("  "+label))
	}
	return lines
}
