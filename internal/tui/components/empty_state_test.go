package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencode-ai/webmodal/internal/tui/styles"
)

func TestEmptyStateRender(t *testing.T) {
	styleSet := styles.DefaultStyles()

	plain := EmptyState{Title: "Nothing here"}.Render(styleSet)
	assert.Contains(t, plain, "Nothing here")
	assert.NotContains(t, plain, "Try:")
	assert.Equal(t, 1, strings.Count(plain, "\n")+1)

	full := EmptyState{
		Icon:    "🪟",
		Title:   "No dialogs",
		Detail:  "The page is interactive.",
		Actions: []KeyHint{{Key: "o", Action: "open a dialog"}, {Key: "n"}},
	}.Render(styleSet)
	for _, want := range []string{"🪟", "No dialogs", "The page is interactive.", "Try:", "open a dialog"} {
		assert.Contains(t, full, want)
	}
	lines := strings.Split(full, "\n")
	assert.Len(t, lines, 6)
}

func TestEmptyStateRenderCompact(t *testing.T) {
	styleSet := styles.DefaultStyles()

	line := EmptyPaletteFiltered("zz").RenderCompact(styleSet)
	assert.NotContains(t, line, "\n")
	assert.Contains(t, line, `No dialogs match "zz"`)
	assert.Contains(t, line, "backspace: edit the filter")

	assert.Contains(t, EmptyActivity().RenderCompact(styleSet), "📋 No dialog activity yet")
}

func TestPrebuiltEmptyStates(t *testing.T) {
	styleSet := styles.DefaultStyles()

	tests := map[string]struct {
		state EmptyState
		want  []string
	}{
		"tab":      {EmptyTab(), []string{"No dialogs on this tab", "open a dialog"}},
		"no tabs":  {EmptyTabs(), []string{"No tabs open", "webmodal scenario run"}},
		"activity": {EmptyActivity(), []string{"No dialog activity"}},
	}
	for name, tt := range tests {
		rendered := tt.state.Render(styleSet)
		for _, want := range tt.want {
			assert.Contains(t, rendered, want, name)
		}
	}
}
