package tui

import (
	"fmt"
	"net/url"

	"github.com/opencode-ai/webmodal/internal/tui/components"
)

// dialogKind describes a kind of tab-modal dialog a page can raise.
type dialogKind struct {
	Kind        string
	Name        string
	Description string
	Tags        []string
	// Title is a format string taking the site host.
	Title string
	Body  string
	// Sticky dialogs survive interstitial pages.
	Sticky bool
}

func (k dialogKind) title(site string) string {
	return fmt.Sprintf(k.Title, siteHost(site))
}

var dialogCatalog = []dialogKind{
	{
		Kind:        "alert",
		Name:        "Alert",
		Description: "Single message with OK",
		Tags:        []string{"javascript"},
		Title:       "%s says",
		Body:        "Your session will expire in 5 minutes.",
	},
	{
		Kind:        "confirm",
		Name:        "Confirm",
		Description: "OK / Cancel question",
		Tags:        []string{"javascript"},
		Title:       "%s says",
		Body:        "Delete 3 selected items?",
	},
	{
		Kind:        "prompt",
		Name:        "Prompt",
		Description: "Question with a text answer",
		Tags:        []string{"javascript", "input"},
		Title:       "%s says",
		Body:        "Enter a name for the new folder:",
	},
	{
		Kind:        "beforeunload",
		Name:        "Leave site",
		Description: "Unsaved changes warning",
		Tags:        []string{"navigation"},
		Title:       "Leave %s?",
		Body:        "Changes you made may not be saved.",
	},
	{
		Kind:        "http-auth",
		Name:        "HTTP Auth",
		Description: "Sign in to the site",
		Tags:        []string{"login", "credentials"},
		Title:       "Sign in to %s",
		Body:        "Your connection to this site is not private.",
		Sticky:      true,
	},
	{
		Kind:        "permission",
		Name:        "Permission",
		Description: "Location access request",
		Tags:        []string{"geolocation", "prompt"},
		Title:       "%s wants to",
		Body:        "Know your location.",
	},
	{
		Kind:        "print",
		Name:        "Print",
		Description: "Print preview",
		Tags:        []string{"printing"},
		Title:       "Print %s",
		Body:        "1 sheet of paper. Destination: Save as PDF.",
		Sticky:      true,
	},
	{
		Kind:        "file-chooser",
		Name:        "File chooser",
		Description: "Upload a file",
		Tags:        []string{"upload", "files"},
		Title:       "Open file for %s",
		Body:        "Choose a file to upload.",
	},
}

func findDialogKind(kind string) (dialogKind, bool) {
	for _, k := range dialogCatalog {
		if k.Kind == kind {
			return k, true
		}
	}
	return dialogKind{}, false
}

func paletteItems() []components.PaletteItem {
	items := make([]components.PaletteItem, 0, len(dialogCatalog))
	for _, k := range dialogCatalog {
		items = append(items, components.PaletteItem{
			Kind:        k.Kind,
			Name:        k.Name,
			Description: k.Description,
			Tags:        k.Tags,
		})
	}
	return items
}

// sites are visited in rotation by new tabs and cross-site navigation.
var sites = []string{
	"https://example.com/",
	"https://news.example.org/today",
	"https://shop.example.net/cart",
	"https://mail.example.com/inbox",
	"https://docs.example.io/guide",
}

func siteHost(site string) string {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return site
	}
	return u.Host
}
