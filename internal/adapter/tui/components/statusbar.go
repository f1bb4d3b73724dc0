package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sparkdesk/internal/adapter/tui/theme"
)

// KeyHint represents a single keybinding hint shown in the status bar.
type KeyHint struct {
	Key  string // e.g. "Enter"
	Desc string // e.g. "Send"
}

// StatusBarModel renders a bottom status bar with keybinding hints, model
// info and a running token estimate for the conversation.
type StatusBarModel struct {
	Hints      []KeyHint // show 4-5 most important hints
	AppName    string
	ModelName  string
	TokenCount int    // estimated conversation tokens, 0 hides the counter
	Premium    bool   // show the unlocked badge
	Extra      string // additional status text (e.g. "Thinking...")
	width      int
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() StatusBarModel {
	return StatusBarModel{}
}

// SetWidth updates the available width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// View renders the status bar as a single line.
func (m StatusBarModel) View() string {
	// Left side: keybinding hints.
	var hints []string
	for _, h := range m.Hints {
		key := theme.StatusKey.Render(h.Key)
		hints = append(hints, key+": "+h.Desc)
	}
	left := strings.Join(hints, "  "+theme.Dim.Render("|")+"  ")

	// Right side: app/model info plus token estimate.
	var parts []string
	if m.AppName != "" {
		parts = append(parts, m.AppName)
	}
	if m.Premium {
		parts = append(parts, theme.TextSuccess.Render("premium"))
	}
	if m.ModelName != "" {
		parts = append(parts, m.ModelName)
	}
	if m.TokenCount > 0 {
		parts = append(parts, fmt.Sprintf("~%d tok", m.TokenCount))
	}
	right := theme.TextMuted.Render(strings.Join(parts, " "+theme.SymbolBullet+" "))

	if m.Extra != "" {
		if right != "" {
			right += "  "
		}
		right += theme.TextInfo.Render(m.Extra)
	}

	// Join left and right, padding the gap.
	leftW := lipgloss.Width(left)
	rightW := lipgloss.Width(right)
	gap := m.width - leftW - rightW
	if gap < 1 {
		gap = 1
	}

	bar := left + strings.Repeat(" ", gap) + right
	return theme.StatusBar.Width(m.width).Render(bar)
}
