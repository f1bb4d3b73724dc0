package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sparkdesk/internal/adapter/tui/theme"
	"sparkdesk/internal/domain"
)

// FeatureSelectedMsg is sent when the user activates a catalog entry.
type FeatureSelectedMsg struct {
	Feature domain.Feature
}

// LockedSelectedMsg is sent when the user activates a locked premium entry,
// so the caller can open the access prompt.
type LockedSelectedMsg struct {
	Feature domain.Feature
}

// CatalogModel renders the feature menu. Premium entries show a lock glyph
// until the session is unlocked.
type CatalogModel struct {
	Features []domain.Feature
	Cursor   int
	Unlocked bool
	width    int
}

// NewCatalog creates the menu over the full feature catalog.
func NewCatalog() CatalogModel {
	return CatalogModel{Features: domain.Catalog()}
}

// SetWidth updates the available width.
func (m *CatalogModel) SetWidth(w int) {
	m.width = w
}

// Selected returns the entry under the cursor.
func (m CatalogModel) Selected() domain.Feature {
	return m.Features[m.Cursor]
}

// Update handles menu navigation. Enter emits FeatureSelectedMsg, or
// LockedSelectedMsg when the entry is premium and the session is locked.
func (m CatalogModel) Update(msg tea.Msg) (CatalogModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Features)-1 {
			m.Cursor++
		}
	case "home", "g":
		m.Cursor = 0
	case "end", "G":
		m.Cursor = len(m.Features) - 1
	case "enter":
		feature := m.Selected()
		if feature.Premium && !m.Unlocked {
			return m, func() tea.Msg { return LockedSelectedMsg{Feature: feature} }
		}
		return m, func() tea.Msg { return FeatureSelectedMsg{Feature: feature} }
	}
	return m, nil
}

// View renders the menu.
func (m CatalogModel) View() string {
	var sb strings.Builder
	sb.WriteString(theme.MenuTitle.Render("What do you want to do?"))
	sb.WriteString("\n")

	for i, f := range m.Features {
		label := f.Title
		locked := f.Premium && !m.Unlocked
		if locked {
			label += " " + theme.SymbolLock
		}

		switch {
		case i == m.Cursor:
			sb.WriteString(theme.MenuItemActive.Render(theme.SymbolArrowR + " " + label))
		case locked:
			sb.WriteString(theme.MenuItemLocked.Render("  " + label))
		default:
			sb.WriteString(theme.MenuItem.Render("  " + label))
		}
		sb.WriteString("\n")

		if i == m.Cursor {
			sb.WriteString(theme.MenuDesc.Render(f.Description))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
