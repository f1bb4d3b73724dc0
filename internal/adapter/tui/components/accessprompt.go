package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sparkdesk/internal/adapter/tui/theme"
)

// AccessSubmitMsg carries the access code the user typed.
type AccessSubmitMsg struct {
	Code string
}

// AccessCancelMsg signals the prompt was dismissed.
type AccessCancelMsg struct{}

// AccessPromptModel is a centered modal asking for the premium access code.
// The input is masked.
type AccessPromptModel struct {
	Visible bool
	Input   textinput.Model
	Err     string // last rejection, shown under the input
	width   int
	height  int
}

// NewAccessPrompt creates the hidden access prompt.
func NewAccessPrompt() AccessPromptModel {
	ti := textinput.New()
	ti.Placeholder = "access code"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.CharLimit = 64
	ti.Width = 30
	return AccessPromptModel{Input: ti}
}

// SetSize records the surrounding terminal dimensions for centering.
func (m *AccessPromptModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Open shows the prompt with a fresh input.
func (m *AccessPromptModel) Open() {
	m.Visible = true
	m.Err = ""
	m.Input.Reset()
	m.Input.Focus()
}

// Close hides the prompt.
func (m *AccessPromptModel) Close() {
	m.Visible = false
	m.Input.Blur()
}

// Reject keeps the prompt open and shows the rejection message.
func (m *AccessPromptModel) Reject(msg string) {
	m.Err = msg
	m.Input.Reset()
}

// Update handles key input while the prompt is visible.
func (m AccessPromptModel) Update(msg tea.Msg) (AccessPromptModel, tea.Cmd) {
	if !m.Visible {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.Close()
			return m, func() tea.Msg { return AccessCancelMsg{} }
		case tea.KeyEnter:
			code := m.Input.Value()
			if code == "" {
				return m, nil
			}
			return m, func() tea.Msg { return AccessSubmitMsg{Code: code} }
		}
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// View renders the modal centered in the terminal.
func (m AccessPromptModel) View() string {
	title := theme.ModalTitle.Render("Premium feature")
	body := title + "\n\nEnter your access code:\n" + m.Input.View()
	if m.Err != "" {
		body += "\n" + theme.TextError.Render(theme.SymbolError+" "+m.Err)
	}
	body += "\n\n" + theme.TextMuted.Render("Enter to confirm "+theme.SymbolBullet+" Esc to cancel")

	box := theme.ModalBox.Render(body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
