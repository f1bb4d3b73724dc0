package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"sparkdesk/internal/adapter/tui/components"
	"sparkdesk/internal/adapter/tui/theme"
)

// taskRunner executes one feature call for the submitted input and returns
// displayable markdown.
type taskRunner func(ctx context.Context, input string) (string, error)

// taskModel is a generic one-shot feature screen: a prompt, a spinner while
// the call runs, and a scrollable markdown result. It serves the image,
// speech, transcribe, analyze, review and compose features, which differ
// only in runner and labels.
type taskModel struct {
	title       string
	placeholder string
	run         taskRunner

	input    components.InputAreaModel
	viewport viewport.Model
	spinner  spinner.Model

	width   int
	height  int
	ready   bool
	waiting bool
	gen     uint64
	cancel  context.CancelFunc
	result  string
	err     error
}

func newTask(title, placeholder string, run taskRunner) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	return taskModel{
		title:       title,
		placeholder: placeholder,
		run:         run,
		input:       components.NewInputArea(placeholder),
		spinner:     s,
	}
}

func (m taskModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *taskModel) SetSize(w, h int) {
	m.width = w
	m.height = h

	contentH := h - 6 // title, divider, input, status
	if contentH < 3 {
		contentH = 3
	}
	if !m.ready {
		m.viewport = viewport.New(w, contentH)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = contentH
	}
	m.input.SetWidth(w)
	m.refresh()
}

func (m taskModel) Update(msg tea.Msg) (taskModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.waiting {
				m.cancelRun()
				return m, nil
			}
		case tea.KeyEsc:
			if m.waiting {
				m.cancelRun()
			}
			return m, nil // root model routes Esc back to the menu
		}

	case components.InputSubmitMsg:
		if m.waiting {
			return m, nil
		}
		m.gen++
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.waiting = true
		m.err = nil
		m.result = ""
		m.input.SetEnabled(false)
		m.refresh()

		gen := m.gen
		run := m.run
		value := msg.Value
		return m, func() tea.Msg {
			out, err := run(ctx, value)
			return taskResultMsg{Output: out, Err: err, Gen: gen}
		}

	case taskResultMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.waiting = false
		m.cancel = nil
		m.result = msg.Output
		m.err = msg.Err
		m.input.SetEnabled(true)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m taskModel) View() string {
	inputView := m.input.View()
	if m.waiting {
		inputView = m.spinner.View() + " " + theme.TextMuted.Render("working"+theme.SymbolEllipsis) +
			"  " + theme.TextMuted.Render("Ctrl+C to cancel")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		theme.MenuTitle.Render(m.title),
		m.viewport.View(),
		components.Divider(m.width),
		inputView,
		theme.TextMuted.Render("  Esc: menu"),
	)
}

func (m *taskModel) cancelRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.waiting = false
	m.input.SetEnabled(true)
	m.err = nil
	m.result = "Cancelled."
	m.refresh()
}

// refresh re-renders the result pane.
func (m *taskModel) refresh() {
	if !m.ready {
		return
	}
	switch {
	case m.err != nil:
		m.viewport.SetContent(theme.TextError.Render(theme.SymbolError + " " + m.err.Error()))
	case m.result != "":
		m.viewport.SetContent(renderMarkdown(m.result, components.ContentWidth(m.width)))
	case m.waiting:
		m.viewport.SetContent(theme.TextMuted.Render("  Working" + theme.SymbolEllipsis))
	default:
		m.viewport.SetContent(theme.TextMuted.Render("  " + m.placeholder))
	}
}

// renderMarkdown renders result text with glamour, falling back to the raw
// text on error.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
