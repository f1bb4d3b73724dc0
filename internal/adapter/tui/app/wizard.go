package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sparkdesk/internal/adapter/tui/components"
	"sparkdesk/internal/adapter/tui/theme"
	"sparkdesk/internal/usecase"
)

// wizardModel drives the simulated packaging walkthrough: app name in,
// animated build log out.
type wizardModel struct {
	packager *usecase.PackagerService

	input   components.InputAreaModel
	spinner spinner.Model

	width   int
	height  int
	running bool
	gen     uint64
	cancel  context.CancelFunc
	stepsCh chan stepMsg

	steps  []string // log lines emitted so far
	total  int
	result *usecase.PackageResult
	err    error
}

func newWizard(packager *usecase.PackagerService) wizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	return wizardModel{
		packager: packager,
		input:    components.NewInputArea("App name, e.g. My Notes"),
		spinner:  s,
	}
}

func (m wizardModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *wizardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.SetWidth(w)
}

// packageCmd runs the walkthrough in a goroutine, forwarding each step over
// a channel so the log animates line by line.
func packageCmd(ctx context.Context, packager *usecase.PackagerService, appName string, steps chan stepMsg, gen uint64) tea.Cmd {
	return func() tea.Msg {
		result, err := packager.Package(ctx, appName, func(step usecase.BuildStep, index, total int) {
			steps <- stepMsg{Step: step, Index: index, Total: total, Gen: gen}
		})
		close(steps)
		return packageDoneMsg{Result: result, Err: err, Gen: gen}
	}
}

// waitForStepCmd blocks for the next build step (or channel close).
func waitForStepCmd(steps chan stepMsg, gen uint64) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-steps
		if !ok {
			return nil
		}
		return msg
	}
}

func (m wizardModel) Update(msg tea.Msg) (wizardModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && m.running {
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
			}
			m.gen++
			m.running = false
			m.input.SetEnabled(true)
			m.steps = append(m.steps, theme.TextWarning.Render("Build cancelled."))
			return m, nil
		}

	case components.InputSubmitMsg:
		if m.running {
			return m, nil
		}
		m.gen++
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.running = true
		m.steps = nil
		m.result = nil
		m.err = nil
		m.input.SetEnabled(false)
		m.stepsCh = make(chan stepMsg, 1)
		return m, tea.Batch(
			packageCmd(ctx, m.packager, msg.Value, m.stepsCh, m.gen),
			waitForStepCmd(m.stepsCh, m.gen),
		)

	case stepMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.total = msg.Total
		m.steps = append(m.steps, fmt.Sprintf("[%d/%d] %s", msg.Index+1, msg.Total, msg.Step.Label))
		return m, waitForStepCmd(m.stepsCh, m.gen)

	case packageDoneMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.running = false
		m.cancel = nil
		m.result = msg.Result
		m.err = msg.Err
		m.input.SetEnabled(true)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.running {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m wizardModel) View() string {
	var sb strings.Builder
	sb.WriteString(theme.WizardTitle.Render("APK Wizard"))
	sb.WriteString("\n")

	for i, line := range m.steps {
		style := theme.WizardStepDone
		glyph := theme.SymbolSuccess
		if m.running && i == len(m.steps)-1 {
			style = theme.WizardStepActive
			glyph = m.spinner.View()
		}
		sb.WriteString("  " + glyph + " " + style.Render(line) + "\n")
	}

	switch {
	case m.err != nil:
		sb.WriteString("\n" + theme.TextError.Render(theme.SymbolError+" "+m.err.Error()) + "\n")
	case m.result != nil:
		sb.WriteString("\n" + theme.TextSuccess.Render(theme.SymbolSuccess+" Packaged "+m.result.AppName) + "\n")
		sb.WriteString(theme.TextMuted.Render("  "+m.result.ArtifactURL) + "\n\n")
		sb.WriteString(renderMarkdown(m.result.Summary, components.ContentWidth(m.width)) + "\n")
	}

	sb.WriteString("\n")
	if m.running {
		sb.WriteString(theme.TextMuted.Render("  Building" + theme.SymbolEllipsis + "  Ctrl+C to cancel"))
	} else {
		sb.WriteString(components.Divider(m.width) + "\n")
		sb.WriteString(m.input.View())
	}
	sb.WriteString("\n" + theme.TextMuted.Render("  Esc: menu"))
	return sb.String()
}
