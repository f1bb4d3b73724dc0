package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sparkdesk/internal/adapter/tui/components"
	"sparkdesk/internal/adapter/tui/theme"
	"sparkdesk/internal/domain"
	"sparkdesk/internal/usecase"
)

// Deps are dependencies injected into the chat model.
type Deps struct {
	Service   *usecase.ChatService
	Session   *domain.Session
	ModelName string
	Logger    *slog.Logger
}

// Model is the Bubble Tea model for the conversation screen. Assistant
// replies stream for real: the exchange goroutine folds fragments into the
// conversation and the UI re-renders on every applied fragment.
type Model struct {
	deps Deps

	chatView  components.ChatViewModel
	input     components.InputAreaModel
	statusBar components.StatusBarModel
	spinner   spinner.Model

	width  int
	height int

	// Request lifecycle: gen is incremented on every new request. Stale
	// StreamUpdateMsg / DoneMsg with an older gen are discarded. While an
	// exchange goroutine owns the conversation, the view renders only from
	// lastStream, the latest snapshot delivered over updates.
	waiting    bool
	gen        uint64
	cancelFn   context.CancelFunc
	updates    chan string
	lastStream string

	// attachment queued by /attach for the next message.
	attachment *domain.Attachment
}

// New creates the conversation screen.
func New(deps Deps) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	sb := components.NewStatusBar()
	sb.AppName = theme.SymbolBot
	sb.ModelName = deps.ModelName
	sb.Premium = deps.Session.PremiumUnlocked
	sb.Hints = defaultHints()

	chatView := components.NewChatView()
	chatView.SetMaxMessages(1000)

	return Model{
		deps:      deps,
		chatView:  chatView,
		input:     components.NewInputArea("Type your message..."),
		statusBar: sb,
		spinner:   s,
	}
}

// Init initializes sub-models.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSize lays out sub-models for the given terminal dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h

	inputH := 3
	statusH := 1
	dividerH := 1
	contentH := h - inputH - statusH - dividerH
	if contentH < 5 {
		contentH = 5
	}

	m.statusBar.SetWidth(w)
	m.chatView.SetSize(w, contentH)
	m.input.SetWidth(w)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.waiting {
				m.cancelRequest()
				return m, nil
			}
		case tea.KeyEsc:
			if !m.waiting {
				return m, func() tea.Msg { return BackMsg{} }
			}
		}

	case components.InputSubmitMsg:
		return m.handleSubmit(msg.Value)

	case StreamUpdateMsg:
		if msg.Gen != m.gen || !m.waiting {
			return m, nil
		}
		m.lastStream = msg.Text
		m.chatView.UpdateLastMessage(msg.Text, true)
		return m, waitForUpdateCmd(m.updates, m.gen)

	case DoneMsg:
		if msg.Gen != m.gen {
			// The cancelled exchange goroutine has exited, so the
			// conversation is safe to read again; sync the display with its
			// final partial text unless a new exchange took over.
			if !m.waiting {
				m.refreshLast(false)
			}
			return m, nil
		}
		m.waiting = false
		m.cancelFn = nil
		m.refreshLast(false)
		m.input.SetEnabled(true)
		m.statusBar.Extra = ""
		m.statusBar.TokenCount = m.conversationTokens()
		if msg.Err != nil {
			m.deps.Logger.Warn("exchange failed", "error", msg.Err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.waiting {
		if _, isMouse := msg.(tea.MouseMsg); !isMouse {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.chatView, cmd = m.chatView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the conversation screen.
func (m Model) View() string {
	inputView := m.input.View()
	if m.waiting {
		inputView = m.spinner.View() + " " + theme.TextMuted.Render("streaming"+theme.SymbolEllipsis) +
			"  " + theme.TextMuted.Render("Ctrl+C to cancel")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.chatView.View(),
		components.Divider(m.width),
		inputView,
		m.statusBar.View(),
	)
}

// handleSubmit processes user input submission.
func (m Model) handleSubmit(value string) (Model, tea.Cmd) {
	if cmd, args, ok := components.ParseSlashCommand(value); ok {
		return m.handleSlashCommand(cmd, args)
	}

	att := m.attachment
	m.attachment = nil

	display := components.ChatMessage{
		Role:      components.RoleUser,
		Content:   value,
		Timestamp: time.Now(),
	}
	if att != nil {
		display.Attachment = att.Label
	}
	m.chatView.AddMessage(display)
	m.chatView.AddMessage(components.ChatMessage{
		Role:      components.RoleAssistant,
		Timestamp: time.Now(),
		Streaming: true,
	})

	// Bump generation so stale updates are discarded.
	m.gen++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFn = cancel
	m.updates = make(chan string, 1)
	m.lastStream = ""

	m.waiting = true
	m.input.SetEnabled(false)
	m.statusBar.Extra = theme.SymbolSpinner + " Streaming..."

	return m, tea.Batch(
		sendCmd(ctx, m.deps.Service, &m.deps.Session.Conversation, value, att, m.updates, m.gen),
		waitForUpdateCmd(m.updates, m.gen),
	)
}

// handleSlashCommand processes a slash command.
func (m Model) handleSlashCommand(cmd string, args []string) (Model, tea.Cmd) {
	switch cmd {
	case "/help":
		m.chatView.AddMessage(components.ChatMessage{
			Role: components.RoleSystem,
			Content: `Available commands:
  /help          - Show this help
  /attach <path> - Attach an image to the next message
  /clear         - Clear conversation
  /menu          - Back to the catalog

Keybindings:
  Enter      - Send message
  Alt+Enter  - New line
  Esc        - Back to catalog
  Ctrl+C     - Cancel streaming / quit
  PgUp/PgDn  - Scroll chat`,
		})
		return m, nil

	case "/menu", "/back":
		return m, func() tea.Msg { return BackMsg{} }

	case "/clear":
		m.deps.Session.Conversation.Messages = nil
		m.chatView.Clear()
		m.statusBar.TokenCount = 0
		m.chatView.AddMessage(components.ChatMessage{
			Role:    components.RoleSystem,
			Content: theme.SymbolSuccess + " Conversation cleared.",
		})
		return m, nil

	case "/attach":
		return m.handleAttach(args)

	default:
		m.chatView.AddMessage(components.ChatMessage{
			Role:    components.RoleSystem,
			Content: fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd),
		})
		return m, nil
	}
}

// handleAttach loads an image file and queues it for the next message.
func (m Model) handleAttach(args []string) (Model, tea.Cmd) {
	if len(args) < 1 {
		m.chatView.AddMessage(components.ChatMessage{
			Role:    components.RoleSystem,
			Content: "Usage: /attach <path-to-image>",
		})
		return m, nil
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		m.chatView.AddMessage(components.ChatMessage{
			Role:    components.RoleError,
			Content: fmt.Sprintf("Cannot read %s: %v", path, err),
		})
		return m, nil
	}

	m.attachment = &domain.Attachment{
		MIMEType: imageMIME(path),
		Data:     data,
		Label:    filepath.Base(path),
	}
	m.chatView.AddMessage(components.ChatMessage{
		Role:    components.RoleSystem,
		Content: fmt.Sprintf("%s Attached %s (%d bytes). It will be sent with your next message.", theme.SymbolSuccess, filepath.Base(path), len(data)),
	})
	return m, nil
}

// cancelRequest cancels the in-flight exchange. The partial reply stays in
// the conversation. The display keeps the last delivered snapshot; the
// goroutine may still be applying a trailing fragment, so the conversation
// itself is not read until its stale DoneMsg arrives.
func (m *Model) cancelRequest() {
	if m.cancelFn != nil {
		m.cancelFn()
		m.cancelFn = nil
	}
	m.gen++ // ensure stale updates are ignored
	m.waiting = false
	m.chatView.UpdateLastMessage(m.lastStream, false)
	m.input.SetEnabled(true)
	m.statusBar.Extra = ""
	m.chatView.AddMessage(components.ChatMessage{
		Role:    components.RoleSystem,
		Content: "Streaming cancelled. The partial reply is kept.",
	})
}

// refreshLast mirrors the trailing assistant message into the view. Only
// call it once the exchange goroutine has finished (after its DoneMsg):
// mid-stream the conversation belongs to that goroutine and the view renders
// from snapshots instead.
func (m *Model) refreshLast(streaming bool) {
	if last := m.deps.Session.Conversation.Last(); last != nil && last.Role == domain.RoleAssistant {
		m.chatView.UpdateLastMessage(last.Text, streaming)
	}
}

// conversationTokens estimates the provider-visible size of the history.
func (m *Model) conversationTokens() int {
	total := 0
	for _, msg := range m.deps.Session.Conversation.Messages {
		total += usecase.CountTokens(msg.Text)
	}
	return total
}

// imageMIME guesses the MIME type of an attachment from its extension.
func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

func defaultHints() []components.KeyHint {
	return []components.KeyHint{
		{Key: "Enter", Desc: "Send"},
		{Key: "Alt+Enter", Desc: "Newline"},
		{Key: "Esc", Desc: "Menu"},
		{Key: "?", Desc: "/help"},
		{Key: "Ctrl+C", Desc: "Quit"},
	}
}
