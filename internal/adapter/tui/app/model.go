package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sparkdesk/internal/adapter/tui/chat"
	"sparkdesk/internal/adapter/tui/components"
	"sparkdesk/internal/adapter/tui/theme"
	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/usecase"
)

// screen identifies the active view.
type screen int

const (
	screenCatalog screen = iota
	screenChat
	screenTask
	screenWizard
)

// Deps are the services the root model dispatches to.
type Deps struct {
	Config   *config.Config
	Session  *domain.Session
	Chat     *usecase.ChatService
	Access   *usecase.AccessService
	Analyzer *usecase.AnalyzerService
	Reviewer *usecase.ReviewerService
	Composer *usecase.ComposerService
	Packager *usecase.PackagerService
	Speech   *usecase.SpeechService
	Images   *usecase.ImageService
	Logger   *slog.Logger
}

// Model is the root Bubble Tea model: it routes between the catalog menu,
// the chat screen and the one-shot task screens, and overlays the premium
// access prompt when a locked feature is selected.
type Model struct {
	deps Deps

	screen  screen
	catalog components.CatalogModel
	chat    chat.Model
	task    taskModel
	wizard  wizardModel
	access  components.AccessPromptModel

	// pending is the premium feature awaiting a successful unlock.
	pending *domain.Feature

	width    int
	height   int
	quitting bool
}

// New creates the root model.
func New(deps Deps) Model {
	catalog := components.NewCatalog()
	catalog.Unlocked = deps.Session.PremiumUnlocked

	return Model{
		deps:    deps,
		catalog: catalog,
		chat: chat.New(chat.Deps{
			Service:   deps.Chat,
			Session:   deps.Session,
			ModelName: deps.Config.Provider.Model,
			Logger:    deps.Logger,
		}),
		wizard: newWizard(deps.Packager),
		access: components.NewAccessPrompt(),
	}
}

// Init initializes sub-models.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.chat.Init(), m.wizard.Init())
}

// Update routes messages to the active screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.catalog.SetWidth(msg.Width)
		m.chat.SetSize(msg.Width, msg.Height)
		m.task.SetSize(msg.Width, msg.Height)
		m.wizard.SetSize(msg.Width, msg.Height)
		m.access.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// The access prompt swallows all keys while open.
		if m.access.Visible {
			var cmd tea.Cmd
			m.access, cmd = m.access.Update(msg)
			return m, cmd
		}
		if msg.Type == tea.KeyCtrlC && !m.busy() {
			m.quitting = true
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEsc && m.screen != screenCatalog && m.screen != screenChat && !m.busy() {
			m.screen = screenCatalog
			return m, nil
		}

	case components.FeatureSelectedMsg:
		return m.openFeature(msg.Feature)

	case components.LockedSelectedMsg:
		m.pending = &msg.Feature
		m.access.Open()
		return m, nil

	case components.AccessSubmitMsg:
		code := msg.Code
		return m, func() tea.Msg {
			return unlockResultMsg{Err: m.deps.Access.Unlock(m.deps.Session, code)}
		}

	case components.AccessCancelMsg:
		m.pending = nil
		return m, nil

	case unlockResultMsg:
		if msg.Err != nil {
			m.access.Reject("That code was not accepted.")
			return m, nil
		}
		m.access.Close()
		m.catalog.Unlocked = true
		if feature := m.pending; feature != nil {
			m.pending = nil
			return m.openFeature(*feature)
		}
		return m, nil

	case chat.BackMsg:
		m.screen = screenCatalog
		return m, nil
	}

	return m.routeToScreen(msg)
}

// routeToScreen forwards a message to the active screen's sub-model.
func (m Model) routeToScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenCatalog:
		m.catalog, cmd = m.catalog.Update(msg)
	case screenChat:
		m.chat, cmd = m.chat.Update(msg)
	case screenTask:
		m.task, cmd = m.task.Update(msg)
	case screenWizard:
		m.wizard, cmd = m.wizard.Update(msg)
	}
	return m, cmd
}

// busy reports whether the active screen has a call in flight, in which case
// global quit/back keys defer to the screen's own cancel handling.
func (m Model) busy() bool {
	switch m.screen {
	case screenChat:
		return m.deps.Chat.Busy()
	case screenTask:
		return m.task.waiting
	case screenWizard:
		return m.wizard.running
	}
	return false
}

// openFeature switches to the screen for an unlocked feature.
func (m Model) openFeature(feature domain.Feature) (tea.Model, tea.Cmd) {
	if err := m.deps.Access.Require(m.deps.Session, feature.ID); err != nil {
		m.pending = &feature
		m.access.Open()
		return m, nil
	}

	switch feature.ID {
	case domain.FeatureChat:
		m.screen = screenChat
		m.chat.SetSize(m.width, m.height)
		return m, m.chat.Init()

	case domain.FeaturePackage:
		m.screen = screenWizard
		m.wizard.SetSize(m.width, m.height)
		return m, m.wizard.Init()

	default:
		m.task = m.taskFor(feature)
		m.screen = screenTask
		m.task.SetSize(m.width, m.height)
		return m, m.task.Init()
	}
}

// taskFor builds the one-shot screen for a feature.
func (m Model) taskFor(feature domain.Feature) taskModel {
	switch feature.ID {
	case domain.FeatureImage:
		return newTask("Image Studio", "Describe the image to generate...",
			func(ctx context.Context, input string) (string, error) {
				paths, err := m.deps.Images.Generate(ctx, input)
				if err != nil {
					return "", err
				}
				var sb strings.Builder
				fmt.Fprintf(&sb, "Generated %d image(s):\n\n", len(paths))
				for _, p := range paths {
					fmt.Fprintf(&sb, "- `%s`\n", p)
				}
				return sb.String(), nil
			})

	case domain.FeatureSpeech:
		return newTask("Text to Speech", "Text to speak...",
			func(ctx context.Context, input string) (string, error) {
				path, err := m.deps.Speech.Synthesize(ctx, input)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Audio written to `%s`", path), nil
			})

	case domain.FeatureTranscribe:
		return newTask("Transcribe", "Path to an audio file, or: live <path-to-16kHz-pcm>",
			func(ctx context.Context, input string) (string, error) {
				path := strings.TrimSpace(input)
				if rest, ok := strings.CutPrefix(path, "live "); ok {
					return m.deps.Speech.TranscribeLive(ctx, strings.TrimSpace(rest), nil)
				}
				return m.deps.Speech.Transcribe(ctx, path)
			})

	case domain.FeatureAnalyze:
		return newTask("Email Analyzer", "Paste the email to analyze...",
			func(ctx context.Context, input string) (string, error) {
				analysis, err := m.deps.Analyzer.Analyze(ctx, input)
				if err != nil {
					return "", err
				}
				return formatAnalysis(analysis), nil
			})

	case domain.FeatureReview:
		return newTask("Code Review", "Path to the source file...",
			func(ctx context.Context, input string) (string, error) {
				path := strings.TrimSpace(input)
				source, err := readSource(path)
				if err != nil {
					return "", err
				}
				return m.deps.Reviewer.Review(ctx, path, source)
			})

	case domain.FeatureCompose:
		return newTask("Mail Composer", "First line: recipient. Then one \"- bullet\" per line...",
			func(ctx context.Context, input string) (string, error) {
				recipient, points := parseComposeInput(input)
				return m.deps.Composer.Compose(ctx, recipient, points, usecase.ToneFriendly)
			})

	default:
		return newTask(feature.Title, feature.Description,
			func(ctx context.Context, input string) (string, error) {
				return "", domain.NewDomainError("app.taskFor", domain.ErrInvalidInput, string(feature.ID))
			})
	}
}

// View renders the active screen, with the access prompt as a full overlay.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if m.width == 0 {
		return "  Initializing..."
	}
	if m.access.Visible {
		return m.access.View()
	}

	switch m.screen {
	case screenChat:
		return m.chat.View()
	case screenTask:
		return m.task.View()
	case screenWizard:
		return m.wizard.View()
	default:
		return m.catalog.View() + "\n" +
			theme.TextMuted.Render("  Enter: open  "+theme.SymbolBullet+"  j/k: move  "+theme.SymbolBullet+"  Ctrl+C: quit")
	}
}
