package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"sparkdesk/internal/adapter/llm"
	"sparkdesk/internal/adapter/speech"
	"sparkdesk/internal/adapter/tui/app"
	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/logger"
	"sparkdesk/internal/infra/tracer"
	"sparkdesk/internal/usecase"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`sparkdesk - AI micro-tools for the terminal

USAGE:
    sparkdesk [FLAGS]

FLAGS:
    -h, --help       Show this help message
    --config PATH    Config file path (default: ./config.yaml)
    --model NAME     Gemini model name (e.g. gemini-2.5-flash)
    --key KEY        Gemini API key

CONFIGURATION:
    Config file: ./config.yaml (optional; defaults apply when missing)
    Environment: SPARKDESK_* variables override config,
                 GEMINI_API_KEY is honored for the provider key

EXAMPLES:
    sparkdesk                                  # Run with config.yaml
    sparkdesk --config /path/to/config.yaml    # Run with custom config
    sparkdesk --model gemini-2.5-flash --key AI...  # Quick start`)
}

// cliFlags holds CLI flags that override the config file.
type cliFlags struct {
	Config string
	Model  string
	APIKey string
}

// parseFlags extracts --config, --model, --key from os.Args.
func parseFlags() cliFlags {
	var flags cliFlags
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--config" && i+1 < len(os.Args):
			flags.Config = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--config="):
			flags.Config = strings.TrimPrefix(os.Args[i], "--config=")
		case os.Args[i] == "--model" && i+1 < len(os.Args):
			flags.Model = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--model="):
			flags.Model = strings.TrimPrefix(os.Args[i], "--model=")
		case os.Args[i] == "--key" && i+1 < len(os.Args):
			flags.APIKey = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--key="):
			flags.APIKey = strings.TrimPrefix(os.Args[i], "--key=")
		}
	}
	return flags
}

func run() error {
	// 1. Config
	flags := parseFlags()

	cfgPath := flags.Config
	if cfgPath == "" {
		cfgPath = "./config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flags.Model != "" {
		cfg.Provider.Model = flags.Model
	}
	if flags.APIKey != "" {
		cfg.Provider.APIKey = flags.APIKey
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Provider
	var provider domain.CompletionProvider = llm.NewGeminiProvider(cfg.Provider, log)
	if cfg.Provider.CircuitBreaker.Enabled {
		provider = llm.NewCircuitBreakerProvider(provider, cfg.Provider.CircuitBreaker, log)
	}

	var live usecase.LiveTranscriber
	if cfg.Speech.Live.Enabled {
		live = speech.NewLiveTranscriber(cfg, log)
	}

	// 4. Services
	analyzer, err := usecase.NewAnalyzerService(provider, cfg, log)
	if err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}

	session := usecase.NewSession()

	deps := app.Deps{
		Config:   cfg,
		Session:  session,
		Chat:     usecase.NewChatService(provider, cfg, log),
		Access:   usecase.NewAccessService(cfg.Access, log),
		Analyzer: analyzer,
		Reviewer: usecase.NewReviewerService(provider, cfg, log),
		Composer: usecase.NewComposerService(provider, cfg, log),
		Packager: usecase.NewPackagerService(provider, cfg, log),
		Speech:   usecase.NewSpeechService(provider, live, cfg, log),
		Images:   usecase.NewImageService(provider, cfg, log),
		Logger:   log,
	}

	// 5. Graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("sparkdesk starting",
		"provider", cfg.Provider.Name,
		"model", cfg.Provider.Model,
		"key_set", cfg.Provider.APIKey != "",
		"live_stt", live != nil,
		"session", session.ID,
	)

	// 6. TUI
	program := tea.NewProgram(app.New(deps),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
