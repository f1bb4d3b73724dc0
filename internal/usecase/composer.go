package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/tracer"
)

// Tone selects the register for composed mail.
type Tone string

const (
	ToneFormal   Tone = "formal"
	ToneFriendly Tone = "friendly"
	ToneConcise  Tone = "concise"
)

// Tones lists the supported registers in display order.
func Tones() []Tone { return []Tone{ToneFormal, ToneFriendly, ToneConcise} }

// ComposerService drafts an email from bullet points.
type ComposerService struct {
	provider domain.CompletionProvider
	app      config.AppConfig
	model    string
	logger   *slog.Logger
}

// NewComposerService creates the mail composer.
func NewComposerService(provider domain.CompletionProvider, cfg *config.Config, logger *slog.Logger) *ComposerService {
	return &ComposerService{
		provider: provider,
		app:      cfg.App,
		model:    cfg.Provider.Model,
		logger:   logger,
	}
}

// Compose turns recipient context plus bullet points into a full draft with
// subject line. An unknown tone falls back to formal.
func (s *ComposerService) Compose(ctx context.Context, recipient string, points []string, tone Tone) (string, error) {
	var kept []string
	for _, p := range points {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	if len(kept) == 0 {
		return "", domain.NewDomainError("composer.Compose", domain.ErrInvalidInput, "no bullet points given")
	}
	switch tone {
	case ToneFormal, ToneFriendly, ToneConcise:
	default:
		tone = ToneFormal
	}

	ctx, span := tracer.StartSpan(ctx, "composer.compose")
	defer span.End()

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Write a complete email in a %s tone. Start with a subject line (\"Subject: ...\").\n", tone)
	if strings.TrimSpace(recipient) != "" {
		fmt.Fprintf(&prompt, "Recipient: %s\n", strings.TrimSpace(recipient))
	}
	prompt.WriteString("Cover every point below, in order:\n")
	for _, p := range kept {
		fmt.Fprintf(&prompt, "- %s\n", p)
	}

	draft, err := s.provider.Complete(ctx, domain.TextRequest{
		Model:        s.model,
		SystemPrompt: "You write clear, natural-sounding email. Never invent facts beyond the given points.",
		Prompt:       prompt.String(),
		Temperature:  s.app.Temperature,
		MaxTokens:    s.app.MaxTokens,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return "", domain.WrapOp("composer.Compose", err)
	}
	s.logger.Debug("draft composed", "tone", tone, "points", len(kept))
	tracer.SetOK(span)
	return draft, nil
}
