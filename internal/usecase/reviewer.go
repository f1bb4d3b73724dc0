package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/tracer"
)

// maxReviewBytes bounds the source payload sent for review.
const maxReviewBytes = 128 * 1024

// ReviewerService produces a markdown code review for one source file.
type ReviewerService struct {
	provider domain.CompletionProvider
	app      config.AppConfig
	model    string
	logger   *slog.Logger
}

// NewReviewerService creates the code review service.
func NewReviewerService(provider domain.CompletionProvider, cfg *config.Config, logger *slog.Logger) *ReviewerService {
	return &ReviewerService{
		provider: provider,
		app:      cfg.App,
		model:    cfg.Provider.Model,
		logger:   logger,
	}
}

// Review sends the source for review and returns the markdown verdict.
// filename is used only as a language hint; the content itself is the input.
func (s *ReviewerService) Review(ctx context.Context, filename, source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", domain.NewDomainError("reviewer.Review", domain.ErrInvalidInput, "source is empty")
	}
	if len(source) > maxReviewBytes {
		return "", domain.NewDomainError("reviewer.Review", domain.ErrInvalidInput,
			fmt.Sprintf("source too large: %d bytes (max %d)", len(source), maxReviewBytes))
	}

	ctx, span := tracer.StartSpan(ctx, "reviewer.review")
	defer span.End()

	lang := strings.TrimPrefix(filepath.Ext(filename), ".")
	var prompt strings.Builder
	prompt.WriteString("Review the following source file. Point out bugs, risky patterns and style issues, ")
	prompt.WriteString("ordered by severity, as a short markdown report with code references. ")
	prompt.WriteString("End with a one-line overall verdict.\n\n")
	if filename != "" {
		fmt.Fprintf(&prompt, "FILE: %s\n", filename)
	}
	fmt.Fprintf(&prompt, "```%s\n%s\n```", lang, source)

	review, err := s.provider.Complete(ctx, domain.TextRequest{
		Model:        s.model,
		SystemPrompt: "You are a meticulous senior engineer doing code review.",
		Prompt:       prompt.String(),
		Temperature:  0.3,
		MaxTokens:    s.app.MaxTokens,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return "", domain.WrapOp("reviewer.Review", err)
	}
	s.logger.Debug("review produced", "file", filename, "chars", len(review))
	tracer.SetOK(span)
	return review, nil
}
