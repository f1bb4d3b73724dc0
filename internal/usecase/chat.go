package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/tracer"
)

// ChatService drives one conversational exchange: it appends the user turn,
// opens a streaming completion, and folds the reply fragments into the
// conversation through an Accumulator. At most one exchange runs per service
// instance at a time.
type ChatService struct {
	provider domain.CompletionProvider
	app      config.AppConfig
	model    string
	logger   *slog.Logger

	busy bool
}

// NewChatService creates a chat service over a completion provider.
func NewChatService(provider domain.CompletionProvider, cfg *config.Config, logger *slog.Logger) *ChatService {
	return &ChatService{
		provider: provider,
		app:      cfg.App,
		model:    cfg.Provider.Model,
		logger:   logger,
	}
}

// Busy reports whether an exchange is currently in flight.
func (s *ChatService) Busy() bool { return s.busy }

// Send runs one full exchange against conv. The user turn (prompt plus
// optional attachment) is appended first, then the assistant reply streams
// into a new trailing message. onUpdate, when non-nil, is invoked after every
// applied fragment so a UI can re-render incrementally.
//
// On stream failure the reply text is replaced with an error description; on
// ctx cancellation the partial reply is kept as-is. Both are normal outcomes:
// Send returns an error only when the exchange could not start.
func (s *ChatService) Send(ctx context.Context, conv *domain.Conversation, prompt string, att *domain.Attachment, onUpdate func()) error {
	if s.busy {
		return domain.NewDomainError("chat.Send", domain.ErrStreamActive, "an exchange is already in flight")
	}
	s.busy = true
	defer func() { s.busy = false }()

	ctx, span := tracer.StartSpan(ctx, "chat.send")
	defer span.End()

	history := TrimToBudget(conv.Messages, s.app.HistoryTokenBudget)

	conv.Append(domain.Message{
		ID:         NewID(),
		Role:       domain.RoleUser,
		Text:       prompt,
		Attachment: att,
		CreatedAt:  time.Now(),
	})
	if onUpdate != nil {
		onUpdate()
	}

	stream, err := s.provider.CompleteStream(ctx, domain.TextRequest{
		Model:        s.model,
		SystemPrompt: s.app.SystemPrompt,
		History:      history,
		Prompt:       prompt,
		Attachment:   att,
		Temperature:  s.app.Temperature,
		MaxTokens:    s.app.MaxTokens,
	})
	if err != nil {
		tracer.RecordError(span, err)
		// The user turn stays in the conversation; the failed reply is
		// materialized so the exchange is visible in the transcript.
		acc := NewAccumulator(conv, s.logger)
		if beginErr := acc.Begin(); beginErr == nil {
			acc.Fail(err)
		}
		if onUpdate != nil {
			onUpdate()
		}
		return domain.WrapOp("chat.Send", err)
	}

	acc := NewAccumulator(conv, s.logger)
	if err := acc.Begin(); err != nil {
		return err
	}

	for frag := range stream {
		if frag.Err != nil {
			tracer.RecordError(span, frag.Err)
			acc.Fail(frag.Err)
			if onUpdate != nil {
				onUpdate()
			}
			return nil
		}
		if frag.Done {
			break
		}
		if frag.Text == "" {
			continue
		}
		if err := acc.Apply(frag.Text); err != nil {
			return err
		}
		if onUpdate != nil {
			onUpdate()
		}
	}

	if err := ctx.Err(); err != nil && errors.Is(err, context.Canceled) {
		acc.Cancel()
		if onUpdate != nil {
			onUpdate()
		}
		return nil
	}

	if err := acc.Complete(); err != nil {
		return err
	}
	tracer.SetOK(span)
	if onUpdate != nil {
		onUpdate()
	}
	return nil
}
