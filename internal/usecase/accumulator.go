package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"sparkdesk/internal/domain"
)

// Accumulator folds an incremental sequence of text fragments into the
// trailing assistant message of one conversation. At most one message is in
// flight at a time; fragments are applied strictly in arrival order.
//
// Lifecycle: Begin appends a fresh empty assistant message. Apply grows its
// text. Complete seals it. Fail discards whatever accumulated and replaces
// it wholesale with a user-facing error description. Cancel seals the
// message in its partial state; a later Begin always starts a new message,
// never resumes the old one.
type Accumulator struct {
	conv     *domain.Conversation
	inflight bool
	logger   *slog.Logger
}

// NewAccumulator creates an accumulator bound to one conversation.
func NewAccumulator(conv *domain.Conversation, logger *slog.Logger) *Accumulator {
	return &Accumulator{conv: conv, logger: logger}
}

// InFlight reports whether an assistant message is currently accumulating.
func (a *Accumulator) InFlight() bool { return a.inflight }

// Begin appends a new empty assistant message and marks it in flight.
// Returns ErrStreamActive when another message is still accumulating.
func (a *Accumulator) Begin() error {
	if a.inflight {
		return domain.NewDomainError("accumulator.Begin", domain.ErrStreamActive, "")
	}
	a.conv.Append(domain.Message{
		ID:        NewID(),
		Role:      domain.RoleAssistant,
		CreatedAt: time.Now(),
	})
	a.inflight = true
	return nil
}

// Apply concatenates a fragment verbatim onto the in-flight message. No
// trimming, no deduplication. Returns ErrStreamSealed when no message is in
// flight.
func (a *Accumulator) Apply(fragment string) error {
	if !a.inflight {
		return domain.NewDomainError("accumulator.Apply", domain.ErrStreamSealed, "")
	}
	last := a.conv.Last()
	last.Text += fragment
	return nil
}

// Complete seals the in-flight message on normal end-of-sequence. Further
// Apply calls fail until the next Begin.
func (a *Accumulator) Complete() error {
	if !a.inflight {
		return domain.NewDomainError("accumulator.Complete", domain.ErrStreamSealed, "")
	}
	a.inflight = false
	a.logger.Debug("assistant turn sealed", "chars", len(a.conv.Last().Text))
	return nil
}

// Fail seals the in-flight message, replacing its text entirely with a
// user-facing description of err. Accumulated partial content is discarded.
func (a *Accumulator) Fail(err error) {
	if !a.inflight {
		return
	}
	last := a.conv.Last()
	discarded := len(last.Text)
	last.Text = errorText(err)
	a.inflight = false
	a.logger.Warn("stream failed",
		"error", err,
		"code", domain.ErrorCodeOf(err),
		"discarded_chars", discarded,
	)
}

// Cancel seals the in-flight message in whatever partial state it reached.
// No further fragments may be applied.
func (a *Accumulator) Cancel() {
	if !a.inflight {
		return
	}
	a.inflight = false
	a.logger.Debug("stream cancelled", "partial_chars", len(a.conv.Last().Text))
}

// errorText renders a provider failure for display in place of the reply.
func errorText(err error) string {
	switch domain.ErrorCodeOf(err) {
	case domain.CodeMissingAPIKey:
		return "This feature is unavailable: no API key is configured."
	case domain.CodeRateLimit:
		return "The provider is rate limiting requests. Please try again in a moment."
	case domain.CodeAuthInvalid:
		return "The provider rejected the configured API key."
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}
