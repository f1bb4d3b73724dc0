package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerProvider wraps a CompletionProvider with circuit breaker
// protection. When the backend fails repeatedly, the circuit opens and
// subsequent calls fail fast without reaching it. Nothing here retries; the
// breaker only decides whether a call is attempted at all.
type CircuitBreakerProvider struct {
	inner   domain.CompletionProvider
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewCircuitBreakerProvider wraps inner with a circuit breaker. Zero-valued
// settings fall back to defaults.
func NewCircuitBreakerProvider(inner domain.CompletionProvider, cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerProvider {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "provider:" + inner.Name(),
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &CircuitBreakerProvider{inner: inner, breaker: cb, logger: logger}
}

func (p *CircuitBreakerProvider) Name() string { return p.inner.Name() }

func (p *CircuitBreakerProvider) Complete(ctx context.Context, req domain.TextRequest) (string, error) {
	v, err := p.breaker.Execute(func() (any, error) {
		return p.inner.Complete(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// CompleteStream counts only the stream start against the breaker; a failure
// mid-stream reaches the consumer as a Fragment error and is not a breaker
// event.
func (p *CircuitBreakerProvider) CompleteStream(ctx context.Context, req domain.TextRequest) (domain.FragmentStream, error) {
	v, err := p.breaker.Execute(func() (any, error) {
		return p.inner.CompleteStream(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.FragmentStream), nil
}

func (p *CircuitBreakerProvider) CompleteJSON(ctx context.Context, req domain.StructuredRequest) (json.RawMessage, error) {
	v, err := p.breaker.Execute(func() (any, error) {
		return p.inner.CompleteJSON(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (p *CircuitBreakerProvider) GenerateImages(ctx context.Context, req domain.ImageRequest) ([]domain.ImageData, error) {
	v, err := p.breaker.Execute(func() (any, error) {
		return p.inner.GenerateImages(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ImageData), nil
}

func (p *CircuitBreakerProvider) Transcribe(ctx context.Context, req domain.TranscribeRequest) (string, error) {
	v, err := p.breaker.Execute(func() (any, error) {
		return p.inner.Transcribe(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *CircuitBreakerProvider) SynthesizeSpeech(ctx context.Context, req domain.SpeechRequest) (*domain.AudioData, error) {
	v, err := p.breaker.Execute(func() (any, error) {
		return p.inner.SynthesizeSpeech(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*domain.AudioData), nil
}

// State exposes the current breaker state for status displays.
func (p *CircuitBreakerProvider) State() gobreaker.State {
	return p.breaker.State()
}
