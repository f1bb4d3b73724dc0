package domain

import (
	"context"
	"encoding/json"
)

// TextRequest is a plain text completion call. History carries the
// conversation so far in display order; Attachment optionally includes one
// inline media payload with the final user turn.
type TextRequest struct {
	Model        string
	SystemPrompt string
	History      []Message
	Prompt       string
	Attachment   *Attachment
	Temperature  float64
	MaxTokens    int
}

// StructuredRequest is a completion call that must return JSON conforming to
// Schema. Each call kind gets its own request type so the mutually exclusive
// provider options stay exhaustively type-checked instead of living in one
// optional-field bag.
type StructuredRequest struct {
	Model       string
	Prompt      string
	Schema      json.RawMessage
	Temperature float64
	MaxTokens   int
}

// ImageRequest asks for Count generated images for a prompt.
type ImageRequest struct {
	Model  string
	Prompt string
	Count  int
}

// ImageData is one generated image payload.
type ImageData struct {
	MIMEType string
	Data     []byte
}

// TranscribeRequest asks for a transcript of an audio payload.
type TranscribeRequest struct {
	Model    string
	Audio    []byte
	MIMEType string
}

// SpeechRequest asks for synthesized speech for a text.
type SpeechRequest struct {
	Model string
	Text  string
	Voice string
}

// AudioData is a synthesized audio payload.
type AudioData struct {
	MIMEType string
	Data     []byte
}

// CompletionProvider is the boundary to the external generative-AI backend.
// Every method is a single outstanding exchange: no retries, no timeouts
// beyond what ctx imposes.
type CompletionProvider interface {
	// Complete performs a single-shot text completion.
	Complete(ctx context.Context, req TextRequest) (string, error)
	// CompleteStream starts a streaming completion. The returned stream is
	// finite and not restartable; cancel ctx to abandon it.
	CompleteStream(ctx context.Context, req TextRequest) (FragmentStream, error)
	// CompleteJSON performs a structured completion. When the backend cannot
	// produce conforming output the error wraps ErrSchemaMismatch and the
	// raw text is returned alongside it for diagnostics.
	CompleteJSON(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
	// GenerateImages returns up to req.Count image payloads.
	GenerateImages(ctx context.Context, req ImageRequest) ([]ImageData, error)
	// Transcribe converts an audio payload to text.
	Transcribe(ctx context.Context, req TranscribeRequest) (string, error)
	// SynthesizeSpeech converts text to an audio payload. A nil result with
	// nil error means the backend produced no audio for the input.
	SynthesizeSpeech(ctx context.Context, req SpeechRequest) (*AudioData, error)
	// Name returns the provider's identifier (e.g. "gemini").
	Name() string
}
