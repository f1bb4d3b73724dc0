package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/tracer"
)

// emailAnalysisSchema constrains the analyzer output. The provider receives
// it as the response schema, and the result is validated against it again
// locally before being trusted.
const emailAnalysisSchema = `{
	"type": "object",
	"properties": {
		"summary": {"type": "string"},
		"sentiment": {"type": "string", "enum": ["positive", "neutral", "negative"]},
		"urgency": {"type": "string", "enum": ["low", "medium", "high"]},
		"action_items": {"type": "array", "items": {"type": "string"}},
		"suggested_reply": {"type": "string"}
	},
	"required": ["summary", "sentiment", "urgency", "action_items"]
}`

// EmailAnalysis is the structured result of analyzing one email.
type EmailAnalysis struct {
	Summary        string   `json:"summary"`
	Sentiment      string   `json:"sentiment"`
	Urgency        string   `json:"urgency"`
	ActionItems    []string `json:"action_items"`
	SuggestedReply string   `json:"suggested_reply,omitempty"`
}

// AnalyzerService turns a pasted email into an EmailAnalysis via a
// structured completion.
type AnalyzerService struct {
	provider domain.CompletionProvider
	model    string
	schema   *jsonschema.Schema
	logger   *slog.Logger
}

// NewAnalyzerService creates the email analyzer. The output schema is
// compiled once at construction; a compile failure is a programming error.
func NewAnalyzerService(provider domain.CompletionProvider, cfg *config.Config, logger *slog.Logger) (*AnalyzerService, error) {
	schema, err := jsonschema.NewCompiler().Compile([]byte(emailAnalysisSchema))
	if err != nil {
		return nil, fmt.Errorf("compile analysis schema: %w", err)
	}
	return &AnalyzerService{
		provider: provider,
		model:    cfg.Provider.Model,
		schema:   schema,
		logger:   logger,
	}, nil
}

// Analyze runs a structured completion over the email body and returns the
// validated analysis. Output that does not satisfy the schema surfaces as
// ErrSchemaMismatch.
func (s *AnalyzerService) Analyze(ctx context.Context, email string) (*EmailAnalysis, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.NewDomainError("analyzer.Analyze", domain.ErrInvalidInput, "email is empty")
	}

	ctx, span := tracer.StartSpan(ctx, "analyzer.analyze")
	defer span.End()

	prompt := "Analyze the following email. Summarize it, classify sentiment and urgency, " +
		"list concrete action items, and suggest a short reply when one is warranted.\n\nEMAIL:\n" + email

	raw, err := s.provider.CompleteJSON(ctx, domain.StructuredRequest{
		Model:  s.model,
		Prompt: prompt,
		Schema: json.RawMessage(emailAnalysisSchema),
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("analyzer.Analyze", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, domain.NewDomainError("analyzer.Analyze", domain.ErrSchemaMismatch, err.Error())
	}
	if result := s.schema.Validate(parsed); !result.IsValid() {
		detail := fmt.Sprintf("%s", result.Error())
		s.logger.Warn("analysis failed schema validation", "error", detail)
		return nil, domain.NewDomainError("analyzer.Analyze", domain.ErrSchemaMismatch, detail)
	}

	var analysis EmailAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, domain.NewDomainError("analyzer.Analyze", domain.ErrSchemaMismatch, err.Error())
	}
	tracer.SetOK(span)
	return &analysis, nil
}
