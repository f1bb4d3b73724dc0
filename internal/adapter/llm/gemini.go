package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/tracer"
)

// GeminiProvider implements domain.CompletionProvider for the Google Gemini
// API.
type GeminiProvider struct {
	name            string
	apiKey          string
	baseURL         string
	model           string
	imageModel      string
	speechModel     string
	transcribeModel string
	client          *http.Client
	logger          *slog.Logger
}

// NewGeminiProvider creates a provider for the Google Gemini API.
func NewGeminiProvider(cfg config.ProviderConfig, logger *slog.Logger) *GeminiProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	return &GeminiProvider{
		name:            cfg.Name,
		apiKey:          cfg.APIKey,
		baseURL:         baseURL,
		model:           cfg.Model,
		imageModel:      cfg.ImageModel,
		speechModel:     cfg.SpeechModel,
		transcribeModel: cfg.TranscribeModel,
		client:          NewHTTPClient(cfg),
		logger:          logger,
	}
}

// Name implements domain.CompletionProvider.
func (p *GeminiProvider) Name() string { return p.name }

// --- Gemini API wire types ---

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig  `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

// geminiInlineData carries base64 media; encoding/json handles []byte as
// base64 transparently on both directions.
type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type geminiGenConfig struct {
	Temperature        *float64           `json:"temperature,omitempty"`
	MaxOutputTokens    int                `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType   string             `json:"responseMimeType,omitempty"`
	ResponseSchema     json.RawMessage    `json:"responseSchema,omitempty"`
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	SpeechConfig       *geminiSpeechConf  `json:"speechConfig,omitempty"`
}

type geminiSpeechConf struct {
	VoiceConfig geminiVoiceConf `json:"voiceConfig"`
}

type geminiVoiceConf struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// streaming chunks share the non-streaming shape
type geminiStreamChunk = geminiResponse

func (p *GeminiProvider) endpoint(model, verb, extra string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:%s?%skey=%s", p.baseURL, model, verb, extra, p.apiKey)
}

func (p *GeminiProvider) requireKey(op string) error {
	if p.apiKey == "" {
		return domain.NewDomainError(op, domain.ErrMissingAPIKey, "")
	}
	return nil
}

// Complete implements domain.CompletionProvider.
func (p *GeminiProvider) Complete(ctx context.Context, req domain.TextRequest) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "provider.complete",
		trace.WithAttributes(
			tracer.StringAttr("provider", p.name),
			tracer.StringAttr("model", p.resolveModel(req.Model)),
		),
	)
	defer span.End()

	if err := p.requireKey("provider.Complete"); err != nil {
		tracer.RecordError(span, err)
		return "", err
	}

	body, err := json.Marshal(p.toTextRequest(req))
	if err != nil {
		tracer.RecordError(span, err)
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := p.endpoint(p.resolveModel(req.Model), "generateContent", "")
	respBody, err := doJSONRequest(ctx, p.client, url, body)
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		tracer.RecordError(span, err)
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	text := firstText(gemResp)
	tracer.SetOK(span)
	p.logger.Debug("completion finished", "provider", p.name, "chars", len(text))
	return text, nil
}

// CompleteStream implements domain.CompletionProvider.
func (p *GeminiProvider) CompleteStream(ctx context.Context, req domain.TextRequest) (domain.FragmentStream, error) {
	if err := p.requireKey("provider.CompleteStream"); err != nil {
		return nil, err
	}

	body, err := json.Marshal(p.toTextRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.endpoint(p.resolveModel(req.Model), "streamGenerateContent", "alt=sse&")
	httpResp, err := doStreamRequest(ctx, p.client, url, body)
	if err != nil {
		return nil, err
	}

	ch := parseSSEStream(ctx, httpResp.Body, func(data []byte) (*domain.Fragment, error) {
		var chunk geminiStreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, err
		}
		if text := firstText(chunk); text != "" {
			return &domain.Fragment{Text: text}, nil
		}
		return nil, nil
	})

	return ch, nil
}

// CompleteJSON implements domain.CompletionProvider. The response is asked
// for as application/json constrained by the schema; a response that still
// fails to parse surfaces domain.ErrSchemaMismatch with the raw text in the
// detail.
func (p *GeminiProvider) CompleteJSON(ctx context.Context, req domain.StructuredRequest) (json.RawMessage, error) {
	ctx, span := tracer.StartSpan(ctx, "provider.complete_json",
		trace.WithAttributes(tracer.StringAttr("provider", p.name)),
	)
	defer span.End()

	if err := p.requireKey("provider.CompleteJSON"); err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	temp := req.Temperature
	gemReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &geminiGenConfig{
			Temperature:      &temp,
			MaxOutputTokens:  req.MaxTokens,
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}

	body, err := json.Marshal(gemReq)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.endpoint(p.resolveModel(req.Model), "generateContent", "")
	respBody, err := doJSONRequest(ctx, p.client, url, body)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	raw := strings.TrimSpace(firstText(gemResp))
	if !json.Valid([]byte(raw)) {
		err := domain.NewDomainError("provider.CompleteJSON", domain.ErrSchemaMismatch, truncate(raw, 200))
		tracer.RecordError(span, err)
		return nil, err
	}

	tracer.SetOK(span)
	return json.RawMessage(raw), nil
}

// GenerateImages implements domain.CompletionProvider. The image model
// returns one image per exchange, so the requested count maps to that many
// sequential calls.
func (p *GeminiProvider) GenerateImages(ctx context.Context, req domain.ImageRequest) ([]domain.ImageData, error) {
	if err := p.requireKey("provider.GenerateImages"); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.imageModel
	}
	count := req.Count
	if count < 1 {
		count = 1
	}

	gemReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &geminiGenConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	body, err := json.Marshal(gemReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.endpoint(model, "generateContent", "")

	var images []domain.ImageData
	for i := 0; i < count; i++ {
		respBody, err := doJSONRequest(ctx, p.client, url, body)
		if err != nil {
			return images, err
		}
		var gemResp geminiResponse
		if err := json.Unmarshal(respBody, &gemResp); err != nil {
			return images, fmt.Errorf("unmarshal response: %w", err)
		}
		for _, part := range candidateParts(gemResp) {
			if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				images = append(images, domain.ImageData{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				})
			}
		}
	}

	p.logger.Debug("image generation finished", "provider", p.name, "images", len(images))
	return images, nil
}

// Transcribe implements domain.CompletionProvider.
func (p *GeminiProvider) Transcribe(ctx context.Context, req domain.TranscribeRequest) (string, error) {
	if err := p.requireKey("provider.Transcribe"); err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = p.transcribeModel
	}

	gemReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{
				{InlineData: &geminiInlineData{MIMEType: req.MIMEType, Data: req.Audio}},
				{Text: "Transcribe this audio recording. Return only the transcript text."},
			}},
		},
	}
	body, err := json.Marshal(gemReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := doJSONRequest(ctx, p.client, p.endpoint(model, "generateContent", ""), body)
	if err != nil {
		return "", err
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return firstText(gemResp), nil
}

// SynthesizeSpeech implements domain.CompletionProvider. A response without
// an audio part yields (nil, nil) per the provider contract.
func (p *GeminiProvider) SynthesizeSpeech(ctx context.Context, req domain.SpeechRequest) (*domain.AudioData, error) {
	if err := p.requireKey("provider.SynthesizeSpeech"); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.speechModel
	}
	voice := req.Voice
	if voice == "" {
		voice = "Kore"
	}

	gemReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Text}}},
		},
		GenerationConfig: &geminiGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &geminiSpeechConf{
				VoiceConfig: geminiVoiceConf{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voice},
				},
			},
		},
	}
	body, err := json.Marshal(gemReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := doJSONRequest(ctx, p.client, p.endpoint(model, "generateContent", ""), body)
	if err != nil {
		return nil, err
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(respBody, &gemResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	for _, part := range candidateParts(gemResp) {
		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
			return &domain.AudioData{
				MIMEType: part.InlineData.MIMEType,
				Data:     part.InlineData.Data,
			}, nil
		}
	}
	return nil, nil
}

// toTextRequest converts a domain text request (history + prompt +
// attachment) into the Gemini wire shape.
func (p *GeminiProvider) toTextRequest(req domain.TextRequest) geminiRequest {
	gemReq := geminiRequest{}

	if req.SystemPrompt != "" {
		gemReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	for _, m := range req.History {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		gc := geminiContent{Role: role}
		if m.Attachment != nil {
			gc.Parts = append(gc.Parts, geminiPart{
				InlineData: &geminiInlineData{MIMEType: m.Attachment.MIMEType, Data: m.Attachment.Data},
			})
		}
		gc.Parts = append(gc.Parts, geminiPart{Text: m.Text})
		gemReq.Contents = append(gemReq.Contents, gc)
	}

	final := geminiContent{Role: "user"}
	if req.Attachment != nil {
		final.Parts = append(final.Parts, geminiPart{
			InlineData: &geminiInlineData{MIMEType: req.Attachment.MIMEType, Data: req.Attachment.Data},
		})
	}
	final.Parts = append(final.Parts, geminiPart{Text: req.Prompt})
	gemReq.Contents = append(gemReq.Contents, final)

	if req.Temperature > 0 || req.MaxTokens > 0 {
		cfg := &geminiGenConfig{MaxOutputTokens: req.MaxTokens}
		if req.Temperature > 0 {
			t := req.Temperature
			cfg.Temperature = &t
		}
		gemReq.GenerationConfig = cfg
	}

	return gemReq
}

func (p *GeminiProvider) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return p.model
}

func candidateParts(resp geminiResponse) []geminiPart {
	if len(resp.Candidates) == 0 {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func firstText(resp geminiResponse) string {
	var sb strings.Builder
	for _, part := range candidateParts(resp) {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// truncate shortens a string to maxLen bytes on a clean UTF-8 boundary,
// appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	end := 0
	for i := range s {
		if i > maxLen {
			break
		}
		end = i
	}
	return s[:end] + "..."
}
