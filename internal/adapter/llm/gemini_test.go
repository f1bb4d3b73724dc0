package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/logger"
)

func testProvider(t *testing.T, url string) *GeminiProvider {
	t.Helper()
	return NewGeminiProvider(config.ProviderConfig{
		Name:    "gemini",
		BaseURL: url,
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
	}, logger.Nop())
}

func TestGeminiComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query")
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[len(req.Contents[0].Parts)-1].Text != "Hello" {
			t.Errorf("unexpected contents: %+v", req.Contents)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Hi "},{"text":"there"}]}}]}`)
	}))
	defer server.Close()

	got, err := testProvider(t, server.URL).Complete(context.Background(), domain.TextRequest{Prompt: "Hello"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Hi there" {
		t.Errorf("got %q, want %q", got, "Hi there")
	}
}

func TestGeminiCompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "streamGenerateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("expected alt=sse, got %s", r.URL.Query().Get("alt"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)

		chunks := []string{
			`data: {"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`,
			`data: {"candidates":[{"content":{"parts":[{"text":"lo, "}]}}]}`,
			`data: {"candidates":[{"content":{"parts":[{"text":"world"}]}}]}`,
		}
		for _, c := range chunks {
			fmt.Fprintln(w, c)
			fmt.Fprintln(w)
			flusher.Flush()
		}
	}))
	defer server.Close()

	stream, err := testProvider(t, server.URL).CompleteStream(context.Background(), domain.TextRequest{Prompt: "Hello"})
	if err != nil {
		t.Fatalf("CompleteStream: %v", err)
	}

	var content string
	for frag := range stream {
		if frag.Err != nil {
			t.Fatalf("fragment error: %v", frag.Err)
		}
		content += frag.Text
	}
	if content != "Hello, world" {
		t.Errorf("content = %q, want %q", content, "Hello, world")
	}
}

func TestGeminiCompleteJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("structured call must request application/json: %+v", req.GenerationConfig)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{\"sentiment\":\"positive\"}"}]}}]}`)
	}))
	defer server.Close()

	raw, err := testProvider(t, server.URL).CompleteJSON(context.Background(), domain.StructuredRequest{
		Prompt: "Analyze",
		Schema: json.RawMessage(`{"type":"object"}`),
	})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if out["sentiment"] != "positive" {
		t.Errorf("got %v", out)
	}
}

func TestGeminiCompleteJSONMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"sorry, I cannot do that"}]}}]}`)
	}))
	defer server.Close()

	_, err := testProvider(t, server.URL).CompleteJSON(context.Background(), domain.StructuredRequest{Prompt: "Analyze"})
	if !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestGeminiMissingAPIKey(t *testing.T) {
	p := NewGeminiProvider(config.ProviderConfig{Name: "gemini", BaseURL: "http://unused"}, logger.Nop())

	if _, err := p.Complete(context.Background(), domain.TextRequest{Prompt: "x"}); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("Complete err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := p.CompleteStream(context.Background(), domain.TextRequest{Prompt: "x"}); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("CompleteStream err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := p.SynthesizeSpeech(context.Background(), domain.SpeechRequest{Text: "x"}); !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("SynthesizeSpeech err = %v, want ErrMissingAPIKey", err)
	}
}

func TestGeminiGenerateImages(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// "png" base64-encoded by the JSON marshaller.
		resp := geminiResponse{Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{
			{Text: "here you go"},
			{InlineData: &geminiInlineData{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}},
		}}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	images, err := testProvider(t, server.URL).GenerateImages(context.Background(), domain.ImageRequest{Prompt: "a cat", Count: 2})
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(images) != 2 || images[0].MIMEType != "image/png" || len(images[0].Data) != 4 {
		t.Errorf("images = %+v", images)
	}
}

func TestGeminiSynthesizeSpeechNoAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"no audio for you"}]}}]}`)
	}))
	defer server.Close()

	audio, err := testProvider(t, server.URL).SynthesizeSpeech(context.Background(), domain.SpeechRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if audio != nil {
		t.Errorf("audio = %+v, want nil for absent payload", audio)
	}
}

func TestGeminiTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "audio/wav" {
			t.Errorf("expected inline audio part: %+v", parts)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"hello from the tape"}]}}]}`)
	}))
	defer server.Close()

	text, err := testProvider(t, server.URL).Transcribe(context.Background(), domain.TranscribeRequest{
		Audio:    []byte("RIFF"),
		MIMEType: "audio/wav",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello from the tape" {
		t.Errorf("text = %q", text)
	}
}

func TestGeminiHTTPErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusForbidden, domain.ErrAuthInvalid},
		{http.StatusRequestEntityTooLarge, domain.ErrContextOverflow},
		{http.StatusInternalServerError, domain.ErrProviderError},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			fmt.Fprint(w, `{"error":"nope"}`)
		}))
		_, err := testProvider(t, server.URL).Complete(context.Background(), domain.TextRequest{Prompt: "x"})
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
		server.Close()
	}
}
