package llm

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"sparkdesk/internal/domain"
)

func parseTextLine(data []byte) (*domain.Fragment, error) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &domain.Fragment{Text: payload.Text}, nil
}

func collect(stream domain.FragmentStream) ([]domain.Fragment, string) {
	var frags []domain.Fragment
	var text string
	for f := range stream {
		frags = append(frags, f)
		text += f.Text
	}
	return frags, text
}

func TestParseSSEStreamOrder(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"text\":\"one \"}\n\n" +
			": comment line\n" +
			"event: something\n" +
			"data: {\"text\":\"two \"}\n\n" +
			"data: {\"text\":\"three\"}\n\n",
	))

	_, text := collect(parseSSEStream(context.Background(), body, parseTextLine))
	if text != "one two three" {
		t.Errorf("text = %q, want fragments in emission order", text)
	}
}

func TestParseSSEStreamDone(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"text\":\"only\"}\n\ndata: [DONE]\n\ndata: {\"text\":\"never\"}\n\n",
	))

	frags, text := collect(parseSSEStream(context.Background(), body, parseTextLine))
	if text != "only" {
		t.Errorf("text = %q, fragments after [DONE] must not be applied", text)
	}
	if len(frags) == 0 || !frags[len(frags)-1].Done {
		t.Errorf("last fragment should carry Done: %+v", frags)
	}
}

func TestParseSSEStreamSkipsMalformed(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: not-json\n\ndata: {\"text\":\"kept\"}\n\n",
	))

	_, text := collect(parseSSEStream(context.Background(), body, parseTextLine))
	if text != "kept" {
		t.Errorf("text = %q, malformed lines should be skipped", text)
	}
}

type errReader struct{ after io.Reader }

func (r *errReader) Read(p []byte) (int, error) {
	n, err := r.after.Read(p)
	if err == io.EOF {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

func (r *errReader) Close() error { return nil }

func TestParseSSEStreamIOErrorSurfacesAsFragment(t *testing.T) {
	body := &errReader{after: strings.NewReader("data: {\"text\":\"partial\"}\n\n")}

	frags, _ := collect(parseSSEStream(context.Background(), body, parseTextLine))
	if len(frags) == 0 || frags[len(frags)-1].Err == nil {
		t.Errorf("expected terminal error fragment, got %+v", frags)
	}
}

func TestParseSSEStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte("data: {\"text\":\"x\"}\n\n"))
		pw.Close()
	}()

	frags, _ := collect(parseSSEStream(ctx, pr, parseTextLine))
	// Cancelled before consumption: the stream closes without delivering.
	if len(frags) > 1 {
		t.Errorf("cancelled stream delivered %d fragments", len(frags))
	}
}
