package app

import (
	"strings"
	"testing"

	"sparkdesk/internal/usecase"
)

func TestParseComposeInput(t *testing.T) {
	recipient, points := parseComposeInput("Sam\n- move the meeting\n* to Thursday\n\nbring slides")
	if recipient != "Sam" {
		t.Errorf("recipient = %q", recipient)
	}
	want := []string{"move the meeting", "to Thursday", "bring slides"}
	if len(points) != len(want) {
		t.Fatalf("points = %v", points)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("points[%d] = %q, want %q", i, points[i], want[i])
		}
	}
}

func TestParseComposeInputOnlyBullets(t *testing.T) {
	recipient, points := parseComposeInput("- just one thing")
	if recipient != "" || len(points) != 1 {
		t.Errorf("recipient = %q, points = %v", recipient, points)
	}
}

func TestFormatAnalysis(t *testing.T) {
	out := formatAnalysis(&usecase.EmailAnalysis{
		Summary:        "Refund request.",
		Sentiment:      "negative",
		Urgency:        "high",
		ActionItems:    []string{"check order"},
		SuggestedReply: "Sorry about that.",
	})
	for _, want := range []string{"Refund request.", "negative", "high", "- check order", "Suggested reply"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
