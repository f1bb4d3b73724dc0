package usecase

import (
	"strings"
	"testing"

	"sparkdesk/internal/domain"
)

func TestCountTokens(t *testing.T) {
	if got := CountTokens(""); got != 0 {
		t.Errorf("empty = %d", got)
	}
	short := CountTokens("hello world")
	if short < 1 || short > 4 {
		t.Errorf("short text = %d tokens", short)
	}
	long := CountTokens(strings.Repeat("some longer sentence here ", 100))
	if long <= short {
		t.Errorf("long (%d) should exceed short (%d)", long, short)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens("   "); got != 0 {
		t.Errorf("whitespace = %d", got)
	}
	if got := estimateTokens("a"); got != 1 {
		t.Errorf("single rune = %d, want 1", got)
	}
	// Many short words: the word count dominates runes/4.
	if got := estimateTokens("a b c d e f"); got != 6 {
		t.Errorf("six words = %d, want 6", got)
	}
}

func TestTrimToBudgetKeepsAllWhenUnderBudget(t *testing.T) {
	history := []domain.Message{
		{Text: "one"}, {Text: "two"}, {Text: "three"},
	}
	got := TrimToBudget(history, 1000)
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestTrimToBudgetDropsOldestFirst(t *testing.T) {
	history := []domain.Message{
		{Text: strings.Repeat("old ", 200)},
		{Text: strings.Repeat("mid ", 200)},
		{Text: "new"},
	}
	got := TrimToBudget(history, 50)
	if len(got) == len(history) {
		t.Fatal("nothing trimmed")
	}
	if got[len(got)-1].Text != "new" {
		t.Errorf("newest message lost: %+v", got)
	}
	if len(got) > 1 && got[0].Text[:3] == "old" {
		t.Errorf("oldest should go first: %+v", got)
	}
}

func TestTrimToBudgetAlwaysKeepsNewest(t *testing.T) {
	history := []domain.Message{
		{Text: "early"},
		{Text: strings.Repeat("huge ", 500)},
	}
	got := TrimToBudget(history, 10)
	if len(got) != 1 || !strings.HasPrefix(got[0].Text, "huge") {
		t.Errorf("got = %d messages", len(got))
	}
}

func TestTrimToBudgetDisabled(t *testing.T) {
	history := []domain.Message{{Text: strings.Repeat("x", 10000)}}
	if got := TrimToBudget(history, 0); len(got) != 1 {
		t.Errorf("budget 0 must not trim")
	}
}
