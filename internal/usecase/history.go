package usecase

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"sparkdesk/internal/domain"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

func initEncoding() {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
}

// CountTokens returns a token count for text using the cl100k_base encoding.
// When the encoding cannot be loaded it falls back to a character heuristic,
// so history trimming degrades to an approximation instead of failing.
func CountTokens(text string) int {
	initEncoding()
	if encoding != nil {
		return len(encoding.Encode(text, nil, nil))
	}
	return estimateTokens(text)
}

// estimateTokens is the heuristic fallback: max(runes/4, word count).
func estimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// TrimToBudget returns the longest suffix of history whose combined token
// count fits within budget. Messages are dropped oldest-first and never
// split; the most recent message is always kept even when it alone exceeds
// the budget. A budget of zero or less disables trimming.
func TrimToBudget(history []domain.Message, budget int) []domain.Message {
	if budget <= 0 || len(history) == 0 {
		return history
	}
	total := 0
	for i := len(history) - 1; i >= 0; i-- {
		total += CountTokens(history[i].Text)
		if total > budget && i < len(history)-1 {
			return history[i+1:]
		}
	}
	return history
}
