package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"sentinel direct", ErrMissingAPIKey, CodeMissingAPIKey},
		{"wrapped sentinel", fmt.Errorf("call failed: %w", ErrSchemaMismatch), CodeSchemaMismatch},
		{"domain error", NewDomainError("chat.Send", ErrStreamActive, "conversation busy"), CodeStreamActive},
		{"unrelated", errors.New("boom"), CodeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorCodeOf(tc.err); got != tc.want {
				t.Errorf("ErrorCodeOf(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestDomainErrorMessage(t *testing.T) {
	err := NewDomainError("speech.Synthesize", ErrProviderError, "no audio in response")
	want := "speech.Synthesize: no audio in response: provider error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrProviderError) {
		t.Error("DomainError should unwrap to its sentinel")
	}
}

func TestWrapOp(t *testing.T) {
	if WrapOp("op", nil) != nil {
		t.Error("WrapOp(nil) should be nil")
	}
	err := WrapOp("analyze", ErrSchemaMismatch)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Error("WrapOp should preserve the sentinel")
	}
}
