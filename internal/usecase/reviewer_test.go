package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/logger"
)

// textProvider returns a canned single-shot completion and records the
// request.
type textProvider struct {
	streamProvider
	reply   string
	err     error
	textReq domain.TextRequest
}

func (p *textProvider) Complete(ctx context.Context, req domain.TextRequest) (string, error) {
	p.textReq = req
	return p.reply, p.err
}

func TestReviewerReview(t *testing.T) {
	provider := &textProvider{reply: "## Review\n\nLooks fine."}
	svc := NewReviewerService(provider, config.Defaults(), logger.Nop())

	review, err := svc.Review(context.Background(), "main.go", "package main\n\nfunc main() {}\n")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if review != "## Review\n\nLooks fine." {
		t.Errorf("review = %q", review)
	}
	if !strings.Contains(provider.textReq.Prompt, "```go\n") {
		t.Errorf("prompt should fence source with language hint:\n%s", provider.textReq.Prompt)
	}
	if !strings.Contains(provider.textReq.Prompt, "FILE: main.go") {
		t.Errorf("prompt missing filename:\n%s", provider.textReq.Prompt)
	}
}

func TestReviewerRejectsEmptySource(t *testing.T) {
	svc := NewReviewerService(&textProvider{}, config.Defaults(), logger.Nop())
	if _, err := svc.Review(context.Background(), "x.go", "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestReviewerRejectsOversizedSource(t *testing.T) {
	svc := NewReviewerService(&textProvider{}, config.Defaults(), logger.Nop())
	big := strings.Repeat("x", maxReviewBytes+1)
	if _, err := svc.Review(context.Background(), "x.go", big); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestReviewerPropagatesProviderError(t *testing.T) {
	svc := NewReviewerService(&textProvider{err: domain.ErrAuthInvalid}, config.Defaults(), logger.Nop())
	if _, err := svc.Review(context.Background(), "x.go", "code"); !errors.Is(err, domain.ErrAuthInvalid) {
		t.Errorf("err = %v, want ErrAuthInvalid", err)
	}
}
