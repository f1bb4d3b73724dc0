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

func TestComposerCompose(t *testing.T) {
	provider := &textProvider{reply: "Subject: Meeting\n\nHi Sam, ..."}
	svc := NewComposerService(provider, config.Defaults(), logger.Nop())

	draft, err := svc.Compose(context.Background(), "Sam", []string{"move the meeting", " ", "to Thursday"}, ToneFriendly)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasPrefix(draft, "Subject:") {
		t.Errorf("draft = %q", draft)
	}
	prompt := provider.textReq.Prompt
	if !strings.Contains(prompt, "friendly tone") {
		t.Errorf("tone not in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- move the meeting\n- to Thursday\n") {
		t.Errorf("blank bullet not dropped or order lost:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Recipient: Sam") {
		t.Errorf("recipient missing:\n%s", prompt)
	}
}

func TestComposerUnknownToneFallsBackToFormal(t *testing.T) {
	provider := &textProvider{reply: "Subject: x"}
	svc := NewComposerService(provider, config.Defaults(), logger.Nop())

	if _, err := svc.Compose(context.Background(), "", []string{"a point"}, Tone("sarcastic")); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(provider.textReq.Prompt, "formal tone") {
		t.Errorf("prompt = %q", provider.textReq.Prompt)
	}
}

func TestComposerRejectsNoPoints(t *testing.T) {
	svc := NewComposerService(&textProvider{}, config.Defaults(), logger.Nop())
	if _, err := svc.Compose(context.Background(), "Sam", []string{"", "  "}, ToneFormal); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
