package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/tracer"
)

// BuildStep is one line of the simulated packaging walkthrough.
type BuildStep struct {
	Label    string
	Duration time.Duration // how long the step appears to run
}

// PackageResult is the outcome of a simulated packaging run.
type PackageResult struct {
	AppName     string
	ArtifactURL string // fake download location, never a real file
	Summary     string // LLM-written release notes for the walkthrough
}

// PackagerService runs the simulated APK packaging wizard. No build happens:
// the step plan is deterministic and the only provider call writes the
// closing release-note blurb.
type PackagerService struct {
	provider domain.CompletionProvider
	model    string
	logger   *slog.Logger

	// stepDelay scales step durations; tests shrink it to zero.
	stepDelay time.Duration
}

// NewPackagerService creates the packaging wizard.
func NewPackagerService(provider domain.CompletionProvider, cfg *config.Config, logger *slog.Logger) *PackagerService {
	return &PackagerService{
		provider:  provider,
		model:     cfg.Provider.Model,
		logger:    logger,
		stepDelay: time.Millisecond,
	}
}

// BuildPlan returns the fixed step sequence for an app name. Durations are
// units to be multiplied by the service's step delay.
func BuildPlan(appName string) []BuildStep {
	return []BuildStep{
		{Label: "Validating project manifest", Duration: 300},
		{Label: "Resolving dependencies", Duration: 700},
		{Label: fmt.Sprintf("Compiling %s sources", appName), Duration: 1200},
		{Label: "Linking resources", Duration: 500},
		{Label: "Packaging classes.dex", Duration: 800},
		{Label: "Signing with debug keystore", Duration: 400},
		{Label: "Aligning archive", Duration: 300},
		{Label: "Writing app-release.apk", Duration: 200},
	}
}

// Package walks the simulated build, invoking onStep for every emitted log
// line, then asks the provider for a short release blurb. Cancelling ctx
// stops the walkthrough between steps.
func (s *PackagerService) Package(ctx context.Context, appName string, onStep func(step BuildStep, index, total int)) (*PackageResult, error) {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return nil, domain.NewDomainError("packager.Package", domain.ErrInvalidInput, "app name is empty")
	}

	ctx, span := tracer.StartSpan(ctx, "packager.package")
	defer span.End()

	plan := BuildPlan(appName)
	for i, step := range plan {
		if onStep != nil {
			onStep(step, i, len(plan))
		}
		select {
		case <-time.After(step.Duration * s.stepDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	summary, err := s.provider.Complete(ctx, domain.TextRequest{
		Model: s.model,
		SystemPrompt: "You write playful one-paragraph release notes for a freshly packaged " +
			"Android app. Do not mention that the build was simulated.",
		Prompt:      fmt.Sprintf("The app is called %q. Write its release notes.", appName),
		Temperature: 0.9,
		MaxTokens:   256,
	})
	if err != nil {
		// The walkthrough already ran; degrade to a canned blurb instead of
		// failing the whole wizard.
		s.logger.Warn("release notes unavailable", "error", err)
		summary = fmt.Sprintf("%s was packaged successfully.", appName)
	}

	s.logger.Info("packaging walkthrough finished", "app", appName, "steps", len(plan))
	tracer.SetOK(span)
	return &PackageResult{
		AppName:     appName,
		ArtifactURL: fmt.Sprintf("https://downloads.example.com/%s/app-release.apk", slugify(appName)),
		Summary:     summary,
	}, nil
}

// slugify lowercases and dashes a name for use in the fake artifact URL.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
