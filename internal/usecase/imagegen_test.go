package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/logger"
)

func imageFixture(t *testing.T, provider domain.CompletionProvider) *ImageService {
	t.Helper()
	cfg := config.Defaults()
	cfg.Images.OutputDir = t.TempDir()
	return NewImageService(provider, cfg, logger.Nop())
}

func TestImageGenerateWritesFiles(t *testing.T) {
	provider := &mediaProvider{images: []domain.ImageData{
		{MIMEType: "image/png", Data: []byte("png-1")},
		{MIMEType: "image/jpeg", Data: []byte("jpg-2")},
	}}
	svc := imageFixture(t, provider)

	paths, err := svc.Generate(context.Background(), "a lighthouse at dusk")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	if filepath.Ext(paths[0]) != ".png" || filepath.Ext(paths[1]) != ".jpg" {
		t.Errorf("extensions wrong: %v", paths)
	}
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if string(data) != string(provider.images[i].Data) {
			t.Errorf("file %d content = %q", i, data)
		}
	}
	if provider.imageReq.Count != config.Defaults().Images.Count {
		t.Errorf("count = %d", provider.imageReq.Count)
	}
}

func TestImageGenerateNoResults(t *testing.T) {
	svc := imageFixture(t, &mediaProvider{})
	if _, err := svc.Generate(context.Background(), "prompt"); !errors.Is(err, domain.ErrProviderError) {
		t.Errorf("err = %v, want ErrProviderError", err)
	}
}

func TestImageGenerateEmptyPrompt(t *testing.T) {
	svc := imageFixture(t, &mediaProvider{})
	if _, err := svc.Generate(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestImageGeneratePropagatesProviderError(t *testing.T) {
	svc := imageFixture(t, &mediaProvider{imagesErr: domain.ErrRateLimit})
	if _, err := svc.Generate(context.Background(), "prompt"); !errors.Is(err, domain.ErrRateLimit) {
		t.Errorf("err = %v, want ErrRateLimit", err)
	}
}
