package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/tracer"
)

// ImageService generates images for a prompt and persists them under the
// configured output directory.
type ImageService struct {
	provider domain.CompletionProvider
	images   config.ImagesConfig
	model    string
	logger   *slog.Logger
}

// NewImageService creates the image generation service.
func NewImageService(provider domain.CompletionProvider, cfg *config.Config, logger *slog.Logger) *ImageService {
	return &ImageService{
		provider: provider,
		images:   cfg.Images,
		model:    cfg.Provider.ImageModel,
		logger:   logger,
	}
}

// Generate produces the configured number of images for prompt and writes
// each to its own file, returning the paths in generation order. Fewer
// results than requested is not an error; zero results is.
func (s *ImageService) Generate(ctx context.Context, prompt string) ([]string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.NewDomainError("image.Generate", domain.ErrInvalidInput, "prompt is empty")
	}

	ctx, span := tracer.StartSpan(ctx, "image.generate")
	defer span.End()
	span.SetAttributes(tracer.IntAttr("image.count", s.images.Count))

	results, err := s.provider.GenerateImages(ctx, domain.ImageRequest{
		Model:  s.model,
		Prompt: prompt,
		Count:  s.images.Count,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("image.Generate", err)
	}
	if len(results) == 0 {
		return nil, domain.NewDomainError("image.Generate", domain.ErrProviderError, "backend produced no images")
	}

	if err := os.MkdirAll(s.images.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image output dir: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")
	paths := make([]string, 0, len(results))
	for i, img := range results {
		path := filepath.Join(s.images.OutputDir, fmt.Sprintf("image-%s-%d%s", stamp, i+1, imageExt(img.MIMEType)))
		if err := os.WriteFile(path, img.Data, 0o644); err != nil {
			return paths, fmt.Errorf("write image file: %w", err)
		}
		paths = append(paths, path)
	}
	s.logger.Info("images written", "count", len(paths), "dir", s.images.OutputDir)
	tracer.SetOK(span)
	return paths, nil
}

// imageExt maps an image MIME type to a file extension.
func imageExt(mime string) string {
	switch {
	case strings.Contains(mime, "jpeg"), strings.Contains(mime, "jpg"):
		return ".jpg"
	case strings.Contains(mime, "webp"):
		return ".webp"
	default:
		return ".png"
	}
}
