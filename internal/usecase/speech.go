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

// LiveTranscriber is a realtime transcription session source. The concrete
// implementation dials the provider's bidirectional endpoint.
type LiveTranscriber interface {
	// Start opens a live session. Transcript fragments arrive on the returned
	// channel until the session is closed or ctx ends.
	Start(ctx context.Context) (LiveSession, error)
}

// LiveSession is one open realtime transcription exchange.
type LiveSession interface {
	// SendAudio pushes a chunk of PCM audio into the session.
	SendAudio(ctx context.Context, chunk []byte) error
	// Transcripts streams recognized text fragments in arrival order.
	Transcripts() <-chan domain.Fragment
	// Close ends the session. Safe to call more than once.
	Close() error
}

// SpeechService covers text-to-speech synthesis and audio transcription.
// Synthesized audio is persisted under the configured output directory.
type SpeechService struct {
	provider domain.CompletionProvider
	live     LiveTranscriber
	speech   config.SpeechConfig
	models   config.ProviderConfig
	logger   *slog.Logger
}

// NewSpeechService creates the speech service. live may be nil when realtime
// transcription is disabled.
func NewSpeechService(provider domain.CompletionProvider, live LiveTranscriber, cfg *config.Config, logger *slog.Logger) *SpeechService {
	return &SpeechService{
		provider: provider,
		live:     live,
		speech:   cfg.Speech,
		models:   cfg.Provider,
		logger:   logger,
	}
}

// Synthesize converts text to speech and writes the audio next to a
// timestamped filename in the output directory, returning the path.
func (s *SpeechService) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.NewDomainError("speech.Synthesize", domain.ErrInvalidInput, "text is empty")
	}

	ctx, span := tracer.StartSpan(ctx, "speech.synthesize")
	defer span.End()

	audio, err := s.provider.SynthesizeSpeech(ctx, domain.SpeechRequest{
		Model: s.models.SpeechModel,
		Text:  text,
		Voice: s.speech.Voice,
	})
	if err != nil {
		tracer.RecordError(span, err)
		return "", domain.WrapOp("speech.Synthesize", err)
	}
	if audio == nil {
		return "", domain.NewDomainError("speech.Synthesize", domain.ErrProviderError, "backend produced no audio")
	}

	if err := os.MkdirAll(s.speech.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio output dir: %w", err)
	}
	path := filepath.Join(s.speech.OutputDir,
		fmt.Sprintf("speech-%s%s", time.Now().Format("20060102-150405"), audioExt(audio.MIMEType)))
	if err := os.WriteFile(path, audio.Data, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	s.logger.Info("speech written", "path", path, "bytes", len(audio.Data), "voice", s.speech.Voice)
	tracer.SetOK(span)
	return path, nil
}

// Transcribe converts a recorded audio file to text.
func (s *SpeechService) Transcribe(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.NewDomainError("speech.Transcribe", domain.ErrInvalidInput, err.Error())
	}
	if len(data) == 0 {
		return "", domain.NewDomainError("speech.Transcribe", domain.ErrInvalidInput, "audio file is empty")
	}

	ctx, span := tracer.StartSpan(ctx, "speech.transcribe")
	defer span.End()

	text, err := s.provider.Transcribe(ctx, domain.TranscribeRequest{
		Model:    s.models.TranscribeModel,
		Audio:    data,
		MIMEType: audioMIME(path),
	})
	if err != nil {
		tracer.RecordError(span, err)
		return "", domain.WrapOp("speech.Transcribe", err)
	}
	tracer.SetOK(span)
	return text, nil
}

// LiveAvailable reports whether a realtime transcription backend is wired.
func (s *SpeechService) LiveAvailable() bool { return s.live != nil }

// liveChunkBytes is the realtime input frame size: a quarter second of
// 16 kHz mono 16-bit PCM.
const liveChunkBytes = 8 * 1024

// TranscribeLive streams a raw PCM capture through the realtime session and
// folds the transcript deltas into the returned text. onDelta, when non-nil,
// is invoked for every recognized fragment in arrival order. The server ends
// the turn on trailing silence; cancelling ctx closes the session and returns
// whatever was recognized up to that point.
func (s *SpeechService) TranscribeLive(ctx context.Context, path string, onDelta func(text string)) (string, error) {
	if s.live == nil {
		return "", domain.NewDomainError("speech.TranscribeLive", domain.ErrInvalidInput, "live transcription is not enabled")
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", domain.NewDomainError("speech.TranscribeLive", domain.ErrInvalidInput, err.Error())
	}
	if len(audio) == 0 {
		return "", domain.NewDomainError("speech.TranscribeLive", domain.ErrInvalidInput, "audio file is empty")
	}

	ctx, span := tracer.StartSpan(ctx, "speech.transcribe_live")
	defer span.End()

	session, err := s.StartLive(ctx)
	if err != nil {
		tracer.RecordError(span, err)
		return "", err
	}
	defer session.Close()
	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	go func() {
		for off := 0; off < len(audio); off += liveChunkBytes {
			end := off + liveChunkBytes
			if end > len(audio) {
				end = len(audio)
			}
			if err := session.SendAudio(ctx, audio[off:end]); err != nil {
				s.logger.Debug("live audio push ended", "error", err)
				return
			}
		}
	}()

	var sb strings.Builder
	for frag := range session.Transcripts() {
		if frag.Err != nil {
			tracer.RecordError(span, frag.Err)
			return sb.String(), domain.WrapOp("speech.TranscribeLive", frag.Err)
		}
		if frag.Done {
			break
		}
		sb.WriteString(frag.Text)
		if onDelta != nil {
			onDelta(frag.Text)
		}
	}

	s.logger.Info("live transcription finished", "path", path, "chars", sb.Len())
	tracer.SetOK(span)
	return sb.String(), nil
}

// StartLive opens a realtime transcription session.
func (s *SpeechService) StartLive(ctx context.Context) (LiveSession, error) {
	if s.live == nil {
		return nil, domain.NewDomainError("speech.StartLive", domain.ErrInvalidInput, "live transcription is not enabled")
	}
	session, err := s.live.Start(ctx)
	if err != nil {
		return nil, domain.WrapOp("speech.StartLive", err)
	}
	return session, nil
}

// audioExt maps a MIME type to a file extension, defaulting to raw PCM.
func audioExt(mime string) string {
	switch {
	case strings.Contains(mime, "wav"):
		return ".wav"
	case strings.Contains(mime, "mp3"), strings.Contains(mime, "mpeg"):
		return ".mp3"
	case strings.Contains(mime, "ogg"):
		return ".ogg"
	default:
		return ".pcm"
	}
}

// audioMIME guesses the MIME type of a recording from its extension.
func audioMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".m4a", ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}
