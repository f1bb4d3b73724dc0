// Package speech provides the realtime transcription adapter over the
// provider's bidirectional websocket endpoint.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"nhooyr.io/websocket"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/usecase"
)

// pcmMIME is the audio format pushed into live sessions.
const pcmMIME = "audio/pcm;rate=16000"

// LiveTranscriber dials the Gemini Live endpoint and streams input
// transcription back as fragments. It implements usecase.LiveTranscriber.
type LiveTranscriber struct {
	baseURL string
	apiKey  string
	model   string
	logger  *slog.Logger
}

// NewLiveTranscriber creates the live transcription dialer from config.
func NewLiveTranscriber(cfg *config.Config, logger *slog.Logger) *LiveTranscriber {
	return &LiveTranscriber{
		baseURL: cfg.Speech.Live.BaseURL,
		apiKey:  cfg.Provider.APIKey,
		model:   cfg.Provider.TranscribeModel,
		logger:  logger,
	}
}

// Start opens a websocket session and sends the setup frame. The returned
// session is live once the setup is acknowledged by the first server frame.
func (t *LiveTranscriber) Start(ctx context.Context) (usecase.LiveSession, error) {
	if t.apiKey == "" {
		return nil, domain.NewDomainError("speech.live.Start", domain.ErrMissingAPIKey, "")
	}

	conn, _, err := websocket.Dial(ctx, t.baseURL+"?key="+t.apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("live websocket connect: %w", err)
	}

	setup := map[string]any{
		"setup": map[string]any{
			"model": "models/" + t.model,
			"generationConfig": map[string]any{
				"responseModalities": []string{"TEXT"},
			},
			"inputAudioTranscription": map[string]any{},
		},
	}
	setupData, err := json.Marshal(setup)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "setup marshal error")
		return nil, fmt.Errorf("marshal live setup: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, setupData); err != nil {
		conn.Close(websocket.StatusInternalError, "setup write error")
		return nil, fmt.Errorf("send live setup: %w", err)
	}

	session := &liveSession{
		conn:        conn,
		transcripts: make(chan domain.Fragment, 32),
		done:        make(chan struct{}),
		logger:      t.logger,
	}
	go session.readLoop()

	t.logger.Debug("live transcription session opened", "model", t.model)
	return session, nil
}

// liveSession is one open bidirectional exchange.
type liveSession struct {
	conn        *websocket.Conn
	transcripts chan domain.Fragment
	done        chan struct{}
	closeOnce   sync.Once
	logger      *slog.Logger
}

// SendAudio pushes one PCM chunk as a realtime input frame.
func (s *liveSession) SendAudio(ctx context.Context, chunk []byte) error {
	select {
	case <-s.done:
		return fmt.Errorf("live session closed")
	default:
	}

	msg := map[string]any{
		"realtimeInput": map[string]any{
			"audio": map[string]any{
				"data":     chunk, // base64 handled by JSON marshal
				"mimeType": pcmMIME,
			},
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audio frame: %w", err)
	}
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("send audio frame: %w", err)
	}
	return nil
}

func (s *liveSession) Transcripts() <-chan domain.Fragment {
	return s.transcripts
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close(websocket.StatusNormalClosure, "session ended")
	})
	return nil
}

// readLoop reads server frames and forwards input transcription text.
func (s *liveSession) readLoop() {
	defer close(s.transcripts)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.Read(context.Background())
		if err != nil {
			select {
			case <-s.done:
				// Expected close.
			default:
				s.transcripts <- domain.Fragment{Err: err}
			}
			return
		}

		var frame struct {
			SetupComplete *struct{} `json:"setupComplete"`
			ServerContent *struct {
				InputTranscription *struct {
					Text string `json:"text"`
				} `json:"inputTranscription"`
				TurnComplete bool `json:"turnComplete"`
			} `json:"serverContent"`
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch {
		case frame.SetupComplete != nil:
			s.logger.Debug("live setup acknowledged")

		case frame.Error != nil:
			// An Err fragment is terminal: stop reading so nothing follows it.
			s.logger.Warn("live transcription error", "message", frame.Error.Message)
			s.transcripts <- domain.Fragment{Err: fmt.Errorf("live transcription: %s", frame.Error.Message)}
			return

		case frame.ServerContent != nil:
			if tr := frame.ServerContent.InputTranscription; tr != nil && tr.Text != "" {
				s.transcripts <- domain.Fragment{Text: tr.Text}
			}
			if frame.ServerContent.TurnComplete {
				s.transcripts <- domain.Fragment{Done: true}
			}
		}
	}
}
