package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"sparkdesk/internal/domain"
	"sparkdesk/internal/infra/config"
	"sparkdesk/internal/infra/logger"
)

// fakeLiveServer accepts one websocket session, records incoming frames and
// replays canned server frames.
func fakeLiveServer(t *testing.T, handle func(ctx context.Context, ws *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("missing key query parameter")
		}
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer ws.Close(websocket.StatusNormalClosure, "")
		handle(r.Context(), ws)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func liveFixture(t *testing.T, srv *httptest.Server) *LiveTranscriber {
	t.Helper()
	cfg := config.Defaults()
	cfg.Provider.APIKey = "test-key"
	cfg.Speech.Live.BaseURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return NewLiveTranscriber(cfg, logger.Nop())
}

func TestLiveSessionTranscripts(t *testing.T) {
	srv := fakeLiveServer(t, func(ctx context.Context, ws *websocket.Conn) {
		// First frame must be the setup.
		var setup map[string]any
		if err := wsjson.Read(ctx, ws, &setup); err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		if _, ok := setup["setup"]; !ok {
			t.Errorf("first frame is not a setup: %v", setup)
		}
		wsjson.Write(ctx, ws, map[string]any{"setupComplete": map[string]any{}})

		// Expect one audio frame, then emit a transcript and end the turn.
		var frame map[string]json.RawMessage
		if err := wsjson.Read(ctx, ws, &frame); err != nil {
			t.Errorf("read audio: %v", err)
			return
		}
		if _, ok := frame["realtimeInput"]; !ok {
			t.Errorf("frame is not realtime input: %v", frame)
		}
		wsjson.Write(ctx, ws, map[string]any{
			"serverContent": map[string]any{
				"inputTranscription": map[string]any{"text": "hello "},
			},
		})
		wsjson.Write(ctx, ws, map[string]any{
			"serverContent": map[string]any{
				"inputTranscription": map[string]any{"text": "world"},
				"turnComplete":       true,
			},
		})
		// Hold the connection open until the client hangs up.
		ws.Read(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := liveFixture(t, srv).Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer session.Close()

	if err := session.SendAudio(ctx, []byte{0x00, 0x01, 0x02}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	var got []string
	for frag := range session.Transcripts() {
		if frag.Err != nil {
			t.Fatalf("fragment error: %v", frag.Err)
		}
		if frag.Done {
			break
		}
		got = append(got, frag.Text)
	}
	if strings.Join(got, "") != "hello world" {
		t.Errorf("transcript = %q", strings.Join(got, ""))
	}
}

func TestLiveSessionServerError(t *testing.T) {
	srv := fakeLiveServer(t, func(ctx context.Context, ws *websocket.Conn) {
		var setup map[string]any
		wsjson.Read(ctx, ws, &setup)
		wsjson.Write(ctx, ws, map[string]any{"error": map[string]any{"message": "quota exhausted"}})
		ws.Read(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := liveFixture(t, srv).Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer session.Close()

	frag := <-session.Transcripts()
	if frag.Err == nil || !strings.Contains(frag.Err.Error(), "quota exhausted") {
		t.Errorf("fragment = %+v", frag)
	}
	if extra, ok := <-session.Transcripts(); ok {
		t.Errorf("got fragment %+v after terminal error", extra)
	}
}

func TestLiveSessionSendAfterClose(t *testing.T) {
	srv := fakeLiveServer(t, func(ctx context.Context, ws *websocket.Conn) {
		var setup map[string]any
		wsjson.Read(ctx, ws, &setup)
		ws.Read(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := liveFixture(t, srv).Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	session.Close()
	session.Close() // idempotent

	if err := session.SendAudio(ctx, []byte{0x00}); err == nil {
		t.Error("SendAudio after Close must fail")
	}
}

func TestLiveStartRequiresAPIKey(t *testing.T) {
	cfg := config.Defaults()
	cfg.Provider.APIKey = ""
	transcriber := NewLiveTranscriber(cfg, logger.Nop())

	_, err := transcriber.Start(context.Background())
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}
