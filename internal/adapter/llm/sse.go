package llm

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"sparkdesk/internal/domain"
)

// parseSSEStream reads SSE-formatted lines from body and converts each data
// payload into a Fragment using the provider-specific parseLine function.
// The returned channel is closed when the stream ends, the body is closed,
// or ctx is cancelled. An I/O error mid-stream surfaces as a terminal
// Fragment with Err set, so consumers can distinguish failure from a normal
// end-of-sequence.
func parseSSEStream(ctx context.Context, body io.ReadCloser, parseLine func(data []byte) (*domain.Fragment, error)) domain.FragmentStream {
	ch := make(chan domain.Fragment, 16)
	go func() {
		defer close(ch)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Bytes()

			// Skip empty lines and comments.
			if len(line) == 0 || line[0] == ':' {
				continue
			}

			// We only care about "data: ..." lines.
			if !bytes.HasPrefix(line, []byte("data: ")) {
				continue
			}
			data := bytes.TrimPrefix(line, []byte("data: "))

			// Common termination signal.
			if bytes.Equal(data, []byte("[DONE]")) {
				ch <- domain.Fragment{Done: true}
				return
			}

			frag, err := parseLine(data)
			if err != nil {
				// Skip unparseable lines.
				continue
			}
			if frag == nil {
				continue
			}

			select {
			case ch <- *frag:
			case <-ctx.Done():
				return
			}

			if frag.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case ch <- domain.Fragment{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}
