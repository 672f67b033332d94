package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Stream is the finite event sequence of one chat request. Events arrive in
// network order; the channel closes when the stream terminates and Err then
// reports the outcome. The accumulated text and thinking survive every
// terminal state, including cancellation.
type Stream struct {
	events chan Event
	logger *zap.Logger

	mu          sync.Mutex
	err         error
	text        strings.Builder
	thinking    strings.Builder
	hasThinking bool
}

// Events returns the chunk channel. It closes once the stream has ended.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err reports how the stream ended: nil for a normal completion,
// ErrCancelled for a user abort, or the read failure. Valid after the event
// channel has closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Text returns the accumulated response text.
func (s *Stream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Thinking returns the accumulated thinking text and whether any arrived.
func (s *Stream) Thinking() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thinking.String(), s.hasThinking
}

// consume reads frames until the terminator, EOF, a read error, or
// cancellation. Reading whole lines means frames split across network reads
// are buffered until their newline arrives, and multi-byte characters are
// never cut: the loop only ever splits on the newline byte.
func (s *Stream) consume(ctx context.Context, body io.ReadCloser) {
	defer close(s.events)
	defer body.Close()

	reader := bufio.NewReader(body)

	for {
		select {
		case <-ctx.Done():
			s.finish(ErrCancelled)
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if line != "" {
			s.handleLine(ctx, line)
		}
		if err != nil {
			switch {
			case err == io.EOF:
				s.finish(nil)
			case ctx.Err() != nil:
				// The transport surfaces cancellation as a read failure on
				// the closed body; the distinct cancelled outcome wins.
				s.finish(ErrCancelled)
			default:
				s.finish(&TransportError{Err: err})
			}
			return
		}
	}
}

// handleLine decodes one frame. Blank lines and the [DONE] terminator are
// ignored; malformed JSON is logged and skipped, never fatal.
func (s *Stream) handleLine(ctx context.Context, line string) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed == "data: [DONE]" {
		return
	}
	if !strings.HasPrefix(trimmed, "data:") {
		// Other SSE fields (event:, id:, comments) carry nothing for us.
		return
	}
	payload := strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
	if payload == "[DONE]" {
		return
	}

	var frame streamFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		s.logger.Warn("skipping malformed stream frame", zap.Error(err))
		return
	}
	if len(frame.Choices) == 0 {
		return
	}

	delta := frame.Choices[0].Delta

	s.mu.Lock()
	s.text.WriteString(delta.Content)
	if delta.Thinking != "" {
		s.hasThinking = true
		s.thinking.WriteString(delta.Thinking)
	}
	ev := Event{
		Delta:       delta.Content,
		Text:        s.text.String(),
		Thinking:    s.thinking.String(),
		HasThinking: s.hasThinking,
	}
	s.mu.Unlock()

	if delta.Content == "" {
		return
	}

	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

func (s *Stream) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
