package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"hejchat/model"
)

func testRequest() ChatRequest {
	return ChatRequest{
		APIKey: "test-key",
		Model:  "test-model",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: model.TextContent("hi")},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, zap.NewNop())
}

func collect(t *testing.T, s *Stream) []Event {
	t.Helper()
	var events []Event
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events
}

func TestStreamAccumulatesContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n")
		fmt.Fprint(w, "\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	})

	s, err := client.Stream(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	events := collect(t, s)
	if err := s.Err(); err != nil {
		t.Fatalf("stream ended with error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Delta != "Hel" || events[0].Text != "Hel" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Delta != "lo" || events[1].Text != "Hello" {
		t.Errorf("second event = %+v", events[1])
	}
	if s.Text() != "Hello" {
		t.Errorf("final text = %q", s.Text())
	}
}

func TestStreamThinkingChannel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"thinking\":\"hmm \"}}]}\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\",\"thinking\":\"ok\"}}]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	})

	s, err := client.Stream(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	events := collect(t, s)

	// Thinking-only frames accumulate but emit no event.
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].HasThinking || events[0].Thinking != "hmm ok" {
		t.Errorf("event thinking = %q (has=%v)", events[0].Thinking, events[0].HasThinking)
	}

	thinking, has := s.Thinking()
	if !has || thinking != "hmm ok" {
		t.Errorf("final thinking = %q (has=%v)", thinking, has)
	}
}

func TestStreamSkipsMalformedFrames(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {broken json\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n")
		fmt.Fprint(w, "data: {\"choices\":[]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	})

	s, err := client.Stream(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	events := collect(t, s)
	if err := s.Err(); err != nil {
		t.Fatalf("malformed frame aborted the stream: %v", err)
	}
	if len(events) != 1 || events[0].Text != "ok" {
		t.Errorf("events = %+v, want one %q event", events, "ok")
	}
}

func TestStreamFramesSplitAcrossWrites(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":")
		flusher.Flush()
		fmt.Fprint(w, "{\"content\":\"whole\"}}]}\n")
		flusher.Flush()
		fmt.Fprint(w, "data: [DONE]\n")
	})

	s, err := client.Stream(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	events := collect(t, s)
	if len(events) != 1 || events[0].Text != "whole" {
		t.Errorf("split frame not reassembled: %+v", events)
	}
}

func TestStreamCancellationPreservesPartial(t *testing.T) {
	sent := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n")
		w.(http.Flusher).Flush()
		close(sent)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := client.Stream(ctx, testRequest())
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}

	go func() {
		<-sent
		cancel()
	}()

	collect(t, s)

	if !errors.Is(s.Err(), ErrCancelled) {
		t.Fatalf("stream error = %v, want ErrCancelled", s.Err())
	}
	if s.Text() != "Hel" {
		t.Errorf("partial text lost on cancel: %q", s.Text())
	}
}

func TestStreamMissingAPIKey(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", zap.NewNop())

	req := testRequest()
	req.APIKey = ""
	if _, err := client.Stream(context.Background(), req); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestStreamStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	})

	_, err := client.Stream(context.Background(), testRequest())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want 429", statusErr.Code)
	}
	if statusErr.Message != "slow down" {
		t.Errorf("message = %q, want %q", statusErr.Message, "slow down")
	}
}

func TestStreamStatusErrorPlainBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded\n")
	})

	_, err := client.Stream(context.Background(), testRequest())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.Message != "upstream exploded" {
		t.Errorf("message = %q", statusErr.Message)
	}
}

func TestStreamTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, zap.NewNop())

	_, err := client.Stream(context.Background(), testRequest())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
}

func TestStreamSendsAuthAndStreamFlag(t *testing.T) {
	var gotAuth, gotAccept string
	var gotBody chatRequestBody

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		fmt.Fprint(w, "data: [DONE]\n")
	})

	s, err := client.Stream(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	collect(t, s)

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if !gotBody.Stream {
		t.Error("stream flag not set on request body")
	}
	if gotBody.Model != "test-model" {
		t.Errorf("model = %q", gotBody.Model)
	}
}
