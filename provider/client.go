// Package provider implements the streaming client for OpenRouter-compatible
// chat-completions APIs.
//
// The response body is a server-sent-event style sequence of newline-
// terminated frames: "data: <json>" payloads, blank keep-alive lines, and a
// literal "data: [DONE]" terminator. The client decodes frames as they
// arrive and exposes them as a finite event sequence; the orchestrator
// consumes it and cancellation is the request context, checked between
// frame reads.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"hejchat/model"
)

// DefaultEndpoint is the OpenRouter chat-completions URL.
const DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// maxErrorBody bounds how much of an error response is read back for the
// status message.
const maxErrorBody = 64 * 1024

// sharedStreamingClient has no client-level timeout; long-hanging streams
// are only terminated by context cancellation.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// Client issues streaming chat requests. It holds no credentials or model
// selection; those arrive with each request from whoever owns the settings.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a streaming client for the given endpoint. An empty
// endpoint selects OpenRouter.
func NewClient(endpoint string, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		http:     sharedStreamingClient,
		logger:   logger,
	}
}

// ChatRequest is one streaming submission: the resolved model identifier,
// the full outbound message list (system prompt included), and the API key.
type ChatRequest struct {
	APIKey   string
	Model    string
	Messages []model.Message
}

// chatRequestBody is the wire form of the outbound request.
type chatRequestBody struct {
	Model    string          `json:"model"`
	Messages []model.Message `json:"messages"`
	Stream   bool            `json:"stream"`
}

// streamFrame is one decoded "data:" payload.
type streamFrame struct {
	Choices []struct {
		Delta struct {
			Content  string `json:"content"`
			Thinking string `json:"thinking"`
		} `json:"delta"`
	} `json:"choices"`
}

// Event is one content-carrying chunk. Accumulated values include the
// delta.
type Event struct {
	Delta       string
	Text        string
	Thinking    string
	HasThinking bool
}

// Stream sends the request and returns the event sequence. Request-level
// failures (missing key, transport, non-2xx status, missing body) are
// returned here, before any event is produced. After the event channel
// closes, Err reports how the stream ended and the final accumulators are
// available on the Stream.
func (c *Client) Stream(ctx context.Context, req ChatRequest) (*Stream, error) {
	if req.APIKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(chatRequestBody{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := readErrorMessage(resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrStreamUnsupported
	}

	s := &Stream{
		events: make(chan Event),
		logger: c.logger,
	}
	go s.consume(ctx, resp.Body)

	return s, nil
}

// readErrorMessage extracts a human-readable message from an error response
// body, falling back to the raw (truncated) body text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return string(bytes.TrimSpace(data))
}
