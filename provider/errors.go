package provider

import (
	"errors"
	"fmt"
)

// Request-level errors. These reject the whole submission before any chunk
// is delivered; frame-level parse errors never surface here, they are
// logged and skipped inside the stream loop.
var (
	// ErrNotConfigured indicates no API key has been set. No network call
	// is attempted.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrStreamUnsupported indicates the response carried no streamable
	// body.
	ErrStreamUnsupported = errors.New("streaming response body not supported")

	// ErrCancelled is the terminal outcome of a user-initiated abort. It is
	// an expected terminal state, not a failure: accumulated text survives
	// and the caller finalizes a partial response.
	ErrCancelled = errors.New("request cancelled")
)

// StatusError is a non-2xx response from the chat-completions endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.Code)
}

// TransportError wraps a network-level failure (connection refused, DNS,
// broken pipe) that prevented or interrupted the exchange.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
