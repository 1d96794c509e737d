// Package chat is the transport collaborator: it opens one streaming exchange
// with the assistant service and hands the raw body to the decoder. Retry
// policy lives here, never in the decoder.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one outbound user turn. ConversationID correlates the exchange
// to a prior one and is opaque to this layer.
type Message struct {
	Text           string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// TransportError reports that the assistant endpoint could not supply a
// readable stream for an exchange. It is terminal for that exchange; data
// already emitted before the failure stands.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assistant transport: %v", e.Err)
	}
	return fmt.Sprintf("assistant transport: unexpected status %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client wraps http.Client for the assistant chat API and provides a bounded
// retry on transient errors before the stream opens. Once a body is handed
// out, no retry is possible.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// HeaderTimeout bounds connection and response-header receipt. It must
	// not bound the body: exchanges stream for as long as the model talks.
	HeaderTimeout time.Duration
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: c.HeaderTimeout}}
}

// Open POSTs the message and returns the response body stream. The caller
// owns the body and must close it. Unreachable endpoints and non-2xx
// responses surface as *TransportError after bounded retry on 5xx.
func (c *Client) Open(ctx context.Context, msg Message) (io.ReadCloser, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, err := c.tryOpen(ctx, payload)
		if err == nil {
			return body, nil
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, err
		}
		lastErr = err
		time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
	}
	return nil, lastErr
}

func (c *Client) tryOpen(ctx context.Context, payload []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &TransportError{Status: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); !isEventStream(ct) {
		resp.Body.Close()
		return nil, &TransportError{Err: fmt.Errorf("unsupported content type: %s", ct)}
	}
	return resp.Body, nil
}

// Health probes the assistant service. Any non-200 answer is an error.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Status: resp.StatusCode}
	}
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status >= 500 && te.Status <= 599
	}
	return false
}

func isEventStream(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "text/event-stream")
}
