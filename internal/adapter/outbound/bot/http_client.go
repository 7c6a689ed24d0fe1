// Package bot provides the HTTP client adapter for the conversation bot
// collaborator.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/novix-hq/channelgate/internal/port/outbound"
)

// maxResponseBodySize bounds how much of the bot's response is drained.
// The body content is discarded; draining keeps connections reusable.
const maxResponseBodySize = 64 * 1024

// HTTPClient dispatches bot messages to a remote bot engine over HTTP.
// It implements the outbound.BotDispatcher interface.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// Compile-time check that HTTPClient implements BotDispatcher.
var _ outbound.BotDispatcher = (*HTTPClient)(nil)

// ClientOption is a functional option for configuring HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// NewHTTPClient creates a client for the given bot endpoint URL.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch POSTs the message to the bot endpoint. Any non-2xx status is an
// error; the caller logs and moves on, no retry is made here.
func (c *HTTPClient) Dispatch(ctx context.Context, msg outbound.BotMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal bot message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build bot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send bot request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bot returned status %d", resp.StatusCode)
	}
	return nil
}
