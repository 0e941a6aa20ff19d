// Package chat is the client for the remote chat backend. A Client is built
// explicitly from config and passed to whatever needs to send messages;
// there is no package-level instance.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jcadam/parley/pkg/config"
	"github.com/jcadam/parley/pkg/debug"
	"github.com/jcadam/parley/pkg/privacy"
)

const (
	defaultTimeout = 30 * time.Second
	maxReplyBytes  = 1 << 20
)

// Request is the JSON body POSTed to /chat.
type Request struct {
	Message string `json:"message"`
}

// Response is the JSON body returned by /chat. Exactly one field is
// normally set.
type Response struct {
	Response *string `json:"response"`
	Error    *string `json:"error"`
}

// Client sends messages to a chat backend.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient creates a client for cfg. When dbg is non-nil every exchange is
// traced through it. An invalid proxy is reported by config.Validate; here
// it falls back to a direct connection.
func NewClient(cfg config.BackendConfig, dbg *debug.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultEndpoint
	}
	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	base := &http.Transport{}
	if err := privacy.ApplyProxy(base, cfg.Proxy); err != nil {
		dbg.Printf("ignoring proxy: %v", err)
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    cfg.AuthToken,
		client: &http.Client{
			Timeout:   timeout,
			Transport: debug.NewTransport(base, dbg.Named("chat")),
		},
	}
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Send posts message and returns the assistant's reply text.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	body, err := json.Marshal(Request{Message: message})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if isUnreachable(err) {
			return "", fmt.Errorf("%w at %s: %w", ErrUnreachable, c.endpoint, err)
		}
		return "", fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed Response
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && parsed.Error != nil {
			return "", &BackendError{Status: resp.StatusCode, Message: *parsed.Error}
		}
		return "", &HTTPError{Status: resp.StatusCode, Text: http.StatusText(resp.StatusCode)}
	}

	if decodeErr != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, decodeErr)
	}
	switch {
	case parsed.Response != nil:
		return *parsed.Response, nil
	case parsed.Error != nil:
		return "", &BackendError{Status: resp.StatusCode, Message: *parsed.Error}
	}
	return "", ErrEmptyResponse
}

// isUnreachable reports whether err means the backend could not be reached
// at all: name resolution failed or the connection was refused.
func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
