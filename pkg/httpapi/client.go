// Package httpapi provides a minimal JSON-over-HTTP client used as the
// shared transport for the scrobble server and Spotify catalog clients.
//
// A Client wraps a base URL and an optional bearer credential. It issues
// GET/POST/PUT requests and decodes the response body into a caller-supplied
// value. Status-code policing is deliberately left to callers: any response
// that completed is decoded and returned, 2xx or not.
//
// Example usage:
//
//	client := httpapi.NewClient(httpapi.Config{BaseURL: "https://api.example.com"})
//
//	var out struct{ Name string }
//	status, err := client.Do(ctx, http.MethodGet, "/things/1", nil, &out)
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Config holds client configuration.
type Config struct {
	BaseURL    string       // Required: base URL that request paths are appended to
	Credential string       // Optional: credential value for the Authorization header
	Scheme     string       // Optional: credential scheme prefix, e.g. "Bearer"
	HTTPClient *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	Logger     Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client issues JSON requests against a single base URL with an optional
// bearer credential. The credential may be replaced at any time via
// SetCredential; registered callbacks are notified of the change.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger

	mu         sync.RWMutex
	credential string
	listeners  []func()
}

// NewClient creates a new client for the given base URL.
//
// An empty base URL is not rejected here; it simply produces malformed
// request URLs at call time.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
	if cfg.Credential != "" {
		c.SetCredential(cfg.Credential, cfg.Scheme)
	}
	return c
}

// SetCredential replaces the active credential and notifies any registered
// credential-update callbacks. When scheme is non-empty the Authorization
// header value becomes "scheme credential", otherwise the bare credential.
func (c *Client) SetCredential(credential, scheme string) {
	c.mu.Lock()
	if scheme != "" {
		c.credential = scheme + " " + credential
	} else {
		c.credential = credential
	}
	listeners := make([]func(), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnCredentialUpdate registers a callback invoked after each SetCredential
// call. Callbacks run synchronously on the goroutine that set the credential.
func (c *Client) OnCredentialUpdate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// IsAuthenticated reports whether a credential is currently set.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential != ""
}

// Do issues an HTTP request of the given method against BaseURL+path.
//
// The Authorization header is attached only when a credential is set. For
// POST and PUT, body (when non-nil) is JSON-encoded as the request payload.
// On any completed response the payload is decoded into out (when out is
// non-nil and the body is non-empty) and the HTTP status code is returned.
// An error is returned only when the request could not complete (transport
// failure, context cancellation) or the payload could not be decoded.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	var payload io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	credential := c.credential
	c.mu.RUnlock()
	if credential != "" {
		req.Header.Set("Authorization", credential)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logDebugf("httpapi: %s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
