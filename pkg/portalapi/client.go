// Package portalapi provides a Go client for the advisory portal REST API.
//
// This package can be imported by external projects to interact with the
// portal programmatically. It carries no UI state: every method performs a
// single request and returns fully decoded values or an error.
package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the HTTP timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// Client handles HTTP requests to the portal API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger

	// token is sent as a bearer credential; empty for anonymous calls (login).
	token string
}

// NewClient creates a new API client authenticated with the given session token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Logger: zerolog.Nop(),
		token:  token,
	}
}

// NewAnonymousClient creates a client that sends no Authorization header.
// It is only useful for Login.
func NewAnonymousClient(baseURL string) *Client {
	return NewClient(baseURL, "")
}

// WithLogger sets the logger used for request tracing.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.Logger = logger
	return c
}

// WithTimeout overrides the HTTP timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.HTTPClient.Timeout = timeout
	}
	return c
}

// Token returns the bearer token the client authenticates with.
func (c *Client) Token() string {
	return c.token
}

// Get performs a GET request to the specified path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request to the specified path with the given body.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request to the specified path with the given body.
func (c *Client) Put(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// do performs a single HTTP request with auth header injection.
// Requests are never retried: a 401 means the session is gone and the user
// has to log in again.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	url := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}

	c.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	return resp, nil
}

// getJSON performs a GET and decodes the full body into target.
func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	return DecodeJSON(resp, target)
}

// sendJSON encodes payload, sends it with the given method and decodes the
// response into target when target is non-nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.do(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return DecodeJSON(resp, target)
}
