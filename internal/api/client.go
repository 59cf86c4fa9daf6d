// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"captionline/internal/session"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Sender abstracts the API client for the packages built on top of it.
// This enables dependency injection for unit tests without a live backend.
type Sender interface {
	Send(ctx context.Context, method, path string, body any) (*Envelope, error)
}

// Client sends JSON requests to the dashboard backend.
//
// Every request carries the cookies collected so far and, when the session
// holds a token, an Authorization header.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	logger     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient bases the client on a copy of hc. A cookie jar is added
// when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.httpClient = &cp
		}
	}
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for baseURL that reads its bearer token from sess.
func NewClient(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}
	if sess == nil {
		sess = session.New("")
	}

	c := &Client{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		httpClient: &http.Client{},
		session:    sess,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// Send performs one request and decodes the response envelope.
//
// Errors are *NetworkError, *HTTPStatusError or *CancelledError. The context
// is checked again after the body is read, so a response that arrives after
// cancellation is never returned.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{Method: method, Path: path, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if header, ok := c.session.Authorization(); ok {
		req.Header.Set("Authorization", header)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.logRequest(method, path, requestID, 0, start, "cancelled")
			return nil, &CancelledError{Method: method, Path: path, Err: ctxErr}
		}
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("API request failed")
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logRequest(method, path, requestID, resp.StatusCode, start, "cancelled")
		return nil, &CancelledError{Method: method, Path: path, Err: ctxErr}
	}
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}

	c.logRequest(method, path, requestID, resp.StatusCode, start, "")

	env := decodeEnvelope(data)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    env.Message,
		}
	}
	return env, nil
}

func (c *Client) resolve(path string) string {
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) logRequest(method, path, requestID string, status int, start time.Time, outcome string) {
	event := c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Dur("duration_ms", time.Since(start))
	if status != 0 {
		event = event.Int("status", status)
	}
	if outcome != "" {
		event = event.Str("outcome", outcome)
	}
	event.Msg("API request")
}

// Verify that Client implements Sender at compile time.
var _ Sender = (*Client)(nil)
