/*
Package client is the REST collaborator behind the console: a thin,
bearer-authenticated wrapper over the scheduling backend's JSON API.

PURPOSE:
  Everything the grid engine and the console views need from the network
  lives here: the weekly schedule reads, slot/assignment writes, member
  and notice CRUD, request workflow calls, and the health probe. The
  package owns no business rules; the backend enforces those and this
  client surfaces its answers verbatim.

ERROR CONTRACT:
  - Backend rejections decode the response body ({"detail": ...} first,
    then {"message": ...}, then raw text) and carry the server's wording
    unchanged in *APIError.
  - A 401 clears the stored session and returns ErrSessionExpired so the
    caller can route to login.
  - Transport failures come back wrapped, unchanged semantics.

SEE ALSO:
  - auth.go: login and session token handling
  - schedule.go: the grid engine's collaborator implementations
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrSessionExpired is returned on any 401; the stored token is cleared.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx backend answer with its message kept verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Config configures a Client. Zero values fall back to sane defaults.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration // per-request; default 10s
	Log        *zap.Logger
}

// Client talks to the scheduling backend. Safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	tokens  TokenStore
	log     *zap.Logger
}

// New builds a client around a token store. A nil store falls back to an
// in-memory session.
func New(cfg Config, tokens TokenStore) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		timeout: cfg.Timeout,
		tokens:  tokens,
		log:     cfg.Log,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base }

// do runs one JSON request/response cycle: attach bearer token, encode
// body, decode out (unless nil or the answer is 204).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if session, err := c.tokens.Load(); err == nil && session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.tokens.Clear()
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// decodeAPIError extracts the backend's message: {"detail": ...} first,
// then {"message": ...}, then the raw body. Non-string detail values are
// re-serialized so nothing the server said is lost.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		switch {
		case len(envelope.Detail) > 0:
			var s string
			if json.Unmarshal(envelope.Detail, &s) == nil {
				apiErr.Message = s
			} else {
				apiErr.Message = string(envelope.Detail)
			}
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
