package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"blog-admin/pkg/logging"
)

const (
	DefaultTimeout  = 10 * time.Second
	RequestIDHeader = "X-Request-ID"
)

// Client wraps the backend API. Every call is a JSON POST whose response is
// a {code, message, data} envelope; Client attaches the bearer token and
// unwraps the envelope so callers only see data or an error.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         oauth2.TokenSource
	onUnauthorized func()
	logger         logging.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource sets where the bearer token is read from. The source is
// consulted on every request.
func WithTokenSource(src oauth2.TokenSource) ClientOption {
	return func(c *Client) { c.tokens = src }
}

// WithUnauthorizedHandler registers fn to run when the backend answers 401,
// before ErrUnauthorized is returned.
func WithUnauthorizedHandler(fn func()) ClientOption {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Post sends body as JSON to path and decodes the envelope data into out.
// out may be nil when the caller does not need the payload.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	c.authorize(req)
	return req, nil
}

// authorize attaches the bearer token when one is available. Anonymous
// calls such as login and register go out without the header.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	tok, err := c.tokens.Token()
	if err != nil || !tok.Valid() {
		return
	}
	tok.SetAuthHeader(req)
}

func (c *Client) do(req *http.Request, out any) error {
	logger := c.logger.WithContext(req.Context())
	requestID := req.Header.Get(RequestIDHeader)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("backend request failed", "path", req.URL.Path, "request_id", requestID, "error", err)
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	logger.Debug("backend response",
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(started).String(),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapTransport(fmt.Errorf("read response: %w", err))
	}

	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized || (decodeErr == nil && env.Code == http.StatusUnauthorized) {
		logger.Warn("backend rejected credentials", "path", req.URL.Path, "request_id", requestID)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return wrapUnauthorized()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			if env.Code != 0 {
				apiErr.Code = env.Code
			}
			if env.Message != "" {
				apiErr.Message = env.Message
			}
		}
		return wrapBackend(apiErr)
	}

	if decodeErr != nil {
		return wrapBackend(&APIError{Status: resp.StatusCode, Message: "malformed response from backend"})
	}

	if env.Code != http.StatusOK && env.Code != http.StatusCreated {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return wrapBackend(&APIError{Status: resp.StatusCode, Code: env.Code, Message: msg})
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return wrapBackend(&APIError{Status: resp.StatusCode, Code: env.Code, Message: "malformed response data: " + err.Error()})
	}
	return nil
}
