package backend

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// defaultMaxResponseSize limits the response body size to prevent memory exhaustion
const defaultMaxResponseSize = 10 * 1024 * 1024

const defaultTimeout = 10 * time.Second

var (
	// ErrBackendUnavailable is returned when the backend cannot be reached
	ErrBackendUnavailable = errors.New("backend: unavailable")
	// ErrInvalidResponse is returned when a 2xx body cannot be decoded
	ErrInvalidResponse = errors.New("backend: invalid response")
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Message)
}

// Client is a thin JSON client for the storefront REST backend
type Client struct {
	baseURL         string
	httpClient      *http.Client
	timeout         time.Duration
	logger          *zap.Logger
	maxResponseSize int64
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client; its transport is used as-is
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied rather than modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger for upstream failures
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxResponseSize caps how much of a response body is read
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// NewClient creates a client for baseURL; trailing slashes are ignored
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:          zap.NewNop(),
		maxResponseSize: defaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.timeout != c.httpClient.Timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the normalized base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body as JSON and decodes a JSON answer into out.
// out may be nil; a 204 or empty body leaves it untouched.
func (c *Client) Do(ctx context.Context, method, endpoint, token string, body, out any) error {
	resp, data, err := c.send(ctx, method, endpoint, token, body)
	if err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if !isJSON(resp.Header.Get("Content-Type")) && !json.Valid(data) {
		return fmt.Errorf("%w: expected JSON from %s %s", ErrInvalidResponse, method, endpoint)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// DoText sends body as JSON and returns the raw response body
func (c *Client) DoText(ctx context.Context, method, endpoint, token string, body any) (string, error) {
	_, data, err := c.send(ctx, method, endpoint, token, body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) send(ctx context.Context, method, endpoint, token string, body any) (*http.Response, []byte, error) {
	url := c.url(endpoint)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("backend: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("backend: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("backend: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
		c.logger.Debug("backend returned error",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return resp, nil, apiErr
	}
	return resp, data, nil
}

func (c *Client) url(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

// errorMessage prefers the JSON "message" field, then "error", then the raw body
func errorMessage(status int, data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" && !json.Valid(data) {
		return text
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}
