package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// TokenSource returns the bearer token for the request, or "" when the caller is anonymous.
type TokenSource func(ctx context.Context) string

// UnauthorizedHandler runs on every 401 response before the error reaches the caller.
type UnauthorizedHandler func(ctx context.Context)

// Client is a JSON/HTTP client for one atelier backend base URL.
type Client struct {
	name           string
	baseURL        string
	httpClient     *http.Client
	headers        http.Header
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	logger         *logging.Logger
	metrics        *metrics.AtelierMetrics
}

// Option configures a Client.
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client; its Timeout is kept as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

func WithTokenSource(src TokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.AtelierMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithName labels log lines and metrics for this client.
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// New constructs a client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		name:       "api",
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		headers:    http.Header{},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type bearerKey struct{}

// WithBearer pins the bearer token for calls made with ctx, overriding the
// client's TokenSource.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func (c *Client) token(ctx context.Context) string {
	if token, ok := ctx.Value(bearerKey{}).(string); ok {
		return token
	}
	if c.tokens != nil {
		return c.tokens(ctx)
	}
	return ""
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one JSON request and decodes a 2xx body into out.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(c.name, method, "error", time.Since(start).Seconds())
		c.logger.Warn("upstream request failed", "client", c.name, "method", method, "path", path, "error", err)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(c.name, method, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		c.logger.Warn("upstream non-2xx response", "client", c.name, "status", resp.StatusCode, "path", path, "body", apiErr.Body)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return apiErr
	}

	if len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, body []byte) *APIError {
	raw := string(body)
	if len(raw) > 300 {
		raw = raw[:300]
	}
	apiErr := &APIError{Status: status, Body: raw}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case strings.TrimSpace(payload.Message) != "":
			apiErr.Message = payload.Message
		case strings.TrimSpace(payload.Error) != "":
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP Error: %d", status)
	}
	return apiErr
}

// TransportError wraps network failures and timeouts.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "apiclient: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// Message returns the server-provided message for err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && !strings.HasPrefix(apiErr.Message, "HTTP Error:") {
		return apiErr.Message
	}
	return fallback
}
