// Package api is the console's REST transport to the inventory backend and
// the per-endpoint adapters that turn its responses into canonical models.
package api

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

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/diewo77/go-hoardings/i18n"
	"github.com/diewo77/go-hoardings/internal/apperr"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig configures the backend client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:3001/api.
	BaseURL string

	// Auth decorates every request, usually with the session's bearer token.
	Auth AuthConfig

	// Timeout for a single request (default: 30s).
	Timeout time.Duration

	// RateLimit requests per second (default: 20).
	RateLimit float64

	// RateBurst maximum burst size (default: 10).
	RateBurst int

	// UserAgent string (default: "go-hoardings/1.0").
	UserAgent string

	// OnUnauthorized is called with the token that was rejected by a 401.
	OnUnauthorized func(token string)

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper

	// Registerer receives transport metrics. Nil skips registration.
	Registerer prometheus.Registerer
}

// DefaultClientConfig returns a client config with the console defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:   30 * time.Second,
		RateLimit: 20,
		RateBurst: 10,
		UserAgent: "go-hoardings/1.0",
	}
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// AuthConfig applies credentials to an outgoing request and reports the
// token it used.
type AuthConfig interface {
	Apply(req *http.Request) string
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) string { return "" }

// BearerToken reads the current token on every request so that login and
// logout take effect without rebuilding the client.
type BearerToken struct {
	Token func() string
}

// Apply adds the Bearer header when a token is present.
func (a BearerToken) Apply(req *http.Request) string {
	if a.Token == nil {
		return ""
	}
	tok := a.Token()
	if tok == "" {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return tok
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

// Client is a rate-limited JSON client. It never retries on its own: reads
// are retried by the cache, writes are surfaced as they fail.
type Client struct {
	config      *ClientConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewClient creates a client with the given configuration.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	def := DefaultClientConfig()
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	if config.RateLimit == 0 {
		config.RateLimit = def.RateLimit
	}
	if config.RateBurst == 0 {
		config.RateBurst = def.RateBurst
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.Auth == nil {
		config.Auth = NoAuth{}
	}

	f := promauto.With(config.Registerer)
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hoardings",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend requests by method and status class.",
		}, []string{"method", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hoardings",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// Request represents a backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a successful backend response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals the response body into target.
func (r *Response) JSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// =============================================================================
// CLIENT METHODS
// =============================================================================

// Do executes req. Non-2xx responses come back as *apperr.Error; transport
// failures as apperr network errors.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, apperr.Network(fmt.Errorf("rate limiter: %w", err))
	}

	fullURL := strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	httpReq.Header.Set("Accept-Language", i18n.LangFromContext(ctx))
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	token := c.config.Auth.Apply(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.latency.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.requests.WithLabelValues(req.Method, "error").Inc()
		return nil, apperr.Network(fmt.Errorf("%s %s: %w", req.Method, req.Path, err))
	}
	defer resp.Body.Close()
	c.requests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode/100)+"xx").Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Network(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode >= 400 {
		e := decodeError(resp.StatusCode, data)
		if e.Kind == apperr.KindAuth && resp.StatusCode == http.StatusUnauthorized && c.config.OnUnauthorized != nil {
			c.config.OnUnauthorized(token)
		}
		return nil, e
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// =============================================================================
// ERRORS
// =============================================================================

// errorBody covers the error shapes the backend emits:
// {code, message}, {error, message} and {message, errors: {field: msg}}.
type errorBody struct {
	Code    string          `json:"code"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Details json.RawMessage `json:"details"`
}

func decodeError(status int, body []byte) *apperr.Error {
	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return apperr.FromStatus(status, "", strings.TrimSpace(string(body)))
	}

	code := eb.Code
	message := eb.Message
	if len(eb.Error) > 0 {
		var s string
		if json.Unmarshal(eb.Error, &s) == nil {
			if code == "" && isCode(s) {
				code = s
			} else if message == "" {
				message = s
			}
		}
	}

	e := apperr.FromStatus(status, code, message)
	for _, raw := range []json.RawMessage{eb.Errors, eb.Details} {
		if fields := decodeFields(raw); len(fields) > 0 {
			e.Fields = fields
			break
		}
	}
	return e
}

// isCode reports whether s looks like a machine code (snake_case) rather than
// a sentence.
func isCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// decodeFields accepts {field: msg} or [{field, message}] shapes.
func decodeFields(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	var list []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make(map[string]string, len(list))
	for _, item := range list {
		name := item.Field
		if name == "" {
			name = item.Path
		}
		if name != "" {
			out[name] = item.Message
		}
	}
	return out
}

// ErrEmptyResponse is returned when a 2xx response carries no payload where
// one was expected.
var ErrEmptyResponse = errors.New("api: empty response body")
