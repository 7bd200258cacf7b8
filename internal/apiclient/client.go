// Package apiclient is the single configured HTTP client every backend call
// goes through. It attaches the bearer token, decodes the response envelope,
// records metrics and spans, and announces session expiry on HTTP 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/TheDarkness2001/SMS-sub002/internal/logger"
)

// TracerName is the instrumentation scope for client spans
const TracerName = "frontdesk/apiclient"

// Config holds the gateway settings
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token returns f()
func (f TokenFunc) Token() string { return f() }

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used when the request context carries none
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records request counts and latencies into m
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracerProvider sets the provider client spans are created from
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(TracerName)
	}
}

// Client is the API gateway client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	tokens     TokenSource
	logger     *zap.Logger
	metrics    *Metrics
	tracer     trace.Tracer

	mu             sync.RWMutex
	onUnauthorized map[int]func()
	nextSub        int
}

// New creates a gateway client for cfg.BaseURL
func New(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "frontdesk/1.0"
	}
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   cfg.UserAgent,
		},
		tokens:         tokens,
		logger:         zap.NewNop(),
		tracer:         otel.GetTracerProvider().Tracer(TracerName),
		onUnauthorized: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request represents one backend call
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    interface{}

	// SkipAuthRedirect keeps a 401 from being treated as session expiry.
	// Login calls set it so a wrong password does not sign anyone out.
	SkipAuthRedirect bool
}

// Response is a completed backend call with a 2xx status
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// OnUnauthorized registers fn to run whenever a request comes back 401.
// The returned function removes the subscription.
func (c *Client) OnUnauthorized(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.onUnauthorized[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.onUnauthorized, id)
		c.mu.Unlock()
	}
}

// Do executes req once. Non-2xx statuses are returned as *APIError, network
// failures wrap ErrTransport. There is no retry.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	route := RouteTemplate(req.Path)
	ctx, span := c.tracer.Start(ctx, req.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.template", route),
		),
	)
	defer span.End()

	base := c.logger
	if logger.Has(ctx) {
		base = logger.FromContext(ctx)
	}
	log := logger.Enrich(ctx, base)

	u, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	c.setHeaders(httpReq, req.Headers)
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.metrics.observe(req.Method, route, "error", duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		log.Warn("API request failed",
			zap.String("method", req.Method),
			zap.String("route", route),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.observe(req.Method, route, "error", duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reading body")
		return nil, fmt.Errorf("%w: reading response body: %w", ErrTransport, err)
	}

	c.metrics.observe(req.Method, route, fmt.Sprintf("%d", httpResp.StatusCode), duration)
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))

	log.Debug("API request",
		zap.String("method", req.Method),
		zap.String("route", route),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := newAPIError(httpResp.StatusCode, respBody)
		span.SetStatus(codes.Error, apiErr.Error())
		log.Warn("API request rejected",
			zap.String("method", req.Method),
			zap.String("route", route),
			zap.Int("status", httpResp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		if httpResp.StatusCode == http.StatusUnauthorized && !req.SkipAuthRedirect {
			c.notifyUnauthorized()
		}
		return nil, apiErr
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, query map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// BaseURL returns the resolved base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) notifyUnauthorized() {
	c.mu.RLock()
	subs := make([]func(), 0, len(c.onUnauthorized))
	for _, fn := range c.onUnauthorized {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}

// buildURL resolves path against the base URL, keeping the base path prefix
func (c *Client) buildURL(path string, query map[string]string) (*url.URL, error) {
	u, err := c.baseURL.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			if v != "" {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func (c *Client) setHeaders(req *http.Request, custom map[string]string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range custom {
		req.Header.Set(k, v)
	}
}
