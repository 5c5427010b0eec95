package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"microservices-demo/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// HTTPClient calls one upstream base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// RequestOptions for request configuration
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        interface{}
	Timeout     time.Duration
	Context     context.Context
}

// Response carries the upstream reply. RawBody is always the unmodified body;
// Data is only filled by DoJSON.
type Response[T any] struct {
	Data       T
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

// NewHTTPClient creates a client for baseURL. A zero timeout means the call
// is bounded only by the request context.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// Do performs the request and returns the raw response. Only transport
// failures are errors; any HTTP status is a successful call.
func (c *HTTPClient) Do(opts RequestOptions) (*Response[[]byte], error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	fullURL, err := c.buildURL(opts.URL, opts.QueryParams)
	if err != nil {
		logger.Error(ctx, "Failed to build URL", slog.Any("error", err))
		return nil, fmt.Errorf("build URL: %w", err)
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		bodyBytes, err := c.encodeBody(opts.Body)
		if err != nil {
			logger.Error(ctx, "Failed to encode body", slog.Any("error", err))
			return nil, fmt.Errorf("encode body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ctx, span := HttpClientTracer.Start(ctx, "HttpClient "+opts.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", opts.Method),
			attribute.String("http.url", fullURL),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, opts.Method, fullURL, bodyReader)
	if err != nil {
		logger.Error(ctx, "Failed to create request", slog.Any("error", err))
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setHeaders(req, opts.Headers)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if id := logger.RequestIDFrom(ctx); id != "" && req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", id)
	}

	logger.Info(ctx, "HttpClient request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		logger.Error(ctx, "Failed to execute request", slog.String("url", fullURL), slog.String("error", err.Error()))
		return nil, fmt.Errorf("execute request %s %s: %w", opts.Method, fullURL, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		logger.Error(ctx, "Failed to read response body", slog.String("error", err.Error()))
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}

	logger.Info(ctx, "HttpClient response",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &Response[[]byte]{
		Data:       rawBody,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    rawBody,
	}, nil
}

// DoJSON performs the request and decodes a 2xx body into T.
func DoJSON[T any](c *HTTPClient, opts RequestOptions) (*Response[T], error) {
	raw, err := c.Do(opts)
	if err != nil {
		return nil, err
	}

	out := &Response[T]{
		StatusCode: raw.StatusCode,
		Headers:    raw.Headers,
		RawBody:    raw.RawBody,
	}
	if out.IsSuccess() && len(raw.RawBody) > 0 {
		if err := json.Unmarshal(raw.RawBody, &out.Data); err != nil {
			return out, fmt.Errorf("parse response: %w", err)
		}
	}
	return out, nil
}

func (c *HTTPClient) Get(ctx context.Context, url string, opts ...RequestOptions) (*Response[[]byte], error) {
	reqOpts := RequestOptions{
		Method:  http.MethodGet,
		URL:     url,
		Context: ctx,
	}
	if len(opts) > 0 {
		reqOpts = c.mergeOptions(reqOpts, opts[0])
	}
	return c.Do(reqOpts)
}

func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}, opts ...RequestOptions) (*Response[[]byte], error) {
	reqOpts := RequestOptions{
		Method:  http.MethodPost,
		URL:     url,
		Body:    body,
		Context: ctx,
	}
	if len(opts) > 0 {
		reqOpts = c.mergeOptions(reqOpts, opts[0])
	}
	return c.Do(reqOpts)
}

// buildURL joins endpoint onto the base URL. An endpoint may carry its own
// query string; QueryParams are merged on top.
func (c *HTTPClient) buildURL(endpoint string, queryParams map[string]string) (string, error) {
	var fullURL string

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		fullURL = endpoint
	} else {
		endpoint = strings.TrimLeft(endpoint, "/")
		fullURL = fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return "", err
	}

	if len(queryParams) > 0 {
		q := u.Query()
		for k, v := range queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

func (c *HTTPClient) encodeBody(body interface{}) ([]byte, error) {
	switch v := body.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		return io.ReadAll(v)
	default:
		return json.Marshal(body)
	}
}

// setHeaders applies defaults, then a JSON content type when a body is present,
// then per-request headers.
func (c *HTTPClient) setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	if req.Body != nil && req.Body != http.NoBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

func (c *HTTPClient) mergeOptions(base, override RequestOptions) RequestOptions {
	if override.Method != "" {
		base.Method = override.Method
	}
	if override.URL != "" {
		base.URL = override.URL
	}
	if override.Body != nil {
		base.Body = override.Body
	}
	if override.Context != nil {
		base.Context = override.Context
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}

	if base.Headers == nil {
		base.Headers = make(map[string]string)
	}
	for k, v := range override.Headers {
		base.Headers[k] = v
	}

	if base.QueryParams == nil {
		base.QueryParams = make(map[string]string)
	}
	for k, v := range override.QueryParams {
		base.QueryParams[k] = v
	}

	return base
}

func (r *Response[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response[T]) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response[T]) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response[T]) GetHeader(key string) string {
	return r.Headers.Get(key)
}
