// Package network calls the Space and Time REST gateway. Calls never raise transport
// failures: they are folded into the returned Response so callers decide how to react.
package network

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
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/metrics"
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// AccessToken calls f(ctx).
func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// Caller executes a single gateway request.
type Caller interface {
	Call(ctx context.Context, req *Request) *Response
}

// Request describes one gateway call. Endpoint must be present in the client catalog;
// "{name}" placeholders in it are replaced from Path.
type Request struct {
	Endpoint string
	Method   string
	Path     map[string]string
	Query    map[string]string
	Headers  map[string]string
	Body     any

	// Auth adds an Authorization header. BearerToken is used when set, otherwise the
	// client's TokenSource is asked for the current access token.
	Auth        bool
	BearerToken string
}

// Response is the outcome of a call. Success is true only for a 2xx status; Err holds a
// *CallError otherwise.
type Response struct {
	Success    bool
	StatusCode int
	Body       []byte
	Err        error
}

// Decode unmarshals the response body into v, or returns Err for a failed call.
func (r *Response) Decode(v any) error {
	if !r.Success {
		return r.Err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeResponse, err)
	}
	return nil
}

// ClientConfig configures an HTTPClient.
type ClientConfig struct {
	// APIURL is the gateway root, without the version segment.
	APIURL string
	// Version is the API version used for auth and SQL endpoints.
	Version string
	// Endpoints overrides entries of the default version catalog.
	Endpoints map[string]string
	// ApplicationName is sent as the originApp header on SQL calls.
	ApplicationName string
	Timeout         time.Duration
	// RequestsPerSecond limits outbound calls; zero disables the limit.
	RequestsPerSecond float64
	Burst             int
	// Transport replaces http.DefaultTransport, e.g. with an instrumented one.
	Transport http.RoundTripper
}

// HTTPClient is a Caller backed by net/http.
type HTTPClient struct {
	apiURL    string
	appName   string
	endpoints map[string]string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger

	mu     sync.RWMutex
	tokens TokenSource
}

// NewHTTPClient creates a client for cfg.
func NewHTTPClient(cfg ClientConfig, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &HTTPClient{
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		appName:   cfg.ApplicationName,
		endpoints: mergeEndpoints(cfg.Version, cfg.Endpoints),
		http:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		limiter:   limiter,
		logger:    logger,
	}
}

// SetTokenSource sets the source of bearer tokens for requests with Auth set.
func (c *HTTPClient) SetTokenSource(tokens TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
}

// ApplicationName returns the configured originApp value.
func (c *HTTPClient) ApplicationName() string {
	return c.appName
}

// EndpointVersion reports the API version serving endpoint.
func (c *HTTPClient) EndpointVersion(endpoint string) (string, bool) {
	v, ok := c.endpoints[endpoint]
	return v, ok
}

// CloseIdleConnections closes keep-alive connections held by the underlying transport.
func (c *HTTPClient) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// Call executes req and reports the outcome in a Response.
func (c *HTTPClient) Call(ctx context.Context, req *Request) *Response {
	start := time.Now()
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return c.fail(req.Endpoint, 0, nil, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(req.Endpoint, 0, nil, fmt.Errorf("%w: %v", ErrTransport, err))
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return c.fail(req.Endpoint, 0, nil, fmt.Errorf("%w: %v", ErrTransport, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(req.Endpoint, resp.StatusCode, nil, fmt.Errorf("%w: read body: %v", ErrTransport, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(req.Endpoint, resp.StatusCode, body, ErrUnexpectedStatus)
	}

	c.logger.Debug("api call completed",
		slog.String("endpoint", req.Endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return &Response{Success: true, StatusCode: resp.StatusCode, Body: body}
}

func (c *HTTPClient) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	version, ok := c.endpoints[req.Endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEndpointNotDefined, req.Endpoint)
	}

	path := req.Endpoint
	for name, value := range req.Path {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	target := c.apiURL + "/" + version + "/" + path
	if len(req.Query) > 0 {
		q := url.Values{}
		for name, value := range req.Query {
			q.Set(name, value)
		}
		target += "?" + q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %v", ErrTransport, err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequestWithContext(metrics.WithRoute(ctx, req.Endpoint), method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	if id, err := uuid.NewV7(); err == nil {
		httpReq.Header.Set("X-Request-Id", id.String())
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	if req.Auth {
		token, err := c.bearer(ctx, req)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func (c *HTTPClient) bearer(ctx context.Context, req *Request) (string, error) {
	if req.BearerToken != "" {
		return req.BearerToken, nil
	}

	c.mu.RLock()
	tokens := c.tokens
	c.mu.RUnlock()

	if tokens == nil {
		return "", fmt.Errorf("%w: no access token available", ErrTransport)
	}
	token, err := tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("access token: %w", err)
	}
	return token, nil
}

func (c *HTTPClient) fail(endpoint string, status int, body []byte, err error) *Response {
	callErr := &CallError{Endpoint: endpoint, StatusCode: status, Body: truncate(string(body), 512), Err: err}
	c.logger.Error("api call failed",
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.Any("error", err),
	)
	return &Response{Success: false, StatusCode: status, Body: body, Err: callErr}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
