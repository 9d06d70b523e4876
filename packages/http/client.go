package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"sync"
	"time"

	"github.com/httper/httper/packages/core/parser"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client sends parsed requests. It keeps one underlying http.Client per
// transport kind so connections are pooled across requests.
type Client struct {
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
	logger         *slog.Logger

	mu      sync.Mutex
	clients map[transportKind]*http.Client
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		clients:        make(map[transportKind]*http.Client),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Send transmits req and reads the full response. The request is closed
// before Send returns, whatever the outcome, so file parts are released.
func (c *Client) Send(ctx context.Context, req *parser.Request) (*Response, error) {
	defer req.Close()

	if err := ValidateURL(req.URL.String()); err != nil {
		return nil, err
	}

	httpReq, err := NewHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if httpReq.Body != nil {
		defer httpReq.Body.Close()
	}

	for k, v := range c.defaultHeaders {
		if httpReq.Header.Get(k) == "" {
			httpReq.Header.Set(k, v)
		}
	}

	kind := c.kindFor(req.Version, req.URL.Scheme)
	client, err := c.client(kind)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending request",
		"method", req.Method,
		"url", req.URL.String(),
		"version", req.Version.String(),
		"transport", kind.String())

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("received response",
		"status", httpResp.StatusCode,
		"proto", httpResp.Proto,
		"bytes", len(respBody),
		"duration", duration)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Proto:      httpResp.Proto,
		Headers:    httpResp.Header,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

func (c *Client) client(kind transportKind) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hc, ok := c.clients[kind]; ok {
		return hc, nil
	}

	transport, err := c.newTransport(kind)
	if err != nil {
		return nil, err
	}

	hc := &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		CheckRedirect: c.redirectPolicy,
	}
	c.clients[kind] = hc
	return hc, nil
}

func (c *Client) redirectPolicy(req *http.Request, via []*http.Request) error {
	if !c.followRedirect {
		return http.ErrUseLastResponse
	}
	if len(via) >= c.maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

func (c *Client) tlsConfig() *tls.Config {
	if c.validateSSL {
		return nil
	}
	return &tls.Config{InsecureSkipVerify: true}
}

func (c *Client) proxy() (func(*http.Request) (*neturl.URL, error), error) {
	if c.proxyURL == "" {
		return http.ProxyFromEnvironment, nil
	}
	u, err := neturl.Parse(c.proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	return http.ProxyURL(u), nil
}

// CloseIdleConnections closes idle connections of every transport in use.
func (c *Client) CloseIdleConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, hc := range c.clients {
		hc.CloseIdleConnections()
	}
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	// Check for valid scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	// Check for valid host
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
