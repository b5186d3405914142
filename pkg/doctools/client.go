package doctools

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/doctools/pkg/httpclient"
)

const (
	// HeaderContentType is injected as application/json unless the caller sets it.
	HeaderContentType = "Content-Type"
	// HeaderAuthToken carries the client key on every request.
	HeaderAuthToken = "X-Auth-Token"

	defaultContentType = "application/json"

	// RequestTimeout bounds both connecting and the whole exchange.
	RequestTimeout = 600 * time.Second
)

// ErrNoResponse is returned when the HTTP call itself failed and no response
// was obtained. The underlying cause is logged, not returned.
var ErrNoResponse = errors.New("document tools: no response")

// Client performs authenticated requests against the document tools API.
type Client struct {
	url  string
	key  string
	http httpclient.Client
	log  Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets the sink for transport diagnostics.
func WithLogger(log Logger) Option {
	return func(cl *Client) { cl.log = ensureLogger(log) }
}

// New builds a client for the API rooted at url, authenticating with key.
// No network I/O happens here.
func New(url, key string, opts ...Option) *Client {
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	c := &Client{url: url, key: key, log: noopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = DefaultHTTPClient()
	}
	return c
}

// DefaultHTTPClient returns the transport used when none is injected:
// unverified TLS, 600s connect and overall timeouts, no connection reuse.
func DefaultHTTPClient() httpclient.Client {
	return httpclient.NewRestyClient(httpclient.Options{
		Timeout:            RequestTimeout,
		ConnectTimeout:     RequestTimeout,
		InsecureSkipVerify: true,
		FreshConnections:   true,
	})
}

// URL returns the normalized base URL, always ending in "/".
func (c *Client) URL() string { return c.url }

// Key returns the API key.
func (c *Client) Key() string { return c.key }

// ResolveURL returns path verbatim when it is absolute, otherwise joins it onto the base URL.
func (c *Client) ResolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.url + strings.TrimPrefix(path, "/")
}

// Request sends a single HTTP request and wraps whatever the server answered.
// Content-Type and X-Auth-Token are filled in unless the caller set them.
// Any status code yields a Response; ErrNoResponse means the call itself failed.
func (c *Client) Request(ctx context.Context, path, method string, headers map[string]string, payload []byte) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}
	url := c.ResolveURL(path)
	hdrs := c.requestHeaders(headers)

	resp, err := c.http.Do(ctx, method, url, hdrs, payload)
	if err != nil {
		c.log.ErrorObj("document tools request failed", "transport_error", map[string]any{
			"method": method,
			"url":    url,
			"error":  err.Error(),
		})
		return nil, ErrNoResponse
	}

	c.log.DebugObj("document tools request completed", "request_result", map[string]any{
		"method":      method,
		"url":         url,
		"status_code": resp.StatusCode(),
		"body_bytes":  len(resp.Body()),
	})
	return NewResponse(resp.StatusCode(), string(resp.Body())), nil
}

// requestHeaders copies the caller's headers and adds the defaults.
func (c *Client) requestHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers)+2)
	for k, v := range headers {
		out[k] = v
	}
	if !hasHeader(out, HeaderContentType) {
		out[HeaderContentType] = defaultContentType
	}
	if !hasHeader(out, HeaderAuthToken) {
		out[HeaderAuthToken] = c.key
	}
	return out
}

// hasHeader matches names the way HTTP does, ignoring case.
func hasHeader(headers map[string]string, name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for k := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return true
		}
	}
	return false
}
