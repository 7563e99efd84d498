package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects limits redirect chains to prevent loops while allowing the
// multi-hop redirects docs hosts commonly use (http→https→canonical path).
const maxRedirects = 10

// Client issues HTTP requests on behalf of the crawler.
//
// Design decision: The traversal receives a constructed *Client rather than
// building its own because:
//  1. Proxy and header configuration is transport policy, not crawl policy
//  2. Tests can point the same crawler at an httptest server
//  3. Per-host credentials are injected here, away from the crawl logic
type Client struct {
	// httpClient is the underlying HTTP client.
	httpClient *http.Client

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// cookie is an optional raw Cookie header value.
	cookie string

	// headers are optional extra headers sent with every request.
	headers map[string]string

	// maxBodySize limits how much of a response body is read.
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client) error

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithCookie sets a raw Cookie header value sent with every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(c *Client) error {
		c.cookie = cookie
		return nil
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) error {
		c.headers = headers
		return nil
	}
}

// WithMaxBodySize caps how many bytes of a response body are read.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) error {
		if size > 0 {
			c.maxBodySize = size
		}
		return nil
	}
}

// WithSOCKS5Proxy routes all requests through a SOCKS5 proxy at the given
// "host:port" address.
//
// Design decision: We support SOCKS5 rather than HTTP proxies because the
// common use case is routing crawls through an SSH -D tunnel or a local
// privacy proxy, both of which speak SOCKS5.
func WithSOCKS5Proxy(address string) Option {
	return func(c *Client) error {
		// Accept both "host:port" and "socks5://host:port" forms.
		address = strings.TrimPrefix(address, "socks5://")
		dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		c.httpClient.Transport = &http.Transport{
			DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		}
		return nil
	}
}

// NewClient creates a Client with the given per-request timeout.
func NewClient(timeout time.Duration, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		maxBodySize: 5 * 1024 * 1024, // 5MB
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Result is a successful fetch.
type Result struct {
	// URL is the URL that was requested (before any redirects).
	URL string

	// StatusCode is the final HTTP status code.
	StatusCode int

	// ContentType is the Content-Type header of the response.
	ContentType string

	// Body is the response body, capped at the configured size.
	Body []byte
}

// Fetch performs a GET request and returns the response body.
// Non-2xx statuses, transport failures, and timeouts are returned as *Error.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &Error{Kind: KindTimeout, URL: url, Err: err}
		}
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &Error{Kind: KindTimeout, URL: url, Err: err}
		}
		return nil, &Error{Kind: KindNetwork, URL: url, Err: err}
	}

	return &Result{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// isTimeout reports whether err represents a timeout or cancellation.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
