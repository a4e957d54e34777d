package utils

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"teraproxy/internal"
)

// ErrHeaderTimeout is returned when upstream does not send response headers in time
var ErrHeaderTimeout = errors.New("timed out waiting for response headers")

// HTTPClientConfig contains configuration for the HTTP client
type HTTPClientConfig struct {
	// Timeout bounds a whole metadata request, body included
	Timeout      time.Duration
	ProxyURL     string
	UserAgent    string
	MaxRedirects int
}

// HTTPClient holds two clients over one transport: a bounded one for metadata
// calls and an unbounded one for long-lived byte streams
type HTTPClient struct {
	api       *http.Client
	stream    *http.Client
	userAgent string
}

// NewHTTPClient creates a new HTTP client with default configuration
func NewHTTPClient() *HTTPClient {
	client, _ := NewHTTPClientWithConfig(&HTTPClientConfig{
		Timeout:      15 * time.Second,
		UserAgent:    internal.DefaultUserAgent,
		MaxRedirects: 10,
	})
	return client
}

// NewHTTPClientWithConfig creates a new HTTP client with custom configuration
func NewHTTPClientWithConfig(config *HTTPClientConfig) (*HTTPClient, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
	}

	if config.ProxyURL != "" {
		if err := configureProxy(transport, config.ProxyURL); err != nil {
			return nil, err
		}
	}

	maxRedirects := config.MaxRedirects
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	roundTripper := &loggingTransport{next: transport}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = internal.DefaultUserAgent
	}

	return &HTTPClient{
		api: &http.Client{
			Transport:     roundTripper,
			Timeout:       config.Timeout,
			CheckRedirect: checkRedirect,
		},
		stream: &http.Client{
			Transport:     roundTripper,
			CheckRedirect: checkRedirect,
		},
		userAgent: userAgent,
	}, nil
}

// configureProxy sets up proxy configuration for the transport
func configureProxy(transport *http.Transport, proxyURL string) error {
	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsedURL)
	case "socks5":
		var auth *proxy.Auth
		if parsedURL.User != nil {
			password, _ := parsedURL.User.Password()
			auth = &proxy.Auth{User: parsedURL.User.Username(), Password: password}
		}
		dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 proxy: %w", err)
		}
		if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
	}

	return nil
}

// API returns the bounded client used for metadata requests
func (c *HTTPClient) API() *http.Client {
	return c.api
}

// UserAgent returns the user agent sent on every request
func (c *HTTPClient) UserAgent() string {
	return c.userAgent
}

// NewRequest builds a request carrying the browser-like default headers
func (c *HTTPClient) NewRequest(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	return req, nil
}

// Inspect performs a bounded request and returns the response after redirects
func (c *HTTPClient) Inspect(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, method, rawURL, headers)
	if err != nil {
		return nil, err
	}
	return c.api.Do(req)
}

// OpenStream starts a request whose body may be read for as long as needed.
// Only the wait for response headers is bounded by headerTimeout. Closing the
// returned body releases the upstream connection.
func (c *HTTPClient) OpenStream(ctx context.Context, method, rawURL string, headers map[string]string, headerTimeout time.Duration) (*http.Response, error) {
	if headerTimeout <= 0 {
		headerTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(headerTimeout, cancel)

	req, err := c.NewRequest(ctx, method, rawURL, headers)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, err
	}

	resp, err := c.stream.Do(req)
	if !timer.Stop() {
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return nil, ErrHeaderTimeout
	}
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// loggingTransport writes redacted request and response lines at debug level
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	logger := internal.GetLogger()
	logger.LogHTTPRequest(req)

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		logger.Debug("HTTP Error: %s %s: %v", req.Method, req.URL.Redacted(), err)
		return nil, err
	}

	logger.LogHTTPResponse(resp)
	return resp, nil
}
