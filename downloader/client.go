package downloader

import (
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"teraproxy/internal"
	"teraproxy/utils"
)

// Client implements internal.ShareResolver against the share service.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	config *internal.Config
	http   *utils.HTTPClient
	api    *resty.Client
	parser *utils.ShareParser
}

var _ internal.ShareResolver = (*Client)(nil)

// NewClient creates a client from config. The config is read once here.
func NewClient(config *internal.Config) (*Client, error) {
	httpClient, err := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:      config.MetadataTimeout,
		ProxyURL:     config.ProxyURL,
		UserAgent:    config.UserAgent,
		MaxRedirects: config.MaxRedirects,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return NewClientWithHTTP(config, httpClient), nil
}

// NewClientWithHTTP creates a client over an existing HTTP client
func NewClientWithHTTP(config *internal.Config, httpClient *utils.HTTPClient) *Client {
	api := resty.NewWithClient(httpClient.API()).
		SetLogger(restyLogger{}).
		SetHeader("User-Agent", httpClient.UserAgent())

	return &Client{
		config: config,
		http:   httpClient,
		api:    api,
		parser: utils.NewShareParser(utils.NewDomainTable(config.Domains, config.DefaultDomain)),
	}
}

// ResolveShareCode returns the canonical share code of a link or bare code
func (c *Client) ResolveShareCode(input string) (internal.ShareCode, error) {
	ref, err := c.parser.Parse(input)
	if err != nil {
		return "", err
	}
	return ref.Code, nil
}

// cookieHeader joins the configured credential with cookies harvested during bootstrap
func (c *Client) cookieHeader(extra string) string {
	parts := make([]string, 0, 2)
	if cookie := strings.TrimSpace(c.config.Cookie); cookie != "" {
		parts = append(parts, strings.TrimSuffix(cookie, ";"))
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, strings.TrimSuffix(extra, ";"))
	}
	return strings.Join(parts, "; ")
}

// pageHeaders are sent when fetching the human-facing share page
func (c *Client) pageHeaders() map[string]string {
	headers := map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Upgrade-Insecure-Requests": "1",
	}
	if cookie := c.cookieHeader(""); cookie != "" {
		headers["Cookie"] = cookie
	}
	return headers
}

// apiHeaders are sent with every JSON endpoint call
func (c *Client) apiHeaders(ref *utils.ShareRef, extraCookies string) map[string]string {
	headers := map[string]string{
		"Accept":           "application/json, text/plain, */*",
		"Accept-Language":  "en-US,en;q=0.9",
		"Referer":          ref.PageURL(),
		"Origin":           ref.Domain.BaseURL,
		"X-Requested-With": "XMLHttpRequest",
	}
	if cookie := c.cookieHeader(extraCookies); cookie != "" {
		headers["Cookie"] = cookie
	}
	return headers
}

// downloadHeaders are sent to the file host, which only needs the credential
func (c *Client) downloadHeaders(rangeHeader string) map[string]string {
	return map[string]string{
		"Cookie":          c.cookieHeader(""),
		"Range":           rangeHeader,
		"Accept-Encoding": "identity",
	}
}

// restyLogger routes resty's own warnings into the application logger
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	internal.LogError("resty: "+format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	internal.LogWarn("resty: "+format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	internal.LogDebug("resty: "+format, v...)
}
