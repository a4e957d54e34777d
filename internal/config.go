package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DomainConfig describes one known base-domain variant of the share service
type DomainConfig struct {
	// Match is the substring looked for in the share URL
	Match string `yaml:"match"`
	// BaseURL is where page and API requests for this variant are sent
	BaseURL string `yaml:"base_url"`
	// TrimLeadingOne strips a leading "1" from the code sent as the shorturl
	// parameter, only when the remainder is longer than TrimMinLength
	TrimLeadingOne bool `yaml:"trim_leading_one"`
	TrimMinLength  int  `yaml:"trim_min_length"`
}

// ShortURL returns the code in the form this domain's API expects
func (d DomainConfig) ShortURL(code string) string {
	if d.TrimLeadingOne && strings.HasPrefix(code, "1") && len(code)-1 > d.TrimMinLength {
		return code[1:]
	}
	return code
}

// Config holds application configuration
type Config struct {
	// Cookie is the opaque session credential sent to the share service
	Cookie    string `yaml:"cookie"`
	Listen    string `yaml:"listen"`
	ProxyURL  string `yaml:"proxy"`
	UserAgent string `yaml:"user_agent"`

	MetadataTimeout time.Duration `yaml:"metadata_timeout"`
	StreamTimeout   time.Duration `yaml:"stream_timeout"`
	MaxRedirects    int           `yaml:"max_redirects"`
	CacheMaxAge     int           `yaml:"cache_max_age"`

	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	DefaultDomain string         `yaml:"default_domain"`
	Domains       []DomainConfig `yaml:"domains"`

	// Logging configuration
	LogLevel    string `yaml:"log_level"`
	EnableDebug bool   `yaml:"debug"`
	QuietMode   bool   `yaml:"quiet"`
	LogFile     string `yaml:"log_file"`
}

// DefaultUserAgent mimics a desktop browser, the share page refuses obvious bots
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultDomains is ordered, the first matching entry wins
func DefaultDomains() []DomainConfig {
	return []DomainConfig{
		{Match: "1024tera.com", BaseURL: "https://www.1024tera.com"},
		{Match: "1024terabox.com", BaseURL: "https://www.1024terabox.com"},
		{Match: "teraboxapp.com", BaseURL: "https://www.teraboxapp.com"},
		{Match: "freeterabox.com", BaseURL: "https://www.freeterabox.com"},
		{Match: "terabox.com", BaseURL: "https://www.terabox.com"},
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:            ":8080",
		UserAgent:         DefaultUserAgent,
		MetadataTimeout:   15 * time.Second,
		StreamTimeout:     30 * time.Second,
		MaxRedirects:      10,
		CacheMaxAge:       3600,
		RequestsPerSecond: 5,
		Burst:             10,
		DefaultDomain:     "https://www.terabox.com",
		Domains:           DefaultDomains(),

		// Logging defaults
		LogLevel:    "info",
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "", // Empty means stderr
	}
}

// LoadFromFile merges a YAML config file over the current values
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if cookie := os.Getenv("TERABOX_COOKIE"); cookie != "" {
		c.Cookie = cookie
	}

	if listen := os.Getenv("TERAPROXY_LISTEN"); listen != "" {
		c.Listen = listen
	}

	if proxy := os.Getenv("TERAPROXY_PROXY"); proxy != "" {
		c.ProxyURL = proxy
	}

	if rps := os.Getenv("TERAPROXY_RATE_LIMIT"); rps != "" {
		if r, err := strconv.ParseFloat(rps, 64); err == nil && r >= 0 {
			c.RequestsPerSecond = r
		}
	}

	// Load logging configuration from environment
	if logLevel := os.Getenv("TERAPROXY_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if debug := os.Getenv("TERAPROXY_DEBUG"); debug != "" {
		c.EnableDebug = debug == "true" || debug == "1"
	}

	if quiet := os.Getenv("TERAPROXY_QUIET"); quiet != "" {
		c.QuietMode = quiet == "true" || quiet == "1"
	}

	if logFile := os.Getenv("TERAPROXY_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	if c.MetadataTimeout <= 0 {
		return NewValidationErrorWithValue("metadata_timeout", "must be > 0", c.MetadataTimeout)
	}

	if c.StreamTimeout <= 0 {
		return NewValidationErrorWithValue("stream_timeout", "must be > 0", c.StreamTimeout)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 20 {
		return NewValidationErrorWithValue("max_redirects", "must be between 0 and 20", c.MaxRedirects)
	}

	if c.CacheMaxAge < 0 {
		return NewValidationErrorWithValue("cache_max_age", "must be >= 0", c.CacheMaxAge)
	}

	if c.RequestsPerSecond < 0 {
		return NewValidationErrorWithValue("requests_per_second", "must be >= 0", c.RequestsPerSecond)
	}

	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		return NewValidationErrorWithValue("burst", "must be >= 1 when rate limiting is enabled", c.Burst)
	}

	if c.UserAgent == "" {
		return NewValidationError("user_agent", "cannot be empty")
	}

	if len(c.Domains) == 0 {
		return NewValidationError("domains", "domain table cannot be empty")
	}

	for i, d := range c.Domains {
		if d.Match == "" {
			return NewValidationError("domains", fmt.Sprintf("entry %d has an empty match", i))
		}
		if err := validateBaseURL(d.BaseURL); err != nil {
			return NewValidationErrorWithValue("domains", err.Error(), d.BaseURL).
				WithContext("index", i)
		}
	}

	if err := validateBaseURL(c.DefaultDomain); err != nil {
		return NewValidationErrorWithValue("default_domain", err.Error(), c.DefaultDomain)
	}

	if c.ProxyURL != "" {
		if !strings.HasPrefix(c.ProxyURL, "http://") &&
			!strings.HasPrefix(c.ProxyURL, "https://") &&
			!strings.HasPrefix(c.ProxyURL, "socks5://") {
			return NewValidationErrorWithValue("proxy", "unsupported proxy scheme", c.ProxyURL).
				WithSuggestion("Use http://, https://, or socks5://")
		}
	}

	return nil
}

// HasCredential reports whether a session cookie is configured
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.Cookie) != ""
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("base URL has no host")
	}
	return nil
}
