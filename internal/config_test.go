package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MetadataTimeout != 15*time.Second {
		t.Errorf("Expected 15s metadata timeout, got %v", cfg.MetadataTimeout)
	}
	if cfg.StreamTimeout != 30*time.Second {
		t.Errorf("Expected 30s stream timeout, got %v", cfg.StreamTimeout)
	}
	if cfg.MaxRedirects != 10 {
		t.Errorf("Expected 10 redirects, got %d", cfg.MaxRedirects)
	}
	if len(cfg.Domains) != 5 {
		t.Errorf("Expected 5 domain variants, got %d", len(cfg.Domains))
	}
	if err := cfg.ValidateConfig(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
	if cfg.HasCredential() {
		t.Error("Default config should carry no credential")
	}
}

func TestDomainConfig_ShortURL(t *testing.T) {
	tests := []struct {
		name     string
		domain   DomainConfig
		code     string
		expected string
	}{
		{"no trimming by default", DomainConfig{}, "1abcdef", "1abcdef"},
		{"trim when longer than threshold", DomainConfig{TrimLeadingOne: true, TrimMinLength: 3}, "1abcdef", "abcdef"},
		{"keep when not longer than threshold", DomainConfig{TrimLeadingOne: true, TrimMinLength: 6}, "1abcdef", "1abcdef"},
		{"keep codes without leading one", DomainConfig{TrimLeadingOne: true}, "abcdef", "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.domain.ShortURL(tt.code); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teraproxy.yaml")
	content := `
cookie: "ndus=abc"
listen: ":9090"
metadata_timeout: 5s
domains:
  - match: 1024terabox.com
    base_url: https://www.1024terabox.com
    trim_leading_one: true
    trim_min_length: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Cookie != "ndus=abc" {
		t.Errorf("Expected cookie from file, got %q", cfg.Cookie)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("Expected listen from file, got %q", cfg.Listen)
	}
	if cfg.MetadataTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.MetadataTimeout)
	}
	if len(cfg.Domains) != 1 || !cfg.Domains[0].TrimLeadingOne || cfg.Domains[0].TrimMinLength != 10 {
		t.Errorf("Unexpected domains %+v", cfg.Domains)
	}
	if cfg.StreamTimeout != 30*time.Second {
		t.Errorf("Unset fields should keep defaults, got %v", cfg.StreamTimeout)
	}
}

func TestConfig_LoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(""); err != nil {
		t.Errorf("Empty path should be a no-op, got %v", err)
	}
	if err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
	if err := cfg.LoadFromFile(t.TempDir()); err == nil {
		t.Error("Expected error for directory path")
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("TERABOX_COOKIE", "ndus=fromenv")
	t.Setenv("TERAPROXY_LISTEN", ":7000")
	t.Setenv("TERAPROXY_LOG_LEVEL", "debug")
	t.Setenv("TERAPROXY_QUIET", "1")
	t.Setenv("TERAPROXY_RATE_LIMIT", "2.5")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	if cfg.Cookie != "ndus=fromenv" {
		t.Errorf("Expected cookie from env, got %q", cfg.Cookie)
	}
	if cfg.Listen != ":7000" {
		t.Errorf("Expected listen from env, got %q", cfg.Listen)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level from env, got %q", cfg.LogLevel)
	}
	if !cfg.QuietMode {
		t.Error("Expected quiet mode from env")
	}
	if cfg.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 rps, got %v", cfg.RequestsPerSecond)
	}
	if !cfg.HasCredential() {
		t.Error("Expected credential to be present")
	}
}

func TestConfig_ValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero metadata timeout", func(c *Config) { c.MetadataTimeout = 0 }, "metadata_timeout"},
		{"too many redirects", func(c *Config) { c.MaxRedirects = 50 }, "max_redirects"},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }, "user_agent"},
		{"empty domain table", func(c *Config) { c.Domains = nil }, "domains"},
		{"bad domain base url", func(c *Config) { c.Domains[0].BaseURL = "ftp://x" }, "domains"},
		{"bad proxy scheme", func(c *Config) { c.ProxyURL = "gopher://proxy" }, "proxy"},
		{"zero burst with limiter", func(c *Config) { c.Burst = 0 }, "burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.ValidateConfig()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestInitLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teraproxy.log")

	cfg := DefaultConfig()
	cfg.LogFile = path
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	defer SetLogger(NewDefaultLogger(false, false))

	LogInfo("hello from %s", "test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("Expected log file to receive output")
	}
}
