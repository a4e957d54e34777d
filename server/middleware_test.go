package server

import (
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"teraproxy/internal"
)

func TestAllowAllCORS(t *testing.T) {
	handler := setupServer(t, &fakeResolver{})

	w := doRequest(handler, http.MethodOptions, "/api/stream", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Preflight should answer 200, got %d", w.Code)
	}

	expected := map[string]string{
		"Access-Control-Allow-Credentials": "true",
		"Access-Control-Allow-Origin":      "*",
		"Access-Control-Allow-Methods":     "GET,POST,OPTIONS",
		"Access-Control-Allow-Headers":     "X-Requested-With, Content-Type, Accept, Range",
	}
	for key, want := range expected {
		if got := w.Header().Get(key); got != want {
			t.Errorf("Header %s: expected %q, got %q", key, want, got)
		}
	}

	w = doRequest(handler, http.MethodGet, "/api/info?url=1abc", nil)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS headers should be set on regular responses too")
	}
}

func TestRequestLogger_RequestID(t *testing.T) {
	handler := setupServer(t, &fakeResolver{})

	w := doRequest(handler, http.MethodGet, "/api", nil)
	if len(w.Header().Get(requestIDHeader)) != 36 {
		t.Errorf("Expected generated uuid, got %q", w.Header().Get(requestIDHeader))
	}

	header := http.Header{}
	header.Set(requestIDHeader, "caller-id")
	w = doRequest(handler, http.MethodGet, "/api", header)
	if got := w.Header().Get(requestIDHeader); got != "caller-id" {
		t.Errorf("Caller supplied id should be echoed, got %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	internal.SetLogger(internal.NewSecureLogger(io.Discard, 0, false, true))

	config := internal.DefaultConfig()
	config.RequestsPerSecond = 0.001
	config.Burst = 2
	handler := New(config, &fakeResolver{}, "test").Handler()

	for i := 0; i < 2; i++ {
		if w := doRequest(handler, http.MethodGet, "/api/info?url=1abc", nil); w.Code != http.StatusOK {
			t.Fatalf("Request %d within burst should pass, got %d", i, w.Code)
		}
	}

	w := doRequest(handler, http.MethodGet, "/api/info?url=1abc", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error != "Too many requests" {
		t.Errorf("Unexpected error %q", env.Error)
	}

	if w := doRequest(handler, http.MethodGet, "/api/health", nil); w.Code != http.StatusOK {
		t.Errorf("Health should not be rate limited, got %d", w.Code)
	}
}

func TestClientLimiter_PerClient(t *testing.T) {
	limiter := newClientLimiter(0.001, 1)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("First request should pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("Second request from the same client should be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Error("Other clients keep their own bucket")
	}
}
