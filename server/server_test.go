package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"teraproxy/internal"
)

// fakeResolver answers from fixed values and records what it was asked
type fakeResolver struct {
	err       error
	lastInput string
	lastFsID  string
	lastRange string
	lastOpts  internal.ListOptions
	streamCtx context.Context
}

func (f *fakeResolver) ResolveShareCode(input string) (internal.ShareCode, error) {
	return internal.ShareCode(input), f.err
}

func (f *fakeResolver) GetShareInfo(ctx context.Context, input string) (*internal.ShareInfo, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &internal.ShareInfo{ShareID: 1, UK: 2, Sign: "abc", Surl: input, Source: internal.FromPage}, nil
}

func (f *fakeResolver) ListFiles(ctx context.Context, input string, opts internal.ListOptions) (*internal.FileList, error) {
	f.lastInput = input
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &internal.FileList{
		Files: []internal.FileEntry{{FsID: "111", Filename: "a.mp4"}},
		Total: 1,
	}, nil
}

func (f *fakeResolver) ResolveDownloadLink(ctx context.Context, input, fsID string) (*internal.DownloadLink, error) {
	f.lastInput, f.lastFsID = input, fsID
	if f.err != nil {
		return nil, f.err
	}
	return &internal.DownloadLink{DownloadURL: "https://d.example/file", Filename: "a.mp4", Size: 3, SizeFormatted: "3.00 B"}, nil
}

func (f *fakeResolver) ResolveDirectLink(ctx context.Context, input, fsID string) (*internal.DirectLink, error) {
	link, err := f.ResolveDownloadLink(ctx, input, fsID)
	if err != nil {
		return nil, err
	}
	return &internal.DirectLink{DownloadLink: *link, DirectURL: "https://cdn.example/file", ContentType: "video/mp4"}, nil
}

func (f *fakeResolver) OpenStream(ctx context.Context, input, fsID, rangeHeader string) (*internal.StreamResult, error) {
	f.lastInput, f.lastFsID, f.lastRange = input, fsID, rangeHeader
	f.streamCtx = ctx
	if f.err != nil {
		return nil, f.err
	}
	header := http.Header{}
	header.Set("Content-Type", "video/mp4")
	header.Set("Content-Range", "bytes 0-4/10")
	header.Set("Accept-Ranges", "bytes")
	return &internal.StreamResult{
		Body:       io.NopCloser(strings.NewReader("hello")),
		StatusCode: http.StatusPartialContent,
		Header:     header,
	}, nil
}

func setupServer(t *testing.T, resolver *fakeResolver) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	internal.SetLogger(internal.NewSecureLogger(io.Discard, 0, false, true))

	config := internal.DefaultConfig()
	config.Cookie = "ndus=secret; lang=en"
	config.RequestsPerSecond = 0
	return New(config, resolver, "test").Handler()
}

func doRequest(handler http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Timestamp string          `json:"timestamp"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	if env.Timestamp == "" {
		t.Error("Envelope should carry a timestamp")
	}
	return env
}

func TestHandleInfo(t *testing.T) {
	resolver := &fakeResolver{}
	handler := setupServer(t, resolver)

	w := doRequest(handler, http.MethodGet, "/api/info?url=https://www.terabox.com/s/1abc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Error("Expected success envelope")
	}
	var info internal.ShareInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatal(err)
	}
	if info.ShareID != 1 || info.Source != internal.FromPage {
		t.Errorf("Unexpected info %+v", info)
	}
	if resolver.lastInput != "https://www.terabox.com/s/1abc" {
		t.Errorf("Unexpected input %q", resolver.lastInput)
	}
}

func TestMissingParameters(t *testing.T) {
	tests := []struct {
		target   string
		expected string
	}{
		{"/api/info", "Missing required parameters: url"},
		{"/api/list?path=/", "Missing required parameters: url"},
		{"/api/download", "Missing required parameters: url, fs_id"},
		{"/api/direct?url=x", "Missing required parameters: fs_id"},
		{"/api/stream?fs_id=1", "Missing required parameters: url"},
		{"/api/redirect?url=%20&fs_id=1", "Missing required parameters: url"},
		{"/api/qrcode", "Missing required parameters: url, fs_id"},
	}

	handler := setupServer(t, &fakeResolver{})
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := doRequest(handler, http.MethodGet, tt.target, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Success || env.Error != tt.expected {
				t.Errorf("Expected error %q, got %+v", tt.expected, env)
			}
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		message  string
	}{
		{"invalid format", internal.NewInvalidFormatError("x"), http.StatusBadRequest, "Invalid TeraBox URL format"},
		{"upstream", internal.NewUpstreamError(105, ""), http.StatusBadGateway, "API Error: 105"},
		{"network", internal.NewNetworkError("share page", context.DeadlineExceeded), http.StatusGatewayTimeout, ""},
		{"not found", internal.NewResolutionFailedError(internal.ReasonNotFound), http.StatusNotFound, "File not found"},
		{"exhausted", internal.NewResolutionFailedError(internal.ReasonExhausted), http.StatusBadGateway, "Could not get download link"},
		{"unknown", io.ErrUnexpectedEOF, http.StatusInternalServerError, io.ErrUnexpectedEOF.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := setupServer(t, &fakeResolver{err: tt.err})
			w := doRequest(handler, http.MethodGet, "/api/download?url=1abc&fs_id=111", nil)
			if w.Code != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Success {
				t.Error("Expected failure envelope")
			}
			if tt.message != "" && env.Error != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, env.Error)
			}
		})
	}
}

func TestHandleList_Params(t *testing.T) {
	resolver := &fakeResolver{}
	handler := setupServer(t, resolver)

	w := doRequest(handler, http.MethodGet, "/api/list?url=1abc&path=/movies&page=2&limit=50", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	expected := internal.ListOptions{Path: "/movies", Page: 2, Limit: 50}
	if resolver.lastOpts != expected {
		t.Errorf("Expected %+v, got %+v", expected, resolver.lastOpts)
	}

	w = doRequest(handler, http.MethodGet, "/api/list?url=1abc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resolver.lastOpts != (internal.ListOptions{}) {
		t.Errorf("Absent params should be left to the core defaults, got %+v", resolver.lastOpts)
	}

	w = doRequest(handler, http.MethodGet, "/api/list?url=1abc&page=two", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-numeric page, got %d", w.Code)
	}
}

func TestHandleRedirect(t *testing.T) {
	handler := setupServer(t, &fakeResolver{})

	w := doRequest(handler, http.MethodGet, "/api/redirect?url=1abc&fs_id=111", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "https://d.example/file" {
		t.Errorf("Unexpected location %q", got)
	}
}

func TestHandleStream(t *testing.T) {
	resolver := &fakeResolver{}
	handler := setupServer(t, resolver)

	header := http.Header{}
	header.Set("Range", "bytes=0-4")
	w := doRequest(handler, http.MethodGet, "/api/stream?url=1abc&fs_id=111", header)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("Expected 206, got %d", w.Code)
	}
	if resolver.lastRange != "bytes=0-4" {
		t.Errorf("Range should be passed through, got %q", resolver.lastRange)
	}
	if w.Body.String() != "hello" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 0-4/10" {
		t.Errorf("Unexpected Content-Range %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Unexpected Content-Type %q", got)
	}
	if resolver.streamCtx == nil {
		t.Error("Stream should be opened with the request context")
	}
}

func TestHandleQRCode(t *testing.T) {
	handler := setupServer(t, &fakeResolver{})

	w := doRequest(handler, http.MethodGet, "/api/qrcode?url=1abc&fs_id=111&size=128x128", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Body is not a PNG image")
	}
}

func TestHandleHealth_HidesCredential(t *testing.T) {
	handler := setupServer(t, &fakeResolver{})

	w := doRequest(handler, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Error("Health output must not contain the credential value")
	}
	if !strings.Contains(w.Body.String(), `"hasSessionCookie":true`) {
		t.Errorf("Expected session cookie flag, got %s", w.Body.String())
	}
}

func TestHandleIndex(t *testing.T) {
	handler := setupServer(t, &fakeResolver{})

	w := doRequest(handler, http.MethodGet, "/api", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Endpoints map[string]endpointDoc `json:"endpoints"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, route := range []string{"GET /api/info", "GET /api/list", "GET /api/stream", "GET /api/redirect"} {
		if _, ok := body.Endpoints[route]; !ok {
			t.Errorf("Index is missing %s", route)
		}
	}
}

func TestNotFoundRoute(t *testing.T) {
	handler := setupServer(t, &fakeResolver{})

	w := doRequest(handler, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Success {
		t.Error("Expected failure envelope")
	}
}
