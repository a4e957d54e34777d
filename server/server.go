package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"teraproxy/internal"
)

// Server exposes a ShareResolver over HTTP
type Server struct {
	config   *internal.Config
	resolver internal.ShareResolver
	version  string
	engine   *gin.Engine
	server   *http.Server
	closed   bool
	mu       sync.Mutex
}

// New creates a server for resolver. The config supplies the listen address,
// the per-client rate limit and the credential shown by the health endpoint.
func New(config *internal.Config, resolver internal.ShareResolver, version string) *Server {
	s := &Server{
		config:   config,
		resolver: resolver,
		version:  version,
	}
	s.engine = s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() *gin.Engine {
	if internal.GetLogger().Level() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(AllowAllCORS())

	engine.GET("/api", s.handleIndex)
	engine.GET("/api/health", s.handleHealth)

	api := engine.Group("/api")
	api.Use(RateLimit(s.config.RequestsPerSecond, s.config.Burst))
	{
		api.GET("/info", s.handleInfo)
		api.GET("/list", s.handleList)
		api.GET("/download", s.handleDownload)
		api.GET("/direct", s.handleDirect)
		api.GET("/stream", s.handleStream)
		api.GET("/redirect", s.handleRedirect)
		api.GET("/qrcode", s.handleQRCode)
	}

	engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "Not found")
	})

	return engine
}

// Handler returns the routed engine, used by tests and embedding callers
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and blocks until the server stops
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	internal.LogInfo("listening on %s", s.config.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	internal.LogInfo("shutting down server")
	return srv.Shutdown(ctx)
}
