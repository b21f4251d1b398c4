// Package webui provides the HTTP control surface for FocusWatch: the
// REST API the desktop client and setup wizard talk to.
package webui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server is the HTTP server for the control surface. It wires together:
//   - ControlAPI for the REST endpoints
//   - LoggingMiddleware for request logging
//   - optional basic-auth when a password is configured
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	logger     *zap.Logger
	api        *ControlAPI
	loggingMw  *LoggingMiddleware
	auth       *BasicAuth
}

// ServerConfig configures the Server.
type ServerConfig struct {
	// Host to bind to (default: "localhost")
	Host string

	// Port to listen on (default: 5000)
	Port int

	// ReadTimeout for HTTP requests (default: 15s)
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses (default: 15s)
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 60s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration

	// LogSkipPaths are paths excluded from request logging.
	LogSkipPaths []string

	// Password enables basic auth on every endpoint except health when
	// non-empty.
	Password string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            5000,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogSkipPaths:    []string{"/api/health"},
	}
}

// NewServer creates a Server serving the given controller.
func NewServer(config ServerConfig, controller Controller, logger *zap.Logger) (*Server, error) {
	if controller == nil {
		return nil, fmt.Errorf("webui: controller is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port <= 0 {
		config.Port = 5000
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 15 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 15 * time.Second
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 60 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		logger:    logger,
		api:       NewControlAPI(controller, logger),
		loggingMw: NewLoggingMiddleware(logger, config.LogSkipPaths),
	}

	if config.Password != "" {
		auth, err := NewBasicAuth(config.Password)
		if err != nil {
			return nil, fmt.Errorf("webui: %w", err)
		}
		s.auth = auth
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.loggingMw.Handler(s.mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("control surface created",
		zap.String("addr", addr),
		zap.Bool("auth_enabled", s.auth != nil),
	)

	return s, nil
}

// setupRoutes registers all API routes. Health stays unauthenticated so
// probes work without credentials.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /api/health", s.api.HandleHealth)

	s.mux.HandleFunc("POST /api/system/start", s.protect(s.api.HandleStart))
	s.mux.HandleFunc("POST /api/system/stop", s.protect(s.api.HandleStop))
	s.mux.HandleFunc("GET /api/system/state", s.protect(s.api.HandleState))
	s.mux.HandleFunc("GET /api/system/status", s.protect(s.api.HandleStatus))

	s.mux.HandleFunc("GET /api/alerts", s.protect(s.api.HandleAlerts))
	s.mux.HandleFunc("POST /api/alerts/{id}/respond", s.protect(s.api.HandleAlertRespond))

	s.mux.HandleFunc("GET /api/settings", s.protect(s.api.HandleGetSettings))
	s.mux.HandleFunc("PUT /api/settings", s.protect(s.api.HandlePutSettings))

	s.mux.HandleFunc("GET /api/data/focus-level", s.protect(s.api.HandleFocusLevel))
	s.mux.HandleFunc("GET /api/data/focus-history", s.protect(s.api.HandleFocusHistory))
	s.mux.HandleFunc("GET /api/data/alert-stats", s.protect(s.api.HandleAlertStats))
	s.mux.HandleFunc("GET /api/data/sample-history", s.protect(s.api.HandleSampleHistory))
	s.mux.HandleFunc("GET /api/data/alert-history", s.protect(s.api.HandleAlertHistory))

	s.mux.HandleFunc("POST /api/wizard/trigger-alert", s.protect(s.api.HandleTriggerAlert))
}

// protect wraps a handler with basic auth when a password is configured.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	if s.auth == nil {
		return next
	}
	return s.auth.MiddlewareFunc(next)
}

// Start begins listening for HTTP requests. It blocks until the server
// is shut down.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("control surface starting", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down control surface")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	return nil
}

// Addr returns the server's bind address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root handler, for tests driving the mux directly.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
