// Package api provides the HTTP API server for the batchd coordinator.
// The server exposes request admission, duplicate checks, and coordinator
// status via REST endpoints, allowing producers and CLI tools to interact
// with the coordinator without linking against it.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/concave-dev/batchd/internal/api/handlers"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/version"
)

// Server represents the batchd API server
type Server struct {
	coordinator Coordinator
	httpServer  *http.Server
	listener    net.Listener // Pre-bound listener, nil when self-binding
	bindAddr    string
	bindPort    int
}

// NewServer creates a new batchd API server instance
func NewServer(config *Config) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		coordinator: config.Coordinator,
		bindAddr:    config.BindAddr,
		bindPort:    config.BindPort,
	}
}

// NewServerWithListener creates an API server that serves on a pre-bound
// listener. The daemon pre-binds the API port before starting any service so
// that port reservation is atomic; the server takes ownership of the listener
// and closes it on shutdown.
func NewServerWithListener(config *Config, listener net.Listener) (*Server, error) {
	if listener == nil {
		return nil, fmt.Errorf("listener cannot be nil")
	}

	server := NewServer(config)
	server.listener = listener
	return server, nil
}

// Start starts the batchd API server
func (s *Server) Start() error {
	logging.Info("Starting HTTP API server on %s:%d", s.bindAddr, s.bindPort)

	// Create Gin router
	router := gin.New()

	// Configure Gin logging only if not already configured by CLI tools
	if !logging.IsConfiguredByCLI() {
		gin.DefaultWriter = logging.NewLevelWriter("INFO", "gin")
		gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")
	}

	// Add middleware
	router.Use(s.loggingMiddleware())
	router.Use(s.corsMiddleware())
	router.Use(gin.Recovery())

	// Setup routes
	s.setupRoutes(router)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.bindAddr, s.bindPort),
		Handler: router,
		// Timeouts for production
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.listener != nil {
		// Serve on the pre-bound listener (port already reserved by the daemon)
		go func() {
			if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
				logging.Error("HTTP server failed: %v", err)
			}
		}()

		logging.Success("HTTP API server started successfully")
		return nil
	}

	// Test binding first to catch errors immediately
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.httpServer.Addr, err)
	}
	listener.Close() // Close the test listener

	// Start server in goroutine now that we know binding works
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server failed: %v", err)
		}
	}()

	logging.Success("HTTP API server started successfully")
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

var startTime = time.Now() // Track server start time for uptime calculation

// handleHealth delegates to handlers.HandleHealth
func (s *Server) handleHealth(c *gin.Context) {
	handlers.HandleHealth(version.BatchdVersion, startTime)(c)
}

// handleSubmit delegates to handlers.HandleSubmit
func (s *Server) handleSubmit(c *gin.Context) {
	handlers.HandleSubmit(s.coordinator)(c)
}

// handleCheckKey delegates to handlers.HandleCheckKey
func (s *Server) handleCheckKey(c *gin.Context) {
	handlers.HandleCheckKey(s.coordinator)(c)
}

// handleStatus delegates to handlers.HandleStatus
func (s *Server) handleStatus(c *gin.Context) {
	handlers.HandleStatus(s.coordinator)(c)
}

// handleMetrics serves Prometheus metrics for scraping
func (s *Server) handleMetrics(c *gin.Context) {
	gin.WrapH(promhttp.Handler())(c)
}
