package api

import (
	"github.com/gin-gonic/gin"
)

// Configures all API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// API version prefix
	v1 := router.Group("/api/v1")

	// Health check endpoint
	v1.GET("/health", s.handleHealth)

	// Request admission and duplicate checks
	requests := v1.Group("/requests")
	{
		requests.POST("", s.handleSubmit)
		requests.GET("/:key", s.handleCheckKey)
	}

	// Coordinator status snapshot
	v1.GET("/status", s.handleStatus)

	// Prometheus scrape endpoint, outside the versioned API prefix
	router.GET("/metrics", s.handleMetrics)
}
