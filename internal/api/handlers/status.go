package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleStatus returns a handler serving a point-in-time snapshot of
// coordinator state: queue depth, completed batches, dedup set size, and the
// current handoff cycle. Used by batchctl and monitoring probes.
func HandleStatus(coord Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, coord.Status())
	}
}
