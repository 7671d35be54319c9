// Package handlers provides HTTP request handlers for the batchd API server.
//
// This file implements the admission endpoints for the batching coordinator.
// Producers submit write requests here; the coordinator deduplicates them by
// idempotency key and queues them for the next batch flush.
//
// ADMISSION ENDPOINTS:
//   - POST /api/v1/requests: Submit a write request for batching
//   - GET /api/v1/requests/{key}: Check whether a key is currently reserved
//
// BACKPRESSURE:
// When the pending queue is at capacity the coordinator rejects admissions
// and these handlers translate the rejection into HTTP 429, signaling
// producers to back off instead of piling requests into memory.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/validate"
)

// Coordinator provides the interface for request admission and state queries.
//
// Note on duplicate interfaces:
// This package defines its own Coordinator interface even though the api
// package also defines an interface with the same shape. This is intentional
// to avoid a circular dependency: the api package imports handlers to wire
// routes, so handlers cannot import api without creating a cycle.
//
// Compatibility guarantee:
// The concrete coordinator wired in by the daemon implements both interfaces,
// so values flow from routes into these handlers without adapters.
type Coordinator interface {
	Submit(ctx context.Context, req coordinator.WriteRequest) (coordinator.SubmitResult, error)
	IsDuplicate(key string) bool
	Status() coordinator.Status
}

// SubmitRequest represents the HTTP request payload for submitting a write
// request to the coordinator. The idempotency key is optional: when absent
// the coordinator derives a deterministic key from the originator identity
// and payload, so a producer retrying the same submission still dedups.
type SubmitRequest struct {
	IdempotencyKey   string          `json:"idempotency_key,omitempty"`   // Optional, derived when absent
	OriginatorID     string          `json:"originator_id"`               // Required producer identifier
	Payload          json.RawMessage `json:"payload"`                     // Required opaque record to write
	RequesterAddress string          `json:"requester_address,omitempty"` // Optional confirmation callback URL
}

// CheckKeyResponse represents the duplicate-check response for a key.
type CheckKeyResponse struct {
	IdempotencyKey string `json:"idempotency_key"`
	Duplicate      bool   `json:"duplicate"` // True while the key is pending or mid-write
}

// HandleSubmit returns a handler that admits write requests into the
// coordinator. Responds 202 for newly admitted requests, 200 for duplicate
// submissions (the request is already on its way to a batch), and 429 when
// the coordinator is applying backpressure.
func HandleSubmit(coord Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		if err := validate.OriginatorIDFormat(req.OriginatorID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(req.Payload) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload cannot be empty"})
			return
		}
		if err := validate.RequesterAddress(req.RequesterAddress); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		key := req.IdempotencyKey
		if key == "" {
			key = coordinator.DeriveIdempotencyKey(req.OriginatorID, req.Payload)
		} else if err := validate.IdempotencyKeyFormat(key); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := coord.Submit(c.Request.Context(), coordinator.WriteRequest{
			IdempotencyKey:   key,
			OriginatorID:     req.OriginatorID,
			Payload:          req.Payload,
			RequesterAddress: req.RequesterAddress,
		})
		if err != nil {
			var full *coordinator.QueueFullError
			if errors.As(err, &full) {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": full.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit request: " + err.Error()})
			return
		}

		if result.Duplicate {
			c.JSON(http.StatusOK, result)
			return
		}
		c.JSON(http.StatusAccepted, result)
	}
}

// HandleCheckKey returns a handler that reports whether an idempotency key
// is currently reserved in the dedup set. Producers probe this before
// re-submitting large payloads after a lost confirmation.
func HandleCheckKey(coord Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if err := validate.IdempotencyKeyFormat(key); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, CheckKeyResponse{
			IdempotencyKey: key,
			Duplicate:      coord.IsDuplicate(key),
		})
	}
}
