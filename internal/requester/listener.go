package requester

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/batchd/internal/logging"
)

// DefaultConfirmationWait bounds how long a producer waits for a batch
// confirmation before falling back to a duplicate-check probe. Generous
// because a request admitted just after a flush waits a full flush interval
// plus write retries before its batch commits.
const DefaultConfirmationWait = 2 * time.Minute

// Confirmation mirrors the coordinator's confirmation callback payload.
type Confirmation struct {
	BatchID        string    `json:"batch_id"`
	Status         string    `json:"status"`
	Count          int       `json:"count"`
	BatchSize      int       `json:"batch_size"`
	WrittenAt      time.Time `json:"written_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// validate checks a received confirmation before it is delivered to a
// waiter. The coordinator never sends malformed confirmations, but the
// listener is an open HTTP endpoint and shouldn't let arbitrary posts
// release a waiting producer.
func (c *Confirmation) validate() error {
	if c.BatchID == "" {
		return fmt.Errorf("confirmation missing batch_id")
	}
	if c.Status != "success" && c.Status != "failure" {
		return fmt.Errorf("confirmation has unknown status %q", c.Status)
	}
	if c.Count < 0 {
		return fmt.Errorf("confirmation has negative count %d", c.Count)
	}
	if c.IdempotencyKey == "" {
		return fmt.Errorf("confirmation missing idempotency_key")
	}
	return nil
}

// Listener runs the producer-side HTTP endpoint that receives batch
// confirmations from the coordinator. Producers register interest in a key
// before submitting, then await the confirmation after.
type Listener struct {
	httpServer *http.Server
	addr       string // resolved listen address, available after Start

	mu      sync.Mutex
	waiting map[string]chan Confirmation
}

// NewListener creates a confirmation listener that will bind to the given
// address. Use port 0 to let the OS assign one; the resolved address is
// available from URL after Start.
func NewListener(bindAddr string) *Listener {
	return &Listener{
		httpServer: &http.Server{Addr: bindAddr},
		waiting:    make(map[string]chan Confirmation),
	}
}

// Start binds the listener and begins serving confirmation callbacks.
func (l *Listener) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/confirm", l.handleConfirmation)
	l.httpServer.Handler = router

	listener, err := net.Listen("tcp", l.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind confirmation listener to %s: %w", l.httpServer.Addr, err)
	}
	l.addr = listener.Addr().String()

	go func() {
		if err := l.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("Requester: Confirmation listener failed: %v", err)
		}
	}()

	logging.Info("Requester: Confirmation listener started on %s", l.addr)
	return nil
}

// Shutdown stops serving confirmation callbacks.
func (l *Listener) Shutdown(ctx context.Context) error {
	return l.httpServer.Shutdown(ctx)
}

// URL returns the callback URL to advertise on submissions. Only valid
// after Start.
func (l *Listener) URL() string {
	return "http://" + l.addr + "/confirm"
}

// Expect registers interest in a key's confirmation. Must be called BEFORE
// submitting the request: a confirmation for an unregistered key is dropped,
// and the race between admission and a fast flush is real.
func (l *Listener) Expect(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.waiting[key]; !ok {
		l.waiting[key] = make(chan Confirmation, 1)
	}
}

// Await blocks until the confirmation for a previously Expected key arrives,
// the context expires, or the wait times out. Pass zero to use
// DefaultConfirmationWait.
func (l *Listener) Await(ctx context.Context, key string, wait time.Duration) (*Confirmation, error) {
	if wait <= 0 {
		wait = DefaultConfirmationWait
	}

	l.mu.Lock()
	ch, ok := l.waiting[key]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("key %s was never registered with Expect", key)
	}

	defer func() {
		l.mu.Lock()
		delete(l.waiting, key)
		l.mu.Unlock()
	}()

	select {
	case confirmation := <-ch:
		return &confirmation, nil
	case <-time.After(wait):
		return nil, fmt.Errorf("timed out after %v waiting for confirmation of key %s", wait, key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handleConfirmation validates and routes an incoming confirmation to the
// waiter registered for its key.
func (l *Listener) handleConfirmation(c *gin.Context) {
	var confirmation Confirmation
	if err := c.ShouldBindJSON(&confirmation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid confirmation body: " + err.Error()})
		return
	}
	if err := confirmation.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l.mu.Lock()
	ch, ok := l.waiting[confirmation.IdempotencyKey]
	l.mu.Unlock()

	if ok {
		select {
		case ch <- confirmation:
		default:
			// Duplicate confirmation for a key already delivered; drop it.
		}
	} else {
		logging.Debug("Requester: Dropping confirmation for unregistered key %s",
			logging.FormatKey(confirmation.IdempotencyKey))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
