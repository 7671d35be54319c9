// Package requester provides the producer-side client for batchd: submitting
// write requests with retries, probing for duplicates, querying coordinator
// status, and waiting for batch confirmations on a local callback listener.
//
// The types in this package mirror the coordinator's wire formats instead of
// importing its internals, keeping producers dependent only on the HTTP
// contract. CLI tooling and embedded producers both build on this client.
package requester

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/logging"
	"github.com/concave-dev/batchd/internal/version"
)

const (
	// DefaultSubmitAttempts is how many times a submission is tried before
	// giving up. Submissions are idempotent by key so blind retries are safe.
	DefaultSubmitAttempts = 3

	// submitBackoffBase is the initial delay between submission attempts;
	// the delay doubles per attempt.
	submitBackoffBase = time.Second
)

// SubmitOutcome mirrors the coordinator's admission response.
type SubmitOutcome struct {
	Admitted       bool   `json:"admitted"`
	Duplicate      bool   `json:"duplicate"`
	IdempotencyKey string `json:"idempotency_key"`
	PendingCount   int    `json:"pending_count"`
}

// Status mirrors the coordinator's status snapshot.
type Status struct {
	PendingCount     int `json:"pending_count"`
	BatchesCompleted int `json:"batches_completed"`
	DedupSetSize     int `json:"dedup_set_size"`
	HandoffCycle     int `json:"handoff_cycle"`
	SizeLimit        int `json:"size_limit"`
}

// checkKeyResponse mirrors the duplicate-check response.
type checkKeyResponse struct {
	IdempotencyKey string `json:"idempotency_key"`
	Duplicate      bool   `json:"duplicate"`
}

// submitPayload is the admission request body.
type submitPayload struct {
	IdempotencyKey   string          `json:"idempotency_key,omitempty"`
	OriginatorID     string          `json:"originator_id"`
	Payload          json.RawMessage `json:"payload"`
	RequesterAddress string          `json:"requester_address,omitempty"`
}

// Client is a batchd API client for producers. Safe for concurrent use.
type Client struct {
	client       *resty.Client
	baseURL      string
	originatorID string
	confirmAddr  string // callback URL advertised on submissions, may be empty
}

// NewClient creates an API client for the given coordinator address. The
// confirmation address is advertised on every submission so the coordinator
// knows where to post batch confirmations; pass empty to submit without
// waiting for callbacks.
func NewClient(apiAddr, originatorID, confirmAddr string, timeout time.Duration) *Client {
	client := resty.New()

	baseURL := fmt.Sprintf("http://%s/api/v1", apiAddr)

	// Configure client with timeouts, headers, and retry logic
	client.
		SetTimeout(timeout).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "batchctl/"+version.BatchctlVersion)

	// Custom request logging using structured logging
	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Making API request: %s %s", req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("API response: %d %s (took %v)",
			resp.StatusCode(), resp.Status(), resp.Time())
		return nil
	})

	return &Client{
		client:       client,
		baseURL:      baseURL,
		originatorID: originatorID,
		confirmAddr:  confirmAddr,
	}
}

// DeriveKey computes the deterministic idempotency key this client would use
// for a payload, letting producers record the key before submitting.
func (c *Client) DeriveKey(payload []byte) string {
	return coordinator.DeriveIdempotencyKey(c.originatorID, payload)
}

// Submit sends a write request with retries. An empty key derives the
// deterministic key from the payload, so a retried Submit of the same
// payload dedups on the coordinator instead of writing twice.
//
// Retries cover connection failures and backpressure (429); validation
// errors (4xx) fail immediately since retrying them cannot succeed.
func (c *Client) Submit(ctx context.Context, key string, payload []byte) (*SubmitOutcome, error) {
	if key == "" {
		key = c.DeriveKey(payload)
	}

	body := submitPayload{
		IdempotencyKey:   key,
		OriginatorID:     c.originatorID,
		Payload:          payload,
		RequesterAddress: c.confirmAddr,
	}

	var lastErr error
	for attempt := 0; attempt < DefaultSubmitAttempts; attempt++ {
		if attempt > 0 {
			delay := submitBackoffBase << (attempt - 1)
			logging.Debug("Requester: Retrying submission of key %s in %v",
				logging.FormatKey(key), delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var outcome SubmitOutcome
		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&outcome).
			Post("/requests")

		if err != nil {
			lastErr = fmt.Errorf("failed to connect to API server at %s: %w", c.baseURL, err)
			continue
		}

		switch {
		case resp.StatusCode() == 202 || resp.StatusCode() == 200:
			return &outcome, nil
		case resp.StatusCode() == 429:
			lastErr = fmt.Errorf("coordinator backpressure: %s", resp.String())
			continue
		default:
			return nil, fmt.Errorf("submission rejected with status %d: %s",
				resp.StatusCode(), resp.String())
		}
	}

	return nil, fmt.Errorf("submission of key %s failed after %d attempts: %w",
		key, DefaultSubmitAttempts, lastErr)
}

// CheckKey reports whether a key is still reserved on the coordinator,
// meaning its request is pending or mid-write.
func (c *Client) CheckKey(ctx context.Context, key string) (bool, error) {
	var result checkKeyResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/requests/" + key)

	if err != nil {
		return false, fmt.Errorf("failed to connect to API server at %s: %w", c.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return false, fmt.Errorf("duplicate check failed with status %d: %s",
			resp.StatusCode(), resp.String())
	}
	return result.Duplicate, nil
}

// Status fetches the coordinator's status snapshot.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/status")

	if err != nil {
		return nil, fmt.Errorf("failed to connect to API server at %s: %w", c.baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("status query failed with status %d: %s",
			resp.StatusCode(), resp.String())
	}
	return &status, nil
}
