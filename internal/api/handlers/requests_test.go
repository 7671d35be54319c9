package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/batchd/internal/coordinator"
)

// fakeCoordinator implements the Coordinator interface for handler tests.
type fakeCoordinator struct {
	submitted []coordinator.WriteRequest
	result    coordinator.SubmitResult
	err       error
	reserved  map[string]bool
	status    coordinator.Status
}

func (f *fakeCoordinator) Submit(ctx context.Context, req coordinator.WriteRequest) (coordinator.SubmitResult, error) {
	f.submitted = append(f.submitted, req)
	if f.err != nil {
		return coordinator.SubmitResult{}, f.err
	}
	result := f.result
	result.IdempotencyKey = req.IdempotencyKey
	return result, nil
}

func (f *fakeCoordinator) IsDuplicate(key string) bool {
	return f.reserved[key]
}

func (f *fakeCoordinator) Status() coordinator.Status {
	return f.status
}

func newTestRouter(coord Coordinator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/requests", HandleSubmit(coord))
	router.GET("/api/v1/requests/:key", HandleCheckKey(coord))
	router.GET("/api/v1/status", HandleStatus(coord))
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHandleSubmit tests successful admission
func TestHandleSubmit(t *testing.T) {
	coord := &fakeCoordinator{result: coordinator.SubmitResult{Admitted: true, PendingCount: 1}}
	router := newTestRouter(coord)

	w := postJSON(router, "/api/v1/requests",
		`{"idempotency_key":"order-1","originator_id":"billing-svc","payload":{"amount":5},"requester_address":"http://10.0.0.1:9090/confirm"}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	var result coordinator.SubmitResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !result.Admitted || result.IdempotencyKey != "order-1" {
		t.Errorf("result = %+v, want admitted order-1", result)
	}

	if len(coord.submitted) != 1 {
		t.Fatalf("submitted %d requests, want 1", len(coord.submitted))
	}
	got := coord.submitted[0]
	if got.OriginatorID != "billing-svc" || got.RequesterAddress != "http://10.0.0.1:9090/confirm" {
		t.Errorf("submitted request = %+v", got)
	}
}

// TestHandleSubmitDerivesKey tests key derivation when no key is supplied
func TestHandleSubmitDerivesKey(t *testing.T) {
	coord := &fakeCoordinator{result: coordinator.SubmitResult{Admitted: true}}
	router := newTestRouter(coord)

	w := postJSON(router, "/api/v1/requests",
		`{"originator_id":"billing-svc","payload":{"amount":5}}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusAccepted, w.Body.String())
	}

	want := coordinator.DeriveIdempotencyKey("billing-svc", []byte(`{"amount":5}`))
	if coord.submitted[0].IdempotencyKey != want {
		t.Errorf("derived key = %s, want %s", coord.submitted[0].IdempotencyKey, want)
	}

	// Same submission derives the same key, which is what makes blind
	// producer retries dedup correctly.
	postJSON(router, "/api/v1/requests", `{"originator_id":"billing-svc","payload":{"amount":5}}`)
	if coord.submitted[1].IdempotencyKey != want {
		t.Errorf("retry derived different key: %s", coord.submitted[1].IdempotencyKey)
	}
}

// TestHandleSubmitDuplicate tests the duplicate response path
func TestHandleSubmitDuplicate(t *testing.T) {
	coord := &fakeCoordinator{result: coordinator.SubmitResult{Duplicate: true, PendingCount: 4}}
	router := newTestRouter(coord)

	w := postJSON(router, "/api/v1/requests",
		`{"idempotency_key":"order-1","originator_id":"billing-svc","payload":{"amount":5}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want %d", w.Code, http.StatusOK)
	}
	var result coordinator.SubmitResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !result.Duplicate || result.Admitted {
		t.Errorf("result = %+v, want duplicate", result)
	}
}

// TestHandleSubmitValidation tests rejection of malformed submissions
func TestHandleSubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not JSON", `{{{`},
		{"missing originator", `{"payload":{"v":1}}`},
		{"bad originator format", `{"originator_id":"Bad Name","payload":{"v":1}}`},
		{"missing payload", `{"originator_id":"svc"}`},
		{"bad key format", `{"idempotency_key":"has space","originator_id":"svc","payload":{"v":1}}`},
		{"bad requester address", `{"originator_id":"svc","payload":{"v":1},"requester_address":"not-a-url"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord := &fakeCoordinator{}
			router := newTestRouter(coord)

			w := postJSON(router, "/api/v1/requests", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if len(coord.submitted) != 0 {
				t.Errorf("invalid request reached the coordinator")
			}
		})
	}
}

// TestHandleSubmitBackpressure tests the 429 translation of QueueFullError
func TestHandleSubmitBackpressure(t *testing.T) {
	coord := &fakeCoordinator{err: &coordinator.QueueFullError{Current: 1000, Capacity: 1000}}
	router := newTestRouter(coord)

	w := postJSON(router, "/api/v1/requests",
		`{"idempotency_key":"order-1","originator_id":"svc","payload":{"v":1}}`)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

// TestHandleCheckKey tests the duplicate-check endpoint
func TestHandleCheckKey(t *testing.T) {
	coord := &fakeCoordinator{reserved: map[string]bool{"pending-key": true}}
	router := newTestRouter(coord)

	tests := []struct {
		key  string
		want bool
	}{
		{"pending-key", true},
		{"unknown-key", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/v1/requests/"+tt.key, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("CheckKey(%s) status = %d, want 200", tt.key, w.Code)
		}
		var resp CheckKeyResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Duplicate != tt.want || resp.IdempotencyKey != tt.key {
			t.Errorf("CheckKey(%s) = %+v, want duplicate=%v", tt.key, resp, tt.want)
		}
	}
}

// TestHandleStatus tests the status snapshot endpoint
func TestHandleStatus(t *testing.T) {
	coord := &fakeCoordinator{status: coordinator.Status{
		PendingCount:     7,
		BatchesCompleted: 12,
		DedupSetSize:     9,
		HandoffCycle:     2,
		SizeLimit:        100,
	}}
	router := newTestRouter(coord)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var status coordinator.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if status != coord.status {
		t.Errorf("status = %+v, want %+v", status, coord.status)
	}
}
