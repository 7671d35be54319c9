package requester

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeAPI simulates the coordinator's admission endpoint with configurable
// behavior per call.
type fakeAPI struct {
	mu        sync.Mutex
	submits   []submitPayload
	responses []int // status code per call, last repeats
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/requests", func(w http.ResponseWriter, r *http.Request) {
		var body submitPayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.submits = append(f.submits, body)
		idx := len(f.submits) - 1
		if idx >= len(f.responses) {
			idx = len(f.responses) - 1
		}
		code := f.responses[idx]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if code == 202 || code == 200 {
			json.NewEncoder(w).Encode(SubmitOutcome{
				Admitted:       code == 202,
				Duplicate:      code == 200,
				IdempotencyKey: body.IdempotencyKey,
				PendingCount:   1,
			})
		}
	})
	mux.HandleFunc("GET /api/v1/requests/", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/api/v1/requests/")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(checkKeyResponse{IdempotencyKey: key, Duplicate: key == "reserved"})
	})
	mux.HandleFunc("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Status{PendingCount: 3, BatchesCompleted: 8, SizeLimit: 100})
	})
	return mux
}

func (f *fakeAPI) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func newTestClient(t *testing.T, api *fakeAPI, confirmAddr string) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)
	addr := strings.TrimPrefix(server.URL, "http://")
	return NewClient(addr, "test-producer", confirmAddr, 2*time.Second)
}

// TestClientSubmit tests a successful submission
func TestClientSubmit(t *testing.T) {
	api := &fakeAPI{responses: []int{202}}
	client := newTestClient(t, api, "http://127.0.0.1:9999/confirm")

	outcome, err := client.Submit(context.Background(), "order-1", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !outcome.Admitted || outcome.IdempotencyKey != "order-1" {
		t.Errorf("outcome = %+v, want admitted order-1", outcome)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	sent := api.submits[0]
	if sent.OriginatorID != "test-producer" {
		t.Errorf("originator = %s, want test-producer", sent.OriginatorID)
	}
	if sent.RequesterAddress != "http://127.0.0.1:9999/confirm" {
		t.Errorf("requester address = %s, want advertised callback", sent.RequesterAddress)
	}
}

// TestClientSubmitDerivesKey tests deterministic key derivation for empty keys
func TestClientSubmitDerivesKey(t *testing.T) {
	api := &fakeAPI{responses: []int{202}}
	client := newTestClient(t, api, "")

	payload := []byte(`{"v":1}`)
	outcome, err := client.Submit(context.Background(), "", payload)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.IdempotencyKey != client.DeriveKey(payload) {
		t.Errorf("key = %s, want derived %s", outcome.IdempotencyKey, client.DeriveKey(payload))
	}
}

// TestClientSubmitRetriesBackpressure tests retry on 429 responses
func TestClientSubmitRetriesBackpressure(t *testing.T) {
	t.Parallel() // backoff between attempts makes this test sleep

	api := &fakeAPI{responses: []int{429, 202}}
	client := newTestClient(t, api, "")

	outcome, err := client.Submit(context.Background(), "order-1", []byte(`{"v":1}`))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !outcome.Admitted {
		t.Errorf("outcome = %+v, want admitted after retry", outcome)
	}
	if api.submitCount() != 2 {
		t.Errorf("attempts = %d, want 2", api.submitCount())
	}
}

// TestClientSubmitRejectsValidationErrors tests that 4xx fails immediately
func TestClientSubmitRejectsValidationErrors(t *testing.T) {
	api := &fakeAPI{responses: []int{400}}
	client := newTestClient(t, api, "")

	if _, err := client.Submit(context.Background(), "bad key", []byte(`{}`)); err == nil {
		t.Fatal("Submit with validation error succeeded, want error")
	}
	if api.submitCount() != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on validation errors)", api.submitCount())
	}
}

// TestClientCheckKey tests the duplicate probe
func TestClientCheckKey(t *testing.T) {
	api := &fakeAPI{responses: []int{202}}
	client := newTestClient(t, api, "")

	dup, err := client.CheckKey(context.Background(), "reserved")
	if err != nil || !dup {
		t.Errorf("CheckKey(reserved) = (%v, %v), want (true, nil)", dup, err)
	}
	dup, err = client.CheckKey(context.Background(), "other")
	if err != nil || dup {
		t.Errorf("CheckKey(other) = (%v, %v), want (false, nil)", dup, err)
	}
}

// TestClientStatus tests the status query
func TestClientStatus(t *testing.T) {
	api := &fakeAPI{responses: []int{202}}
	client := newTestClient(t, api, "")

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.PendingCount != 3 || status.BatchesCompleted != 8 || status.SizeLimit != 100 {
		t.Errorf("status = %+v", status)
	}
}

// TestListenerDeliversConfirmation tests the expect/post/await cycle
func TestListenerDeliversConfirmation(t *testing.T) {
	listener := NewListener("127.0.0.1:0")
	if err := listener.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer listener.Shutdown(context.Background())

	listener.Expect("k1")

	confirmation := Confirmation{
		BatchID:        "batch-3",
		Status:         "success",
		Count:          10,
		BatchSize:      10,
		WrittenAt:      time.Now().UTC(),
		IdempotencyKey: "k1",
	}
	body, _ := json.Marshal(confirmation)
	resp, err := http.Post(listener.URL(), "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("POST confirmation failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmation POST status = %d, want 200", resp.StatusCode)
	}

	got, err := listener.Await(context.Background(), "k1", time.Second)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if got.BatchID != "batch-3" || got.Status != "success" || got.Count != 10 || got.BatchSize != 10 {
		t.Errorf("confirmation = %+v", got)
	}
}

// TestListenerRejectsInvalidConfirmations tests callback validation
func TestListenerRejectsInvalidConfirmations(t *testing.T) {
	listener := NewListener("127.0.0.1:0")
	if err := listener.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer listener.Shutdown(context.Background())

	tests := []struct {
		name string
		body string
	}{
		{"not JSON", `{{{`},
		{"missing batch ID", `{"status":"success","count":1,"idempotency_key":"k"}`},
		{"unknown status", `{"batch_id":"batch-1","status":"maybe","count":1,"idempotency_key":"k"}`},
		{"negative count", `{"batch_id":"batch-1","status":"success","count":-1,"idempotency_key":"k"}`},
		{"missing key", `{"batch_id":"batch-1","status":"success","count":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(listener.URL(), "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

// TestListenerAwaitTimeout tests the wait deadline
func TestListenerAwaitTimeout(t *testing.T) {
	listener := NewListener("127.0.0.1:0")
	if err := listener.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer listener.Shutdown(context.Background())

	listener.Expect("never")
	if _, err := listener.Await(context.Background(), "never", 30*time.Millisecond); err == nil {
		t.Fatal("Await returned without a confirmation, want timeout error")
	}
}

// TestListenerAwaitUnregisteredKey tests Await without a prior Expect
func TestListenerAwaitUnregisteredKey(t *testing.T) {
	listener := NewListener("127.0.0.1:0")
	if err := listener.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer listener.Shutdown(context.Background())

	if _, err := listener.Await(context.Background(), "unknown", time.Second); err == nil {
		t.Fatal("Await for unregistered key succeeded, want error")
	}
}
