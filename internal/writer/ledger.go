package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pebble "github.com/cockroachdb/pebble"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/logging"
)

// Key prefixes inside the ledger database. Batch records and per-request
// records live in the same keyspace, distinguished by prefix.
const (
	batchKeyPrefix  = "batch:"
	recordKeyPrefix = "record:"
)

// BatchRecord is the durable form of a committed batch in the ledger.
type BatchRecord struct {
	BatchID   string    `json:"batch_id"`
	Count     int       `json:"count"`
	Keys      []string  `json:"keys"`
	WrittenAt time.Time `json:"written_at"`
}

// Record is the durable form of a single written request, keyed by its
// idempotency key so producers can audit what a given key resolved to.
type Record struct {
	BatchID        string          `json:"batch_id"`
	OriginatorID   string          `json:"originator_id"`
	Payload        json.RawMessage `json:"payload"`
	SequenceNumber uint64          `json:"sequence_number"`
	WrittenAt      time.Time       `json:"written_at"`
}

// Ledger is the Pebble-backed destination for committed batches. Each flush
// becomes one atomic Pebble batch containing a record per request plus a
// batch summary, committed with fsync before success is reported.
//
// Atomicity is what makes the coordinator's failure handling sound: a write
// either lands completely or not at all, so a re-queued batch can be retried
// without checking for partial state.
type Ledger struct {
	db   *pebble.DB
	path string
}

// NewLedger opens (or creates) the ledger database under the given data
// directory.
func NewLedger(dataDir string) (*Ledger, error) {
	path := filepath.Join(dataDir, "ledger")
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger at %s: %w", path, err)
	}

	logging.Info("Ledger: Opened batch ledger at %s", path)
	return &Ledger{db: db, path: path}, nil
}

// Close flushes and closes the underlying database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Write commits a batch atomically: one record per request plus the batch
// summary, all in a single fsynced Pebble batch. Implements
// coordinator.WriteTask.
func (l *Ledger) Write(ctx context.Context, batchID string, requests []coordinator.WriteRequest) (*coordinator.BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	writtenAt := time.Now().UTC()
	wb := l.db.NewBatch()
	defer wb.Close()

	keys := make([]string, len(requests))
	for i, req := range requests {
		keys[i] = req.IdempotencyKey
		record, err := json.Marshal(Record{
			BatchID:        batchID,
			OriginatorID:   req.OriginatorID,
			Payload:        req.Payload,
			SequenceNumber: req.SequenceNumber,
			WrittenAt:      writtenAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record for key %s: %w", req.IdempotencyKey, err)
		}
		if err := wb.Set([]byte(recordKeyPrefix+req.IdempotencyKey), record, nil); err != nil {
			return nil, fmt.Errorf("failed to stage record for key %s: %w", req.IdempotencyKey, err)
		}
	}

	summary, err := json.Marshal(BatchRecord{
		BatchID:   batchID,
		Count:     len(requests),
		Keys:      keys,
		WrittenAt: writtenAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch summary: %w", err)
	}
	if err := wb.Set([]byte(batchKeyPrefix+batchID), summary, nil); err != nil {
		return nil, fmt.Errorf("failed to stage batch summary: %w", err)
	}

	if err := wb.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to commit %s: %w", batchID, err)
	}

	return &coordinator.BatchResult{
		BatchID:   batchID,
		Status:    coordinator.StatusSuccess,
		Count:     len(requests),
		WrittenAt: writtenAt,
	}, nil
}

// GetBatch returns the summary of a committed batch, or pebble.ErrNotFound.
func (l *Ledger) GetBatch(batchID string) (*BatchRecord, error) {
	value, closer, err := l.db.Get([]byte(batchKeyPrefix + batchID))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var record BatchRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("corrupt batch record for %s: %w", batchID, err)
	}
	return &record, nil
}

// GetRecord returns the written record for an idempotency key, or
// pebble.ErrNotFound when the key was never part of a committed batch.
func (l *Ledger) GetRecord(key string) (*Record, error) {
	value, closer, err := l.db.Get([]byte(recordKeyPrefix + key))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var record Record
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("corrupt record for key %s: %w", key, err)
	}
	return &record, nil
}
