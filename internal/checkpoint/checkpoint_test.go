package checkpoint

import (
	"testing"

	"github.com/concave-dev/batchd/internal/coordinator"
)

func sampleState(batches int) *coordinator.CoordinatorState {
	return &coordinator.CoordinatorState{
		Pending: []coordinator.WriteRequest{
			{IdempotencyKey: "k1", OriginatorID: "producer-a", Payload: []byte(`{"v":1}`), SequenceNumber: 1},
		},
		Dedup:            []string{"k1"},
		BatchesCompleted: batches,
		HandoffCycle:     2,
		Sequence:         9,
	}
}

// storeFactories lets every test run against both store implementations so
// their behavior cannot drift apart.
var storeFactories = map[string]func(t *testing.T) Store{
	"pebble": func(t *testing.T) Store {
		s, err := NewPebbleStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewPebbleStore failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	},
	"memory": func(t *testing.T) Store {
		return NewInMemoryStore()
	},
}

// TestStoreSaveLoadLatest tests the basic save and restore cycle
func TestStoreSaveLoadLatest(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			if cp, err := store.LoadLatest(); err != nil || cp != nil {
				t.Fatalf("LoadLatest on empty store = (%v, %v), want (nil, nil)", cp, err)
			}

			saved, err := store.SaveState(sampleState(3))
			if err != nil {
				t.Fatalf("SaveState failed: %v", err)
			}
			if saved.Version != 1 {
				t.Errorf("first version = %d, want 1", saved.Version)
			}

			cp, err := store.LoadLatest()
			if err != nil {
				t.Fatalf("LoadLatest failed: %v", err)
			}
			if cp.State.BatchesCompleted != 3 {
				t.Errorf("restored BatchesCompleted = %d, want 3", cp.State.BatchesCompleted)
			}
			if len(cp.State.Pending) != 1 || cp.State.Pending[0].IdempotencyKey != "k1" {
				t.Errorf("restored pending = %+v, want single k1 request", cp.State.Pending)
			}
			if len(cp.State.Dedup) != 1 || cp.State.Dedup[0] != "k1" {
				t.Errorf("restored dedup = %v, want [k1]", cp.State.Dedup)
			}
		})
	}
}

// TestStoreVersioning tests monotonic versions and LoadVersion
func TestStoreVersioning(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			for i := 1; i <= 3; i++ {
				cp, err := store.SaveState(sampleState(i))
				if err != nil {
					t.Fatalf("SaveState %d failed: %v", i, err)
				}
				if cp.Version != uint64(i) {
					t.Errorf("version = %d, want %d", cp.Version, i)
				}
			}

			cp, err := store.LoadVersion(2)
			if err != nil {
				t.Fatalf("LoadVersion(2) failed: %v", err)
			}
			if cp.State.BatchesCompleted != 2 {
				t.Errorf("version 2 BatchesCompleted = %d, want 2", cp.State.BatchesCompleted)
			}

			if _, err := store.LoadVersion(99); err == nil {
				t.Errorf("LoadVersion(99) = nil error, want not found")
			}
		})
	}
}

// TestStoreRetention tests pruning to the retention window
func TestStoreRetention(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			total := RetainedCheckpoints + 3
			for i := 1; i <= total; i++ {
				if _, err := store.SaveState(sampleState(i)); err != nil {
					t.Fatalf("SaveState %d failed: %v", i, err)
				}
			}

			// Latest survives, oldest are pruned.
			cp, err := store.LoadLatest()
			if err != nil || cp.Version != uint64(total) {
				t.Fatalf("LoadLatest = (%+v, %v), want version %d", cp, err, total)
			}
			if _, err := store.LoadVersion(1); err == nil {
				t.Errorf("LoadVersion(1) = nil error, want pruned")
			}
			oldest := uint64(total - RetainedCheckpoints + 1)
			if _, err := store.LoadVersion(oldest); err != nil {
				t.Errorf("LoadVersion(%d) failed: %v, want retained", oldest, err)
			}
		})
	}
}

// TestPebbleStoreReopen tests that versions continue after a reopen
func TestPebbleStoreReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("NewPebbleStore failed: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if _, err := store.SaveState(sampleState(i)); err != nil {
			t.Fatalf("SaveState failed: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewPebbleStore(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	cp, err := reopened.SaveState(sampleState(3))
	if err != nil {
		t.Fatalf("SaveState after reopen failed: %v", err)
	}
	if cp.Version != 3 {
		t.Errorf("version after reopen = %d, want 3", cp.Version)
	}

	latest, err := reopened.LoadLatest()
	if err != nil || latest.State.BatchesCompleted != 3 {
		t.Errorf("LoadLatest after reopen = (%+v, %v), want BatchesCompleted 3", latest, err)
	}
}

// TestManagerPersistRestore tests the StateSink adapter round trip
func TestManagerPersistRestore(t *testing.T) {
	mgr, err := NewManager(NewInMemoryStore())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	state, err := mgr.Restore()
	if err != nil || state != nil {
		t.Fatalf("Restore on empty store = (%v, %v), want (nil, nil)", state, err)
	}

	if err := mgr.Persist(sampleState(7)); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	restored, err := mgr.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.BatchesCompleted != 7 {
		t.Errorf("restored BatchesCompleted = %d, want 7", restored.BatchesCompleted)
	}
}

// TestManagerRequiresStore tests constructor validation
func TestManagerRequiresStore(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Errorf("NewManager(nil) = nil error, want error")
	}
}

// TestInMemoryStoreCopies tests that saved state is detached from the caller
func TestInMemoryStoreCopies(t *testing.T) {
	store := NewInMemoryStore()
	state := sampleState(1)
	if _, err := store.SaveState(state); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	state.BatchesCompleted = 999
	state.Pending[0].IdempotencyKey = "mutated"

	cp, err := store.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if cp.State.BatchesCompleted != 1 {
		t.Errorf("stored state shares memory with caller: BatchesCompleted = %d", cp.State.BatchesCompleted)
	}
	if cp.State.Pending[0].IdempotencyKey != "k1" {
		t.Errorf("stored pending shares memory with caller: key = %s", cp.State.Pending[0].IdempotencyKey)
	}
}
