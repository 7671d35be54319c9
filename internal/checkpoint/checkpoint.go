// Package checkpoint persists coordinator state across handoff generations
// and daemon restarts. Each handoff writes a versioned checkpoint; boot loads
// the latest one so the coordinator resumes with its pending queue, dedup
// reservations, and counters intact.
//
// STORAGE MODEL:
// Checkpoints are numbered by a monotonic version. The store keeps a bounded
// window of recent versions for post-incident inspection and prunes older
// ones on each save, so checkpoint storage stays O(retained window) no
// matter how long the daemon runs.
package checkpoint

import (
	"fmt"
	"time"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/logging"
)

// RetainedCheckpoints is how many recent checkpoint versions the store keeps.
// Older versions are pruned on save.
const RetainedCheckpoints = 5

// Checkpoint wraps coordinator state with storage metadata.
type Checkpoint struct {
	Version uint64                        `json:"version"`  // Monotonic, assigned by the store
	SavedAt time.Time                     `json:"saved_at"` // When the checkpoint was written
	State   *coordinator.CoordinatorState `json:"state"`    // The persisted coordinator state
}

// Store defines the storage interface for checkpoints. Implementations must
// assign versions monotonically and keep SaveState atomic: a crash mid-save
// leaves the previous version loadable.
type Store interface {
	SaveState(state *coordinator.CoordinatorState) (*Checkpoint, error)
	LoadLatest() (*Checkpoint, error) // nil, nil when no checkpoint exists
	LoadVersion(version uint64) (*Checkpoint, error)
	Close() error
}

// Manager adapts a Store to the coordinator's StateSink interface and adds
// logging around checkpoint traffic. The coordinator calls Persist at every
// handoff and on shutdown; the daemon calls Restore once at boot.
type Manager struct {
	store Store
}

// NewManager creates a checkpoint manager over the given store.
func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	return &Manager{store: store}, nil
}

// Persist saves a coordinator state snapshot. Implements
// coordinator.StateSink.
func (m *Manager) Persist(state *coordinator.CoordinatorState) error {
	cp, err := m.store.SaveState(state)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	logging.Debug("Checkpoint: Saved version %d (%d pending, %d keys)",
		cp.Version, len(state.Pending), len(state.Dedup))
	return nil
}

// Restore loads the most recent checkpoint's state, or nil when the store is
// empty and the coordinator should start fresh.
func (m *Manager) Restore() (*coordinator.CoordinatorState, error) {
	cp, err := m.store.LoadLatest()
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		logging.Info("Checkpoint: No previous checkpoint, starting fresh")
		return nil, nil
	}
	logging.Info("Checkpoint: Restoring version %d saved at %s",
		cp.Version, cp.SavedAt.Format(time.RFC3339))
	return cp.State, nil
}
