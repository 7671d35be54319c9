package checkpoint

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/concave-dev/batchd/internal/coordinator"
)

// InMemoryStore is a checkpoint store for tests and ephemeral deployments
// where durability across process restarts is not needed. Checkpoints are
// round-tripped through JSON so in-memory behavior matches the durable store
// byte for byte, including serialization failures.
type InMemoryStore struct {
	mu          sync.Mutex
	checkpoints []*Checkpoint
	next        uint64
}

// NewInMemoryStore creates an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{next: 1}
}

// SaveState stores a copy of the state as a new version, pruning beyond the
// retention window.
func (s *InMemoryStore) SaveState(state *coordinator.CoordinatorState) (*Checkpoint, error) {
	blob, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	var copied coordinator.CoordinatorState
	if err := json.Unmarshal(blob, &copied); err != nil {
		return nil, fmt.Errorf("failed to copy checkpoint state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := &Checkpoint{
		Version: s.next,
		SavedAt: time.Now().UTC(),
		State:   &copied,
	}
	s.next++
	s.checkpoints = append(s.checkpoints, cp)
	if len(s.checkpoints) > RetainedCheckpoints {
		s.checkpoints = s.checkpoints[len(s.checkpoints)-RetainedCheckpoints:]
	}
	return cp, nil
}

// LoadLatest returns the most recent checkpoint, or nil when empty.
func (s *InMemoryStore) LoadLatest() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.checkpoints) == 0 {
		return nil, nil
	}
	return s.checkpoints[len(s.checkpoints)-1], nil
}

// LoadVersion returns a specific retained version.
func (s *InMemoryStore) LoadVersion(version uint64) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cp := range s.checkpoints {
		if cp.Version == version {
			return cp, nil
		}
	}
	return nil, fmt.Errorf("checkpoint version %d not found", version)
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
