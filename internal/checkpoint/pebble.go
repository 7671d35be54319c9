package checkpoint

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	pebble "github.com/cockroachdb/pebble"

	"github.com/concave-dev/batchd/internal/coordinator"
	"github.com/concave-dev/batchd/internal/logging"
)

// Versioned checkpoints live under cp:<big-endian version> so a forward
// iteration visits them oldest-first and the last key is always the latest.
var checkpointPrefix = []byte("cp:")

// PebbleStore is the durable checkpoint store backed by a Pebble database
// in the daemon's data directory.
type PebbleStore struct {
	mu   sync.Mutex
	db   *pebble.DB
	next uint64 // next version to assign
}

// NewPebbleStore opens (or creates) the checkpoint database under the given
// data directory and recovers the version counter from existing checkpoints.
func NewPebbleStore(dataDir string) (*PebbleStore, error) {
	path := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store at %s: %w", path, err)
	}

	s := &PebbleStore{db: db, next: 1}
	latest, err := s.latestVersion()
	if err != nil {
		db.Close()
		return nil, err
	}
	s.next = latest + 1

	logging.Info("Checkpoint: Opened store at %s (next version: %d)", path, s.next)
	return s, nil
}

// Close flushes and closes the underlying database.
func (s *PebbleStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveState writes a new checkpoint version with fsync and prunes versions
// beyond the retention window.
func (s *PebbleStore) SaveState(state *coordinator.CoordinatorState) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := &Checkpoint{
		Version: s.next,
		SavedAt: time.Now().UTC(),
		State:   state,
	}

	blob, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := s.db.Set(versionKey(cp.Version), blob, pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to write checkpoint %d: %w", cp.Version, err)
	}
	s.next++

	if err := s.prune(); err != nil {
		// Retention is best effort; the new checkpoint is already durable.
		logging.Warn("Checkpoint: Failed to prune old versions: %v", err)
	}

	return cp, nil
}

// LoadLatest returns the highest checkpoint version, or nil when the store
// is empty.
func (s *PebbleStore) LoadLatest() (*Checkpoint, error) {
	it, err := s.newIter()
	if err != nil {
		return nil, err
	}
	defer it.Close()

	if !it.Last() {
		return nil, nil
	}
	return decodeCheckpoint(it.Value())
}

// LoadVersion returns a specific retained checkpoint version.
func (s *PebbleStore) LoadVersion(version uint64) (*Checkpoint, error) {
	value, closer, err := s.db.Get(versionKey(version))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("checkpoint version %d not found", version)
		}
		return nil, err
	}
	defer closer.Close()
	return decodeCheckpoint(value)
}

// latestVersion scans for the highest stored version during startup.
func (s *PebbleStore) latestVersion() (uint64, error) {
	it, err := s.newIter()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	if !it.Last() {
		return 0, nil
	}
	return parseVersion(it.Key())
}

// prune deletes versions older than the retention window.
func (s *PebbleStore) prune() error {
	it, err := s.newIter()
	if err != nil {
		return err
	}
	defer it.Close()

	var versions []uint64
	for ok := it.First(); ok; ok = it.Next() {
		v, err := parseVersion(it.Key())
		if err != nil {
			return err
		}
		versions = append(versions, v)
	}

	for len(versions) > RetainedCheckpoints {
		if err := s.db.Delete(versionKey(versions[0]), pebble.NoSync); err != nil {
			return err
		}
		versions = versions[1:]
	}
	return nil
}

// newIter returns an iterator bounded to the checkpoint keyspace.
func (s *PebbleStore) newIter() (*pebble.Iterator, error) {
	upper := make([]byte, len(checkpointPrefix))
	copy(upper, checkpointPrefix)
	upper[len(upper)-1]++ // "cp;" bounds all "cp:..." keys

	return s.db.NewIter(&pebble.IterOptions{
		LowerBound: checkpointPrefix,
		UpperBound: upper,
	})
}

func versionKey(version uint64) []byte {
	key := make([]byte, len(checkpointPrefix)+8)
	copy(key, checkpointPrefix)
	binary.BigEndian.PutUint64(key[len(checkpointPrefix):], version)
	return key
}

func parseVersion(key []byte) (uint64, error) {
	if !bytes.HasPrefix(key, checkpointPrefix) || len(key) != len(checkpointPrefix)+8 {
		return 0, fmt.Errorf("malformed checkpoint key %q", key)
	}
	return binary.BigEndian.Uint64(key[len(checkpointPrefix):]), nil
}

func decodeCheckpoint(value []byte) (*Checkpoint, error) {
	var cp Checkpoint
	if err := json.Unmarshal(value, &cp); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint record: %w", err)
	}
	return &cp, nil
}
