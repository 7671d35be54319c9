package coordinator

import "sync"

// DedupSet tracks idempotency keys that have been admitted but not yet
// durably written. Safe for concurrent use: the coordinator loop mutates it
// while API handlers serve duplicate-check queries through read locks.
//
// MEMBERSHIP INVARIANT:
// A key is in the set exactly while its request sits in the pending queue or
// in a batch being written. Keys are removed only after a successful write;
// a failed write keeps them reserved so producer retries stay deduplicated
// until the batch eventually commits.
type DedupSet struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewDedupSet creates a dedup set, optionally seeded with keys restored from
// a checkpoint.
func NewDedupSet(initial []string) *DedupSet {
	keys := make(map[string]struct{}, len(initial))
	for _, k := range initial {
		keys[k] = struct{}{}
	}
	return &DedupSet{keys: keys}
}

// Contains reports whether a key is currently reserved.
func (d *DedupSet) Contains(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.keys[key]
	return ok
}

// Add reserves a key. Returns false if the key was already present, which is
// how admission detects duplicate submissions.
func (d *DedupSet) Add(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[key]; ok {
		return false
	}
	d.keys[key] = struct{}{}
	return true
}

// RemoveAll releases the keys of a successfully written batch.
func (d *DedupSet) RemoveAll(keys []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range keys {
		delete(d.keys, k)
	}
}

// Replace swaps the entire set for the given keys. Used at handoff to rebuild
// the set from the pending queue, dropping reservations for batches that
// already committed.
func (d *DedupSet) Replace(keys []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		d.keys[k] = struct{}{}
	}
}

// Len returns the number of reserved keys.
func (d *DedupSet) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.keys)
}

// Keys returns the reserved keys in unspecified order for checkpoint capture.
func (d *DedupSet) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.keys) == 0 {
		return nil
	}
	keys := make([]string, 0, len(d.keys))
	for k := range d.keys {
		keys = append(keys, k)
	}
	return keys
}
