package wetlib

import "sync"

// KVStore is the durable string-keyed storage consumed by wetlib. There are
// no ordering guarantees across keys; every write is awaited by callers
// before the owning operation reports completion.
type KVStore interface {
	// Get returns the value for key. ok is false when the key is absent;
	// absence is a normal outcome, not an error.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string) error
}

// Persisted state keys shared with the original mobile client.
const (
	keyPendingActions = "pending_actions"
	keyFailedActions  = "failed_actions"
	keyCachedRecords  = "cached_locations"
	keyCachedAreas    = "cached_maps_metadata"
	keyLastSyncTime   = "last_sync_time"
)

// MemStore is an in-memory KVStore used by tests and ephemeral runs.
type MemStore struct {
	kv map[string]string
	mu sync.RWMutex
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{kv: make(map[string]string)}
}

// Get returns the value for key.
func (m *MemStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

// Delete removes key.
func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

var _ KVStore = (*MemStore)(nil)
