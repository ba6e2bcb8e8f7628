package wetlib

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/adaav/wetmap/pkg/logger"
)

// ActionQueue is the ordered durable list of not-yet-applied mutations.
// Actions are presented strictly in FIFO insertion order. Every change is
// persisted as a single write of the whole serialized list before the
// in-memory state is considered committed.
type ActionQueue struct {
	kv      KVStore
	log     logger.Logger
	mu      sync.Mutex
	actions []PendingAction
	subject *Subject[[]PendingAction]
}

// NewActionQueue creates a queue persisting to kv. Pass a nil log to
// silence it.
func NewActionQueue(kv KVStore, log logger.Logger) *ActionQueue {
	if log == nil {
		log = logger.NewNop()
	}
	return &ActionQueue{
		kv:      kv,
		log:     log,
		subject: NewSubject([]PendingAction{}),
	}
}

// Load reads the persisted list. Absent or corrupt data yields an empty
// queue, never an error: a broken blob must not brick the app on start.
func (q *ActionQueue) Load() error {
	raw, ok, err := q.kv.Get(keyPendingActions)
	if err != nil {
		return storeErr("load queue", keyPendingActions, err)
	}
	var actions []PendingAction
	if ok {
		if err := json.Unmarshal([]byte(raw), &actions); err != nil {
			q.log.Warning("pending actions corrupt, starting empty: %v", err)
			actions = nil
		}
	}
	q.mu.Lock()
	q.actions = actions
	q.mu.Unlock()
	q.subject.Publish(q.Snapshot())
	q.log.Debug("loaded %d pending actions", len(actions))
	return nil
}

// Append validates the mutation, assigns it an id and creation time,
// persists the grown list and publishes it. The durable write happens
// before the in-memory append; a persist failure surfaces as a
// StorageError and leaves the queue unchanged.
func (q *ActionQueue) Append(kind ActionKind, endpoint, recordID string, payload json.RawMessage) (PendingAction, error) {
	now := time.Now()
	action := PendingAction{
		ID:        newActionID(now),
		Kind:      kind,
		Endpoint:  endpoint,
		RecordID:  recordID,
		Payload:   payload,
		CreatedAt: now,
	}
	if err := action.Validate(); err != nil {
		return PendingAction{}, err
	}

	q.mu.Lock()
	grown := make([]PendingAction, len(q.actions), len(q.actions)+1)
	copy(grown, q.actions)
	grown = append(grown, action)
	if err := q.persistLocked(grown); err != nil {
		q.mu.Unlock()
		return PendingAction{}, err
	}
	q.actions = grown
	q.mu.Unlock()

	q.subject.Publish(q.Snapshot())
	q.log.Info("queued %s %s (%d pending)", kind, endpoint, len(grown))
	return action, nil
}

// Replace swaps the whole queue for actions, persisting it as one write.
// Used by the sync engine after a drain pass. On persist failure the
// previous in-memory queue stays authoritative.
func (q *ActionQueue) Replace(actions []PendingAction) error {
	q.mu.Lock()
	if err := q.persistLocked(actions); err != nil {
		q.mu.Unlock()
		return err
	}
	q.actions = actions
	q.mu.Unlock()
	q.subject.Publish(q.Snapshot())
	return nil
}

// RemoveByIDs drops the listed ids from the queue in a single persisted
// write, preserving the order of the survivors.
func (q *ActionQueue) RemoveByIDs(ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	q.mu.Lock()
	kept := make([]PendingAction, 0, len(q.actions))
	for _, a := range q.actions {
		if _, gone := drop[a.ID]; !gone {
			kept = append(kept, a)
		}
	}
	if err := q.persistLocked(kept); err != nil {
		q.mu.Unlock()
		return err
	}
	q.actions = kept
	q.mu.Unlock()
	q.subject.Publish(q.Snapshot())
	return nil
}

// Snapshot returns a copy of the queue in FIFO order.
func (q *ActionQueue) Snapshot() []PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingAction, len(q.actions))
	copy(out, q.actions)
	return out
}

// Len returns the number of pending actions.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Subscribe registers fn on the queue's change stream. fn immediately
// receives the current queue.
func (q *ActionQueue) Subscribe(fn func([]PendingAction)) (cancel func()) {
	return q.subject.Subscribe(fn)
}

func (q *ActionQueue) persistLocked(actions []PendingAction) error {
	if actions == nil {
		actions = []PendingAction{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return storeErr("encode queue", keyPendingActions, err)
	}
	if err := q.kv.Set(keyPendingActions, string(raw)); err != nil {
		return storeErr("persist queue", keyPendingActions, err)
	}
	return nil
}
