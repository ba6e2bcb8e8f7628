package wetlib

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adaav/wetmap/pkg/logger"
)

// RetryCeiling is the number of failed attempts after which an action is
// moved to the failed-action ledger and never retried again.
const RetryCeiling = 3

// FailedAction is a queue entry that crossed the retry ceiling, kept in a
// durable ledger for user review instead of being silently discarded.
type FailedAction struct {
	Action   PendingAction `json:"action"`
	Reason   string        `json:"reason"`
	FailedAt time.Time     `json:"failedAt"`
}

// SyncResult is the aggregate outcome of one drain pass.
type SyncResult struct {
	Completed int // actions applied remotely and removed
	Failed    int // actions that failed this pass but remain queued
	Dropped   int // actions moved to the failed ledger
	Remaining int // queue length after the pass
}

// SyncEngine drains the pending-action queue against the remote API. It is
// a two-state machine (idle/syncing) guarded by a single-flight flag; a
// second Sync call while one runs returns ErrSyncInProgress without
// touching the queue.
type SyncEngine struct {
	queue   *ActionQueue
	api     RemoteAPI
	cache   *LocationCache
	kv      KVStore
	log     logger.Logger
	syncing atomic.Bool
}

// NewSyncEngine wires a sync engine. cache may be nil when the caller does
// not keep an offline snapshot.
func NewSyncEngine(queue *ActionQueue, api RemoteAPI, cache *LocationCache, kv KVStore, log logger.Logger) *SyncEngine {
	if log == nil {
		log = logger.NewNop()
	}
	return &SyncEngine{
		queue: queue,
		api:   api,
		cache: cache,
		kv:    kv,
		log:   log,
	}
}

// Syncing reports whether a drain pass is currently running.
func (e *SyncEngine) Syncing() bool {
	return e.syncing.Load()
}

// BindAutoSync subscribes the engine to the monitor's connectivity stream:
// every transition to online starts a drain pass in its own goroutine. The
// goroutine is panic-isolated so a bad pass cannot take the process down.
func (e *SyncEngine) BindAutoSync(ctx context.Context, m *Monitor) (cancel func()) {
	first := true
	return m.Subscribe(func(connected bool) {
		// The registration replay delivers the current state; only real
		// reconnect transitions trigger a pass.
		if first {
			first = false
			return
		}
		if !connected {
			return
		}
		go func() {
			defer func() {
				if r := recover(); r != nil {
					e.syncing.Store(false)
					e.log.Error("auto-sync panic: %v\n%s", r, debug.Stack())
				}
			}()
			if _, err := e.Sync(ctx, m.Online); err != nil && err != ErrSyncInProgress {
				e.log.Warning("auto-sync: %v", err)
			}
		}()
	})
}

// Sync runs one drain pass. online is consulted once at entry; a pass that
// started online runs to completion even if the link drops mid-way (the
// affected actions simply fail and stay queued). An empty queue is a
// successful no-op. Individual remote failures never abort the pass; only
// a failure to persist the post-pass queue does.
func (e *SyncEngine) Sync(ctx context.Context, online func() bool) (SyncResult, error) {
	var res SyncResult
	if !e.syncing.CompareAndSwap(false, true) {
		return res, ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	if online != nil && !online() {
		return res, ErrOffline
	}
	snapshot := e.queue.Snapshot()
	res.Remaining = len(snapshot)
	if len(snapshot) == 0 {
		return res, nil
	}

	pass := uuid.NewString()[:8]
	e.log.Info("sync %s: draining %d actions", pass, len(snapshot))

	completed := make(map[string]struct{})
	var dropped []FailedAction
	remaining := make([]PendingAction, 0, len(snapshot))

	for i := range snapshot {
		action := snapshot[i]
		if err := ctx.Err(); err != nil {
			// Canceled mid-pass: keep the rest untouched for the next run.
			remaining = append(remaining, action)
			continue
		}
		err := e.apply(ctx, action)
		if err == nil {
			completed[action.ID] = struct{}{}
			e.log.Info("sync %s: applied %s %s %s", pass, action.Kind, action.Endpoint, action.ID)
			continue
		}
		action.RetryCount++
		if action.RetryCount >= RetryCeiling {
			dropped = append(dropped, FailedAction{
				Action:   action,
				Reason:   err.Error(),
				FailedAt: time.Now(),
			})
			e.log.Error("sync %s: %s %s gave up after %d attempts: %v",
				pass, action.Kind, action.ID, action.RetryCount, err)
			continue
		}
		remaining = append(remaining, action)
		if isTransient(err) {
			e.log.Warning("sync %s: %s %s failed (attempt %d/%d), will retry: %v",
				pass, action.Kind, action.ID, action.RetryCount, RetryCeiling, err)
		} else {
			e.log.Warning("sync %s: %s %s rejected (attempt %d/%d): %v",
				pass, action.Kind, action.ID, action.RetryCount, RetryCeiling, err)
		}
	}

	// The failed ledger is written before the queue shrinks so a crash
	// between the two writes duplicates a failure rather than losing it.
	if len(dropped) > 0 {
		if err := e.appendFailed(dropped); err != nil {
			e.log.Error("sync %s: cannot record failed actions: %v", pass, err)
		}
	}
	if err := e.queue.Replace(remaining); err != nil {
		return res, err
	}

	res.Completed = len(completed)
	res.Failed = len(remaining)
	res.Dropped = len(dropped)
	res.Remaining = len(remaining)

	if res.Completed > 0 {
		e.stampLastSync()
		e.refreshCache(ctx)
	}
	e.log.Info("sync %s: %d applied, %d kept, %d dropped", pass, res.Completed, res.Failed, res.Dropped)
	return res, nil
}

// apply performs one action against the remote API.
func (e *SyncEngine) apply(ctx context.Context, action PendingAction) error {
	if action.Endpoint != EndpointLocations {
		// The client only mutates locations; anything else can never be
		// applied and goes straight to the failed ledger.
		return fmt.Errorf("no handler for endpoint %q", action.Endpoint)
	}
	switch action.Kind {
	case ActionCreate:
		rec, err := decodeRecord(action.Payload)
		if err != nil {
			return err
		}
		_, err = e.api.CreateRecord(ctx, rec)
		return err
	case ActionUpdate:
		rec, err := decodeRecord(action.Payload)
		if err != nil {
			return err
		}
		_, err = e.api.UpdateRecord(ctx, action.RecordID, rec)
		return err
	case ActionDelete:
		return e.api.DeleteRecord(ctx, action.RecordID)
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

func decodeRecord(payload json.RawMessage) (LocationRecord, error) {
	var rec LocationRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return rec, fmt.Errorf("decode payload: %w", err)
	}
	return rec, nil
}

// refreshCache replaces the offline snapshot from the remote. Refresh
// errors are logged, never fatal: the pass already succeeded.
func (e *SyncEngine) refreshCache(ctx context.Context) {
	if e.cache == nil {
		return
	}
	records, err := e.api.ListRecords(ctx, RecordFilter{})
	if err != nil {
		e.log.Warning("refresh after sync: %v", err)
		return
	}
	if err := e.cache.Replace(records); err != nil {
		e.log.Error("refresh after sync: %v", err)
	}
}

func (e *SyncEngine) stampLastSync() {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := e.kv.Set(keyLastSyncTime, now); err != nil {
		e.log.Error("stamp last sync: %v", err)
	}
}

// LastSyncTime returns the time of the last pass that applied at least one
// action, or the zero time when none has.
func (e *SyncEngine) LastSyncTime() time.Time {
	raw, ok, err := e.kv.Get(keyLastSyncTime)
	if err != nil || !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// FailedActions returns the durable ledger of retry-exhausted actions.
func (e *SyncEngine) FailedActions() ([]FailedAction, error) {
	raw, ok, err := e.kv.Get(keyFailedActions)
	if err != nil {
		return nil, storeErr("load failed ledger", keyFailedActions, err)
	}
	if !ok {
		return nil, nil
	}
	var failed []FailedAction
	if err := json.Unmarshal([]byte(raw), &failed); err != nil {
		e.log.Warning("failed ledger corrupt, treating as empty: %v", err)
		return nil, nil
	}
	return failed, nil
}

// ClearFailed empties the failed-action ledger.
func (e *SyncEngine) ClearFailed() error {
	if err := e.kv.Delete(keyFailedActions); err != nil {
		return storeErr("clear failed ledger", keyFailedActions, err)
	}
	return nil
}

func (e *SyncEngine) appendFailed(add []FailedAction) error {
	existing, err := e.FailedActions()
	if err != nil {
		return err
	}
	merged := append(existing, add...)
	raw, err := json.Marshal(merged)
	if err != nil {
		return storeErr("encode failed ledger", keyFailedActions, err)
	}
	if err := e.kv.Set(keyFailedActions, string(raw)); err != nil {
		return storeErr("persist failed ledger", keyFailedActions, err)
	}
	return nil
}
