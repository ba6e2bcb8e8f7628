package wetlib

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// fakeAPI implements RemoteAPI with pluggable behavior per call.
type fakeAPI struct {
	createFn  func(LocationRecord) error
	updateFn  func(string, LocationRecord) error
	deleteFn  func(string) error
	listFn    func() ([]LocationRecord, error)
	listCalls int
}

func (f *fakeAPI) ListRecords(context.Context, RecordFilter) ([]LocationRecord, error) {
	f.listCalls++
	if f.listFn != nil {
		return f.listFn()
	}
	return nil, nil
}

func (f *fakeAPI) CreateRecord(_ context.Context, rec LocationRecord) (LocationRecord, error) {
	if f.createFn != nil {
		return rec, f.createFn(rec)
	}
	return rec, nil
}

func (f *fakeAPI) UpdateRecord(_ context.Context, id string, rec LocationRecord) (LocationRecord, error) {
	if f.updateFn != nil {
		return rec, f.updateFn(id, rec)
	}
	return rec, nil
}

func (f *fakeAPI) DeleteRecord(_ context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	return nil
}

func online() bool { return true }

func newTestEngine(t *testing.T, api RemoteAPI) (*SyncEngine, *ActionQueue, KVStore) {
	t.Helper()
	kv := NewMemStore()
	q := newTestQueue(t, kv)
	cache := NewLocationCache(kv, nil)
	if err := cache.Load(); err != nil {
		t.Fatalf("cache Load: %v", err)
	}
	return NewSyncEngine(q, api, cache, kv, nil), q, kv
}

func TestSyncMixedPass(t *testing.T) {
	api := &fakeAPI{
		updateFn: func(string, LocationRecord) error {
			return &NetworkError{Op: "PUT", Err: errors.New("connection refused")}
		},
		listFn: func() ([]LocationRecord, error) {
			return []LocationRecord{{ID: "1", Title: "pond"}}, nil
		},
	}
	engine, q, _ := newTestEngine(t, api)

	if _, err := q.Append(ActionCreate, EndpointLocations, "", json.RawMessage(`{"title":"a"}`)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	update, err := q.Append(ActionUpdate, EndpointLocations, "2", json.RawMessage(`{"title":"b"}`))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	res, err := engine.Sync(context.Background(), online)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Completed != 1 || res.Failed != 1 || res.Dropped != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	snap := q.Snapshot()
	if len(snap) != 1 || snap[0].ID != update.ID {
		t.Fatalf("queue should keep only the failed update: %v", snap)
	}
	if snap[0].RetryCount != 1 {
		t.Fatalf("RetryCount = %d, want 1", snap[0].RetryCount)
	}
	if engine.LastSyncTime().IsZero() {
		t.Fatalf("expected last sync stamp after a completed action")
	}
	if api.listCalls != 1 {
		t.Fatalf("expected one snapshot refresh, got %d", api.listCalls)
	}
}

func TestSyncEmptyQueueIsNoOp(t *testing.T) {
	api := &fakeAPI{}
	engine, _, _ := newTestEngine(t, api)

	res, err := engine.Sync(context.Background(), online)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Completed != 0 || res.Remaining != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !engine.LastSyncTime().IsZero() {
		t.Fatalf("empty pass must not stamp last sync")
	}
	if api.listCalls != 0 {
		t.Fatalf("empty pass must not refresh the snapshot")
	}
}

func TestSyncOffline(t *testing.T) {
	engine, q, _ := newTestEngine(t, &fakeAPI{})
	if _, err := q.Append(ActionDelete, EndpointLocations, "1", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, err := engine.Sync(context.Background(), func() bool { return false })
	if err != ErrOffline {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("offline pass must not touch the queue")
	}
}

func TestSyncRetryCeilingMovesToLedger(t *testing.T) {
	boom := errors.New("server rejects this forever")
	api := &fakeAPI{
		deleteFn: func(string) error { return boom },
	}
	engine, q, _ := newTestEngine(t, api)
	if _, err := q.Append(ActionDelete, EndpointLocations, "1", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	for pass := 1; pass <= RetryCeiling; pass++ {
		res, err := engine.Sync(context.Background(), online)
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if pass < RetryCeiling {
			if res.Failed != 1 || res.Dropped != 0 {
				t.Fatalf("pass %d: unexpected result %+v", pass, res)
			}
			if got := q.Snapshot()[0].RetryCount; got != pass {
				t.Fatalf("pass %d: RetryCount = %d", pass, got)
			}
		} else {
			if res.Dropped != 1 || res.Failed != 0 {
				t.Fatalf("final pass: unexpected result %+v", res)
			}
		}
	}

	if q.Len() != 0 {
		t.Fatalf("dropped action must leave the queue")
	}
	failed, err := engine.FailedActions()
	if err != nil {
		t.Fatalf("FailedActions: %v", err)
	}
	if len(failed) != 1 || failed[0].Action.RetryCount != RetryCeiling {
		t.Fatalf("unexpected ledger: %+v", failed)
	}
	if failed[0].Reason == "" {
		t.Fatalf("ledger entry must record the failure reason")
	}

	if err := engine.ClearFailed(); err != nil {
		t.Fatalf("ClearFailed: %v", err)
	}
	failed, _ = engine.FailedActions()
	if len(failed) != 0 {
		t.Fatalf("ledger should be empty after ClearFailed")
	}
}

func TestSyncFailTwiceThenSucceed(t *testing.T) {
	attempts := 0
	api := &fakeAPI{
		createFn: func(LocationRecord) error {
			attempts++
			if attempts <= 2 {
				return &NetworkError{Op: "POST", Err: errors.New("timeout")}
			}
			return nil
		},
	}
	engine, q, _ := newTestEngine(t, api)
	if _, err := q.Append(ActionCreate, EndpointLocations, "", json.RawMessage(`{"title":"a"}`)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	for pass := 0; pass < 3; pass++ {
		if _, err := engine.Sync(context.Background(), online); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("action should be applied on the third attempt")
	}
	failed, _ := engine.FailedActions()
	if len(failed) != 0 {
		t.Fatalf("successful action must not reach the ledger")
	}
}

func TestSyncUnknownEndpointEndsInLedger(t *testing.T) {
	engine, q, _ := newTestEngine(t, &fakeAPI{})
	// Seed an action already at the edge of the ceiling so one pass drops it.
	stale := PendingAction{
		ID:         "00000000000000000001-000001",
		Kind:       ActionDelete,
		Endpoint:   EndpointUsers,
		RecordID:   "u1",
		RetryCount: RetryCeiling - 1,
	}
	if err := q.Replace([]PendingAction{stale}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	res, err := engine.Sync(context.Background(), online)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Dropped != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	failed, _ := engine.FailedActions()
	if len(failed) != 1 || failed[0].Action.Endpoint != EndpointUsers {
		t.Fatalf("unexpected ledger: %+v", failed)
	}
}

func TestSyncSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{
		createFn: func(LocationRecord) error {
			close(entered)
			<-release
			return nil
		},
	}
	engine, q, _ := newTestEngine(t, api)
	if _, err := q.Append(ActionCreate, EndpointLocations, "", json.RawMessage(`{"title":"a"}`)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := engine.Sync(context.Background(), online)
		done <- err
	}()

	<-entered
	if !engine.Syncing() {
		t.Fatalf("Syncing should report true mid-pass")
	}
	if _, err := engine.Sync(context.Background(), online); err != ErrSyncInProgress {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if engine.Syncing() {
		t.Fatalf("Syncing should reset after the pass")
	}
}

func TestSyncCanceledContextKeepsQueue(t *testing.T) {
	engine, q, _ := newTestEngine(t, &fakeAPI{})
	if _, err := q.Append(ActionDelete, EndpointLocations, "1", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := engine.Sync(ctx, online)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Completed != 0 || res.Remaining != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := q.Snapshot()[0].RetryCount; got != 0 {
		t.Fatalf("canceled pass must not count as an attempt, RetryCount = %d", got)
	}
}
