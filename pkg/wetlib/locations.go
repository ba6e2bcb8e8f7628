package wetlib

import (
	"encoding/json"

	"github.com/adaav/wetmap/pkg/logger"
)

// LocationCache holds the last successfully fetched record snapshot for
// offline reads. There is no merge logic: Replace swaps the whole set.
type LocationCache struct {
	kv      KVStore
	log     logger.Logger
	subject *Subject[[]LocationRecord]
}

// NewLocationCache creates a cache persisting to kv.
func NewLocationCache(kv KVStore, log logger.Logger) *LocationCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &LocationCache{
		kv:      kv,
		log:     log,
		subject: NewSubject([]LocationRecord{}),
	}
}

// Load reads the persisted snapshot. Absent or corrupt data yields an
// empty cache.
func (c *LocationCache) Load() error {
	raw, ok, err := c.kv.Get(keyCachedRecords)
	if err != nil {
		return storeErr("load records", keyCachedRecords, err)
	}
	var records []LocationRecord
	if ok {
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			c.log.Warning("cached records corrupt, starting empty: %v", err)
			records = nil
		}
	}
	if records == nil {
		records = []LocationRecord{}
	}
	c.subject.Publish(records)
	c.log.Debug("loaded %d cached records", len(records))
	return nil
}

// Replace persists and publishes records as the new snapshot.
func (c *LocationCache) Replace(records []LocationRecord) error {
	if records == nil {
		records = []LocationRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return storeErr("encode records", keyCachedRecords, err)
	}
	if err := c.kv.Set(keyCachedRecords, string(raw)); err != nil {
		return storeErr("persist records", keyCachedRecords, err)
	}
	c.subject.Publish(records)
	c.log.Info("cached %d records", len(records))
	return nil
}

// Current returns the snapshot synchronously.
func (c *LocationCache) Current() []LocationRecord {
	cur := c.subject.Value()
	out := make([]LocationRecord, len(cur))
	copy(out, cur)
	return out
}

// Subscribe registers fn on the snapshot stream with immediate delivery.
func (c *LocationCache) Subscribe(fn func([]LocationRecord)) (cancel func()) {
	return c.subject.Subscribe(fn)
}

// Clear removes the persisted snapshot and publishes an empty set.
func (c *LocationCache) Clear() error {
	if err := c.kv.Delete(keyCachedRecords); err != nil {
		return storeErr("clear records", keyCachedRecords, err)
	}
	c.subject.Publish([]LocationRecord{})
	return nil
}
