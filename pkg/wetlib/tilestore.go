package wetlib

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/adaav/wetmap/pkg/logger"
)

// cacheDirName mirrors the directory layout of the original mobile client,
// so a migrated data directory keeps working.
const cacheDirName = "map-cache"

// AreaMeta describes one cached map area. Name is the unique key: saving
// metadata under an existing name replaces that entry.
type AreaMeta struct {
	Name           string    `json:"name"`
	Bounds         Bounds    `json:"bounds"`
	MinZoom        int       `json:"minZoom"`
	MaxZoom        int       `json:"maxZoom"`
	TileCount      int       `json:"tileCount"`
	SizeBytes      int64     `json:"sizeBytes"`
	DownloadedAt   time.Time `json:"downloadedAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

// TileCacheStore persists tile images on a filesystem and area metadata in
// the KVStore. Tile reads that miss are a normal outcome; callers fall
// back to a placeholder tile. All mutations are idempotent.
type TileCacheStore struct {
	fs      afero.Fs
	baseDir string
	kv      KVStore
	log     logger.Logger
	subject *Subject[[]AreaMeta]
}

// NewTileCacheStore creates a store rooted at dataDir on fs. Use
// afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
func NewTileCacheStore(fs afero.Fs, dataDir string, kv KVStore, log logger.Logger) *TileCacheStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &TileCacheStore{
		fs:      fs,
		baseDir: path.Join(dataDir, cacheDirName),
		kv:      kv,
		log:     log,
		subject: NewSubject([]AreaMeta{}),
	}
}

// Load reads persisted area metadata. Absent or corrupt data yields an
// empty listing.
func (s *TileCacheStore) Load() error {
	areas, err := s.readMeta()
	if err != nil {
		return err
	}
	s.subject.Publish(areas)
	s.log.Debug("loaded %d cached areas", len(areas))
	return nil
}

// Areas returns metadata for every cached area.
func (s *TileCacheStore) Areas() []AreaMeta {
	cur := s.subject.Value()
	out := make([]AreaMeta, len(cur))
	copy(out, cur)
	return out
}

// Area returns the metadata entry for name.
func (s *TileCacheStore) Area(name string) (AreaMeta, error) {
	for _, a := range s.subject.Value() {
		if a.Name == name {
			return a, nil
		}
	}
	return AreaMeta{}, ErrAreaNotFound
}

// Subscribe registers fn on the metadata stream with immediate delivery.
func (s *TileCacheStore) Subscribe(fn func([]AreaMeta)) (cancel func()) {
	return s.subject.Subscribe(fn)
}

// tilePath renders the on-disk location of one tile.
func (s *TileCacheStore) tilePath(area string, z, x, y int) string {
	return path.Join(s.baseDir, area, fmt.Sprintf("%d_%d_%d.png", z, x, y))
}

// EnsureArea creates the tile directory for an area. This is the only
// setup step whose failure is fatal for a download.
func (s *TileCacheStore) EnsureArea(name string) error {
	if err := s.fs.MkdirAll(path.Join(s.baseDir, name), 0o755); err != nil {
		return storeErr("create area dir", name, err)
	}
	return nil
}

// Put writes the raw image bytes for one tile.
func (s *TileCacheStore) Put(area string, z, x, y int, data []byte) error {
	p := s.tilePath(area, z, x, y)
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return storeErr("write tile", p, err)
	}
	return nil
}

// Get returns the cached bytes for one tile. ok is false on a miss; the
// error is reserved for real storage failures. A hit touches the area's
// lastAccessedAt best-effort.
func (s *TileCacheStore) Get(area string, z, x, y int) (data []byte, ok bool, err error) {
	p := s.tilePath(area, z, x, y)
	data, err = afero.ReadFile(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, storeErr("read tile", p, err)
	}
	s.touch(area)
	return data, true, nil
}

// SaveArea writes meta into the listing, replacing any entry with the same
// name, and persists the listing as a single write.
func (s *TileCacheStore) SaveArea(meta AreaMeta) error {
	current := s.subject.Value()
	updated := make([]AreaMeta, 0, len(current)+1)
	for _, a := range current {
		if a.Name != meta.Name {
			updated = append(updated, a)
		}
	}
	updated = append(updated, meta)
	if err := s.writeMeta(updated); err != nil {
		return err
	}
	s.subject.Publish(updated)
	return nil
}

// DeleteArea removes an area's tiles and metadata entry. Deleting an
// unknown area is a no-op.
func (s *TileCacheStore) DeleteArea(name string) error {
	if err := s.fs.RemoveAll(path.Join(s.baseDir, name)); err != nil {
		return storeErr("remove area dir", name, err)
	}
	current := s.subject.Value()
	updated := make([]AreaMeta, 0, len(current))
	for _, a := range current {
		if a.Name != name {
			updated = append(updated, a)
		}
	}
	if len(updated) == len(current) {
		return nil
	}
	if err := s.writeMeta(updated); err != nil {
		return err
	}
	s.subject.Publish(updated)
	s.log.Info("deleted cached area %q", name)
	return nil
}

// PurgeTiles removes an area's tile files but leaves its metadata alone.
// The downloader calls this before re-downloading a name so stale tiles
// from a different bounding box cannot linger.
func (s *TileCacheStore) PurgeTiles(name string) error {
	if err := s.fs.RemoveAll(path.Join(s.baseDir, name)); err != nil {
		return storeErr("purge area tiles", name, err)
	}
	return nil
}

// ClearAll removes every cached tile and all metadata.
func (s *TileCacheStore) ClearAll() error {
	if err := s.fs.RemoveAll(s.baseDir); err != nil {
		return storeErr("clear tile cache", s.baseDir, err)
	}
	if err := s.writeMeta([]AreaMeta{}); err != nil {
		return err
	}
	s.subject.Publish([]AreaMeta{})
	s.log.Info("cleared tile cache")
	return nil
}

// TotalSizeBytes sums the recorded size of all cached areas.
func (s *TileCacheStore) TotalSizeBytes() int64 {
	var total int64
	for _, a := range s.subject.Value() {
		total += a.SizeBytes
	}
	return total
}

// touch refreshes lastAccessedAt for an area. Failures only get a debug
// line; access stamping must never break a tile read.
func (s *TileCacheStore) touch(name string) {
	current := s.subject.Value()
	updated := make([]AreaMeta, len(current))
	copy(updated, current)
	var found bool
	for i := range updated {
		if updated[i].Name == name {
			updated[i].LastAccessedAt = time.Now()
			found = true
			break
		}
	}
	if !found {
		return
	}
	if err := s.writeMeta(updated); err != nil {
		s.log.Debug("touch area %q: %v", name, err)
		return
	}
	s.subject.Publish(updated)
}

func (s *TileCacheStore) readMeta() ([]AreaMeta, error) {
	raw, ok, err := s.kv.Get(keyCachedAreas)
	if err != nil {
		return nil, storeErr("load areas", keyCachedAreas, err)
	}
	var areas []AreaMeta
	if ok {
		if err := json.Unmarshal([]byte(raw), &areas); err != nil {
			s.log.Warning("area metadata corrupt, starting empty: %v", err)
			areas = nil
		}
	}
	if areas == nil {
		areas = []AreaMeta{}
	}
	return areas, nil
}

func (s *TileCacheStore) writeMeta(areas []AreaMeta) error {
	raw, err := json.Marshal(areas)
	if err != nil {
		return storeErr("encode areas", keyCachedAreas, err)
	}
	if err := s.kv.Set(keyCachedAreas, string(raw)); err != nil {
		return storeErr("persist areas", keyCachedAreas, err)
	}
	return nil
}
