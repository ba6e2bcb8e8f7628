package wetlib

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeFetcher serves fixed bytes and fails the URLs listed in fail.
type fakeFetcher struct {
	mu    sync.Mutex
	data  []byte
	fail  map[string]bool
	block chan struct{}
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls++
	failed := f.fail[url]
	f.mu.Unlock()
	if failed {
		return nil, &NetworkError{Op: "GET", URL: url, Err: errors.New("mirror unavailable")}
	}
	return f.data, nil
}

var testBounds = Bounds{North: 35.2, South: 35.0, East: 33.5, West: 33.3}

func newTestDownloader(t *testing.T, fetcher TileFetcher, handlers *DownloadHandlers) (*AreaDownloader, *TileCacheStore) {
	t.Helper()
	store := newTestTileStore(t)
	dl := NewAreaDownloader(store, fetcher, &AreaDownloaderOpts{
		Mirrors:  []string{"https://t.example"},
		Handlers: handlers,
	})
	return dl, store
}

func TestDownloadAreaFetchesEveryTile(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("png")}
	var fetched, completeCalls int
	var last Progress
	dl, store := newTestDownloader(t, fetcher, &DownloadHandlers{
		TileFetchedHandler: func(_ Tile, _ int64, completed, total int) {
			fetched++
			last = Progress{Completed: completed, Total: total}
		},
		AreaCompleteHandler: func(AreaMeta) { completeCalls++ },
	})

	tiles, err := TilesForArea([]string{"https://t.example"}, testBounds, 10, 11)
	if err != nil {
		t.Fatalf("TilesForArea: %v", err)
	}
	total := len(tiles)

	meta, err := dl.DownloadArea(context.Background(), "akrotiri", testBounds, 10, 11)
	if err != nil {
		t.Fatalf("DownloadArea: %v", err)
	}
	if meta.TileCount != total {
		t.Fatalf("TileCount = %d, want %d", meta.TileCount, total)
	}
	if meta.SizeBytes != int64(total*len(fetcher.data)) {
		t.Fatalf("SizeBytes = %d", meta.SizeBytes)
	}
	if fetched != total || completeCalls != 1 {
		t.Fatalf("handlers: fetched=%d complete=%d", fetched, completeCalls)
	}
	if last.Completed != last.Total || last.Completed != total {
		t.Fatalf("final progress %+v", last)
	}

	// Every enumerated tile is readable from the cache.
	for _, tile := range tiles {
		if _, ok, err := store.Get("akrotiri", tile.Z, tile.X, tile.Y); err != nil || !ok {
			t.Fatalf("tile %d/%d/%d missing: ok=%v err=%v", tile.Z, tile.X, tile.Y, ok, err)
		}
	}
	// Metadata is queryable afterwards.
	if _, err := store.Area("akrotiri"); err != nil {
		t.Fatalf("Area: %v", err)
	}
}

func TestDownloadAreaSkipsFailedTiles(t *testing.T) {
	tiles, err := TilesForArea([]string{"https://t.example"}, testBounds, 10, 10)
	if err != nil {
		t.Fatalf("TilesForArea: %v", err)
	}
	if len(tiles) < 2 {
		t.Fatalf("need at least 2 tiles, got %d", len(tiles))
	}
	fetcher := &fakeFetcher{
		data: []byte("png"),
		fail: map[string]bool{tiles[0].URL: true},
	}
	var failures int
	dl, _ := newTestDownloader(t, fetcher, &DownloadHandlers{
		TileFailedHandler: func(Tile, error) { failures++ },
	})

	meta, err := dl.DownloadArea(context.Background(), "akrotiri", testBounds, 10, 10)
	if err != nil {
		t.Fatalf("DownloadArea: %v", err)
	}
	if meta.TileCount != len(tiles)-1 {
		t.Fatalf("TileCount = %d, want %d", meta.TileCount, len(tiles)-1)
	}
	if failures != 1 {
		t.Fatalf("failure handler calls = %d, want 1", failures)
	}
}

func TestDownloadAreaSingleFlight(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("png"), block: make(chan struct{})}
	dl, _ := newTestDownloader(t, fetcher, nil)

	done := make(chan error, 1)
	go func() {
		_, err := dl.DownloadArea(context.Background(), "akrotiri", testBounds, 10, 10)
		done <- err
	}()

	// Wait until the first download is inside a fetch.
	fetcher.block <- struct{}{}
	if !dl.Downloading() {
		t.Fatalf("Downloading should report true mid-download")
	}
	if _, err := dl.DownloadArea(context.Background(), "other", testBounds, 10, 10); err != ErrDownloadInProgress {
		t.Fatalf("expected ErrDownloadInProgress, got %v", err)
	}

	close(fetcher.block)
	if err := <-done; err != nil {
		t.Fatalf("first download: %v", err)
	}
	if dl.Downloading() {
		t.Fatalf("Downloading should reset after completion")
	}
}

func TestDownloadAreaPurgesStaleTilesOnRedownload(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("png")}
	dl, store := newTestDownloader(t, fetcher, nil)

	if _, err := dl.DownloadArea(context.Background(), "akrotiri", testBounds, 10, 10); err != nil {
		t.Fatalf("first download: %v", err)
	}
	// Plant a tile no enumeration of these bounds would produce.
	if err := store.Put("akrotiri", 0, 0, 0, []byte("stale")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := dl.DownloadArea(context.Background(), "akrotiri", testBounds, 10, 10); err != nil {
		t.Fatalf("re-download: %v", err)
	}
	if _, ok, _ := store.Get("akrotiri", 0, 0, 0); ok {
		t.Fatalf("stale tile survived the re-download")
	}
	if len(store.Areas()) != 1 {
		t.Fatalf("re-download must not duplicate metadata")
	}
}

func TestDownloadAreaRejectsBadInput(t *testing.T) {
	dl, _ := newTestDownloader(t, &fakeFetcher{data: []byte("png")}, nil)

	if _, err := dl.DownloadArea(context.Background(), "", testBounds, 10, 10); !IsValidationError(err) {
		t.Fatalf("empty name: expected ValidationError, got %v", err)
	}
	bad := Bounds{North: 35.0, South: 35.2, East: 33.5, West: 33.3}
	if _, err := dl.DownloadArea(context.Background(), "x", bad, 10, 10); !IsValidationError(err) {
		t.Fatalf("inverted bounds: expected ValidationError, got %v", err)
	}
	if _, err := dl.DownloadArea(context.Background(), "x", testBounds, 12, 10); !IsValidationError(err) {
		t.Fatalf("bad zoom range: expected ValidationError, got %v", err)
	}
	if dl.Downloading() {
		t.Fatalf("rejected input must not leave the flag set")
	}
}

func TestDownloadAreaProgressResetsAfterRun(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("png")}
	dl, _ := newTestDownloader(t, fetcher, nil)

	if _, err := dl.DownloadArea(context.Background(), "akrotiri", testBounds, 10, 10); err != nil {
		t.Fatalf("DownloadArea: %v", err)
	}
	var got Progress
	cancel := dl.SubscribeProgress(func(p Progress) { got = p })
	defer cancel()
	if got.Total != 0 || got.Completed != 0 {
		t.Fatalf("progress should be idle after the run: %+v", got)
	}
	if got.Fraction() != 0 {
		t.Fatalf("idle Fraction = %v", got.Fraction())
	}
}
