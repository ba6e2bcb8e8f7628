package wetlib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adaav/wetmap/pkg/logger"
)

// DefaultBatchSize is how many tile fetches run concurrently within one
// batch. Batches are strictly sequential: the next one starts only after
// the whole current batch finished, which bounds parallel network use.
const DefaultBatchSize = 5

// estTileSize is the byte budget assumed per tile for the free-space
// preflight. OSM raster tiles average well under this.
const estTileSize = 24 * 1024

// TileFetcher fetches the raw bytes for a tile URL.
type TileFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPTileFetcher fetches tiles over HTTP. Tile mirrors require an
// identifying User-Agent.
type HTTPTileFetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch downloads one tile.
func (f *HTTPTileFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, netErr("GET", url, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	hc := f.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, netErr("GET", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, netErr("GET", url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, netErr("GET", url, err)
	}
	return data, nil
}

// Progress is the completed/total state of the running download. Total is
// fixed up front from the tile enumeration; Fraction is 0 when idle.
type Progress struct {
	Completed int
	Total     int
}

// Fraction returns progress in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// AreaDownloader drives bounded-concurrency downloads of a tile pyramid
// region into a TileCacheStore. One download runs at a time: a second
// DownloadArea while one is in flight fails fast with
// ErrDownloadInProgress.
type AreaDownloader struct {
	store       *TileCacheStore
	fetcher     TileFetcher
	mirrors     []string
	batchSize   int
	log         logger.Logger
	downloading atomic.Bool
	progress    *Subject[Progress]
	handlers    DownloadHandlers
}

// AreaDownloaderOpts configures an AreaDownloader.
type AreaDownloaderOpts struct {
	Mirrors   []string
	BatchSize int
	Handlers  *DownloadHandlers
	Logger    logger.Logger
}

// NewAreaDownloader wires a downloader over store and fetcher.
func NewAreaDownloader(store *TileCacheStore, fetcher TileFetcher, opts *AreaDownloaderOpts) *AreaDownloader {
	if opts == nil {
		opts = &AreaDownloaderOpts{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if len(opts.Mirrors) == 0 {
		opts.Mirrors = DefaultMirrors
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	handlers := DownloadHandlers{}
	if opts.Handlers != nil {
		handlers = *opts.Handlers
	}
	handlers.setDefault(opts.Logger)
	return &AreaDownloader{
		store:     store,
		fetcher:   fetcher,
		mirrors:   opts.Mirrors,
		batchSize: opts.BatchSize,
		log:       opts.Logger,
		progress:  NewSubject(Progress{}),
		handlers:  handlers,
	}
}

// Downloading reports whether a download is in flight.
func (d *AreaDownloader) Downloading() bool {
	return d.downloading.Load()
}

// SubscribeProgress registers fn on the progress stream with immediate
// delivery of the current state.
func (d *AreaDownloader) SubscribeProgress(fn func(Progress)) (cancel func()) {
	return d.progress.Subscribe(fn)
}

// DownloadArea fetches every tile covering bounds for the zoom range into
// the cache under name, and records the area's metadata with the counts
// actually achieved. Individual tile failures are skipped and logged; the
// only fatal setup failures are invalid input, an un-creatable destination
// and insufficient disk space. Re-using an existing name purges that
// area's old tiles first, then replaces its metadata entry.
func (d *AreaDownloader) DownloadArea(ctx context.Context, name string, bounds Bounds, minZoom, maxZoom int) (AreaMeta, error) {
	var meta AreaMeta
	if name == "" {
		return meta, &ValidationError{Subject: "area name", Err: fmt.Errorf("must not be empty")}
	}
	tiles, err := TilesForArea(d.mirrors, bounds, minZoom, maxZoom)
	if err != nil {
		return meta, err
	}

	if !d.downloading.CompareAndSwap(false, true) {
		return meta, ErrDownloadInProgress
	}
	defer func() {
		d.progress.Publish(Progress{})
		d.downloading.Store(false)
	}()

	total := len(tiles)
	d.log.Info("downloading area %q: %d tiles, zoom %d-%d", name, total, minZoom, maxZoom)

	// Same-name re-download must not leave tiles from an older bounding
	// box behind.
	if _, err := d.store.Area(name); err == nil {
		if err := d.store.PurgeTiles(name); err != nil {
			return meta, err
		}
	}
	if err := d.store.EnsureArea(name); err != nil {
		return meta, err
	}
	if err := checkDiskSpace(d.store.baseDir, int64(total)*estTileSize); err != nil {
		return meta, err
	}

	var (
		completed atomic.Int64
		size      atomic.Int64
		mu        sync.Mutex // serializes store writes within a batch
	)
	d.progress.Publish(Progress{Completed: 0, Total: total})

	for start := 0; start < total; start += d.batchSize {
		if err := ctx.Err(); err != nil {
			d.log.Warning("area %q: canceled after %d/%d tiles", name, completed.Load(), total)
			break
		}
		end := start + d.batchSize
		if end > total {
			end = total
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, t := range tiles[start:end] {
			tile := t
			g.Go(func() error {
				data, err := d.fetcher.Fetch(gctx, tile.URL)
				if err != nil {
					d.handlers.TileFailedHandler(tile, err)
					return nil
				}
				mu.Lock()
				err = d.store.Put(name, tile.Z, tile.X, tile.Y, data)
				mu.Unlock()
				if err != nil {
					d.handlers.TileFailedHandler(tile, err)
					return nil
				}
				n := len(data)
				size.Add(int64(n))
				done := int(completed.Add(1))
				d.progress.Publish(Progress{Completed: done, Total: total})
				d.handlers.TileFetchedHandler(tile, int64(n), done, total)
				return nil
			})
		}
		// Tile errors are swallowed above; Wait only propagates a panic-free
		// nil, but keeps the batch barrier.
		_ = g.Wait()
	}

	meta = AreaMeta{
		Name:           name,
		Bounds:         bounds,
		MinZoom:        minZoom,
		MaxZoom:        maxZoom,
		TileCount:      int(completed.Load()),
		SizeBytes:      size.Load(),
		DownloadedAt:   time.Now(),
		LastAccessedAt: time.Now(),
	}
	if err := d.store.SaveArea(meta); err != nil {
		return meta, err
	}
	d.handlers.AreaCompleteHandler(meta)
	d.log.Info("area %q: %d/%d tiles, %d bytes", name, meta.TileCount, total, meta.SizeBytes)
	return meta, nil
}
