package wetlib

import "github.com/adaav/wetmap/pkg/logger"

type (
	// TileFetchedHandlerFunc fires after a tile is fetched and cached.
	// completed/total drive progress displays.
	TileFetchedHandlerFunc func(t Tile, size int64, completed, total int)
	// TileFailedHandlerFunc fires when a tile fetch or write fails. The
	// download continues; the tile is simply not counted.
	TileFailedHandlerFunc func(t Tile, err error)
	// AreaCompleteHandlerFunc fires once per download with the final
	// metadata (achieved counts, not the requested total).
	AreaCompleteHandlerFunc func(meta AreaMeta)
)

// DownloadHandlers are the callbacks an area download reports through.
// Unset handlers default to no-ops (the failure handler keeps a log line).
type DownloadHandlers struct {
	TileFetchedHandler  TileFetchedHandlerFunc
	TileFailedHandler   TileFailedHandlerFunc
	AreaCompleteHandler AreaCompleteHandlerFunc
}

func (h *DownloadHandlers) setDefault(l logger.Logger) {
	if h.TileFetchedHandler == nil {
		h.TileFetchedHandler = func(t Tile, size int64, completed, total int) {}
	}
	if h.TileFailedHandler == nil {
		h.TileFailedHandler = func(t Tile, err error) {
			l.Warning("tile %d/%d/%d: %v", t.Z, t.X, t.Y, err)
		}
	} else {
		failed := h.TileFailedHandler
		h.TileFailedHandler = func(t Tile, err error) {
			l.Warning("tile %d/%d/%d: %v", t.Z, t.X, t.Y, err)
			failed(t, err)
		}
	}
	if h.AreaCompleteHandler == nil {
		h.AreaCompleteHandler = func(meta AreaMeta) {}
	}
}
