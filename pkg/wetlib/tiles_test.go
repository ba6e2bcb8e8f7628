package wetlib

import (
	"fmt"
	"strings"
	"testing"
)

func TestTileXY(t *testing.T) {
	// The whole world is one tile at zoom 0.
	if got := TileX(0, 0); got != 0 {
		t.Fatalf("TileX(0,0) = %d", got)
	}
	if got := TileY(0, 0); got != 0 {
		t.Fatalf("TileY(0,0) = %d", got)
	}
	// At zoom 1 the prime meridian/equator corner starts tile (1,1).
	if got := TileX(0, 1); got != 1 {
		t.Fatalf("TileX(0,1) = %d", got)
	}
	if got := TileY(0, 1); got != 1 {
		t.Fatalf("TileY(0,1) = %d", got)
	}
	// Western and northern hemispheres map below those.
	if got := TileX(-0.1, 1); got != 0 {
		t.Fatalf("TileX(-0.1,1) = %d", got)
	}
	if got := TileY(0.1, 1); got != 0 {
		t.Fatalf("TileY(0.1,1) = %d", got)
	}
}

func TestTileRowsGrowSouthward(t *testing.T) {
	z := 10
	north := TileY(35.2, z)
	south := TileY(35.0, z)
	if north > south {
		t.Fatalf("row for north edge (%d) must not exceed row for south edge (%d)", north, south)
	}
}

func TestTileURLMirrorSelection(t *testing.T) {
	mirrors := []string{"https://a.example", "https://b.example", "https://c.example"}
	url := TileURL(mirrors, 4, 7, 12)
	want := fmt.Sprintf("%s/12/4/7.png", mirrors[(4+7)%3])
	if url != want {
		t.Fatalf("TileURL = %q, want %q", url, want)
	}
	// Empty mirror list falls back to the stock set.
	if u := TileURL(nil, 0, 0, 0); !strings.Contains(u, "tile.openstreetmap.org/0/0/0.png") {
		t.Fatalf("fallback URL = %q", u)
	}
}

func TestTilesForAreaCountAndOrder(t *testing.T) {
	bounds := Bounds{North: 35.2, South: 35.0, East: 33.5, West: 33.3}
	minZ, maxZ := 10, 11

	tiles, err := TilesForArea(nil, bounds, minZ, maxZ)
	if err != nil {
		t.Fatalf("TilesForArea: %v", err)
	}

	want := 0
	for z := minZ; z <= maxZ; z++ {
		cols := TileX(bounds.East, z) - TileX(bounds.West, z) + 1
		rows := TileY(bounds.South, z) - TileY(bounds.North, z) + 1
		want += cols * rows
	}
	if len(tiles) != want {
		t.Fatalf("tile count = %d, want %d", len(tiles), want)
	}

	seen := make(map[Tile]bool, len(tiles))
	prev := tiles[0]
	for i, tile := range tiles {
		key := Tile{X: tile.X, Y: tile.Y, Z: tile.Z}
		if seen[key] {
			t.Fatalf("duplicate tile %+v", key)
		}
		seen[key] = true
		if i > 0 {
			if tile.Z < prev.Z {
				t.Fatalf("zoom order broken at %d", i)
			}
			if tile.Z == prev.Z && tile.X < prev.X {
				t.Fatalf("column order broken at %d", i)
			}
		}
		prev = tile
	}
}

func TestTilesForAreaRejectsBadInput(t *testing.T) {
	good := Bounds{North: 35.2, South: 35.0, East: 33.5, West: 33.3}

	if _, err := TilesForArea(nil, Bounds{North: 35.0, South: 35.2, East: 33.5, West: 33.3}, 1, 2); err == nil {
		t.Fatalf("inverted north/south must be rejected")
	}
	if _, err := TilesForArea(nil, Bounds{North: 95, South: 35.0, East: 33.5, West: 33.3}, 1, 2); err == nil {
		t.Fatalf("out-of-range latitude must be rejected")
	}
	if _, err := TilesForArea(nil, good, 5, 3); err == nil {
		t.Fatalf("min zoom above max zoom must be rejected")
	}
	if _, err := TilesForArea(nil, good, -1, 3); err == nil {
		t.Fatalf("negative zoom must be rejected")
	}
	if _, err := TilesForArea(nil, good, 1, MaxTileZoom+1); err == nil {
		t.Fatalf("zoom beyond %d must be rejected", MaxTileZoom)
	}
	if _, err := TilesForArea(nil, good, 1, 2); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
}
