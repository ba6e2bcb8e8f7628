package wetlib

import (
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

// Validate rejects rectangles outside the WGS84 range or with inverted
// edges before any tile is computed.
func (b Bounds) Validate() error {
	err := validation.ValidateStruct(&b,
		validation.Field(&b.North, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&b.South, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&b.East, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&b.West, validation.Min(-180.0), validation.Max(180.0)),
	)
	if err == nil && b.North <= b.South {
		err = fmt.Errorf("north (%v) must be greater than south (%v)", b.North, b.South)
	}
	if err == nil && b.East <= b.West {
		err = fmt.Errorf("east (%v) must be greater than west (%v)", b.East, b.West)
	}
	if err != nil {
		return &ValidationError{Subject: "bounds", Err: err}
	}
	return nil
}

// MaxTileZoom is the deepest zoom level the default mirrors serve.
const MaxTileZoom = 19

// validateZoomRange rejects zoom ranges the tile pyramid cannot address.
func validateZoomRange(minZoom, maxZoom int) error {
	var err error
	switch {
	case minZoom < 0 || minZoom > MaxTileZoom:
		err = fmt.Errorf("min zoom %d outside [0, %d]", minZoom, MaxTileZoom)
	case maxZoom < 0 || maxZoom > MaxTileZoom:
		err = fmt.Errorf("max zoom %d outside [0, %d]", maxZoom, MaxTileZoom)
	case minZoom > maxZoom:
		err = fmt.Errorf("min zoom %d greater than max zoom %d", minZoom, maxZoom)
	}
	if err != nil {
		return &ValidationError{Subject: "zoom range", Err: err}
	}
	return nil
}

// Tile addresses one slippy-map tile and the URL it is fetched from.
type Tile struct {
	X   int
	Y   int
	Z   int
	URL string
}

// TileX maps a longitude to its tile column at the given zoom.
func TileX(lon float64, zoom int) int {
	return int(math.Floor((lon + 180) / 360 * math.Exp2(float64(zoom))))
}

// TileY maps a latitude to its tile row at the given zoom using the
// standard Web-Mercator slippy-map projection.
func TileY(lat float64, zoom int) int {
	rad := lat * math.Pi / 180
	return int(math.Floor(
		(1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2 * math.Exp2(float64(zoom)),
	))
}

// DefaultMirrors is the stock OpenStreetMap mirror set.
var DefaultMirrors = []string{
	"https://a.tile.openstreetmap.org",
	"https://b.tile.openstreetmap.org",
	"https://c.tile.openstreetmap.org",
}

// TileURL picks a mirror by (x+y) mod len(mirrors) so neighbouring tiles
// spread across mirrors deterministically, and renders the tile path.
func TileURL(mirrors []string, x, y, z int) string {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	mirror := mirrors[(x+y)%len(mirrors)]
	return fmt.Sprintf("%s/%d/%d/%d.png", mirror, z, x, y)
}

// TilesForArea enumerates every tile covering bounds for each zoom in
// [minZoom, maxZoom]. The sequence is finite, duplicate-free and ordered
// zoom ascending, then x, then y. Note that tile rows grow southward, so
// the row range runs from the north edge down to the south edge.
func TilesForArea(mirrors []string, bounds Bounds, minZoom, maxZoom int) ([]Tile, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if err := validateZoomRange(minZoom, maxZoom); err != nil {
		return nil, err
	}
	var tiles []Tile
	for z := minZoom; z <= maxZoom; z++ {
		minX := TileX(bounds.West, z)
		maxX := TileX(bounds.East, z)
		minY := TileY(bounds.North, z)
		maxY := TileY(bounds.South, z)
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				tiles = append(tiles, Tile{
					X: x, Y: y, Z: z,
					URL: TileURL(mirrors, x, y, z),
				})
			}
		}
	}
	return tiles, nil
}
