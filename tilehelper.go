package tilereader

import (
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Extent is a geographic bounding box in EPSG:4326 longitude/latitude.
type Extent struct {
	West  float64
	South float64
	East  float64
	North float64
}

// WorldBounds covers the whole web mercator world.
var WorldBounds = Extent{West: -180, South: -85.0511, East: 180, North: 85.0511}

// Bounds is a tile grid bounding box at a fixed zoom. Row orientation follows
// Scheme.
type Bounds struct {
	Zoom   int
	XMin   int
	XMax   int
	YMin   int
	YMax   int
	Scheme string
}

func (b Bounds) Width() int { return b.XMax - b.XMin + 1 }

func (b Bounds) Height() int { return b.YMax - b.YMin + 1 }

// TileBounds converts a lon/lat extent (EPSG:4326) into tile grid bounds at
// the given zoom.
func TileBounds(zoom int, extent Extent, scheme string) Bounds {
	z := maptile.Zoom(zoom)
	limit := (1 << uint(zoom)) - 1

	north := clampFloat(extent.North, WorldBounds.South, WorldBounds.North)
	south := clampFloat(extent.South, WorldBounds.South, WorldBounds.North)

	minTile := maptile.At(orb.Point{extent.West, north}, z)
	maxTile := maptile.At(orb.Point{extent.East, south}, z)

	b := Bounds{
		Zoom:   zoom,
		XMin:   clampIndex(int(minTile.X), limit),
		XMax:   clampIndex(int(maxTile.X), limit),
		YMin:   clampIndex(int(minTile.Y), limit),
		YMax:   clampIndex(int(maxTile.Y), limit),
		Scheme: scheme,
	}
	if b.Scheme == SchemeTMS {
		b.YMin, b.YMax = FlipRow(b.YMax, zoom), FlipRow(b.YMin, zoom)
	}
	return b
}

// FlipRow converts a row index between the xyz and tms orientations.
func FlipRow(row, zoom int) int { return (1 << uint(zoom)) - 1 - row }

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampIndex(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// TilesFromCenter picks the nr tiles nearest the geometric center of the
// candidate set, nearest first. Ordering is deterministic: equal distances
// are broken by column, then row. shouldCancel is polled while selecting; on
// cancellation the tiles picked so far are returned.
func TilesFromCenter(nr int, tiles []TileCoord, shouldCancel func() bool) []TileCoord {
	picked := make([]TileCoord, 0, len(tiles))
	if nr <= 0 || len(tiles) == 0 {
		return picked
	}

	var cx, cy float64
	for _, t := range tiles {
		cx += float64(t.Column)
		cy += float64(t.Row)
	}
	cx /= float64(len(tiles))
	cy /= float64(len(tiles))

	sorted := make([]TileCoord, len(tiles))
	copy(sorted, tiles)
	dist := func(t TileCoord) float64 {
		dx := float64(t.Column) - cx
		dy := float64(t.Row) - cy
		return dx*dx + dy*dy
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := dist(sorted[i]), dist(sorted[j])
		if di != dj {
			return di < dj
		}
		if sorted[i].Column != sorted[j].Column {
			return sorted[i].Column < sorted[j].Column
		}
		return sorted[i].Row < sorted[j].Row
	})

	if nr > len(sorted) {
		nr = len(sorted)
	}
	for _, t := range sorted[:nr] {
		if shouldCancel != nil && shouldCancel() {
			break
		}
		picked = append(picked, t)
	}
	return picked
}

// parseExtent parses the MBTiles bounds form "west,south,east,north",
// tolerating brackets and whitespace.
func parseExtent(s string) (Extent, bool) {
	cleaned := strings.NewReplacer(" ", "", "[", "", "]", "").Replace(s)
	parts := strings.Split(cleaned, ",")
	if len(parts) != 4 {
		return Extent{}, false
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Extent{}, false
		}
		vals[i] = v
	}
	return Extent{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, true
}
