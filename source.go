package tilereader

import (
	"sync/atomic"
)

// Tile addressing schemes. The scheme decides whether the row index grows
// southward (xyz) or northward (tms).
const (
	SchemeXYZ = "xyz"
	SchemeTMS = "tms"
)

// DefaultCRS is assumed when a source does not declare one.
const DefaultCRS = "EPSG:3857"

// TileCoord is a (column, row) pair at some zoom level.
type TileCoord struct {
	Column int
	Row    int
}

// VectorTile identifies one tile of a source. The row is interpreted
// according to Scheme.
type VectorTile struct {
	Scheme string
	Zoom   int
	Column int
	Row    int
}

// TileData pairs a tile identity with its raw vector tile payload.
type TileData struct {
	Tile VectorTile
	Data []byte
}

// TileSource is the common contract over the server, MBTiles and directory
// backends. An instance is owned by a single caller session; LoadTiles must
// not be invoked concurrently on the same instance.
type TileSource interface {
	// Source returns the canonical location (URL or path) behind the instance.
	Source() string
	Name() string
	Attribution() string
	Scheme() string
	CRS() string
	VectorLayers() ([]VectorLayer, error)
	MinZoom() (int, bool)
	MaxZoom() (int, bool)
	Bounds() (Extent, bool)
	BoundsTile(zoom int) Bounds
	// LoadTiles fetches the given coordinates at zoomLevel and returns them
	// in completion order. Cancellation truncates the result, it is not an
	// error.
	LoadTiles(zoomLevel int, tiles []TileCoord, opts LoadOptions) ([]TileData, error)
	// Cancel stops the in-flight LoadTiles call. LoadTiles resets the flag
	// on entry, so the signal only takes effect while a load is running.
	Cancel()
	Close() error
}

// canceller is the cooperative cancellation flag shared by all backends.
type canceller struct {
	cancelling atomic.Bool
}

func (c *canceller) Cancel() { c.cancelling.Store(true) }

func (c *canceller) reset() { c.cancelling.Store(false) }

func (c *canceller) cancelled() bool { return c.cancelling.Load() }
