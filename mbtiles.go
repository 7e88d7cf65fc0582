package tilereader

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteMagic is the first 16 bytes of every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// MBTilesSource reads tiles from an MBTiles SQLite archive.
type MBTilesSource struct {
	canceller
	path      string
	db        *sql.DB
	metaCache map[string]metaEntry
	zoomCache map[string]*int
}

type metaEntry struct {
	value string
	ok    bool
}

var _ TileSource = (*MBTilesSource)(nil)

// NewMBTilesSource validates that path is an existing SQLite database. The
// connection itself is opened lazily on first query.
func NewMBTilesSource(path string) (*MBTilesSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, configErr(path, "the file does not exist: %s", path)
	}
	if !isSQLiteDB(path) {
		return nil, configErr(path, "the file %q is not a valid MBTiles archive", path)
	}
	return &MBTilesSource{
		path:      path,
		metaCache: make(map[string]metaEntry),
		zoomCache: make(map[string]*int),
	}, nil
}

func isSQLiteDB(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, sqliteMagic)
}

func (s *MBTilesSource) Source() string { return s.path }

// Name derives from the file name; MBTiles archives rarely carry a usable
// name of their own.
func (s *MBTilesSource) Name() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *MBTilesSource) Attribution() string {
	v, _ := s.metadataValue("attribution")
	return v
}

func (s *MBTilesSource) Scheme() string {
	if v, ok := s.metadataValue("scheme"); ok {
		return v
	}
	return SchemeTMS
}

func (s *MBTilesSource) CRS() string {
	if v, ok := s.metadataValue("crs"); ok {
		return v
	}
	return DefaultCRS
}

// MaskLevel reports the maskLevel metadata entry when present.
func (s *MBTilesSource) MaskLevel() (string, bool) { return s.metadataValue("maskLevel") }

// VectorLayers reads the vector_layers array out of the json metadata entry.
// A missing entry is not an error for archives; it just yields no layers.
func (s *MBTilesSource) VectorLayers() ([]VectorLayer, error) {
	data, ok := s.metadataValue("json")
	if !ok {
		log.Warnf("no json entry found in metadata table of %s", s.path)
		return nil, nil
	}
	var doc struct {
		VectorLayers []VectorLayer `json:"vector_layers"`
	}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		log.Warnf("malformed json metadata entry in %s: %s", s.path, err)
		return nil, nil
	}
	return doc.VectorLayers, nil
}

func (s *MBTilesSource) MinZoom() (int, bool) { return s.zoom("minzoom") }

func (s *MBTilesSource) MaxZoom() (int, bool) { return s.zoom("maxzoom") }

func (s *MBTilesSource) Bounds() (Extent, bool) {
	v, ok := s.metadataValue("bounds")
	if !ok {
		return Extent{}, false
	}
	return parseExtent(v)
}

// BoundsTile resolves grid bounds with a three tier fallback: declared
// metadata bounds, then the extent of the tiles actually stored at that zoom,
// then the whole world. Archives frequently omit bounds or carry stale ones
// from repeated extracts.
func (s *MBTilesSource) BoundsTile(zoom int) Bounds {
	scheme := s.Scheme()
	if ext, ok := s.Bounds(); ok {
		return TileBounds(zoom, ext, scheme)
	}
	if b, ok := s.boundsFromData(zoom); ok {
		return b
	}
	return TileBounds(zoom, WorldBounds, scheme)
}

func (s *MBTilesSource) boundsFromData(zoom int) (Bounds, bool) {
	db, err := s.connect()
	if err != nil {
		return Bounds{}, false
	}
	var xMin, xMax, yMin, yMax sql.NullInt64
	row := db.QueryRow(
		"SELECT min(tile_column), max(tile_column), min(tile_row), max(tile_row) FROM tiles WHERE zoom_level = ?",
		zoom,
	)
	if err := row.Scan(&xMin, &xMax, &yMin, &yMax); err != nil {
		log.Errorf("reading tile bounds of %s at zoom %d failed: %s", s.path, zoom, err)
		return Bounds{}, false
	}
	if !xMin.Valid {
		return Bounds{}, false
	}
	return Bounds{
		Zoom:   zoom,
		XMin:   int(xMin.Int64),
		XMax:   int(xMax.Int64),
		YMin:   int(yMin.Int64),
		YMax:   int(yMax.Int64),
		Scheme: s.Scheme(),
	}, true
}

// zoom resolves minzoom/maxzoom, preferring explicit metadata over a scan of
// the tiles table. The resolved value is memoized per field.
func (s *MBTilesSource) zoom(field string) (int, bool) {
	if cached, ok := s.zoomCache[field]; ok {
		if cached == nil {
			return 0, false
		}
		return *cached, true
	}
	var resolved *int
	if v, ok := s.metadataValue(field); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			resolved = &n
		}
	}
	if resolved == nil {
		if n, ok := s.zoomFromTiles(field == "maxzoom"); ok {
			resolved = &n
		}
	}
	s.zoomCache[field] = resolved
	if resolved == nil {
		return 0, false
	}
	return *resolved, true
}

func (s *MBTilesSource) zoomFromTiles(max bool) (int, bool) {
	order := "ASC"
	if max {
		order = "DESC"
	}
	return s.singleInt(fmt.Sprintf("SELECT zoom_level FROM tiles ORDER BY zoom_level %s LIMIT 1", order))
}

// metadataValue loads one metadata table entry, memoized for the lifetime of
// the instance. A cache hit never re-queries, even if the archive changed on
// disk; staleness is accepted.
func (s *MBTilesSource) metadataValue(name string) (string, bool) {
	if entry, ok := s.metaCache[name]; ok {
		return entry.value, entry.ok
	}
	log.Debugf("loading metadata value %q from %s", name, s.path)
	value, ok := s.singleString("SELECT value FROM metadata WHERE name = ?", name)
	s.metaCache[name] = metaEntry{value: value, ok: ok}
	return value, ok
}

// singleString runs a query expected to yield one string. Failures degrade to
// an absent value; metadata resolution is best effort.
func (s *MBTilesSource) singleString(query string, args ...interface{}) (string, bool) {
	db, err := s.connect()
	if err != nil {
		return "", false
	}
	var value string
	err = db.QueryRow(query, args...).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false
	case err != nil:
		log.Errorf("getting data from %s failed: %s (%s)", s.path, err, query)
		return "", false
	}
	return value, value != ""
}

func (s *MBTilesSource) singleInt(query string, args ...interface{}) (int, bool) {
	db, err := s.connect()
	if err != nil {
		return 0, false
	}
	var value int
	err = db.QueryRow(query, args...).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return 0, false
	case err != nil:
		log.Errorf("getting data from %s failed: %s (%s)", s.path, err, query)
		return 0, false
	}
	return value, true
}

func (s *MBTilesSource) connect() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	log.Debugf("connecting to %s", s.path)
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		log.Errorf("db connection to %s failed: %s", s.path, err)
		return nil, err
	}
	s.db = db
	return db, nil
}

// Close releases the database handle. A later query reopens it.
func (s *MBTilesSource) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		log.Warnf("closing connection to %s failed: %s", s.path, err)
		return err
	}
	log.Debugf("connection to %s closed", s.path)
	return nil
}

// LoadTiles selects the requested coordinates at zoomLevel with a single
// membership query and streams the rows back as tile payloads.
func (s *MBTilesSource) LoadTiles(zoomLevel int, tiles []TileCoord, opts LoadOptions) ([]TileData, error) {
	s.reset()
	log.Debugf("reading tiles of zoom level %d from %s", zoomLevel, s.path)

	center := tiles
	if opts.MaxTiles > 0 && len(tiles) > opts.MaxTiles {
		center = TilesFromCenter(opts.MaxTiles, tiles, s.cancelled)
	}
	if len(center) == 0 {
		opts.Listener.maxProgress(0)
		return []TileData{}, nil
	}

	db, err := s.connect()
	if err != nil {
		return nil, err
	}

	query := "SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles " + tileWhereClause(zoomLevel, center)
	fetched := s.fetchRows(db, query)

	// The count deliberately ignores the cap, so the limit signal fires even
	// when the candidate set was already cut down before querying.
	if total, ok := s.singleInt("SELECT count(*) FROM tiles WHERE zoom_level = ?", zoomLevel); ok {
		if opts.MaxTiles > 0 && opts.MaxTiles < total {
			opts.Listener.limitReached()
		}
	}

	opts.Listener.maxProgress(len(fetched))
	loaded := make([]TileData, 0, len(fetched))
	for i, td := range fetched {
		if s.cancelled() || (opts.MaxTiles > 0 && len(loaded) >= opts.MaxTiles) {
			break
		}
		loaded = append(loaded, td)
		opts.Listener.progress(i + 1)
	}
	return loaded, nil
}

func (s *MBTilesSource) fetchRows(db *sql.DB, query string) []TileData {
	rows, err := db.Query(query)
	if err != nil {
		log.Errorf("getting data from %s failed: %s (%s)", s.path, err, query)
		return nil
	}
	defer rows.Close()

	scheme := s.Scheme()
	fetched := make([]TileData, 0)
	for rows.Next() {
		var (
			zoom, column, row int
			data              []byte
		)
		if err := rows.Scan(&zoom, &column, &row, &data); err != nil {
			log.Errorf("scanning tile row of %s failed: %s", s.path, err)
			continue
		}
		tile := VectorTile{Scheme: scheme, Zoom: zoom, Column: column, Row: row}
		fetched = append(fetched, TileData{Tile: tile, Data: data})
	}
	if err := rows.Err(); err != nil {
		log.Errorf("iterating tile rows of %s failed: %s", s.path, err)
	}
	return fetched
}

// tileWhereClause builds the textual membership predicate of the tiles query.
// Coordinates are embedded as "column;row" pairs; both operands are integers,
// so the textual form is safe.
func tileWhereClause(zoomLevel int, tiles []TileCoord) string {
	pairs := make([]string, 0, len(tiles))
	for _, t := range tiles {
		pairs = append(pairs, fmt.Sprintf("'%d;%d'", t.Column, t.Row))
	}
	return fmt.Sprintf(
		"WHERE zoom_level = %d AND tile_column || ';' || tile_row IN (%s)",
		zoomLevel, strings.Join(pairs, ", "),
	)
}
