package tilereader

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DirectorySource reads tiles from a directory tree described by a
// metadata.json document.
type DirectorySource struct {
	canceller
	path string
	json *TileJSON
}

var _ TileSource = (*DirectorySource)(nil)

// NewDirectorySource validates the directory and loads its metadata.json.
func NewDirectorySource(path string) (*DirectorySource, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, configErr(path, "the folder does not exist: %s", path)
	}
	metadataPath := filepath.Join(path, "metadata.json")
	if _, err := os.Stat(metadataPath); err != nil {
		return nil, configErr(path, "there is no metadata.json in %s", path)
	}
	tj, err := LoadTileJSON(metadataPath)
	if err != nil {
		return nil, &ConfigurationError{Source: path, Err: err}
	}
	return &DirectorySource{path: path, json: tj}, nil
}

func (s *DirectorySource) Source() string { return s.path }

// Name resolves the metadata name, the metadata id and finally the directory
// base name.
func (s *DirectorySource) Name() string {
	if name := s.json.Name(); name != "" {
		return name
	}
	if id := s.json.ID(); id != "" {
		return id
	}
	return filepath.Base(s.path)
}

func (s *DirectorySource) Attribution() string { return s.json.Attribution() }

func (s *DirectorySource) Scheme() string { return s.json.Scheme() }

func (s *DirectorySource) CRS() string { return s.json.CRS() }

// MaskLevel reports the maskLevel metadata entry when present.
func (s *DirectorySource) MaskLevel() (string, bool) { return s.json.MaskLevel() }

// VectorLayers is required for directory sources.
func (s *DirectorySource) VectorLayers() ([]VectorLayer, error) {
	layers := s.json.VectorLayers()
	if len(layers) == 0 {
		return nil, configErr(s.path, "'vector_layers' is required in metadata.json")
	}
	return layers, nil
}

func (s *DirectorySource) MinZoom() (int, bool) { return s.json.MinZoom() }

func (s *DirectorySource) MaxZoom() (int, bool) { return s.json.MaxZoom() }

func (s *DirectorySource) Bounds() (Extent, bool) { return s.json.BoundsLongLat() }

func (s *DirectorySource) BoundsTile(zoom int) Bounds { return s.json.BoundsTile(zoom) }

func (s *DirectorySource) Close() error { return nil }

// LoadTiles reads the requested coordinates from disk. Missing files are
// skipped, they just shorten the result.
func (s *DirectorySource) LoadTiles(zoomLevel int, tiles []TileCoord, opts LoadOptions) ([]TileData, error) {
	s.reset()

	if opts.MaxTiles > 0 && len(tiles) > opts.MaxTiles {
		tiles = TilesFromCenter(opts.MaxTiles, tiles, s.cancelled)
		opts.Listener.limitReached()
	}

	template := filepath.Join(s.path, "{z}", "{x}", "{y}.pbf")
	if templates := s.json.Tiles(); len(templates) > 0 {
		template = templates[0]
		if !filepath.IsAbs(template) {
			template = filepath.Join(s.path, template)
		}
	}

	scheme := s.Scheme()
	loaded := make([]TileData, 0, len(tiles))
	opts.Listener.maxProgress(len(tiles))
	for i, t := range tiles {
		if s.cancelled() {
			break
		}
		fullPath := strings.Replace(template, "{z}", strconv.Itoa(zoomLevel), -1)
		fullPath = strings.Replace(fullPath, "{x}", strconv.Itoa(t.Column), -1)
		fullPath = strings.Replace(fullPath, "{y}", strconv.Itoa(t.Row), -1)

		data, err := os.ReadFile(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				log.Infof("file not found: %s", fullPath)
			} else {
				log.Warnf("reading %s failed: %s", fullPath, err)
			}
			opts.Listener.progress(i + 1)
			continue
		}
		tile := VectorTile{Scheme: scheme, Zoom: zoomLevel, Column: t.Column, Row: t.Row}
		loaded = append(loaded, TileData{Tile: tile, Data: data})
		opts.Listener.progress(i + 1)
	}
	return loaded, nil
}
