package tilereader

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// subdomains feeds the {s} placeholder of multi-subdomain services, cycled
// round robin over the request batch.
var subdomains = []string{"a", "b", "c", "d"}

// ServerSource reads tiles from an HTTP tile service described by a TileJSON
// document.
type ServerSource struct {
	canceller
	url  string
	json *TileJSON
}

var _ TileSource = (*ServerSource)(nil)

// NewServerSource loads the TileJSON document behind rawURL. The URL must
// point at a local file or a reachable service.
func NewServerSource(rawURL string) (*ServerSource, error) {
	if rawURL == "" {
		return nil, configErr("", "URL is required")
	}
	resolved := rawURL
	if _, err := os.Stat(rawURL); err != nil {
		final, err := urlExists(rawURL)
		if err != nil {
			log.Errorf("the URL seems to be invalid: %s", rawURL)
			return nil, &ConfigurationError{Source: rawURL, Err: err}
		}
		resolved = final
	}
	tj, err := LoadTileJSON(resolved)
	if err != nil {
		return nil, &ConfigurationError{Source: resolved, Err: err}
	}
	return &ServerSource{url: resolved, json: tj}, nil
}

func (s *ServerSource) Source() string { return s.url }

// Name resolves the metadata name, the metadata id and finally the host name.
func (s *ServerSource) Name() string {
	if name := s.json.Name(); name != "" {
		return name
	}
	if id := s.json.ID(); id != "" {
		return id
	}
	if u, err := url.Parse(s.url); err == nil {
		return u.Host
	}
	return ""
}

func (s *ServerSource) Attribution() string { return s.json.Attribution() }

func (s *ServerSource) Scheme() string { return s.json.Scheme() }

func (s *ServerSource) CRS() string { return s.json.CRS() }

func (s *ServerSource) VectorLayers() ([]VectorLayer, error) {
	return s.json.VectorLayers(), nil
}

func (s *ServerSource) MinZoom() (int, bool) { return s.json.MinZoom() }

func (s *ServerSource) MaxZoom() (int, bool) { return s.json.MaxZoom() }

func (s *ServerSource) Bounds() (Extent, bool) { return s.json.BoundsLongLat() }

func (s *ServerSource) BoundsTile(zoom int) Bounds { return s.json.BoundsTile(zoom) }

func (s *ServerSource) Close() error { return nil }

// LoadTiles builds one URL per tile from the document's template and hands
// the whole batch to the concurrent fetcher.
func (s *ServerSource) LoadTiles(zoomLevel int, tiles []TileCoord, opts LoadOptions) ([]TileData, error) {
	s.reset()

	templates := s.json.Tiles()
	if len(templates) == 0 {
		return nil, fmt.Errorf("source %s declares no tile URL template", s.url)
	}
	base := templates[0]
	if strings.Contains(base, "{s}") {
		log.Infof("cycling subdomains for %s", s.url)
	}

	if opts.MaxTiles > 0 && len(tiles) > opts.MaxTiles {
		tiles = TilesFromCenter(opts.MaxTiles, tiles, s.cancelled)
		opts.Listener.limitReached()
	}

	apiKey := ""
	if u, err := url.Parse(s.url); err == nil {
		apiKey = u.Query().Get("api_key")
	}

	requests := make([]tileRequest, 0, len(tiles))
	for i, t := range tiles {
		loadURL := strings.Replace(base, "{z}", strconv.Itoa(zoomLevel), -1)
		loadURL = strings.Replace(loadURL, "{x}", strconv.Itoa(t.Column), -1)
		loadURL = strings.Replace(loadURL, "{y}", strconv.Itoa(t.Row), -1)
		loadURL = strings.Replace(loadURL, "{api_key}", apiKey, -1)
		loadURL = strings.Replace(loadURL, "{s}", subdomains[i%len(subdomains)], -1)
		if apiKey != "" {
			loadURL += "?api_key=" + apiKey
		}
		requests = append(requests, tileRequest{URL: loadURL, Coord: t})
	}

	opts.Listener.maxProgress(len(requests))
	opts.Listener.message(fmt.Sprintf("Getting %d tiles from source...", len(requests)))

	scheme := s.Scheme()
	results := fetchBatch(requests, opts.Listener.progress, s.cancelled)
	loaded := make([]TileData, 0, len(results))
	for _, r := range results {
		tile := VectorTile{Scheme: scheme, Zoom: zoomLevel, Column: r.Coord.Column, Row: r.Coord.Row}
		loaded = append(loaded, TileData{Tile: tile, Data: r.Data})
	}
	return loaded, nil
}
