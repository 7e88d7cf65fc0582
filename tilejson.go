package tilereader

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// TileJSON is a loaded TileJSON-like metadata document. It keeps the raw
// decoded object around so rarely used keys stay reachable.
type TileJSON struct {
	location string
	raw      map[string]interface{}
}

// VectorLayer describes one logical feature layer of a vector tile set.
type VectorLayer struct {
	ID          string            `json:"id"`
	Description string            `json:"description,omitempty"`
	MinZoom     int               `json:"minzoom,omitempty"`
	MaxZoom     int               `json:"maxzoom,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// LoadTileJSON reads and decodes a metadata document from a local file path
// or an HTTP(S) URL.
func LoadTileJSON(location string) (*TileJSON, error) {
	data, err := readDocument(location)
	if err != nil {
		return nil, err
	}
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", location, err)
	}
	return &TileJSON{location: location, raw: raw}, nil
}

func readDocument(location string) ([]byte, error) {
	if _, err := os.Stat(location); err == nil {
		return os.ReadFile(location)
	}
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return nil, fmt.Errorf("no such file: %s", location)
	}
	resp, err := httpClient.Get(location)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", location, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Location returns the path or URL the document was loaded from.
func (t *TileJSON) Location() string { return t.location }

func (t *TileJSON) stringValue(key string) (string, bool) {
	v, ok := t.raw[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func (t *TileJSON) intValue(key string) (int, bool) {
	switch v := t.raw[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func (t *TileJSON) Name() string { s, _ := t.stringValue("name"); return s }

func (t *TileJSON) ID() string { s, _ := t.stringValue("id"); return s }

func (t *TileJSON) Attribution() string { s, _ := t.stringValue("attribution"); return s }

// Scheme defaults to tms when the document stays silent.
func (t *TileJSON) Scheme() string {
	if s, ok := t.stringValue("scheme"); ok {
		return s
	}
	return SchemeTMS
}

func (t *TileJSON) CRS() string {
	if s, ok := t.stringValue("crs"); ok {
		return s
	}
	return DefaultCRS
}

func (t *TileJSON) MinZoom() (int, bool) { return t.intValue("minzoom") }

func (t *TileJSON) MaxZoom() (int, bool) { return t.intValue("maxzoom") }

func (t *TileJSON) MaskLevel() (string, bool) { return t.stringValue("maskLevel") }

// Tiles returns the tile URL or path templates.
func (t *TileJSON) Tiles() []string {
	switch v := t.raw["tiles"].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// BoundsLongLat returns the declared bounds, accepting both the array and the
// comma separated string form.
func (t *TileJSON) BoundsLongLat() (Extent, bool) {
	switch v := t.raw["bounds"].(type) {
	case []interface{}:
		if len(v) != 4 {
			return Extent{}, false
		}
		var vals [4]float64
		for i, e := range v {
			f, ok := e.(float64)
			if !ok {
				return Extent{}, false
			}
			vals[i] = f
		}
		return Extent{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, true
	case string:
		return parseExtent(v)
	}
	return Extent{}, false
}

// BoundsTile converts the declared bounds to grid bounds, falling back to the
// whole world when the document has none.
func (t *TileJSON) BoundsTile(zoom int) Bounds {
	ext, ok := t.BoundsLongLat()
	if !ok {
		ext = WorldBounds
	}
	return TileBounds(zoom, ext, t.Scheme())
}

// VectorLayers returns the declared layer list, looking first at the
// vector_layers array and then inside a nested "json" document.
func (t *TileJSON) VectorLayers() []VectorLayer {
	if layers, ok := decodeVectorLayers(t.raw["vector_layers"]); ok {
		return layers
	}
	if nested, ok := t.stringValue("json"); ok {
		inner := map[string]interface{}{}
		if err := json.Unmarshal([]byte(nested), &inner); err == nil {
			if layers, ok := decodeVectorLayers(inner["vector_layers"]); ok {
				return layers
			}
		}
	}
	return nil
}

func decodeVectorLayers(v interface{}) ([]VectorLayer, bool) {
	if v == nil {
		return nil, false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var layers []VectorLayer
	if err := json.Unmarshal(data, &layers); err != nil {
		return nil, false
	}
	return layers, len(layers) > 0
}
