package tilereader

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTileJSON(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestTileJSONDefaults(t *testing.T) {
	tj, err := LoadTileJSON(writeTileJSON(t, `{"name":"demo"}`))
	require.NoError(t, err)

	assert.Equal(t, "demo", tj.Name())
	assert.Equal(t, SchemeTMS, tj.Scheme())
	assert.Equal(t, DefaultCRS, tj.CRS())
	assert.Empty(t, tj.Attribution())
	assert.Empty(t, tj.Tiles())

	_, ok := tj.MinZoom()
	assert.False(t, ok)
	_, ok = tj.MaxZoom()
	assert.False(t, ok)
	_, ok = tj.BoundsLongLat()
	assert.False(t, ok)
	_, ok = tj.MaskLevel()
	assert.False(t, ok)
}

func TestTileJSONFields(t *testing.T) {
	doc := `{
		"name": "osm",
		"attribution": "© OpenStreetMap",
		"scheme": "xyz",
		"crs": "EPSG:4326",
		"minzoom": 2,
		"maxzoom": "14",
		"bounds": [-10, -20, 10, 20],
		"tiles": ["https://tiles.example.com/{z}/{x}/{y}.pbf"],
		"maskLevel": "8",
		"vector_layers": [{"id": "water", "fields": {"class": "String"}}, {"id": "roads"}]
	}`
	tj, err := LoadTileJSON(writeTileJSON(t, doc))
	require.NoError(t, err)

	assert.Equal(t, "osm", tj.Name())
	assert.Equal(t, "© OpenStreetMap", tj.Attribution())
	assert.Equal(t, SchemeXYZ, tj.Scheme())
	assert.Equal(t, "EPSG:4326", tj.CRS())

	minZoom, ok := tj.MinZoom()
	require.True(t, ok)
	assert.Equal(t, 2, minZoom)
	maxZoom, ok := tj.MaxZoom()
	require.True(t, ok)
	assert.Equal(t, 14, maxZoom)

	ext, ok := tj.BoundsLongLat()
	require.True(t, ok)
	assert.Equal(t, Extent{West: -10, South: -20, East: 10, North: 20}, ext)

	assert.Equal(t, []string{"https://tiles.example.com/{z}/{x}/{y}.pbf"}, tj.Tiles())

	mask, ok := tj.MaskLevel()
	require.True(t, ok)
	assert.Equal(t, "8", mask)

	layers := tj.VectorLayers()
	require.Len(t, layers, 2)
	assert.Equal(t, "water", layers[0].ID)
	assert.Equal(t, "String", layers[0].Fields["class"])
	assert.Equal(t, "roads", layers[1].ID)
}

func TestTileJSONStringBounds(t *testing.T) {
	tj, err := LoadTileJSON(writeTileJSON(t, `{"bounds": "-180, -85.0511, 180, 85.0511"}`))
	require.NoError(t, err)

	ext, ok := tj.BoundsLongLat()
	require.True(t, ok)
	assert.Equal(t, WorldBounds, ext)
}

func TestTileJSONNestedVectorLayers(t *testing.T) {
	tj, err := LoadTileJSON(writeTileJSON(t, `{"json": "{\"vector_layers\": [{\"id\": \"roads\"}]}"}`))
	require.NoError(t, err)

	layers := tj.VectorLayers()
	require.Len(t, layers, 1)
	assert.Equal(t, "roads", layers[0].ID)
}

func TestTileJSONBoundsTile(t *testing.T) {
	tj, err := LoadTileJSON(writeTileJSON(t, `{"scheme": "xyz", "bounds": [-180, -85.0511, 180, 85.0511]}`))
	require.NoError(t, err)

	b := tj.BoundsTile(0)
	assert.Equal(t, Bounds{Zoom: 0, XMin: 0, XMax: 0, YMin: 0, YMax: 0, Scheme: SchemeXYZ}, b)

	// no declared bounds falls back to the whole world
	tj, err = LoadTileJSON(writeTileJSON(t, `{"scheme": "xyz"}`))
	require.NoError(t, err)
	b = tj.BoundsTile(1)
	assert.Equal(t, 0, b.XMin)
	assert.Equal(t, 1, b.XMax)
}

func TestTileJSONFromHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"remote"}`)
	}))
	defer ts.Close()

	tj, err := LoadTileJSON(ts.URL + "/meta.json")
	require.NoError(t, err)
	assert.Equal(t, "remote", tj.Name())
}

func TestTileJSONErrors(t *testing.T) {
	_, err := LoadTileJSON(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	_, err = LoadTileJSON(writeTileJSON(t, "not json at all"))
	assert.Error(t, err)
}
