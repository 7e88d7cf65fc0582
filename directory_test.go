package tilereader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTileDir(t *testing.T, metadata string, tiles map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadata), 0o644))
	for rel, data := range tiles {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, data, 0o644))
	}
	return dir
}

func TestNewDirectorySourceValidation(t *testing.T) {
	var cfgErr *ConfigurationError

	_, err := NewDirectorySource(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &cfgErr)

	empty := t.TempDir()
	_, err = NewDirectorySource(empty)
	require.Error(t, err)
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "metadata.json")
}

func TestDirectoryName(t *testing.T) {
	t.Run("metadata name wins", func(t *testing.T) {
		dir := createTileDir(t, `{"name":"local tiles"}`, nil)
		src, err := NewDirectorySource(dir)
		require.NoError(t, err)
		assert.Equal(t, "local tiles", src.Name())
	})

	t.Run("falls back to the directory base name", func(t *testing.T) {
		dir := createTileDir(t, `{}`, nil)
		src, err := NewDirectorySource(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Base(dir), src.Name())
		assert.Equal(t, dir, src.Source())
	})
}

func TestDirectoryVectorLayers(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		dir := createTileDir(t, `{"name":"x"}`, nil)
		src, err := NewDirectorySource(dir)
		require.NoError(t, err)

		_, err = src.VectorLayers()
		require.Error(t, err)
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("declared", func(t *testing.T) {
		dir := createTileDir(t, `{"vector_layers":[{"id":"roads"}]}`, nil)
		src, err := NewDirectorySource(dir)
		require.NoError(t, err)

		layers, err := src.VectorLayers()
		require.NoError(t, err)
		require.Len(t, layers, 1)
		assert.Equal(t, "roads", layers[0].ID)
	})
}

func TestDirectoryLoadTiles(t *testing.T) {
	meta := `{"name":"local","scheme":"xyz","vector_layers":[{"id":"roads"}]}`
	dir := createTileDir(t, meta, map[string][]byte{
		"2/0/0.pbf": []byte("a"),
		"2/1/0.pbf": []byte("b"),
	})
	src, err := NewDirectorySource(dir)
	require.NoError(t, err)

	var maxSeen, progressEvents int
	listener := &LoadListener{
		MaxProgressChanged: func(max int) { maxSeen = max },
		ProgressChanged:    func(int) { progressEvents++ },
	}

	// (1,1) has no file on disk and is silently skipped
	loaded, err := src.LoadTiles(2, []TileCoord{{0, 0}, {1, 0}, {1, 1}}, LoadOptions{Listener: listener})
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for _, td := range loaded {
		assert.Equal(t, 2, td.Tile.Zoom)
		assert.Equal(t, SchemeXYZ, td.Tile.Scheme)
		assert.Contains(t, []TileCoord{{0, 0}, {1, 0}}, TileCoord{Column: td.Tile.Column, Row: td.Tile.Row})
	}
	assert.Equal(t, 3, maxSeen)
	assert.Equal(t, 3, progressEvents)
}

func TestDirectoryLoadTilesMaxTiles(t *testing.T) {
	meta := `{"vector_layers":[{"id":"roads"}]}`
	dir := createTileDir(t, meta, map[string][]byte{
		"1/0/0.pbf": []byte("a"),
		"1/0/1.pbf": []byte("b"),
		"1/1/0.pbf": []byte("c"),
		"1/1/1.pbf": []byte("d"),
	})
	src, err := NewDirectorySource(dir)
	require.NoError(t, err)

	limitCount := 0
	listener := &LoadListener{TileLimitReached: func() { limitCount++ }}

	coords := []TileCoord{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	loaded, err := src.LoadTiles(1, coords, LoadOptions{MaxTiles: 2, Listener: listener})
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, 1, limitCount)
}

func TestDirectoryLoadTilesTemplate(t *testing.T) {
	meta := `{"tiles":["{z}-{x}-{y}.dat"],"vector_layers":[{"id":"roads"}]}`
	dir := createTileDir(t, meta, map[string][]byte{
		"3-1-2.dat": []byte("payload"),
	})
	src, err := NewDirectorySource(dir)
	require.NoError(t, err)

	loaded, err := src.LoadTiles(3, []TileCoord{{1, 2}}, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, []byte("payload"), loaded[0].Data)
	assert.Equal(t, VectorTile{Scheme: SchemeTMS, Zoom: 3, Column: 1, Row: 2}, loaded[0].Tile)
}

func TestDirectoryLoadTilesCancel(t *testing.T) {
	meta := `{"vector_layers":[{"id":"roads"}]}`
	dir := createTileDir(t, meta, map[string][]byte{
		"1/0/0.pbf": []byte("a"),
		"1/1/0.pbf": []byte("b"),
	})
	src, err := NewDirectorySource(dir)
	require.NoError(t, err)

	events := 0
	listener := &LoadListener{ProgressChanged: func(int) {
		events++
		src.Cancel()
	}}

	loaded, err := src.LoadTiles(1, []TileCoord{{0, 0}, {1, 0}}, LoadOptions{Listener: listener})
	require.NoError(t, err)
	assert.Equal(t, 1, events)
	assert.LessOrEqual(t, len(loaded), 1)
}
