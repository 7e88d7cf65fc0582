package tilereader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTilesFromCenter(t *testing.T) {
	grid := make([]TileCoord, 0, 9)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			grid = append(grid, TileCoord{Column: x, Row: y})
		}
	}

	t.Run("picks the center tile first", func(t *testing.T) {
		picked := TilesFromCenter(1, grid, nil)
		require.Len(t, picked, 1)
		assert.Equal(t, TileCoord{Column: 1, Row: 1}, picked[0])
	})

	t.Run("is deterministic", func(t *testing.T) {
		first := TilesFromCenter(4, grid, nil)
		second := TilesFromCenter(4, grid, nil)
		assert.Equal(t, first, second)
	})

	t.Run("returns everything when the cap covers the set", func(t *testing.T) {
		picked := TilesFromCenter(20, grid, nil)
		assert.Len(t, picked, len(grid))
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		picked := TilesFromCenter(9, grid, func() bool { return true })
		assert.Empty(t, picked)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, TilesFromCenter(3, nil, nil))
	})
}

func TestTileBounds(t *testing.T) {
	t.Run("whole world at zoom 0", func(t *testing.T) {
		b := TileBounds(0, WorldBounds, SchemeXYZ)
		assert.Equal(t, Bounds{Zoom: 0, XMin: 0, XMax: 0, YMin: 0, YMax: 0, Scheme: SchemeXYZ}, b)
	})

	t.Run("whole world at zoom 1", func(t *testing.T) {
		b := TileBounds(1, WorldBounds, SchemeXYZ)
		assert.Equal(t, 0, b.XMin)
		assert.Equal(t, 1, b.XMax)
		assert.Equal(t, 0, b.YMin)
		assert.Equal(t, 1, b.YMax)
		assert.Equal(t, 2, b.Width())
		assert.Equal(t, 2, b.Height())
	})

	t.Run("tms flips the rows", func(t *testing.T) {
		northWest := Extent{West: -180, South: 0.1, East: -0.1, North: 85}

		xyz := TileBounds(1, northWest, SchemeXYZ)
		assert.Equal(t, Bounds{Zoom: 1, XMin: 0, XMax: 0, YMin: 0, YMax: 0, Scheme: SchemeXYZ}, xyz)

		tms := TileBounds(1, northWest, SchemeTMS)
		assert.Equal(t, Bounds{Zoom: 1, XMin: 0, XMax: 0, YMin: 1, YMax: 1, Scheme: SchemeTMS}, tms)
	})

	t.Run("out of range latitudes are clamped", func(t *testing.T) {
		b := TileBounds(2, Extent{West: -180, South: -90, East: 180, North: 90}, SchemeXYZ)
		assert.Equal(t, 0, b.YMin)
		assert.Equal(t, 3, b.YMax)
		assert.Equal(t, 0, b.XMin)
		assert.Equal(t, 3, b.XMax)
	})
}

func TestFlipRow(t *testing.T) {
	assert.Equal(t, 0, FlipRow(0, 0))
	assert.Equal(t, 1, FlipRow(0, 1))
	assert.Equal(t, 15, FlipRow(0, 4))
	assert.Equal(t, 5, FlipRow(10, 4))
}

func TestParseExtent(t *testing.T) {
	ext, ok := parseExtent("-180,-85.0511,180,85.0511")
	require.True(t, ok)
	assert.Equal(t, WorldBounds, ext)

	ext, ok = parseExtent(" [-10.5, -20, 10.5, 20] ")
	require.True(t, ok)
	assert.Equal(t, Extent{West: -10.5, South: -20, East: 10.5, North: 20}, ext)

	_, ok = parseExtent("not,a,bounds")
	assert.False(t, ok)

	_, ok = parseExtent("")
	assert.False(t, ok)

	_, ok = parseExtent("a,b,c,d")
	assert.False(t, ok)
}
