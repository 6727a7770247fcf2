package tile

import (
	"testing"

	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedColor_Bounds(t *testing.T) {
	_, ok := NewIndexedColor(0)
	assert.True(t, ok)
	_, ok = NewIndexedColor(MaxColorIndex)
	assert.True(t, ok, "61 - последний допустимый индекс")
	_, ok = NewIndexedColor(MaxColorIndex + 1)
	assert.False(t, ok)
	_, ok = NewIndexedColor(-1)
	assert.False(t, ok)

	assert.Panics(t, func() { MustIndexedColor(64) })
}

func TestIndexedColor_UV(t *testing.T) {
	assert.Equal(t, vec.Vec2Float{X: 0.0625, Y: 0.0625}, MustIndexedColor(0).UV())
	assert.Equal(t, vec.Vec2Float{X: 0.9375, Y: 0.0625}, MustIndexedColor(7).UV())
	assert.Equal(t, vec.Vec2Float{X: 0.0625, Y: 0.1875}, MustIndexedColor(8).UV())
	assert.Equal(t, vec.Vec2Float{X: 0.6875, Y: 0.9375}, MustIndexedColor(61).UV())
}

func TestTile_ZeroValueIsEmpty(t *testing.T) {
	var zero Tile
	assert.True(t, zero.IsEmpty())
	assert.False(t, zero.IsSolid())
	assert.Equal(t, Empty, zero)

	brick := Brick(MustIndexedColor(3))
	assert.True(t, brick.IsSolid())
	assert.Equal(t, "brick(3)", brick.String())
}

func TestOcclusionPolicy(t *testing.T) {
	red := Brick(MustIndexedColor(1))
	blue := Brick(MustIndexedColor(2))

	assert.True(t, OccludeAnySolid.Hides(red, blue), "любой твёрдый сосед скрывает грань")
	assert.True(t, OccludeAnySolid.Hides(red, red))
	assert.False(t, OccludeAnySolid.Hides(red, Empty))

	assert.False(t, OccludeSameTile.Hides(red, blue), "разные цвета не скрывают друг друга")
	assert.True(t, OccludeSameTile.Hides(red, red))
	assert.False(t, OccludeSameTile.Hides(red, Empty))
}

func TestParseOcclusionPolicy(t *testing.T) {
	p, err := ParseOcclusionPolicy("same_tile")
	require.NoError(t, err)
	assert.Equal(t, OccludeSameTile, p)

	p, err = ParseOcclusionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OccludeAnySolid, p)

	_, err = ParseOcclusionPolicy("glass")
	assert.Error(t, err)
}

func TestKindRegistry(t *testing.T) {
	k, ok := ParseKind("Brick")
	require.True(t, ok)
	assert.Equal(t, KindBrick, k)
	assert.True(t, IsValidKind(KindBrick))
	assert.False(t, IsValidKind(Kind(200)))
	assert.Equal(t, "unknown", Kind(200).String())
}
