package world

import (
	"testing"

	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world/tile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFactory struct {
	created int
	dropped int
}

func (f *testFactory) NewMesh(chunk vec.Vec3, placement vec.Vec3Float) *Mesh {
	f.created++
	return &Mesh{ID: uuid.New(), Chunk: chunk, Placement: placement}
}

func (f *testFactory) DropMesh(*Mesh) {
	f.dropped++
}

// totalVertices сумма вершин по всем мешам ландшафта
func totalVertices(t *Terrain) int {
	n := 0
	for _, c := range t.MeshCoords() {
		m, _ := t.Mesh(c)
		n += m.Geometry.VertexCount()
	}
	return n
}

// worldBounds объединение мировых AABB всех непустых мешей
func worldBounds(t *Terrain) AABB {
	var out AABB
	first := true
	for _, c := range t.MeshCoords() {
		m, _ := t.Mesh(c)
		if m.Geometry.IsEmpty() {
			continue
		}
		b := m.WorldBounds()
		if first {
			out, first = b, false
			continue
		}
		out = AABB{Min: out.Min.Min(b.Min), Max: out.Max.Max(b.Max)}
	}
	return out
}

func meshAll(terrain *Terrain, policy tile.OcclusionPolicy) []MeshEvent {
	return NewMesher(policy).Pass(terrain, &testFactory{})
}

func TestMesher_SingleVoxelAnywhere(t *testing.T) {
	positions := [][3]int32{
		{7, 7, 7},
		{0, 0, 0},
		{15, 15, 15},
		{-1, -1, -1},
		{16, -16, 31},
		{0, 5, 15},
		{-33, 0, 47},
	}

	for _, p := range positions {
		terrain := NewTerrain()
		terrain.Set(GlobalPosFromInt32(p[0], p[1], p[2]), testBrick)
		meshAll(terrain, tile.OccludeAnySolid)

		// 6 граней x 4 четверти x 6 вершин
		assert.Equal(t, 144, totalVertices(terrain), "одиночный воксель в %v", p)

		x, y, z := float32(p[0]), float32(p[1]), float32(p[2])
		assert.Equal(t, AABB{
			Min: vec.Vec3Float{X: x, Y: y, Z: z},
			Max: vec.Vec3Float{X: x + 1, Y: y + 1, Z: z + 1},
		}, worldBounds(terrain), "геометрия должна совпадать с кубом вокселя %v", p)
	}
}

func TestMesher_NormalsPointOutward(t *testing.T) {
	terrain := NewTerrain()
	terrain.Set(GlobalPosFromInt32(15, 0, 7), testBrick)
	meshAll(terrain, tile.OccludeAnySolid)

	center := vec.Vec3Float{X: 15.5, Y: 0.5, Z: 7.5}
	for _, c := range terrain.MeshCoords() {
		m, _ := terrain.Mesh(c)
		g := &m.Geometry
		for i := 0; i < len(g.Positions); i += 3 {
			a := vec.Vec3FloatFromArray(g.Positions[i]).Add(m.Placement)
			b := vec.Vec3FloatFromArray(g.Positions[i+1]).Add(m.Placement)
			d := vec.Vec3FloatFromArray(g.Positions[i+2]).Add(m.Placement)
			n := vec.Vec3FloatFromArray(g.Normals[i])

			assert.Greater(t, a.Sub(center).Dot(n), float32(0), "нормаль должна смотреть наружу")
			assert.Greater(t, b.Sub(a).Cross(d.Sub(a)).Dot(n), float32(0), "обход против часовой стрелки вокруг нормали")
		}
	}
}

func TestMesher_AdjacentVoxels(t *testing.T) {
	pairs := [][2][3]int32{
		{{4, 4, 4}, {5, 4, 4}},
		{{15, 3, 3}, {16, 3, 3}},
		{{3, -1, 3}, {3, 0, 3}},
		{{3, 3, 15}, {3, 3, 16}},
	}

	for _, pair := range pairs {
		terrain := NewTerrain()
		for _, p := range pair {
			terrain.Set(GlobalPosFromInt32(p[0], p[1], p[2]), testBrick)
		}
		meshAll(terrain, tile.OccludeAnySolid)
		// 10 видимых граней x 24 вершины
		assert.Equal(t, 240, totalVertices(terrain), "пара %v", pair)
	}
}

func TestMesher_SameTilePolicy(t *testing.T) {
	red := tile.Brick(tile.MustIndexedColor(1))
	blue := tile.Brick(tile.MustIndexedColor(2))

	terrain := NewTerrain()
	terrain.Set(GlobalPosFromInt32(15, 3, 3), red)
	terrain.Set(GlobalPosFromInt32(16, 3, 3), blue)
	meshAll(terrain, tile.OccludeSameTile)
	assert.Equal(t, 288, totalVertices(terrain), "разные тайлы не скрывают общую грань")

	terrain = NewTerrain()
	terrain.Set(GlobalPosFromInt32(15, 3, 3), red)
	terrain.Set(GlobalPosFromInt32(16, 3, 3), blue)
	meshAll(terrain, tile.OccludeAnySolid)
	assert.Equal(t, 240, totalVertices(terrain), "любой твёрдый сосед скрывает грань")

	terrain = NewTerrain()
	terrain.Set(GlobalPosFromInt32(15, 3, 3), red)
	terrain.Set(GlobalPosFromInt32(16, 3, 3), red)
	meshAll(terrain, tile.OccludeSameTile)
	assert.Equal(t, 240, totalVertices(terrain), "одинаковые тайлы скрывают общую грань")
}

func TestMesher_CubeAcrossChunkCorner(t *testing.T) {
	terrain := NewTerrain()
	for x := int32(-1); x <= 0; x++ {
		for y := int32(-1); y <= 0; y++ {
			for z := int32(-1); z <= 0; z++ {
				terrain.Set(GlobalPosFromInt32(x, y, z), testBrick)
			}
		}
	}
	require.Equal(t, 8, terrain.ChunkCount())

	meshAll(terrain, tile.OccludeAnySolid)
	// Куб 2x2x2: 6 сторон x 4 грани x 24 вершины, без швов на границах чанков
	assert.Equal(t, 576, totalVertices(terrain))
	assert.Equal(t, AABB{
		Min: vec.Vec3Float{X: -1, Y: -1, Z: -1},
		Max: vec.Vec3Float{X: 1, Y: 1, Z: 1},
	}, worldBounds(terrain))
}

func TestMesher_FullChunk(t *testing.T) {
	terrain := NewTerrain()
	for p := range ZonePositions(NoAxes) {
		terrain.Set(GlobalPos{Local: p}, testBrick)
	}
	for _, fixed := range Zones[1:] {
		for p := range ZonePositions(fixed) {
			terrain.Set(GlobalPos{Local: p}, testBrick)
		}
	}
	require.Equal(t, ChunkVolume, mustChunk(t, terrain, vec.Vec3{}).Occupied())

	meshAll(terrain, tile.OccludeAnySolid)
	// Только внешняя поверхность: 6 x 256 граней x 24 вершины
	assert.Equal(t, 6*256*24, totalVertices(terrain))
}

func mustChunk(t *testing.T, terrain *Terrain, coords vec.Vec3) *Chunk {
	t.Helper()
	c, ok := terrain.Chunk(coords)
	require.True(t, ok)
	return c
}

func TestMesher_RemoveDropsMeshes(t *testing.T) {
	terrain := NewTerrain()
	factory := &testFactory{}
	mesher := NewMesher(tile.OccludeAnySolid)
	pos := GlobalPosFromInt32(0, 0, 0)

	terrain.Set(pos, testBrick)
	events := mesher.Pass(terrain, factory)
	assert.Len(t, events, 8, "воксель в углу чанка задевает 8 мешей")
	assert.Equal(t, 8, terrain.MeshCount())
	assert.Equal(t, 0, terrain.DirtyCount())

	terrain.Remove(pos)
	events = mesher.Pass(terrain, factory)
	assert.Len(t, events, 8)
	for _, e := range events {
		assert.Equal(t, MeshRemoved, e.Kind)
		assert.NotNil(t, e.Mesh)
	}
	assert.Equal(t, 0, terrain.MeshCount())
	assert.Equal(t, 8, factory.created)
	assert.Equal(t, 8, factory.dropped)

	assert.Empty(t, mesher.Pass(terrain, factory), "повторный проход ничего не делает")
}

func TestMesher_ReusesMeshHandle(t *testing.T) {
	terrain := NewTerrain()
	factory := &testFactory{}
	mesher := NewMesher(tile.OccludeAnySolid)

	terrain.Set(GlobalPosFromInt32(5, 5, 5), testBrick)
	mesher.Pass(terrain, factory)
	first, ok := terrain.Mesh(vec.Vec3{})
	require.True(t, ok)
	id := first.ID

	terrain.Set(GlobalPosFromInt32(6, 5, 5), testBrick)
	events := mesher.Pass(terrain, factory)
	require.Len(t, events, 1)
	assert.Equal(t, MeshUpdated, events[0].Kind)
	assert.Equal(t, id, events[0].Mesh.ID, "меш чанка переиспользуется")
	assert.Equal(t, 1, factory.created)
	assert.Equal(t, 240, events[0].Mesh.Geometry.VertexCount())
	assert.Equal(t, vec.Vec3Float{X: 5, Y: 5, Z: 5}, events[0].Mesh.Bounds.Min)
	assert.Equal(t, vec.Vec3Float{X: 7, Y: 6, Z: 6}, events[0].Mesh.Bounds.Max)
}

func TestMesher_PlacementIsChunkTimesWidth(t *testing.T) {
	terrain := NewTerrain()
	terrain.Set(GlobalPosFromInt32(-40, 20, 70), testBrick)
	events := meshAll(terrain, tile.OccludeAnySolid)

	require.Len(t, events, 1)
	assert.Equal(t, vec.Vec3{X: -3, Y: 1, Z: 4}, events[0].Chunk)
	assert.Equal(t, vec.Vec3Float{X: -48, Y: 16, Z: 64}, events[0].Mesh.Placement)
}

func TestMesher_EmptyChunkStaysMeshed(t *testing.T) {
	// Полностью закрытый чанк даёт пустую геометрию и нулевой AABB
	terrain := NewTerrain()
	for x := int32(-1); x <= 16; x++ {
		for y := int32(-1); y <= 16; y++ {
			for z := int32(-1); z <= 16; z++ {
				terrain.Set(GlobalPosFromInt32(x, y, z), testBrick)
			}
		}
	}
	meshAll(terrain, tile.OccludeAnySolid)

	m, ok := terrain.Mesh(vec.Vec3{})
	require.True(t, ok)
	assert.True(t, m.Geometry.IsEmpty())
	assert.True(t, m.Bounds.IsZero())
}

func TestMesher_AbsentChunkWithoutGeometrySpawnsNothing(t *testing.T) {
	terrain := NewTerrain()
	factory := &testFactory{}
	mesher := NewMesher(tile.OccludeAnySolid)

	// Внутренний воксель держит чанк (1,0,0) живым, граничный сразу удаляется
	terrain.Set(GlobalPosFromInt32(20, 5, 5), testBrick)
	terrain.Set(GlobalPosFromInt32(16, 5, 5), testBrick)
	terrain.Remove(GlobalPosFromInt32(16, 5, 5))
	require.True(t, terrain.IsDirty(vec.Vec3{}), "удаление на минимальной плоскости метит соседа")

	events := mesher.Pass(terrain, factory)
	require.Len(t, events, 1)
	assert.Equal(t, vec.Vec3{X: 1}, events[0].Chunk)
	assert.Equal(t, 1, factory.created, "для пустого отсутствующего чанка меш не создаётся")
	assert.Equal(t, 0, factory.dropped)
	_, ok := terrain.Mesh(vec.Vec3{})
	assert.False(t, ok)

	// Граничный воксель снова на месте: отсутствующий чанк получает свой меш
	terrain.Set(GlobalPosFromInt32(16, 5, 5), testBrick)
	events = mesher.Pass(terrain, factory)
	assert.Len(t, events, 2)
	assert.Equal(t, 2, factory.created)
	m, ok := terrain.Mesh(vec.Vec3{})
	require.True(t, ok)
	assert.False(t, m.Geometry.IsEmpty())
	assert.Equal(t, float32(16), m.Bounds.Min.X, "грань -X соседа лежит на плоскости x=16")
}
