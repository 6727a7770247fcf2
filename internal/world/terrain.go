package world

import (
	"slices"

	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world/tile"
)

// Terrain разреженная карта чанков, множество грязных чанков и кэш мешей.
// Не потокобезопасна: синхронизацию обеспечивает владелец (см. sim.Loop).
type Terrain struct {
	chunks map[vec.Vec3]*Chunk
	dirty  map[vec.Vec3]struct{}
	meshes map[vec.Vec3]*Mesh // Заполняется только мешером
}

// NewTerrain создаёт пустой ландшафт
func NewTerrain() *Terrain {
	return &Terrain{
		chunks: make(map[vec.Vec3]*Chunk),
		dirty:  make(map[vec.Vec3]struct{}),
		meshes: make(map[vec.Vec3]*Mesh),
	}
}

// Get возвращает тайл; false, если чанка нет или слот пуст
func (t *Terrain) Get(pos GlobalPos) (tile.Tile, bool) {
	chunk, exists := t.chunks[pos.Chunk]
	if !exists {
		return tile.Empty, false
	}
	return chunk.Slot(pos.Local)
}

// Set записывает тайл, создавая чанк при необходимости. Пустой тайл эквивалентен Remove.
func (t *Terrain) Set(pos GlobalPos, value tile.Tile) {
	if value.IsEmpty() {
		t.Remove(pos)
		return
	}
	chunk, exists := t.chunks[pos.Chunk]
	if !exists {
		chunk = NewChunk()
		t.chunks[pos.Chunk] = chunk
	}
	t.applyCleanup(pos.Chunk, chunk.Set(pos.Local, value))
	t.markDirty(pos)
}

// Remove очищает слот; отсутствующий чанк не трогается
func (t *Terrain) Remove(pos GlobalPos) {
	chunk, exists := t.chunks[pos.Chunk]
	if !exists {
		return
	}
	t.applyCleanup(pos.Chunk, chunk.Remove(pos.Local))
	t.markDirty(pos)
}

// SetSlot записывает тайл или очищает слот, если тайл пуст
func (t *Terrain) SetSlot(pos GlobalPos, value tile.Tile) {
	if value.IsEmpty() {
		t.Remove(pos)
		return
	}
	t.Set(pos, value)
}

// Clear удаляет все чанки. Чанки с мешами помечаются грязными, чтобы мешер убрал старую геометрию.
func (t *Terrain) Clear() {
	clear(t.chunks)
	clear(t.dirty)
	for coords := range t.meshes {
		t.dirty[coords] = struct{}{}
	}
}

func (t *Terrain) applyCleanup(coords vec.Vec3, cleanup Cleanup) {
	if cleanup == CleanupRemoveChunk {
		delete(t.chunks, coords)
	}
}

// markDirty помечает чанк позиции и соседей, которые видят её через общую границу.
// Для каждого непустого подмножества S осей с нулевой локальной координатой
// помечается чанк Chunk - sum(S).
func (t *Terrain) markDirty(pos GlobalPos) {
	t.dirty[pos.Chunk] = struct{}{}
	zero := pos.Local.AtZero()
	for s := zero; s > 0; s = (s - 1) & zero {
		t.dirty[pos.Chunk.Sub(axesOffset(s))] = struct{}{}
	}
}

// axesOffset единичный вектор-сумма по осям набора
func axesOffset(a Axes) vec.Vec3 {
	var v vec.Vec3
	if a.Has(AxisX) {
		v.X = 1
	}
	if a.Has(AxisY) {
		v.Y = 1
	}
	if a.Has(AxisZ) {
		v.Z = 1
	}
	return v
}

// drainDirty забирает отсортированный снимок грязных чанков и сбрасывает множество
func (t *Terrain) drainDirty() []vec.Vec3 {
	coords := make([]vec.Vec3, 0, len(t.dirty))
	for c := range t.dirty {
		coords = append(coords, c)
	}
	clear(t.dirty)
	slices.SortFunc(coords, vec.Vec3.Compare)
	return coords
}

// Chunk возвращает чанк по координатам
func (t *Terrain) Chunk(coords vec.Vec3) (*Chunk, bool) {
	chunk, exists := t.chunks[coords]
	return chunk, exists
}

// ChunkCount количество чанков в карте
func (t *Terrain) ChunkCount() int {
	return len(t.chunks)
}

// ChunkCoords координаты всех чанков в стабильном порядке
func (t *Terrain) ChunkCoords() []vec.Vec3 {
	coords := make([]vec.Vec3, 0, len(t.chunks))
	for c := range t.chunks {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, vec.Vec3.Compare)
	return coords
}

// IsDirty ожидает ли чанк перестроения
func (t *Terrain) IsDirty(coords vec.Vec3) bool {
	_, dirty := t.dirty[coords]
	return dirty
}

// DirtyCount размер множества грязных чанков
func (t *Terrain) DirtyCount() int {
	return len(t.dirty)
}

// Mesh возвращает меш чанка, построенный последним проходом мешера
func (t *Terrain) Mesh(coords vec.Vec3) (*Mesh, bool) {
	mesh, exists := t.meshes[coords]
	return mesh, exists
}

// MeshCount количество мешей в кэше
func (t *Terrain) MeshCount() int {
	return len(t.meshes)
}

// MeshCoords координаты всех мешей в стабильном порядке
func (t *Terrain) MeshCoords() []vec.Vec3 {
	coords := make([]vec.Vec3, 0, len(t.meshes))
	for c := range t.meshes {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, vec.Vec3.Compare)
	return coords
}

// neighbourhood собирает чанк и 7 положительных соседей, индексируя смещением по осям.
// Отсутствующие заменяются emptyChunk.
func (t *Terrain) neighbourhood(coords vec.Vec3) (nb neighbourhood, home bool, neighbours bool) {
	for off := Axes(0); off <= AllAxes; off++ {
		chunk, exists := t.chunks[coords.Add(axesOffset(off))]
		if !exists {
			nb[off] = emptyChunk
			continue
		}
		nb[off] = chunk
		if off == NoAxes {
			home = true
		} else {
			neighbours = true
		}
	}
	return nb, home, neighbours
}
