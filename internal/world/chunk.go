package world

import "github.com/annel0/voxel-terrain/internal/world/tile"

// Cleanup сигнал после низкоуровневой мутации чанка
type Cleanup uint8

const (
	// CleanupNone чанк остаётся в карте
	CleanupNone Cleanup = iota
	// CleanupRemoveChunk чанк опустел и должен быть удалён из карты
	CleanupRemoveChunk
)

func (c Cleanup) String() string {
	if c == CleanupRemoveChunk {
		return "remove_chunk"
	}
	return "none"
}

// Chunk представляет участок мира размером 16x16x16 вокселей
type Chunk struct {
	slots    [ChunkVolume]tile.Tile
	occupied uint16 // Количество непустых слотов
}

// emptyChunk общий пустой чанк, подставляется вместо отсутствующих соседей. Только для чтения.
var emptyChunk = &Chunk{}

// NewChunk создаёт пустой чанк
func NewChunk() *Chunk {
	return &Chunk{}
}

// Set записывает тайл в слот. Пустой тайл недопустим, для очистки есть Remove.
func (c *Chunk) Set(pos LocalPos, t tile.Tile) Cleanup {
	if t.IsEmpty() {
		panic("world: Chunk.Set called with an empty tile")
	}
	slot := &c.slots[pos.Index()]
	if slot.IsEmpty() {
		c.occupied++
	}
	*slot = t
	return CleanupNone
}

// Remove очищает слот. CleanupRemoveChunk возвращается ровно тогда, когда чанк опустел.
func (c *Chunk) Remove(pos LocalPos) Cleanup {
	slot := &c.slots[pos.Index()]
	if slot.IsEmpty() {
		if c.occupied == 0 {
			return CleanupRemoveChunk
		}
		return CleanupNone
	}
	*slot = tile.Empty
	c.occupied--
	if c.occupied == 0 {
		return CleanupRemoveChunk
	}
	return CleanupNone
}

// At возвращает слот (пустой тайл, если слот свободен)
func (c *Chunk) At(pos LocalPos) tile.Tile {
	return c.slots[pos.Index()]
}

// Slot возвращает тайл и признак его наличия
func (c *Chunk) Slot(pos LocalPos) (tile.Tile, bool) {
	t := c.slots[pos.Index()]
	return t, !t.IsEmpty()
}

// Occupied количество непустых слотов
func (c *Chunk) Occupied() int {
	return int(c.occupied)
}

// IsEmpty сообщает, что в чанке нет ни одного тайла
func (c *Chunk) IsEmpty() bool {
	return c.occupied == 0
}

// hasMaxPlaneTiles есть ли тайлы на плоскостях x=15, y=15 или z=15
func (c *Chunk) hasMaxPlaneTiles() bool {
	for a := uint8(0); a < ChunkWidth; a++ {
		for b := uint8(0); b < ChunkWidth; b++ {
			if !c.At(LocalPos{x: ChunkMax, y: a, z: b}).IsEmpty() ||
				!c.At(LocalPos{x: a, y: ChunkMax, z: b}).IsEmpty() ||
				!c.At(LocalPos{x: a, y: b, z: ChunkMax}).IsEmpty() {
				return true
			}
		}
	}
	return false
}
