package world

import (
	"fmt"
	"math"

	"github.com/annel0/voxel-terrain/internal/vec"
)

// GlobalPos адресует один воксель в бесконечном пространстве.
// Инвариант: global = Chunk*ChunkWidth + Local, деление с округлением вниз.
type GlobalPos struct {
	Chunk vec.Vec3
	Local LocalPos
}

// GlobalPosFromXYZ строит позицию из произвольных целых, зажимая их в диапазон int32
func GlobalPosFromXYZ(x, y, z int64) GlobalPos {
	return GlobalPosFromInt32(clampInt32(x), clampInt32(y), clampInt32(z))
}

// GlobalPosFromInt32 строит позицию из координат int32
func GlobalPosFromInt32(x, y, z int32) GlobalPos {
	v := vec.Vec3{X: x, Y: y, Z: z}
	local := v.LocalInChunk()
	return GlobalPos{
		Chunk: v.ToChunkCoords(),
		Local: LocalPos{x: uint8(local.X), y: uint8(local.Y), z: uint8(local.Z)},
	}
}

func clampInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}

// X глобальная координата X
func (p GlobalPos) X() int64 {
	return int64(p.Chunk.X)*ChunkWidth + int64(p.Local.x)
}

// Y глобальная координата Y
func (p GlobalPos) Y() int64 {
	return int64(p.Chunk.Y)*ChunkWidth + int64(p.Local.y)
}

// Z глобальная координата Z
func (p GlobalPos) Z() int64 {
	return int64(p.Chunk.Z)*ChunkWidth + int64(p.Local.z)
}

// XYZ глобальные координаты массивом
func (p GlobalPos) XYZ() [3]int64 {
	return [3]int64{p.X(), p.Y(), p.Z()}
}

func (p GlobalPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X(), p.Y(), p.Z())
}
