package world

import (
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/google/uuid"
)

// Mesh геометрия одного чанка и её размещение в мире.
// Вершины лежат в локальных координатах чанка, Placement = Chunk*ChunkWidth.
type Mesh struct {
	ID        uuid.UUID     `json:"id"`
	Chunk     vec.Vec3      `json:"chunk"`
	Placement vec.Vec3Float `json:"placement"`
	Geometry  Geometry      `json:"geometry"`
	Bounds    AABB          `json:"bounds"`
}

// WorldBounds AABB в мировых координатах
func (m *Mesh) WorldBounds() AABB {
	return m.Bounds.Translate(m.Placement)
}

// MeshFactory внешний коллаборатор: создаёт пустой меш, привязанный к размещению, и освобождает его
type MeshFactory interface {
	NewMesh(chunk vec.Vec3, placement vec.Vec3Float) *Mesh
	DropMesh(mesh *Mesh)
}

// MeshEventKind тип результата обработки чанка
type MeshEventKind uint8

const (
	MeshUpdated MeshEventKind = iota // Геометрия перестроена
	MeshRemoved                      // Меш удалён
)

func (k MeshEventKind) String() string {
	if k == MeshRemoved {
		return "removed"
	}
	return "updated"
}

// MeshEvent результат прохода мешера для одного чанка
type MeshEvent struct {
	Chunk vec.Vec3
	Kind  MeshEventKind
	Mesh  *Mesh // Для MeshRemoved указывает на удалённый меш
}

// PlacementFor мировое смещение меша чанка
func PlacementFor(chunk vec.Vec3) vec.Vec3Float {
	return chunk.Scale(ChunkWidth).ToFloat()
}
