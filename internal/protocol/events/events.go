// Package events содержит типы событий ландшафта, которые публикуются в шину
package events

import (
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world"
)

// EventType представляет тип события
type EventType string

const (
	// EventTypeChunkMeshed - геометрия чанка перестроена
	EventTypeChunkMeshed EventType = "ChunkMeshed"
	// EventTypeChunkMeshRemoved - меш чанка удалён
	EventTypeChunkMeshRemoved EventType = "ChunkMeshRemoved"
	// EventTypeTerrainCleared - ландшафт очищен
	EventTypeTerrainCleared EventType = "TerrainCleared"
)

// Source имя источника событий ландшафта
const Source = "terrain"

// SchemaVersion версия схемы полезной нагрузки
const SchemaVersion = 1

// MeshEvent полезная нагрузка событий ChunkMeshed/ChunkMeshRemoved
type MeshEvent struct {
	Tick      uint64        `json:"tick"`
	Chunk     vec.Vec3      `json:"chunk"`
	MeshID    string        `json:"mesh_id"`
	Placement vec.Vec3Float `json:"placement"`
	Vertices  int           `json:"vertices"`
	Bounds    world.AABB    `json:"bounds"`
	// Geometry геометрия в формате protocol.GeometryCodec (только ChunkMeshed)
	Geometry []byte `json:"geometry,omitempty"`
}

// TypeFor тип события для результата мешера
func TypeFor(kind world.MeshEventKind) EventType {
	if kind == world.MeshRemoved {
		return EventTypeChunkMeshRemoved
	}
	return EventTypeChunkMeshed
}
