// Package scene хранит меши, выданные мешеру, как это делал бы рендерер.
package scene

import (
	"slices"
	"sync"

	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/google/uuid"
)

// Scene реализует world.MeshFactory и отслеживает живые меши
type Scene struct {
	mu      sync.RWMutex
	meshes  map[uuid.UUID]*world.Mesh
	spawned uint64
	dropped uint64
}

// New создаёт пустую сцену
func New() *Scene {
	return &Scene{meshes: make(map[uuid.UUID]*world.Mesh)}
}

// NewMesh создаёт пустой меш, привязанный к размещению чанка
func (s *Scene) NewMesh(chunk vec.Vec3, placement vec.Vec3Float) *world.Mesh {
	mesh := &world.Mesh{
		ID:        uuid.New(),
		Chunk:     chunk,
		Placement: placement,
	}

	s.mu.Lock()
	s.meshes[mesh.ID] = mesh
	s.spawned++
	s.mu.Unlock()
	return mesh
}

// DropMesh освобождает меш и его буферы
func (s *Scene) DropMesh(mesh *world.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meshes[mesh.ID]; !ok {
		return
	}
	delete(s.meshes, mesh.ID)
	mesh.Geometry = world.Geometry{}
	s.dropped++
}

// Get меш по идентификатору
func (s *Scene) Get(id uuid.UUID) (*world.Mesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mesh, ok := s.meshes[id]
	return mesh, ok
}

// Len количество живых мешей
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}

// Stats счётчики созданных и освобождённых мешей
func (s *Scene) Stats() (spawned, dropped uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spawned, s.dropped
}

// IDs идентификаторы живых мешей в стабильном порядке
func (s *Scene) IDs() []uuid.UUID {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.meshes))
	for id := range s.meshes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return ids
}
