package world

import (
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world/tile"
)

// Mesher перестраивает геометрию грязных чанков. Проходы не должны идти параллельно.
type Mesher struct {
	policy  tile.OcclusionPolicy
	scratch Geometry // буфер для чанков, у которых ещё нет меша
}

// NewMesher создаёт мешер с заданной политикой перекрытия граней
func NewMesher(policy tile.OcclusionPolicy) *Mesher {
	return &Mesher{policy: policy}
}

// Policy политика перекрытия граней
func (m *Mesher) Policy() tile.OcclusionPolicy {
	return m.policy
}

// Pass забирает множество грязных чанков и обрабатывает каждый ровно один раз.
// Правки, сделанные после начала прохода, попадут в следующий.
func (m *Mesher) Pass(t *Terrain, factory MeshFactory) []MeshEvent {
	dirty := t.drainDirty()
	events := make([]MeshEvent, 0, len(dirty))
	for _, coords := range dirty {
		if event, ok := m.meshChunk(t, factory, coords); ok {
			events = append(events, event)
		}
	}
	return events
}

// meshChunk полностью перестраивает меш одного чанка.
// Отсутствующий чанк, у которого есть положительные соседи, всё равно мешится:
// его узлы на границе покрывают отрицательные грани вокселей соседей.
func (m *Mesher) meshChunk(t *Terrain, factory MeshFactory, coords vec.Vec3) (MeshEvent, bool) {
	nb, home, neighbours := t.neighbourhood(coords)
	existing, hasMesh := t.meshes[coords]

	if !home && !neighbours {
		if !hasMesh {
			return MeshEvent{}, false
		}
		return m.dropMesh(t, factory, coords, existing), true
	}

	target := &m.scratch
	if hasMesh {
		target = &existing.Geometry
	}
	b := EditGeometry(target)
	if home {
		m.buildZone(b, &nb, NoAxes)
	}
	if neighbours || nb[NoAxes].hasMaxPlaneTiles() {
		for _, fixed := range Zones[1:] {
			m.buildZone(b, &nb, fixed)
		}
	}

	if !home && target.IsEmpty() {
		if hasMesh {
			return m.dropMesh(t, factory, coords, existing), true
		}
		return MeshEvent{}, false
	}

	mesh := existing
	if !hasMesh {
		mesh = factory.NewMesh(coords, PlacementFor(coords))
		mesh.Geometry, m.scratch = m.scratch, mesh.Geometry
	}
	mesh.Bounds = ComputeBounds(&mesh.Geometry)

	t.meshes[coords] = mesh
	return MeshEvent{Chunk: coords, Kind: MeshUpdated, Mesh: mesh}, true
}

func (m *Mesher) dropMesh(t *Terrain, factory MeshFactory, coords vec.Vec3, mesh *Mesh) MeshEvent {
	delete(t.meshes, coords)
	factory.DropMesh(mesh)
	return MeshEvent{Chunk: coords, Kind: MeshRemoved, Mesh: mesh}
}

// buildZone обходит узлы одной зоны. Узел позиции p лежит в точке p+1 локальной решётки.
func (m *Mesher) buildZone(b *MeshBuilder, nb *neighbourhood, fixed Axes) {
	positions := ZonePositions(fixed)
	if fixed == NoAxes {
		positions = InnerPositions()
	}
	for p := range positions {
		corner := nb.sampleCorner(p, fixed)
		b.SetOffset(vec.Vec3Float{
			X: float32(p.x) + 1,
			Y: float32(p.y) + 1,
			Z: float32(p.z) + 1,
		})
		emitCorner(b, &corner, m.policy)
	}
}
