package world

import "github.com/annel0/voxel-terrain/internal/vec"

// Geometry неиндексированный список треугольников: позиции, нормали, текстурные координаты
type Geometry struct {
	Positions [][3]float32 `json:"positions"`
	Normals   [][3]float32 `json:"normals"`
	UVs       [][2]float32 `json:"uvs"`
}

// VertexCount количество вершин
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// TriangleCount количество треугольников
func (g *Geometry) TriangleCount() int {
	return len(g.Positions) / 3
}

// IsEmpty нет ни одной вершины
func (g *Geometry) IsEmpty() bool {
	return len(g.Positions) == 0
}

// Reset очищает буферы, сохраняя выделенную память
func (g *Geometry) Reset() {
	g.Positions = g.Positions[:0]
	g.Normals = g.Normals[:0]
	g.UVs = g.UVs[:0]
}

// AABB ограничивающий параллелепипед
type AABB struct {
	Min vec.Vec3Float `json:"min"`
	Max vec.Vec3Float `json:"max"`
}

// IsZero вырожденный (нулевой) объём
func (b AABB) IsZero() bool {
	return b == AABB{}
}

// Center центр объёма
func (b AABB) Center() vec.Vec3Float {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Translate сдвигает объём
func (b AABB) Translate(offset vec.Vec3Float) AABB {
	return AABB{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// ComputeBounds считает AABB по позициям вершин; пустая геометрия даёт нулевой AABB
func ComputeBounds(g *Geometry) AABB {
	if g.IsEmpty() {
		return AABB{}
	}
	b := AABB{
		Min: vec.Vec3FloatFromArray(g.Positions[0]),
		Max: vec.Vec3FloatFromArray(g.Positions[0]),
	}
	for _, p := range g.Positions[1:] {
		v := vec.Vec3FloatFromArray(p)
		b.Min = b.Min.Min(v)
		b.Max = b.Max.Max(v)
	}
	return b
}

// MeshBuilder дописывает квады в Geometry со смещением
type MeshBuilder struct {
	geometry *Geometry
	offset   vec.Vec3Float
}

// EditGeometry начинает перестроение геометрии: буферы очищаются
func EditGeometry(g *Geometry) *MeshBuilder {
	g.Reset()
	return &MeshBuilder{geometry: g}
}

// SetOffset задаёт смещение для всех следующих вершин
func (b *MeshBuilder) SetOffset(offset vec.Vec3Float) {
	b.offset = offset
}

// AddTri добавляет один треугольник с плоской нормалью
func (b *MeshBuilder) AddTri(corners [3]vec.Vec3Float, normal vec.Vec3Float, uv vec.Vec2Float) {
	n := normal.Array()
	t := uv.Array()
	for _, c := range corners {
		b.geometry.Positions = append(b.geometry.Positions, c.Add(b.offset).Array())
		b.geometry.Normals = append(b.geometry.Normals, n)
		b.geometry.UVs = append(b.geometry.UVs, t)
	}
}

// AddQuad разворачивает квад в два треугольника [0,1,3] и [2,3,1] с общей диагональю 1-3.
// Углы идут по периметру; обход разворачивается так, чтобы грань смотрела по нормали.
func (b *MeshBuilder) AddQuad(corners [4]vec.Vec3Float, normal vec.Vec3Float, uv vec.Vec2Float) {
	e1 := corners[1].Sub(corners[0])
	e2 := corners[3].Sub(corners[0])
	if e1.Cross(e2).Dot(normal) < 0 {
		corners[1], corners[3] = corners[3], corners[1]
	}
	b.AddTri([3]vec.Vec3Float{corners[0], corners[1], corners[3]}, normal, uv)
	b.AddTri([3]vec.Vec3Float{corners[2], corners[3], corners[1]}, normal, uv)
}
