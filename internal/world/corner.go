package world

import (
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world/tile"
)

// Subtile одна из 8 октант вокруг угла. Установленный бит оси означает воксель на +1 по этой оси.
type Subtile uint8

const (
	SubtileZ Subtile = 1 << iota
	SubtileY
	SubtileX

	subtileCount = 8
)

// Across субтайл по другую сторону грани, перпендикулярной оси
func (s Subtile) Across(axis Axes) Subtile {
	return s ^ Subtile(axis)
}

// CornerTiles восемь вокселей, сходящихся в одном узле решётки, индексированные Subtile
type CornerTiles [subtileCount]tile.Tile

// IsUniform все восемь вокселей пусты либо все непусты
func (c *CornerTiles) IsUniform() bool {
	solid := c[0].IsSolid()
	for _, t := range c[1:] {
		if t.IsSolid() != solid {
			return false
		}
	}
	return true
}

// neighbourhood чанк и его 7 положительных соседей, индекс = смещение по осям (Axes)
type neighbourhood [subtileCount]*Chunk

// sampleCorner читает октет для угла p в зоне fixed.
// Оси fixed у p равны ChunkMax: шаг по такой оси уходит в соседний чанк,
// а локальная координата там обнуляется маской.
func (nb *neighbourhood) sampleCorner(p LocalPos, fixed Axes) CornerTiles {
	var corner CornerTiles
	for s := Subtile(0); s < subtileCount; s++ {
		step := Axes(s)
		overflow := step & fixed
		q := p.Inc(step &^ overflow).Mask(AllAxes &^ overflow)
		corner[s] = nb[overflow].At(q)
	}
	return corner
}

// subtileFace квад четверти грани субтайла у угла, в координатах относительно узла
type subtileFace struct {
	corners [4]vec.Vec3Float
	normal  vec.Vec3Float
}

var faceAxes = [3]Axes{AxisX, AxisY, AxisZ}

// subtileFaces[s][i] четверть грани субтайла s, перпендикулярной faceAxes[i]
var subtileFaces = buildSubtileFaces()

func axisUnit(a Axes) vec.Vec3Float {
	switch a {
	case AxisX:
		return vec.Vec3Float{X: 1}
	case AxisY:
		return vec.Vec3Float{Y: 1}
	default:
		return vec.Vec3Float{Z: 1}
	}
}

func buildSubtileFaces() (faces [subtileCount][3]subtileFace) {
	for s := Subtile(0); s < subtileCount; s++ {
		// Направление от узла к центру субтайла, по половине вокселя
		dir := func(a Axes) vec.Vec3Float {
			if Axes(s).Has(a) {
				return axisUnit(a).Mul(0.5)
			}
			return axisUnit(a).Mul(-0.5)
		}
		for i, a := range faceAxes {
			u, v := faceAxes[(i+1)%3], faceAxes[(i+2)%3]
			du, dv := dir(u), dir(v)
			faces[s][i] = subtileFace{
				corners: [4]vec.Vec3Float{{}, du, du.Add(dv), dv},
				// Нормаль смотрит от субтайла к соседу через грань
				normal: dir(a).Mul(-2),
			}
		}
	}
	return faces
}

// emitCorner добавляет видимые четверти граней всех субтайлов октета
func emitCorner(b *MeshBuilder, corner *CornerTiles, policy tile.OcclusionPolicy) {
	if !corner[0].IsSolid() && corner.IsUniform() {
		return
	}
	for s := Subtile(0); s < subtileCount; s++ {
		t := corner[s]
		if t.IsEmpty() {
			continue
		}
		uv := t.UV()
		for i, a := range faceAxes {
			if policy.Hides(t, corner[s.Across(a)]) {
				continue
			}
			face := &subtileFaces[s][i]
			b.AddQuad(face.corners, face.normal, uv)
		}
	}
}
