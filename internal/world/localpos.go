package world

import (
	"fmt"
	"iter"
)

// Размеры чанка
const (
	ChunkShift  = 4
	ChunkWidth  = 1 << ChunkShift // 16
	ChunkMax    = ChunkWidth - 1  // 15
	ChunkVolume = ChunkWidth * ChunkWidth * ChunkWidth

	localBitsMask = 0x0FFF // 4 бита на ось
)

// Axes набор осей. Биты совпадают с битами Subtile: X=4, Y=2, Z=1.
type Axes uint8

const (
	AxisZ Axes = 1 << iota
	AxisY
	AxisX

	NoAxes  Axes = 0
	AllAxes      = AxisX | AxisY | AxisZ
)

// Has проверяет, входит ли ось в набор
func (a Axes) Has(axis Axes) bool {
	return a&axis != 0
}

func (a Axes) String() string {
	s := ""
	if a.Has(AxisX) {
		s += "X"
	}
	if a.Has(AxisY) {
		s += "Y"
	}
	if a.Has(AxisZ) {
		s += "Z"
	}
	if s == "" {
		return "-"
	}
	return s
}

// LocalPos позиция внутри одного чанка, 0..15 по каждой оси
type LocalPos struct {
	x, y, z uint8
}

// NewLocalPos создаёт позицию с проверкой границ
func NewLocalPos(x, y, z uint8) (LocalPos, bool) {
	if x > ChunkMax || y > ChunkMax || z > ChunkMax {
		return LocalPos{}, false
	}
	return LocalPos{x: x, y: y, z: z}, true
}

// NewLocalPosUnchecked создаёт позицию без проверки. Координаты должны быть < ChunkWidth.
func NewLocalPosUnchecked(x, y, z uint8) LocalPos {
	return LocalPos{x: x, y: y, z: z}
}

// MustLocalPos паникует на координатах вне чанка
func MustLocalPos(x, y, z uint8) LocalPos {
	p, ok := NewLocalPos(x, y, z)
	if !ok {
		panic(fmt.Sprintf("world: local position (%d, %d, %d) out of chunk bounds", x, y, z))
	}
	return p
}

// LocalPosFromBits восстанавливает позицию из упакованного вида 0000xxxxyyyyzzzz
func LocalPosFromBits(bits uint16) (LocalPos, bool) {
	if bits&^localBitsMask != 0 {
		return LocalPos{}, false
	}
	return LocalPos{
		x: uint8(bits>>8) & ChunkMax,
		y: uint8(bits>>4) & ChunkMax,
		z: uint8(bits) & ChunkMax,
	}, true
}

// Bits упакованное представление 0000xxxxyyyyzzzz
func (p LocalPos) Bits() uint16 {
	return uint16(p.x)<<8 | uint16(p.y)<<4 | uint16(p.z)
}

// Index индекс слота в плотном массиве чанка
func (p LocalPos) Index() int {
	return int(p.Bits())
}

func (p LocalPos) X() uint8 { return p.x }
func (p LocalPos) Y() uint8 { return p.y }
func (p LocalPos) Z() uint8 { return p.z }

// XYZ координаты массивом
func (p LocalPos) XYZ() [3]uint8 {
	return [3]uint8{p.x, p.y, p.z}
}

// IncX сдвигает позицию на +1 по X. Паникует, если X уже максимален.
func (p LocalPos) IncX() LocalPos {
	if p.x >= ChunkMax {
		panic("world: LocalPos.IncX overflows chunk")
	}
	p.x++
	return p
}

// IncY сдвигает позицию на +1 по Y. Паникует, если Y уже максимален.
func (p LocalPos) IncY() LocalPos {
	if p.y >= ChunkMax {
		panic("world: LocalPos.IncY overflows chunk")
	}
	p.y++
	return p
}

// IncZ сдвигает позицию на +1 по Z. Паникует, если Z уже максимален.
func (p LocalPos) IncZ() LocalPos {
	if p.z >= ChunkMax {
		panic("world: LocalPos.IncZ overflows chunk")
	}
	p.z++
	return p
}

// Inc сдвигает позицию на +1 по каждой оси из набора
func (p LocalPos) Inc(axes Axes) LocalPos {
	if axes.Has(AxisX) {
		p = p.IncX()
	}
	if axes.Has(AxisY) {
		p = p.IncY()
	}
	if axes.Has(AxisZ) {
		p = p.IncZ()
	}
	return p
}

// Mask оставляет координаты выбранных осей и обнуляет остальные
func (p LocalPos) Mask(keep Axes) LocalPos {
	if !keep.Has(AxisX) {
		p.x = 0
	}
	if !keep.Has(AxisY) {
		p.y = 0
	}
	if !keep.Has(AxisZ) {
		p.z = 0
	}
	return p
}

// AtMax набор осей, по которым координата равна ChunkMax
func (p LocalPos) AtMax() Axes {
	var a Axes
	if p.x == ChunkMax {
		a |= AxisX
	}
	if p.y == ChunkMax {
		a |= AxisY
	}
	if p.z == ChunkMax {
		a |= AxisZ
	}
	return a
}

// AtZero набор осей, по которым координата равна нулю
func (p LocalPos) AtZero() Axes {
	var a Axes
	if p.x == 0 {
		a |= AxisX
	}
	if p.y == 0 {
		a |= AxisY
	}
	if p.z == 0 {
		a |= AxisZ
	}
	return a
}

func (p LocalPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.x, p.y, p.z)
}

// InnerPositions перечисляет позиции, у которых +1 по любой оси остаётся в чанке (15³ = 3375)
func InnerPositions() iter.Seq[LocalPos] {
	return func(yield func(LocalPos) bool) {
		for x := uint8(0); x < ChunkMax; x++ {
			for y := uint8(0); y < ChunkMax; y++ {
				for z := uint8(0); z < ChunkMax; z++ {
					if !yield(LocalPos{x: x, y: y, z: z}) {
						return
					}
				}
			}
		}
	}
}

// ZonePositions перечисляет позиции зоны: оси из fixed равны ChunkMax, остальные 0..14.
// ZonePositions(NoAxes) совпадает с InnerPositions.
func ZonePositions(fixed Axes) iter.Seq[LocalPos] {
	axisRange := func(axis Axes) (uint8, uint8) {
		if fixed.Has(axis) {
			return ChunkMax, ChunkMax + 1
		}
		return 0, ChunkMax
	}
	return func(yield func(LocalPos) bool) {
		x0, x1 := axisRange(AxisX)
		y0, y1 := axisRange(AxisY)
		z0, z1 := axisRange(AxisZ)
		for x := x0; x < x1; x++ {
			for y := y0; y < y1; y++ {
				for z := z0; z < z1; z++ {
					if !yield(LocalPos{x: x, y: y, z: z}) {
						return
					}
				}
			}
		}
	}
}

// Zones наборы фиксированных осей всех зон: внутренняя, 3 грани, 3 ребра, угол
var Zones = [8]Axes{
	NoAxes,
	AxisX, AxisY, AxisZ,
	AxisX | AxisY, AxisX | AxisZ, AxisY | AxisZ,
	AllAxes,
}
