package tile

import "github.com/annel0/voxel-terrain/internal/vec"

// MaxColorIndex последний допустимый индекс палитры
const MaxColorIndex = 61

// paletteSide ширина текстуры палитры в ячейках (8x8)
const paletteSide = 8

// IndexedColor индекс цвета в палитре 0..MaxColorIndex
type IndexedColor struct {
	index uint8
}

// NewIndexedColor создаёт цвет, если индекс в допустимом диапазоне
func NewIndexedColor(i int) (IndexedColor, bool) {
	if i < 0 || i > MaxColorIndex {
		return IndexedColor{}, false
	}
	return IndexedColor{index: uint8(i)}, true
}

// MustIndexedColor как NewIndexedColor, но паникует на неверном индексе
func MustIndexedColor(i int) IndexedColor {
	c, ok := NewIndexedColor(i)
	if !ok {
		panic("tile: color index out of range")
	}
	return c
}

// Index возвращает индекс палитры
func (c IndexedColor) Index() int {
	return int(c.index)
}

// UV возвращает центр ячейки палитры в текстурных координатах
func (c IndexedColor) UV() vec.Vec2Float {
	col := float32(int(c.index) % paletteSide)
	row := float32(int(c.index) / paletteSide)
	return vec.Vec2Float{
		X: (col + 0.5) / paletteSide,
		Y: (row + 0.5) / paletteSide,
	}
}
