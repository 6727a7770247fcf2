// Package tile описывает содержимое одного воксельного слота.
package tile

import (
	"fmt"

	"github.com/annel0/voxel-terrain/internal/vec"
)

// Tile содержимое слота. Нулевое значение означает пустой слот.
type Tile struct {
	Kind  Kind
	Color IndexedColor
}

// Empty пустой слот
var Empty = Tile{}

// Brick создаёт кирпич заданного цвета
func Brick(color IndexedColor) Tile {
	return Tile{Kind: KindBrick, Color: color}
}

// IsEmpty сообщает, пуст ли слот
func (t Tile) IsEmpty() bool {
	return t.Kind == KindEmpty
}

// IsSolid твёрдость определяется наличием тайла
func (t Tile) IsSolid() bool {
	return !t.IsEmpty()
}

// Equal сравнивает вариант и полезную нагрузку
func (t Tile) Equal(other Tile) bool {
	return t == other
}

// UV текстурные координаты тайла для меша
func (t Tile) UV() vec.Vec2Float {
	return t.Color.UV()
}

func (t Tile) String() string {
	if t.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s(%d)", t.Kind, t.Color.Index())
}
