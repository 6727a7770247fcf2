package vec

// Vec3 представляет координаты чанка в решётке чанков
type Vec3 struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Единичные векторы по осям
var (
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

// ToChunkCoords преобразует глобальные координаты в координаты чанка
func (v Vec3) ToChunkCoords() Vec3 {
	return Vec3{X: v.X >> 4, Y: v.Y >> 4, Z: v.Z >> 4} // Деление на 16 с округлением вниз
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y & 0xF, Z: v.Z & 0xF} // Модуль 16
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Scale умножает каждую координату на скаляр
func (v Vec3) Scale(k int32) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Less задаёт стабильный порядок (X, затем Y, затем Z)
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// Compare возвращает -1, 0 или 1 в порядке Less; удобно для slices.SortFunc
func (v Vec3) Compare(other Vec3) int {
	switch {
	case v.Less(other):
		return -1
	case other.Less(v):
		return 1
	default:
		return 0
	}
}

// ToFloat переводит вектор в пространство меша
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
