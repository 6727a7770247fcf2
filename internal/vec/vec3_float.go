package vec

// Vec3Float представляет трехмерный вектор с плавающими координатами (пространство меша)
type Vec3Float struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float32) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Neg возвращает противоположный вектор
func (v Vec3Float) Neg() Vec3Float {
	return Vec3Float{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot скалярное произведение
func (v Vec3Float) Dot(other Vec3Float) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross векторное произведение
func (v Vec3Float) Cross(other Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Min покомпонентный минимум
func (v Vec3Float) Min(other Vec3Float) Vec3Float {
	return Vec3Float{X: min(v.X, other.X), Y: min(v.Y, other.Y), Z: min(v.Z, other.Z)}
}

// Max покомпонентный максимум
func (v Vec3Float) Max(other Vec3Float) Vec3Float {
	return Vec3Float{X: max(v.X, other.X), Y: max(v.Y, other.Y), Z: max(v.Z, other.Z)}
}

// Array возвращает координаты массивом (формат вершинных буферов)
func (v Vec3Float) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// Vec3FloatFromArray обратное преобразование к Array
func Vec3FloatFromArray(a [3]float32) Vec3Float {
	return Vec3Float{X: a[0], Y: a[1], Z: a[2]}
}
