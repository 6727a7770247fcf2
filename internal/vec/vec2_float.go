package vec

// Vec2Float представляет 2D координаты с плавающей точкой (текстурные координаты)
type Vec2Float struct {
	X float32 `json:"u"`
	Y float32 `json:"v"`
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Array возвращает координаты массивом
func (v Vec2Float) Array() [2]float32 {
	return [2]float32{v.X, v.Y}
}
