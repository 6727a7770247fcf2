package vec

// Vec2 представляет координаты колонны (X, Z) на горизонтальной плоскости
type Vec2 struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}
