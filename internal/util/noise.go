package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise генератор шума Перлина с фиксированным сидом
type Noise struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoise инициализирует генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{seed: seed, perlin: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Seed сид генератора
func (n *Noise) Seed() int64 {
	return n.seed
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) Noise2D(x, y float64) float64 {
	// Значение шума примерно от -1 до 1, переводим в диапазон от 0 до 1 и зажимаем
	v := (n.perlin.Noise2D(x, y) + 1.0) / 2.0
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
