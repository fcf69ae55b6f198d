package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	perlinAlpha  = 2.0 // Сглаживание шума
	perlinBeta   = 2.0 // Частота шума
	perlinOctave = 3   // Количество октав
)

// Noise детерминированный генератор шума Перлина
type Noise struct {
	perlin *perlin.Perlin
}

// NewNoise создаёт генератор шума с указанным сидом
func NewNoise(seed int64) *Noise {
	return &Noise{
		perlin: perlin.NewPerlin(perlinAlpha, perlinBeta, int32(perlinOctave), seed),
	}
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) Noise2D(x, y float64) float64 {
	// Получаем значение шума (примерно от -1 до 1) и приводим к диапазону 0..1
	v := (n.perlin.Noise2D(x, y) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
