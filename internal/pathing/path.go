package pathing

import (
	"github.com/annel0/voxel-pathing/internal/vec"
	"github.com/annel0/voxel-pathing/internal/world"
)

// CoordinatePath хранит маршрут в виде последовательности ячеек от старта до конца.
// Complete = false означает частичный маршрут, который не ведёт к цели.
type CoordinatePath struct {
	Coordinates []world.MapCoordinate
	Cost        float64
	Complete    bool
}

// Len возвращает количество шагов маршрута
func (p *CoordinatePath) Len() int {
	if len(p.Coordinates) == 0 {
		return 0
	}
	return len(p.Coordinates) - 1
}

// Vectors возвращает мировые координаты ячеек маршрута
func (p *CoordinatePath) Vectors() []vec.Vec3 {
	result := make([]vec.Vec3, len(p.Coordinates))
	for i, c := range p.Coordinates {
		result[i] = c.Vec3()
	}
	return result
}

// VectorPath хранит маршрут в виде последовательности направлений от старта
type VectorPath struct {
	Start      world.MapCoordinate
	Goal       world.MapCoordinate
	Directions []world.Direction
	Cost       float64
	Complete   bool
}

// Len возвращает количество шагов маршрута
func (p *VectorPath) Len() int {
	return len(p.Directions)
}

// Direction возвращает направление шага step; за концом маршрута возвращается DirectionDestination
func (p *VectorPath) Direction(step int) world.Direction {
	if step < 0 || step >= len(p.Directions) {
		return world.DirectionDestination
	}
	return p.Directions[step]
}

// Coordinates воспроизводит маршрут от старта и возвращает все его ячейки
func (p *VectorPath) Coordinates() []world.MapCoordinate {
	result := make([]world.MapCoordinate, 0, len(p.Directions)+1)
	c := p.Start
	result = append(result, c)
	for _, d := range p.Directions {
		c = c.Translate(d)
		result = append(result, c)
	}
	return result
}

// End возвращает последнюю ячейку маршрута
func (p *VectorPath) End() world.MapCoordinate {
	c := p.Start
	for _, d := range p.Directions {
		c = c.Translate(d)
	}
	return c
}
