package pathing

import (
	"math"

	"github.com/annel0/voxel-pathing/internal/world"
)

// Heuristic оценивает стоимость пути между двумя ячейками
type Heuristic func(from, to world.MapCoordinate) float64

// OctileHeuristic даёт точную нижняя оценка для стоимостей рёбер сетки:
// каждый вертикальный шаг стоит 2 и попутно сдвигает по X и Y на единицу,
// остаток проходится горизонтальными диагоналями (√2) и гранями (1).
func OctileHeuristic(from, to world.MapCoordinate) float64 {
	d := from.Vec3().Sub(to.Vec3()).Abs()

	dx := max(d.X-d.Z, 0)
	dy := max(d.Y-d.Z, 0)
	lo, hi := min(dx, dy), max(dx, dy)

	return 2*float64(d.Z) + math.Sqrt2*float64(lo) + float64(hi-lo)
}

// EuclideanHeuristic считает расстояние по прямой; используется для разрешения ничьих
func EuclideanHeuristic(from, to world.MapCoordinate) float64 {
	return from.Vec3().DistanceTo(to.Vec3())
}

// ManhattanHeuristic считает сумму модулей разностей координат
func ManhattanHeuristic(from, to world.MapCoordinate) float64 {
	d := from.Vec3().Sub(to.Vec3()).Abs()
	return float64(d.X + d.Y + d.Z)
}
