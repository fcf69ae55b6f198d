package pathing

import (
	"math"
	"testing"

	"github.com/annel0/voxel-pathing/internal/world"
	"github.com/annel0/voxel-pathing/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristics(t *testing.T) {
	origin := world.At(0, 0, 0)

	assert.InDelta(t, math.Sqrt2+2, OctileHeuristic(origin, world.At(3, 1, 0)), 1e-12)
	assert.Equal(t, 6.0, OctileHeuristic(origin, world.At(2, 2, 3)), "вертикальные шаги покрывают горизонталь")
	assert.Equal(t, 7.0, OctileHeuristic(origin, world.At(-5, 1, -2)))
	assert.Equal(t, 0.0, OctileHeuristic(origin, origin))

	assert.Equal(t, 5.0, EuclideanHeuristic(origin, world.At(3, 4, 0)))
	assert.Equal(t, 9.0, ManhattanHeuristic(origin, world.At(3, -4, 2)))
}

func TestDiagonalStepIsCheapest(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 1, 1), ModalityWalk)
	start, goal := world.At(0, 0, 1), world.At(1, 1, 1)

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(start, goal)

	require.True(t, pf.Advance(0))
	path := pf.ExtractVectorPath()
	require.NotNil(t, path)
	assert.True(t, path.Complete)
	assert.Equal(t, math.Sqrt2, path.Cost)
	assert.Equal(t, []world.Direction{world.DirectionNorthEast}, path.Directions)
	assert.Equal(t, goal, path.End())
}

func TestPathCostMatchesEdgeCosts(t *testing.T) {
	m := floorWorld(0, 0, 15, 15)
	m.Fill(v3(4, 0, 1), v3(4, 12, 1), block.WallBlockID)
	m.Fill(v3(8, 3, 1), v3(8, 15, 1), block.WallBlockID)
	m.Fill(v3(11, 6, 1), v3(15, 7, 1), block.StoneBlockID)
	g := buildGrid(t, m, ModalityWalk)

	start, goal := world.At(0, 0, 1), world.At(14, 14, 1)
	require.True(t, g.IsPathPossible(start, goal))

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(start, goal)
	require.True(t, pf.Advance(0))

	path := pf.ExtractVectorPath()
	require.True(t, path.Complete)

	sum := 0.0
	c := path.Start
	for _, d := range path.Directions {
		cost := g.EdgeCost(c, d)
		require.GreaterOrEqual(t, cost, 0.0, "шаг %s из %s не является ребром", d, c)
		sum += cost
		c = c.Translate(d)
	}
	assert.Equal(t, goal, c)
	assert.Equal(t, sum, path.Cost)

	coords := pf.ExtractCoordinatePath()
	assert.Equal(t, path.Coordinates(), coords.Coordinates)
	assert.Equal(t, path.Cost, coords.Cost)
	assert.Equal(t, path.Len(), coords.Len())
}

func TestUninflatedSearchIsOptimal(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 15, 15), ModalityWalk)

	pf := NewPathfinder(g, WithInflation(1))
	defer pf.Close()
	pf.Reset(world.At(0, 0, 1), world.At(5, 3, 1))
	require.True(t, pf.Advance(0))

	path := pf.ExtractCoordinatePath()
	assert.InDelta(t, 3*math.Sqrt2+2, path.Cost, 1e-9)
	assert.Equal(t, 5, path.Len())
}

func TestFlyPathCost(t *testing.T) {
	m := world.NewVoxelMap()
	m.AddChunk(world.ChunkCoord{})
	g := buildGrid(t, m, ModalityFly)

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(world.At(1, 1, 1), world.At(1, 1, 5))
	require.True(t, pf.Advance(0))

	assert.Equal(t, 8.0, pf.ExtractVectorPath().Cost)
}

func TestAdvanceRespectsBudget(t *testing.T) {
	m := floorWorld(0, 0, 15, 0)
	g := buildGrid(t, m, ModalityWalk)

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(world.At(0, 0, 1), world.At(15, 0, 1))

	calls := 0
	for !pf.Advance(1) {
		require.False(t, pf.Exhausted())
		calls++
		require.Less(t, calls, 100)
	}
	assert.Equal(t, 15, calls, "по одному раскрытию на каждую ячейку коридора")
	assert.True(t, pf.Found())
	assert.True(t, pf.Advance(1), "повторный вызов после успеха ничего не раскрывает")
	assert.Equal(t, 16, pf.Stats().Expanded)
}

func TestPartialPathBeforeCompletion(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 15, 0), ModalityWalk)

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(world.At(0, 0, 1), world.At(15, 0, 1))

	require.False(t, pf.Advance(4))
	partial := pf.ExtractCoordinatePath()
	assert.False(t, partial.Complete)
	assert.Equal(t, world.At(0, 0, 1), partial.Coordinates[0])
	assert.Positive(t, pf.pool.Len(), "незавершённый поиск не освобождает узлы")

	// Поиск продолжается после частичного извлечения
	require.True(t, pf.Advance(0))
	full := pf.ExtractCoordinatePath()
	assert.True(t, full.Complete)
	assert.Equal(t, 15.0, full.Cost)
}

func TestExhaustedSearch(t *testing.T) {
	g := buildGrid(t, twoRooms(false), ModalityWalk)
	start, goal := world.At(1, 1, 1), world.At(6, 1, 1)
	require.False(t, g.IsPathPossible(start, goal))

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(start, goal)

	assert.False(t, pf.Advance(0))
	assert.True(t, pf.Exhausted())
	assert.False(t, pf.Found())
	assert.Equal(t, 16, pf.Stats().Visited)

	path := pf.ExtractCoordinatePath()
	require.NotNil(t, path)
	assert.False(t, path.Complete)
	assert.Equal(t, start, path.Coordinates[0])
	assert.Equal(t, 0, pf.pool.Len(), "исчерпанный поиск освобождает узлы")
}

func TestStartEqualsGoal(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 3, 3), ModalityWalk)
	c := world.At(2, 2, 1)

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(c, c)

	require.True(t, pf.Advance(0))
	path := pf.ExtractVectorPath()
	assert.True(t, path.Complete)
	assert.Empty(t, path.Directions)
	assert.Equal(t, 0.0, path.Cost)
	assert.Equal(t, world.DirectionDestination, path.Direction(0))
}

func TestPoolHygieneAcrossSearches(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 7, 7), ModalityWalk)

	pf := NewPathfinder(g)
	defer pf.Close()
	pf.Reset(world.At(0, 0, 1), world.At(7, 7, 1))
	require.True(t, pf.Advance(0))

	stale := pf.current
	_, ok := pf.pool.Node(stale)
	require.True(t, ok)

	first := pf.ExtractVectorPath()
	require.True(t, first.Complete)
	assert.Equal(t, 0, pf.pool.Len(), "после извлечения итогового пути узлы освобождены")
	_, ok = pf.pool.Node(stale)
	assert.False(t, ok, "ссылка прошлого поиска недействительна")

	// Повторное извлечение отдаёт тот же путь
	assert.Equal(t, first, pf.ExtractVectorPath())

	pf.Reset(world.At(7, 0, 1), world.At(0, 7, 1))
	_, ok = pf.pool.Node(stale)
	assert.False(t, ok)
	require.True(t, pf.Advance(0))
	second := pf.ExtractCoordinatePath()
	assert.Equal(t, world.At(7, 0, 1), second.Coordinates[0])
	assert.Equal(t, world.At(0, 7, 1), second.Coordinates[len(second.Coordinates)-1])
}

func TestCloseAndReuse(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 3, 3), ModalityWalk)

	pf := NewPathfinder(g)
	assert.Nil(t, pf.ExtractCoordinatePath(), "до Reset пути нет")
	assert.False(t, pf.Advance(0))

	pf.Reset(world.At(0, 0, 1), world.At(3, 3, 1))
	pf.Close()
	pf.Close()
	assert.False(t, pf.Advance(0))

	pf.Reset(world.At(0, 0, 1), world.At(3, 3, 1))
	assert.True(t, pf.Advance(0))
	pf.Close()
}

func TestVectorPathReplay(t *testing.T) {
	path := &VectorPath{
		Start:      world.At(0, 0, 1),
		Directions: []world.Direction{world.DirectionEast, world.DirectionNorthEastUp, world.DirectionNorth},
	}

	assert.Equal(t, []world.MapCoordinate{
		world.At(0, 0, 1), world.At(1, 0, 1), world.At(2, 1, 2), world.At(2, 2, 2),
	}, path.Coordinates())
	assert.Equal(t, world.At(2, 2, 2), path.End())
	assert.Equal(t, world.DirectionNorthEastUp, path.Direction(1))
	assert.Equal(t, world.DirectionDestination, path.Direction(3))
	assert.Equal(t, world.DirectionDestination, path.Direction(-1))
	assert.Equal(t, 3, path.Len())
}
