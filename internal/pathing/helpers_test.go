package pathing

import (
	"context"
	"testing"

	"github.com/annel0/voxel-pathing/internal/vec"
	"github.com/annel0/voxel-pathing/internal/world"
	"github.com/annel0/voxel-pathing/internal/world/block"
	_ "github.com/annel0/voxel-pathing/internal/world/block/implementations"
	"github.com/stretchr/testify/require"
)

func v3(x, y, z int) vec.Vec3 {
	return vec.Vec3{X: x, Y: y, Z: z}
}

// floorWorld загружает чанк (0,0,0) и кладёт каменный пол на z=0
// в прямоугольнике [x0..x1]x[y0..y1]. Ходить можно по слою z=1.
func floorWorld(x0, y0, x1, y1 int) *world.VoxelMap {
	m := world.NewVoxelMap()
	m.AddChunk(world.ChunkCoord{})
	m.Fill(v3(x0, y0, 0), v3(x1, y1, 0), block.StoneBlockID)
	return m
}

// twoRooms строит две площадки 4x4, разделённые пустой полосой x=4.
// Если bridged, их соединяет одна ячейка (4,1,1).
func twoRooms(bridged bool) *world.VoxelMap {
	m := floorWorld(0, 0, 3, 3)
	m.Fill(v3(5, 0, 0), v3(8, 3, 0), block.StoneBlockID)
	if bridged {
		m.SetBlock(world.At(4, 1, 0), block.StoneBlockID)
	}
	return m
}

func buildGrid(t *testing.T, m *world.VoxelMap, modality Modality, opts ...GridOption) *Grid {
	t.Helper()

	g := NewGrid(m, modality, opts...)
	require.NoError(t, g.Build(context.Background()))
	m.AddListener(g)
	return g
}

// requireSymmetric проверяет, что каждое ребро хранится с обеих сторон
func requireSymmetric(t *testing.T, g *Grid) {
	t.Helper()

	for _, c := range g.PassableCoordinates() {
		mask := g.DirectionEdgeSet(c)
		for _, d := range world.AngularDirections {
			n := c.Translate(d)
			forward := mask&d.Bit() != 0
			backward := g.IsEdge(n, d.Invert())
			require.Equal(t, forward, backward, "асимметричное ребро %s -%s-> %s", c, d, n)
		}
	}
}

// reachable выполняет эталонную проверку достижимости обходом в ширину по маскам
func reachable(g *Grid, from, to world.MapCoordinate) bool {
	if g.DirectionEdgeSet(from) == 0 || g.DirectionEdgeSet(to) == 0 {
		return false
	}
	seen := map[world.MapCoordinate]bool{from: true}
	queue := []world.MapCoordinate{from}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == to {
			return true
		}
		mask := g.DirectionEdgeSet(c)
		for _, d := range world.AngularDirections {
			if mask&d.Bit() == 0 {
				continue
			}
			n := c.Translate(d)
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}

func equivalences(g *Grid) map[world.MapCoordinate]uint32 {
	result := make(map[world.MapCoordinate]uint32)
	for _, c := range g.PassableCoordinates() {
		result[c] = g.ZoneEquivalence(c)
	}
	return result
}

// requireMatchesBuild сравнивает сетку, обновлённую по уведомлениям,
// с построенной заново: маски совпадают, компоненты связности тоже
func requireMatchesBuild(t *testing.T, g *Grid, m *world.VoxelMap) {
	t.Helper()

	fresh := NewGrid(m, g.Modality())
	require.NoError(t, fresh.Build(context.Background()))

	coords := fresh.PassableCoordinates()
	require.Equal(t, coords, g.PassableCoordinates())

	forward := make(map[uint32]uint32)
	backward := make(map[uint32]uint32)
	for _, c := range coords {
		require.Equal(t, fresh.DirectionEdgeSet(c), g.DirectionEdgeSet(c), "маска %s", c)

		want, got := fresh.ZoneEquivalence(c), g.ZoneEquivalence(c)
		require.NotZero(t, got, "ячейка %s без зоны", c)
		if prev, ok := forward[want]; ok {
			require.Equal(t, prev, got, "ячейка %s в другой компоненте", c)
		} else {
			forward[want] = got
		}
		if prev, ok := backward[got]; ok {
			require.Equal(t, prev, want, "компоненты слиты у ячейки %s", c)
		} else {
			backward[got] = want
		}
	}
}
