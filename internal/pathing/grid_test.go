package pathing

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/annel0/voxel-pathing/internal/world"
	"github.com/annel0/voxel-pathing/internal/world/block"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRefresh struct {
	chunks map[world.ChunkCoord]int
}

func (r *recordingRefresh) MarkPathingDirty(cc world.ChunkCoord) {
	if r.chunks == nil {
		r.chunks = make(map[world.ChunkCoord]int)
	}
	r.chunks[cc]++
}

func TestDirectionCost(t *testing.T) {
	assert.Equal(t, 0.0, DirectionCost(world.DirectionNone))
	assert.Equal(t, 1.0, DirectionCost(world.DirectionEast))
	assert.Equal(t, 1.0, DirectionCost(world.DirectionSouth))
	assert.Equal(t, math.Sqrt2, DirectionCost(world.DirectionNorthEast))
	assert.Equal(t, 2.0, DirectionCost(world.DirectionUp))
	assert.Equal(t, 2.0, DirectionCost(world.DirectionSouthWestDown))
	assert.Equal(t, 0.0, DirectionCost(world.DirectionDestination))
}

func TestBuildFlatFloor(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 3, 3), ModalityWalk)

	inner := world.At(1, 1, 1)
	assert.True(t, g.Contains(inner))
	for _, d := range []world.Direction{
		world.DirectionEast, world.DirectionWest, world.DirectionNorth, world.DirectionSouth,
		world.DirectionNorthEast, world.DirectionNorthWest, world.DirectionSouthEast, world.DirectionSouthWest,
	} {
		assert.True(t, g.IsEdge(inner, d), "горизонтальное ребро %s", d)
	}
	assert.False(t, g.IsEdge(inner, world.DirectionUp), "над полом пустота без опоры")
	assert.False(t, g.IsEdge(inner, world.DirectionDown), "под полом камень")

	corner := world.At(0, 0, 1)
	assert.False(t, g.IsEdge(corner, world.DirectionWest), "за краем пола пустота")
	assert.Equal(t, NoEdge, g.EdgeCost(corner, world.DirectionSouthWest))
	assert.Equal(t, math.Sqrt2, g.EdgeCost(corner, world.DirectionNorthEast))
	assert.Equal(t, 1.0, g.EdgeCost(corner, world.DirectionEast))
	assert.Equal(t, 0.0, g.EdgeCost(corner, world.DirectionNone))

	assert.Len(t, g.PassableCoordinates(), 16)
	assert.True(t, g.IsPathPossible(corner, world.At(3, 3, 1)))
	requireSymmetric(t, g)
}

func TestAbsentChunkIsEmpty(t *testing.T) {
	g := buildGrid(t, floorWorld(0, 0, 3, 3), ModalityWalk)

	far := world.At(1000, -1000, 50)
	assert.Equal(t, uint32(0), g.DirectionEdgeSet(far))
	assert.Equal(t, uint32(0), g.ConnectivityZone(far))
	assert.Equal(t, uint32(0), g.ZoneEquivalence(far))
	assert.Equal(t, NoEdge, g.EdgeCost(far, world.DirectionEast))
	assert.False(t, g.IsPathPossible(far, world.At(1, 1, 1)))
}

func TestWalkClimbsStep(t *testing.T) {
	m := floorWorld(0, 0, 7, 3)
	m.Fill(v3(4, 0, 1), v3(7, 3, 1), block.StoneBlockID)
	g := buildGrid(t, m, ModalityWalk)

	low, high := world.At(3, 1, 1), world.At(4, 1, 2)
	assert.True(t, g.IsEdge(low, world.DirectionEastUp))
	assert.True(t, g.IsEdge(high, world.DirectionWestDown))
	assert.Equal(t, 2.0, g.EdgeCost(low, world.DirectionEastUp))
	assert.True(t, g.IsPathPossible(world.At(0, 0, 1), world.At(7, 3, 2)))

	// Потолок над нижней ячейкой убирает запас высоты
	m.SetBlock(world.At(3, 1, 2), block.WallBlockID)
	assert.False(t, g.IsEdge(low, world.DirectionEastUp))
	assert.False(t, g.IsEdge(high, world.DirectionWestDown))
	requireSymmetric(t, g)
}

func TestFlyModality(t *testing.T) {
	m := world.NewVoxelMap()
	m.AddChunk(world.ChunkCoord{})
	m.Fill(v3(0, 0, 0), v3(15, 15, 0), block.StoneBlockID)
	g := buildGrid(t, m, ModalityFly)

	c := world.At(5, 5, 5)
	assert.Equal(t, uint32(0), g.DirectionEdgeSet(world.At(5, 5, 0)), "в камне не летают")
	for _, d := range world.AngularDirections {
		assert.True(t, g.IsEdge(c, d), "в открытом воздухе проходимо %s", d)
	}
	assert.True(t, g.IsPathPossible(world.At(0, 0, 1), world.At(15, 15, 15)))

	walk := buildGrid(t, m, ModalityWalk)
	assert.False(t, walk.Contains(c), "пешком по воздуху не ходят")
}

func TestEnclosedGoalIsUnreachable(t *testing.T) {
	m := floorWorld(0, 0, 15, 15)
	// Каменный колодец 3x3x2 с единственной пустой ячейкой внутри
	m.Fill(v3(7, 7, 1), v3(9, 9, 2), block.WallBlockID)
	m.SetBlock(world.At(8, 8, 1), block.AirBlockID)
	g := buildGrid(t, m, ModalityWalk)

	goal := world.At(8, 8, 1)
	assert.Equal(t, uint32(0), g.DirectionEdgeSet(goal), "замурованная ячейка без рёбер")
	assert.Equal(t, uint32(0), g.ConnectivityZone(goal))
	assert.False(t, g.IsPathPossible(world.At(0, 0, 1), goal))
}

func TestZoneSplitAfterEdgeRemoval(t *testing.T) {
	m := twoRooms(true)
	g := buildGrid(t, m, ModalityWalk)

	west, east := world.At(1, 1, 1), world.At(6, 1, 1)
	require.True(t, g.IsPathPossible(west, east))
	require.Equal(t, g.ZoneEquivalence(west), g.ZoneEquivalence(east))

	// Убираем опору мостика: ячейка над ней становится небом
	version := g.Version()
	require.True(t, m.SetBlock(world.At(4, 1, 0), block.AirBlockID))
	assert.Greater(t, g.Version(), version)

	assert.False(t, g.Contains(world.At(4, 1, 1)))
	assert.False(t, g.IsPathPossible(west, east))
	assert.NotEqual(t, g.ZoneEquivalence(west), g.ZoneEquivalence(east))
	assert.True(t, g.IsPathPossible(west, world.At(3, 3, 1)))
	requireSymmetric(t, g)
}

func TestDigConnectsRooms(t *testing.T) {
	m := twoRooms(false)
	g := buildGrid(t, m, ModalityWalk)

	west, east := world.At(1, 1, 1), world.At(6, 1, 1)
	require.False(t, g.IsPathPossible(west, east))

	m.SetBlock(world.At(4, 2, 0), block.StoneBlockID)
	assert.True(t, g.Contains(world.At(4, 2, 1)))
	assert.True(t, g.IsPathPossible(west, east))
	assert.Equal(t, g.ZoneEquivalence(west), g.ZoneEquivalence(east))

	// Зоны комнат различны, связь учтена в таблице
	zw, ze := g.ConnectivityZone(west), g.ConnectivityZone(east)
	require.NotEqual(t, zw, ze)
	bridge := g.ConnectivityZone(world.At(4, 2, 1))
	assert.True(t, bridge == zw || bridge == ze)
	other := zw
	if bridge == zw {
		other = ze
	}
	// Мостик (4,2,1) соединён с тремя ячейками соседней комнаты
	assert.Equal(t, 3, g.Zones().Connection(bridge, other))
	requireSymmetric(t, g)
}

func TestConnectionCountsDropToZero(t *testing.T) {
	m := twoRooms(false)
	g := buildGrid(t, m, ModalityWalk)
	west, east := world.At(1, 1, 1), world.At(6, 1, 1)

	m.SetBlock(world.At(4, 2, 0), block.StoneBlockID)
	require.True(t, g.IsPathPossible(west, east))
	zw, ze := g.ConnectivityZone(west), g.ConnectivityZone(east)

	m.SetBlock(world.At(4, 2, 0), block.AirBlockID)
	assert.Equal(t, 0, g.Zones().Connection(zw, ze))
	assert.Empty(t, g.Zones().Neighbors(zw))
	assert.False(t, g.IsPathPossible(west, east))
}

func TestGridSetRefreshNotifierPerModality(t *testing.T) {
	m := twoRooms(false)
	notifiers := make(map[Modality]*recordingRefresh)
	set := NewGridSet(m, nil, WithRefreshNotifierFor(func(mod Modality) RefreshNotifier {
		r := &recordingRefresh{}
		notifiers[mod] = r
		return r
	}))
	require.NoError(t, set.Build(context.Background()))
	m.AddListener(set)
	require.Len(t, notifiers, len(Modalities))

	m.SetBlock(world.At(4, 2, 0), block.StoneBlockID)
	for mod, r := range notifiers {
		assert.Positive(t, r.chunks[world.ChunkCoord{}], mod.String())
	}
	assert.NotSame(t, notifiers[ModalityWalk], notifiers[ModalityFly])
}

func TestRefreshNotifier(t *testing.T) {
	m := twoRooms(false)
	refresh := &recordingRefresh{}
	buildGrid(t, m, ModalityWalk, WithRefreshNotifier(refresh))

	m.SetBlock(world.At(4, 2, 0), block.StoneBlockID)
	assert.Equal(t, 1, refresh.chunks[world.ChunkCoord{}])

	// Изменение без последствий для проходимости не сигналит
	m.SetBlock(world.At(12, 12, 8), block.StoneBlockID)
	m.SetBlock(world.At(12, 12, 8), block.AirBlockID)
	assert.Equal(t, 1, refresh.chunks[world.ChunkCoord{}])
}

func TestCrossChunkEdges(t *testing.T) {
	m := world.NewVoxelMap()
	m.Fill(v3(12, 0, 0), v3(19, 3, 0), block.StoneBlockID)
	g := buildGrid(t, m, ModalityWalk)

	left, right := world.At(15, 1, 1), world.At(16, 1, 1)
	require.NotEqual(t, left.Chunk, right.Chunk)
	assert.True(t, g.IsEdge(left, world.DirectionEast))
	assert.True(t, g.IsEdge(right, world.DirectionWest))
	assert.True(t, g.IsPathPossible(world.At(12, 0, 1), world.At(19, 3, 1)))

	// Пол продолжается в чанк, которого в сетке ещё нет
	m.Fill(v3(20, 0, 0), v3(32, 0, 0), block.StoneBlockID)
	assert.True(t, g.IsEdge(world.At(31, 0, 1), world.DirectionEast))
	assert.True(t, g.IsEdge(world.At(32, 0, 1), world.DirectionWest))
	assert.True(t, g.IsPathPossible(world.At(12, 0, 1), world.At(32, 0, 1)))
	requireSymmetric(t, g)
	requireMatchesBuild(t, g, m)

	// Новый чанк над построенными открывает запас высоты и подъёмы
	m.Fill(v3(12, 0, 16), v3(12, 0, 16), block.StoneBlockID)
	requireSymmetric(t, g)
	requireMatchesBuild(t, g, m)
}

func TestLoadingChunkUpdatesFlyGrid(t *testing.T) {
	m := world.NewVoxelMap()
	m.AddChunk(world.ChunkCoord{})
	m.Fill(v3(0, 0, 0), v3(15, 15, 0), block.StoneBlockID)
	g := buildGrid(t, m, ModalityFly)

	top := world.At(5, 5, 15)
	require.False(t, g.IsEdge(top, world.DirectionUp), "над чанком незагруженное пространство")

	m.Fill(v3(5, 5, 25), v3(5, 5, 25), block.StoneBlockID)
	assert.True(t, g.IsEdge(top, world.DirectionUp))
	assert.True(t, g.IsPathPossible(top, world.At(5, 5, 20)))
	assert.False(t, g.Contains(world.At(5, 5, 25)), "в камне не летают")
	requireMatchesBuild(t, g, m)
}

func TestZoneSplitIsResolvedLocally(t *testing.T) {
	m := floorWorld(0, 0, 8, 2)
	g := buildGrid(t, m, ModalityWalk)
	west, east := world.At(0, 1, 1), world.At(8, 1, 1)
	require.Equal(t, g.ConnectivityZone(west), g.ConnectivityZone(east), "ровный пол образует одну зону")

	full := testutil.ToFloat64(zoneRebuilds.WithLabelValues("walk", "full"))
	split := testutil.ToFloat64(zoneRebuilds.WithLabelValues("walk", "split"))

	// Провал поперёк пола делит зону на две части
	m.Fill(v3(4, 0, 0), v3(4, 2, 0), block.AirBlockID)
	assert.False(t, g.IsPathPossible(west, east))
	assert.NotEqual(t, g.ConnectivityZone(west), g.ConnectivityZone(east))
	assert.Equal(t, 1.0, testutil.ToFloat64(zoneRebuilds.WithLabelValues("walk", "split"))-split)
	assert.Equal(t, full, testutil.ToFloat64(zoneRebuilds.WithLabelValues("walk", "full")), "полного переназначения нет")
	requireMatchesBuild(t, g, m)

	// Ребро внутри зоны, не разрывающее её, новых зон не создаёт
	zones := g.Zones().Count()
	m.SetBlock(world.At(1, 1, 0), block.AirBlockID)
	assert.True(t, g.IsPathPossible(west, world.At(3, 2, 1)))
	assert.Equal(t, zones, g.Zones().Count())

	m.Fill(v3(4, 0, 0), v3(4, 2, 0), block.StoneBlockID)
	assert.True(t, g.IsPathPossible(west, east))
	requireMatchesBuild(t, g, m)
}

func TestRandomDirtyUpdatesMatchFullBuild(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := floorWorld(0, 0, 15, 15)
	g := buildGrid(t, m, ModalityWalk)

	palette := []block.BlockID{block.AirBlockID, block.StoneBlockID, block.FloorBlockID, block.WallBlockID}
	for round := 0; round < 20; round++ {
		for i := 0; i < 25; i++ {
			c := world.At(rng.Intn(16), rng.Intn(16), rng.Intn(5))
			m.SetBlock(c, palette[rng.Intn(len(palette))])
		}

		requireSymmetric(t, g)
		requireMatchesBuild(t, g, m)

		// Зоны согласованы с обходом графа
		coords := g.PassableCoordinates()
		for i := 0; i < 30 && len(coords) > 1; i++ {
			a := coords[rng.Intn(len(coords))]
			b := coords[rng.Intn(len(coords))]
			require.Equal(t, reachable(g, a, b), g.IsPathPossible(a, b), "%s -> %s, раунд %d", a, b, round)
		}
	}
}

func TestRebuildZonesIsIdempotent(t *testing.T) {
	m := twoRooms(true)
	m.Fill(v3(0, 8, 0), v3(8, 10, 0), block.StoneBlockID)
	g := buildGrid(t, m, ModalityWalk)

	m.SetBlock(world.At(4, 1, 0), block.AirBlockID)
	m.SetBlock(world.At(2, 5, 0), block.StoneBlockID)

	g.RebuildZones()
	first := equivalences(g)
	g.RebuildZones()
	second := equivalences(g)

	assert.Equal(t, first, second)
}

func TestSnapshotRestore(t *testing.T) {
	m := twoRooms(true)
	g := buildGrid(t, m, ModalityWalk)

	snaps := g.Snapshots()
	require.Len(t, snaps, 1)
	snap, ok := g.Snapshot(world.ChunkCoord{})
	require.True(t, ok)
	assert.Equal(t, snaps[0], snap)

	restored := NewGrid(m, ModalityWalk)
	require.NoError(t, restored.Restore(snaps))
	for _, c := range g.PassableCoordinates() {
		assert.Equal(t, g.DirectionEdgeSet(c), restored.DirectionEdgeSet(c))
	}
	assert.Equal(t, equivalences(g), equivalences(restored))

	bad := ChunkSnapshot{Blocks: []world.BlockIndex{1, 2}, Masks: []uint32{1}}
	assert.Error(t, restored.Restore([]ChunkSnapshot{bad}))
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGrid(floorWorld(0, 0, 3, 3), ModalityWalk)
	err := g.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGridStats(t *testing.T) {
	g := buildGrid(t, twoRooms(false), ModalityWalk)

	stats := g.Stats()
	assert.Equal(t, "walk", stats.Modality)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 32, stats.Passable)
	assert.Equal(t, 2, stats.Components)
}
