package pathing

import (
	"sort"
	"sync"

	"github.com/annel0/voxel-pathing/internal/world"
)

// GridChunk хранит маски рёбер и зоны связности блоков одного чанка.
// Обе карты разреженные: отсутствующая запись означает маску 0 и зону 0.
type GridChunk struct {
	Coords world.ChunkCoord

	mu    sync.RWMutex
	edges map[world.BlockIndex]uint32
	zones map[world.BlockIndex]uint32
}

func newGridChunk(coords world.ChunkCoord) *GridChunk {
	return &GridChunk{
		Coords: coords,
		edges:  make(map[world.BlockIndex]uint32),
		zones:  make(map[world.BlockIndex]uint32),
	}
}

// Edges возвращает маску рёбер блока
func (gc *GridChunk) Edges(b world.BlockIndex) uint32 {
	gc.mu.RLock()
	defer gc.mu.RUnlock()

	return gc.edges[b]
}

// Zone возвращает зону связности блока
func (gc *GridChunk) Zone(b world.BlockIndex) uint32 {
	gc.mu.RLock()
	defer gc.mu.RUnlock()

	return gc.zones[b]
}

// Len возвращает количество блоков, из которых есть хотя бы одно ребро
func (gc *GridChunk) Len() int {
	gc.mu.RLock()
	defer gc.mu.RUnlock()

	return len(gc.edges)
}

// Blocks возвращает блоки с ненулевой маской в порядке возрастания индекса
func (gc *GridChunk) Blocks() []world.BlockIndex {
	gc.mu.RLock()
	result := make([]world.BlockIndex, 0, len(gc.edges))
	for b := range gc.edges {
		result = append(result, b)
	}
	gc.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (gc *GridChunk) setEdgesLocked(b world.BlockIndex, mask uint32) {
	if mask == 0 {
		delete(gc.edges, b)
		return
	}
	gc.edges[b] = mask
}

func (gc *GridChunk) setZoneLocked(b world.BlockIndex, zone uint32) {
	if zone == 0 {
		delete(gc.zones, b)
		return
	}
	gc.zones[b] = zone
}

func (gc *GridChunk) setZone(b world.BlockIndex, zone uint32) {
	gc.mu.Lock()
	gc.setZoneLocked(b, zone)
	gc.mu.Unlock()
}

func (gc *GridChunk) clearZones() {
	gc.mu.Lock()
	clear(gc.zones)
	gc.mu.Unlock()
}

// ChunkSnapshot хранит сериализуемое состояние масок рёбер одного чанка.
// Blocks и Masks образуют параллельные массивы, упорядоченные по индексу блока.
// Зоны не сохраняются: они пересчитываются при восстановлении.
type ChunkSnapshot struct {
	Coords world.ChunkCoord
	Blocks []world.BlockIndex
	Masks  []uint32
}

// Snapshot возвращает снимок масок рёбер чанка
func (gc *GridChunk) Snapshot() ChunkSnapshot {
	gc.mu.RLock()
	defer gc.mu.RUnlock()

	blocks := make([]world.BlockIndex, 0, len(gc.edges))
	for b := range gc.edges {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	snap := ChunkSnapshot{
		Coords: gc.Coords,
		Blocks: blocks,
		Masks:  make([]uint32, len(blocks)),
	}
	for i, b := range blocks {
		snap.Masks[i] = gc.edges[b]
	}
	return snap
}
