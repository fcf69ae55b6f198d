package world

import (
	"sort"
	"sync"

	"github.com/annel0/voxel-pathing/internal/vec"
	"github.com/annel0/voxel-pathing/internal/world/block"
)

// VoxelMap представляет хранилище блоков мира в памяти.
// Реализует ShapeOracle и рассылает уведомления об изменениях геометрии.
type VoxelMap struct {
	chunks      map[ChunkCoord]*Chunk
	mu          sync.RWMutex
	listeners   []DirtyListener
	listenersMu sync.RWMutex
}

// NewVoxelMap создаёт пустую карту
func NewVoxelMap() *VoxelMap {
	return &VoxelMap{
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// AddListener регистрирует получателя уведомлений об изменениях
func (m *VoxelMap) AddListener(l DirtyListener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	m.listeners = append(m.listeners, l)
}

// AddChunk возвращает чанк, создавая его при необходимости.
// Новый чанк превращает "незагруженное" пространство в воздух, поэтому
// слушатели получают все его ячейки и слой ячеек вокруг него.
func (m *VoxelMap) AddChunk(coords ChunkCoord) *Chunk {
	chunk, created := m.loadChunk(coords)
	if created && m.hasListeners() {
		m.notify(chunkRegion(coords, nil, make(map[MapCoordinate]struct{})))
	}
	return chunk
}

func (m *VoxelMap) loadChunk(coords ChunkCoord) (*Chunk, bool) {
	m.mu.RLock()
	chunk, exists := m.chunks[coords]
	m.mu.RUnlock()
	if exists {
		return chunk, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Проверяем еще раз под блокировкой записи
	if chunk, exists = m.chunks[coords]; exists {
		return chunk, false
	}
	chunk = NewChunk(coords)
	m.chunks[coords] = chunk
	return chunk, true
}

// chunkRegion дописывает в dst ячейки чанка вместе с окружающим слоем
// толщиной в одну ячейку, пропуская уже учтённые в seen
func chunkRegion(coords ChunkCoord, dst []MapCoordinate, seen map[MapCoordinate]struct{}) []MapCoordinate {
	o := coords.Origin()
	for z := o.Z - 1; z <= o.Z+ChunkEdge; z++ {
		for y := o.Y - 1; y <= o.Y+ChunkEdge; y++ {
			for x := o.X - 1; x <= o.X+ChunkEdge; x++ {
				c := At(x, y, z)
				if _, ok := seen[c]; !ok {
					seen[c] = struct{}{}
					dst = append(dst, c)
				}
			}
		}
	}
	return dst
}

// GetChunk возвращает загруженный чанк
func (m *VoxelMap) GetChunk(coords ChunkCoord) (*Chunk, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunk, exists := m.chunks[coords]
	return chunk, exists
}

// Chunks возвращает координаты всех загруженных чанков в порядке обхода
func (m *VoxelMap) Chunks() []ChunkCoord {
	m.mu.RLock()
	result := make([]ChunkCoord, 0, len(m.chunks))
	for coords := range m.chunks {
		result = append(result, coords)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Less(result[j]) })
	return result
}

// GetBlock возвращает блок в ячейке; false, если чанк не загружен
func (m *VoxelMap) GetBlock(c MapCoordinate) (block.BlockID, bool) {
	chunk, exists := m.GetChunk(c.Chunk)
	if !exists {
		return block.AirBlockID, false
	}
	return chunk.GetBlock(c.Block), true
}

// SetBlock устанавливает блок и уведомляет слушателей.
// Изменение ячейки влияет на пол ячейки над ней и на запас высоты
// ячейки под ней, поэтому грязными помечаются все три.
func (m *VoxelMap) SetBlock(c MapCoordinate, id block.BlockID) bool {
	chunk, exists := m.GetChunk(c.Chunk)
	if !exists {
		return false
	}
	if !chunk.SetBlock(c.Block, id) {
		return false
	}

	m.notify([]MapCoordinate{c.Translate(DirectionDown), c, c.Translate(DirectionUp)})
	return true
}

// Dig выкапывает блок, если это возможно
func (m *VoxelMap) Dig(c MapCoordinate) bool {
	id, exists := m.GetBlock(c)
	if !exists {
		return false
	}
	behavior, ok := block.Get(id)
	if !ok || !behavior.Diggable() {
		return false
	}
	return m.SetBlock(c, block.AirBlockID)
}

// Fill заполняет параллелепипед [min, max] включительно, загружая чанки
// по мере необходимости. Слушатели получают одно общее уведомление.
func (m *VoxelMap) Fill(min, max vec.Vec3, id block.BlockID) {
	notify := m.hasListeners()
	var dirty []MapCoordinate
	var loaded []ChunkCoord
	seen := make(map[MapCoordinate]struct{})
	mark := func(c MapCoordinate) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			dirty = append(dirty, c)
		}
	}

	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				c := At(x, y, z)
				chunk, created := m.loadChunk(c.Chunk)
				if created {
					loaded = append(loaded, c.Chunk)
				}
				if chunk.SetBlock(c.Block, id) && notify {
					mark(c.Translate(DirectionDown))
					mark(c)
					mark(c.Translate(DirectionUp))
				}
			}
		}
	}

	if !notify {
		return
	}
	for _, coords := range loaded {
		dirty = chunkRegion(coords, dirty, seen)
	}
	if len(dirty) > 0 {
		m.notify(dirty)
	}
}

func (m *VoxelMap) hasListeners() bool {
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()

	return len(m.listeners) > 0
}

func (m *VoxelMap) notify(coords []MapCoordinate) {
	m.listenersMu.RLock()
	listeners := make([]DirtyListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.RUnlock()

	for _, l := range listeners {
		l.DirtyCoordinates(coords...)
	}
}

// Shape возвращает форму ячейки. Незагруженное пространство считается
// заполненным: в него нельзя ни пройти, ни пролететь.
func (m *VoxelMap) Shape(c MapCoordinate) BlockShape {
	id, exists := m.GetBlock(c)
	if !exists {
		return BlockShape{Solid: true, Ceiling: true}
	}
	if block.IsSolid(id) {
		return BlockShape{Solid: true, Ceiling: true}
	}

	// Вода не даёт опоры
	if id == block.WaterBlockID {
		return BlockShape{}
	}
	if block.IsFloor(id) {
		return BlockShape{Floor: true}
	}

	// Незагруженное пространство опоры не даёт
	below, exists := m.GetBlock(c.Translate(DirectionDown))
	return BlockShape{Floor: exists && block.IsSolid(below)}
}

// MarkPathingDirty помечает чанк для перестройки визуализации проходимости
func (m *VoxelMap) MarkPathingDirty(coords ChunkCoord) {
	if chunk, exists := m.GetChunk(coords); exists {
		chunk.MarkPathingDirty()
	}
}

// TakePathingDirtyChunks возвращает и сбрасывает чанки с устаревшей визуализацией
func (m *VoxelMap) TakePathingDirtyChunks() []ChunkCoord {
	var result []ChunkCoord
	for _, coords := range m.Chunks() {
		if chunk, exists := m.GetChunk(coords); exists && chunk.TakePathingDirty() {
			result = append(result, coords)
		}
	}
	return result
}
