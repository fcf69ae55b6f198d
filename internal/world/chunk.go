package world

import (
	"sync"

	"github.com/annel0/voxel-pathing/internal/world/block"
)

// Chunk представляет участок мира размером 16x16x16 блоков
type Chunk struct {
	Coords ChunkCoord // Координаты чанка в мире

	Blocks [BlocksPerChunk]block.BlockID

	ChangeCounter int  // Счетчик изменений
	DirtyPathing  bool // Визуализацию проходимости нужно перестроить
	Mu            sync.RWMutex
}

// NewChunk создаёт новый чанк с указанными координатами
func NewChunk(coords ChunkCoord) *Chunk {
	return &Chunk{
		Coords: coords,
	}
}

// GetBlock возвращает ID блока по индексу внутри чанка
func (c *Chunk) GetBlock(index BlockIndex) block.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	return c.Blocks[index]
}

// SetBlock устанавливает блок. Возвращает false, если блок не изменился.
func (c *Chunk) SetBlock(index BlockIndex, id block.BlockID) bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if c.Blocks[index] == id {
		return false
	}
	c.Blocks[index] = id
	c.ChangeCounter++
	return true
}

// HasChanges возвращает true, если в чанке есть изменения
func (c *Chunk) HasChanges() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	return c.ChangeCounter > 0
}

// ClearChanges сбрасывает счетчик изменений
func (c *Chunk) ClearChanges() {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	c.ChangeCounter = 0
}

// MarkPathingDirty помечает визуализацию проходимости чанка как устаревшую
func (c *Chunk) MarkPathingDirty() {
	c.Mu.Lock()
	c.DirtyPathing = true
	c.Mu.Unlock()
}

// TakePathingDirty возвращает и сбрасывает флаг DirtyPathing
func (c *Chunk) TakePathingDirty() bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	dirty := c.DirtyPathing
	c.DirtyPathing = false
	return dirty
}
