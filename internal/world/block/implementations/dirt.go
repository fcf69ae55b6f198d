package implementations

import "github.com/annel0/voxel-pathing/internal/world/block"

// DirtBehavior реализует поведение блока земли
type DirtBehavior struct{}

// ID возвращает идентификатор блока
func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

// Name возвращает имя блока
func (b *DirtBehavior) Name() string {
	return "Dirt"
}

func (b *DirtBehavior) Solid() bool    { return true }
func (b *DirtBehavior) Floor() bool    { return false }
func (b *DirtBehavior) Diggable() bool { return true }
