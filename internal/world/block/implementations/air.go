package implementations

import "github.com/annel0/voxel-pathing/internal/world/block"

// AirBehavior реализует поведение пустого блока (воздуха)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

func (b *AirBehavior) Solid() bool    { return false }
func (b *AirBehavior) Floor() bool    { return false }
func (b *AirBehavior) Diggable() bool { return false }
