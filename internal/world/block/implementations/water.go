package implementations

import "github.com/annel0/voxel-pathing/internal/world/block"

// WaterBehavior реализует поведение воды.
// Вода не заполняет ячейку, но и не даёт опоры: пешком по ней не пройти.
type WaterBehavior struct{}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

func (b *WaterBehavior) Solid() bool    { return false }
func (b *WaterBehavior) Floor() bool    { return false }
func (b *WaterBehavior) Diggable() bool { return false }
