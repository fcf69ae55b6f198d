package implementations

import "github.com/annel0/voxel-pathing/internal/world/block"

// FloorBehavior описывает построенный настил. Даёт опору в ячейке,
// не заполняя её, поэтому над пропастью можно строить мосты.
type FloorBehavior struct{}

// ID возвращает идентификатор блока
func (b *FloorBehavior) ID() block.BlockID {
	return block.FloorBlockID
}

// Name возвращает имя блока
func (b *FloorBehavior) Name() string {
	return "Floor"
}

func (b *FloorBehavior) Solid() bool    { return false }
func (b *FloorBehavior) Floor() bool    { return true }
func (b *FloorBehavior) Diggable() bool { return true }

// WallBehavior описывает построенную стену
type WallBehavior struct{}

// ID возвращает идентификатор блока
func (b *WallBehavior) ID() block.BlockID {
	return block.WallBlockID
}

// Name возвращает имя блока
func (b *WallBehavior) Name() string {
	return "Wall"
}

func (b *WallBehavior) Solid() bool    { return true }
func (b *WallBehavior) Floor() bool    { return false }
func (b *WallBehavior) Diggable() bool { return true }
