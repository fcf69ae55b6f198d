package implementations

import "github.com/annel0/voxel-pathing/internal/world/block"

// StoneBehavior реализует поведение блока камня
type StoneBehavior struct{}

// ID возвращает идентификатор блока
func (b *StoneBehavior) ID() block.BlockID {
	return block.StoneBlockID
}

// Name возвращает имя блока
func (b *StoneBehavior) Name() string {
	return "Stone"
}

// Solid возвращает true, камень заполняет ячейку целиком
func (b *StoneBehavior) Solid() bool {
	return true
}

// Floor возвращает false: пол образует только ячейка над камнем
func (b *StoneBehavior) Floor() bool {
	return false
}

// Diggable возвращает true, камень можно выкопать
func (b *StoneBehavior) Diggable() bool {
	return true
}
