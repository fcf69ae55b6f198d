package implementations

import "github.com/annel0/voxel-pathing/internal/world/block"

// GrassBehavior реализует поведение блока травы (земля с дёрном сверху)
type GrassBehavior struct{}

// ID возвращает идентификатор блока
func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

// Name возвращает имя блока
func (b *GrassBehavior) Name() string {
	return "Grass"
}

func (b *GrassBehavior) Solid() bool    { return true }
func (b *GrassBehavior) Floor() bool    { return false }
func (b *GrassBehavior) Diggable() bool { return true }
