package implementations

import "github.com/annel0/voxel-pathing/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	// Природные блоки
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.StoneBlockID, &StoneBehavior{})
	block.Register(block.GrassBlockID, &GrassBehavior{})
	block.Register(block.WaterBlockID, &WaterBehavior{})
	block.Register(block.DirtBlockID, &DirtBehavior{})

	// Постройки
	block.Register(block.FloorBlockID, &FloorBehavior{})
	block.Register(block.WallBlockID, &WallBehavior{})
}
