package block

import "strings"

var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// Lookup ищет блок по имени без учёта регистра
func Lookup(name string) (BlockID, bool) {
	for id, behavior := range registry {
		if strings.EqualFold(behavior.Name(), name) {
			return id, true
		}
	}
	return 0, false
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Природные блоки
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	SandBlockID                 // 4
	DirtBlockID                 // 5

	// Постройки (начиная с 100)
	FloorBlockID BlockID = 100 // Настил: пол без заполнения
	WallBlockID  BlockID = 101 // Стена
)
