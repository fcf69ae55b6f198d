package block

// BlockBehavior описывает свойства блока, важные для геометрии мира
type BlockBehavior interface {
	ID() BlockID
	Name() string
	// Solid возвращает true, если блок полностью заполняет ячейку
	Solid() bool
	// Floor возвращает true, если блок сам по себе образует пол
	// (настил, мост) без заполнения ячейки
	Floor() bool
	// Diggable возвращает true, если блок можно выкопать
	Diggable() bool
}

// IsSolid возвращает заполненность блока; неизвестные ID считаются пустыми
func IsSolid(id BlockID) bool {
	behavior, ok := Get(id)
	return ok && behavior.Solid()
}

// IsFloor возвращает true, если блок образует пол
func IsFloor(id BlockID) bool {
	behavior, ok := Get(id)
	return ok && behavior.Floor()
}
