package world

// BlockShape описывает форму ячейки с точки зрения проходимости.
//
//   - Solid: ячейка полностью заполнена;
//   - Ceiling: верх ячейки закрыт (для полного блока всегда true);
//   - Floor: у ячейки есть пол, на котором можно стоять.
type BlockShape struct {
	Solid   bool
	Ceiling bool
	Floor   bool
}

// IsSky возвращает true для пустой ячейки без пола
func (s BlockShape) IsSky() bool {
	return !s.Solid && !s.Floor
}

// HasCeiling возвращает true, если верх ячейки закрыт
func (s BlockShape) HasCeiling() bool {
	return s.Ceiling
}

// IsSolid возвращает true для заполненной ячейки
func (s BlockShape) IsSolid() bool {
	return s.Solid
}

// Height возвращает высоту поверхности в углу ячейки (0..1).
// Используется только для интерполяции движения и рендеринга.
func (s BlockShape) Height(d Direction) float32 {
	switch {
	case s.Solid:
		return 1
	case s.Floor:
		return 0
	default:
		return -1
	}
}

// ShapeOracle отдаёт формы блоков мира только для чтения
type ShapeOracle interface {
	// Shape возвращает форму ячейки. Для незагруженных областей
	// возвращается заполненная ячейка.
	Shape(c MapCoordinate) BlockShape

	// Chunks возвращает все загруженные чанки
	Chunks() []ChunkCoord
}

// DirtyListener получает уведомления об изменении геометрии ячеек
type DirtyListener interface {
	DirtyCoordinates(coords ...MapCoordinate)
}
