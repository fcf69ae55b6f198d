package world

// Axis определяет ось мировых координат. Ось Z направлена вверх.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Direction кодирует одно из 26 угловых направлений (6 граней, 12 рёбер, 8 углов)
// плюс два служебных значения.
//
// Порядок фиксирован: угловые направления упорядочены по (dz, dy, dx),
// поэтому обратное направление всегда равно 27 - d.
type Direction uint8

const (
	DirectionNone Direction = iota

	DirectionSouthWestDown
	DirectionSouthDown
	DirectionSouthEastDown
	DirectionWestDown
	DirectionDown
	DirectionEastDown
	DirectionNorthWestDown
	DirectionNorthDown
	DirectionNorthEastDown

	DirectionSouthWest
	DirectionSouth
	DirectionSouthEast
	DirectionWest
	DirectionEast
	DirectionNorthWest
	DirectionNorth
	DirectionNorthEast

	DirectionSouthWestUp
	DirectionSouthUp
	DirectionSouthEastUp
	DirectionWestUp
	DirectionUp
	DirectionEastUp
	DirectionNorthWestUp
	DirectionNorthUp
	DirectionNorthEastUp

	// DirectionDestination терминальный маркер пути
	DirectionDestination
)

// AngularDirectionCount количество настоящих направлений движения
const AngularDirectionCount = 26

// AngularDirections перечисляет все 26 направлений в порядке их битов в маске рёбер
var AngularDirections [AngularDirectionCount]Direction

var (
	directionOffsets [DirectionDestination + 1][3]int
	directionNames   = [DirectionDestination + 1]string{
		"none",
		"south_west_down", "south_down", "south_east_down",
		"west_down", "down", "east_down",
		"north_west_down", "north_down", "north_east_down",
		"south_west", "south", "south_east", "west",
		"east", "north_west", "north", "north_east",
		"south_west_up", "south_up", "south_east_up",
		"west_up", "up", "east_up",
		"north_west_up", "north_up", "north_east_up",
		"destination",
	}
)

func init() {
	for d := DirectionSouthWestDown; d <= DirectionNorthEastUp; d++ {
		k := int(d) - 1
		if d > DirectionWest {
			k++ // пропускаем центр куба 3x3x3
		}
		directionOffsets[d] = [3]int{k%3 - 1, (k/3)%3 - 1, k/9 - 1}
		AngularDirections[d-1] = d
	}
}

// IsAngular возвращает true для 26 направлений движения
func (d Direction) IsAngular() bool {
	return d >= DirectionSouthWestDown && d <= DirectionNorthEastUp
}

// ValueOnAxis возвращает единичное смещение направления по оси (-1, 0 или 1)
func (d Direction) ValueOnAxis(axis Axis) int {
	if d > DirectionDestination || axis > AxisZ {
		return 0
	}
	return directionOffsets[d][axis]
}

// Invert возвращает противоположное направление
func (d Direction) Invert() Direction {
	if !d.IsAngular() {
		return d
	}
	return 27 - d
}

// Bit возвращает бит направления в маске рёбер
func (d Direction) Bit() uint32 {
	return 1 << d
}

// IsVertical возвращает true, если у направления есть вертикальная составляющая
func (d Direction) IsVertical() bool {
	return d.ValueOnAxis(AxisZ) != 0
}

func (d Direction) String() string {
	if d > DirectionDestination {
		return "unknown"
	}
	return directionNames[d]
}

// DirectionFromOffset возвращает направление по единичному смещению.
// Для нулевого или неединичного смещения возвращает DirectionNone.
func DirectionFromOffset(dx, dy, dz int) Direction {
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || dz < -1 || dz > 1 {
		return DirectionNone
	}
	k := (dz+1)*9 + (dy+1)*3 + (dx + 1)
	switch {
	case k < 13:
		return Direction(k + 1)
	case k > 13:
		return Direction(k)
	default:
		return DirectionNone
	}
}
