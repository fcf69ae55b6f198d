package world

import (
	"fmt"

	"github.com/annel0/voxel-pathing/internal/vec"
)

// Размеры чанка. Индекс блока упакован как x | y<<4 | z<<8.
const (
	ChunkEdge      = 16
	ChunkShift     = 4
	BlockMask      = ChunkEdge - 1
	BlocksPerChunk = ChunkEdge * ChunkEdge * ChunkEdge
)

// ChunkCoord содержит координаты чанка в мире (в чанках)
type ChunkCoord struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Less задаёт порядок обхода чанков: по Z, затем Y, затем X
func (c ChunkCoord) Less(other ChunkCoord) bool {
	if c.Z != other.Z {
		return c.Z < other.Z
	}
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.X < other.X
}

// Origin возвращает мировые координаты нулевого блока чанка
func (c ChunkCoord) Origin() vec.Vec3 {
	return vec.Vec3{X: int(c.X) << ChunkShift, Y: int(c.Y) << ChunkShift, Z: int(c.Z) << ChunkShift}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("chunk(%d,%d,%d)", c.X, c.Y, c.Z)
}

// BlockIndex упакованный индекс блока внутри чанка
type BlockIndex uint16

// NewBlockIndex упаковывает локальные координаты (каждая в диапазоне 0..15)
func NewBlockIndex(x, y, z int) BlockIndex {
	return BlockIndex((x & BlockMask) | (y&BlockMask)<<ChunkShift | (z&BlockMask)<<(2*ChunkShift))
}

func (b BlockIndex) X() int { return int(b) & BlockMask }
func (b BlockIndex) Y() int { return int(b>>ChunkShift) & BlockMask }
func (b BlockIndex) Z() int { return int(b>>(2*ChunkShift)) & BlockMask }

// MapCoordinate идентифицирует одну ячейку мира: чанк + индекс блока.
// Тип значимый, сравнимый и пригоден как ключ map.
type MapCoordinate struct {
	Chunk ChunkCoord
	Block BlockIndex
}

// NewMapCoordinate раскладывает мировые координаты на чанк и блок
func NewMapCoordinate(pos vec.Vec3) MapCoordinate {
	return MapCoordinate{
		Chunk: ChunkCoord{
			X: int32(vec.FloorDiv(pos.X, ChunkEdge)),
			Y: int32(vec.FloorDiv(pos.Y, ChunkEdge)),
			Z: int32(vec.FloorDiv(pos.Z, ChunkEdge)),
		},
		Block: NewBlockIndex(
			vec.FloorMod(pos.X, ChunkEdge),
			vec.FloorMod(pos.Y, ChunkEdge),
			vec.FloorMod(pos.Z, ChunkEdge),
		),
	}
}

// At короткая форма NewMapCoordinate
func At(x, y, z int) MapCoordinate {
	return NewMapCoordinate(vec.Vec3{X: x, Y: y, Z: z})
}

// Vec3 возвращает мировые координаты ячейки
func (c MapCoordinate) Vec3() vec.Vec3 {
	o := c.Chunk.Origin()
	return vec.Vec3{X: o.X + c.Block.X(), Y: o.Y + c.Block.Y(), Z: o.Z + c.Block.Z()}
}

// Translate сдвигает координату на одну ячейку в направлении d.
// Переход через границу чанка обрабатывается прозрачно.
func (c MapCoordinate) Translate(d Direction) MapCoordinate {
	return c.TranslateN(d, 1)
}

// TranslateN сдвигает координату на length ячеек в направлении d
func (c MapCoordinate) TranslateN(d Direction, length int) MapCoordinate {
	x := c.Block.X() + d.ValueOnAxis(AxisX)*length
	y := c.Block.Y() + d.ValueOnAxis(AxisY)*length
	z := c.Block.Z() + d.ValueOnAxis(AxisZ)*length

	if x >= 0 && x < ChunkEdge && y >= 0 && y < ChunkEdge && z >= 0 && z < ChunkEdge {
		return MapCoordinate{Chunk: c.Chunk, Block: NewBlockIndex(x, y, z)}
	}

	o := c.Chunk.Origin()
	return NewMapCoordinate(vec.Vec3{X: o.X + x, Y: o.Y + y, Z: o.Z + z})
}

// Less задаёт полный порядок координат, совпадающий с порядком обхода сетки
func (c MapCoordinate) Less(other MapCoordinate) bool {
	if c.Chunk != other.Chunk {
		return c.Chunk.Less(other.Chunk)
	}
	return c.Block < other.Block
}

func (c MapCoordinate) String() string {
	p := c.Vec3()
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}
