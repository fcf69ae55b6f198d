package world

import (
	"github.com/annel0/voxel-pathing/internal/util"
	"github.com/annel0/voxel-pathing/internal/world/block"
)

// WorldGenerator генерирует ландшафт мира по карте высот из шума Перлина
type WorldGenerator struct {
	Seed       int64   // Сид для генерации шума
	NoiseScale float64 // Масштаб шума (сглаженность ландшафта)
	BaseHeight int     // Минимальная высота поверхности
	Amplitude  int     // Разброс высот над BaseHeight
	SeaLevel   int     // Уровень воды; ниже поверхности вода не ставится
	noise      *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:       seed,
		NoiseScale: 0.05,
		BaseHeight: 4,
		Amplitude:  8,
		SeaLevel:   5,
		noise:      util.NewNoise(seed),
	}
}

// SurfaceHeight возвращает высоту поверхности (первая пустая ячейка) в колонне (x, y)
func (wg *WorldGenerator) SurfaceHeight(x, y int) int {
	h := wg.noise.Noise2D(float64(x)*wg.NoiseScale, float64(y)*wg.NoiseScale)
	return wg.BaseHeight + int(h*float64(wg.Amplitude))
}

// GenerateChunk заполняет чанк карты: камень, слой земли, трава сверху,
// вода в низинах до SeaLevel.
func (wg *WorldGenerator) GenerateChunk(m *VoxelMap, coords ChunkCoord) *Chunk {
	chunk := m.AddChunk(coords)
	origin := coords.Origin()

	chunk.Mu.Lock()
	defer chunk.Mu.Unlock()

	for y := 0; y < ChunkEdge; y++ {
		for x := 0; x < ChunkEdge; x++ {
			surface := wg.SurfaceHeight(origin.X+x, origin.Y+y)

			for z := 0; z < ChunkEdge; z++ {
				worldZ := origin.Z + z
				var id block.BlockID
				switch {
				case worldZ < surface-2:
					id = block.StoneBlockID
				case worldZ < surface-1:
					id = block.DirtBlockID
				case worldZ < surface:
					id = block.GrassBlockID
				case worldZ < wg.SeaLevel:
					id = block.WaterBlockID
				default:
					id = block.AirBlockID
				}
				chunk.Blocks[NewBlockIndex(x, y, z)] = id
			}
		}
	}
	chunk.ChangeCounter++
	return chunk
}

// GenerateRegion генерирует все чанки в диапазоне [min, max] включительно
func (wg *WorldGenerator) GenerateRegion(m *VoxelMap, min, max ChunkCoord) {
	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				wg.GenerateChunk(m, ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}
}
