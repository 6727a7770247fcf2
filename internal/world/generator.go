package world

import (
	"github.com/annel0/voxel-terrain/internal/util"
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world/tile"
)

// Полосы высоты (доля от амплитуды) и цвета палитры для них
const (
	ShallowMax  = 0.25 // Ниже - песок у воды
	LowlandMax  = 0.55 // Ниже - трава
	HighlandMax = 0.80 // Ниже - камень, выше - снег

	colorSand  = 12
	colorGrass = 26
	colorDirt  = 20
	colorStone = 40
	colorSnow  = 7
)

// WorldGenerator заполняет ландшафт по карте высот из шума Перлина
type WorldGenerator struct {
	Seed       int64   // Сид для генерации шума
	NoiseScale float64 // Масштаб шума (сглаженность ландшафта)
	BaseHeight int32   // Нижняя граница заполнения
	Amplitude  int32   // Максимальная высота рельефа над BaseHeight
	Depth      int32   // Толщина подложки под поверхностью

	noise *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:       seed,
		NoiseScale: 0.05,
		BaseHeight: 0,
		Amplitude:  24,
		Depth:      4,
		noise:      util.NewNoise(seed),
	}
}

// HeightAt высота поверхности колонны (глобальные X, Z)
func (wg *WorldGenerator) HeightAt(x, z int32) int32 {
	h := wg.noise.Noise2D(float64(x)*wg.NoiseScale, float64(z)*wg.NoiseScale)
	return wg.BaseHeight + int32(h*float64(wg.Amplitude))
}

// tileForHeight выбирает цвет по полосе высоты; surface - верхний воксель колонны
func (wg *WorldGenerator) tileForHeight(y, surface int32) tile.Tile {
	if y < surface {
		if surface-y > 2 {
			return tile.Brick(tile.MustIndexedColor(colorStone))
		}
		return tile.Brick(tile.MustIndexedColor(colorDirt))
	}

	band := float64(surface-wg.BaseHeight) / float64(max(wg.Amplitude, 1))
	switch {
	case band < ShallowMax:
		return tile.Brick(tile.MustIndexedColor(colorSand))
	case band < LowlandMax:
		return tile.Brick(tile.MustIndexedColor(colorGrass))
	case band < HighlandMax:
		return tile.Brick(tile.MustIndexedColor(colorStone))
	default:
		return tile.Brick(tile.MustIndexedColor(colorSnow))
	}
}

// GenerateColumn заполняет колонну чанков с координатами column (в чанках).
// Возвращает количество записанных вокселей.
func (wg *WorldGenerator) GenerateColumn(t *Terrain, column vec.Vec2) int {
	written := 0
	globalStartX := column.X << ChunkShift // chunkX * 16
	globalStartZ := column.Z << ChunkShift // chunkZ * 16

	for x := int32(0); x < ChunkWidth; x++ {
		for z := int32(0); z < ChunkWidth; z++ {
			globalX := globalStartX + x
			globalZ := globalStartZ + z

			surface := wg.HeightAt(globalX, globalZ)
			for y := wg.BaseHeight - wg.Depth; y <= surface; y++ {
				t.Set(GlobalPosFromInt32(globalX, y, globalZ), wg.tileForHeight(y, surface))
				written++
			}
		}
	}
	return written
}

// GenerateArea заполняет квадрат колонн чанков радиуса radius вокруг начала координат
func (wg *WorldGenerator) GenerateArea(t *Terrain, radius int32) int {
	written := 0
	for cx := -radius; cx <= radius; cx++ {
		for cz := -radius; cz <= radius; cz++ {
			written += wg.GenerateColumn(t, vec.Vec2{X: cx, Z: cz})
		}
	}
	return written
}
