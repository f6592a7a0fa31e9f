package biome

import (
	"fmt"

	"github.com/lawnchairsociety/worldgen/internal/field"
)

const (
	TemperatureBins = 3
	MoistureBins    = 5
)

// Bin upper edges on the [0, 1] scale. A value below edge i falls in bin i;
// anything at or past the last edge is clamped into the last bin. They are
// the byte-scale edges 90/130 and 100/170/230 expressed as fractions.
var (
	TemperatureEdges = []float64{90.0 / 255, 130.0 / 255, 1}
	MoistureEdges    = []float64{100.0 / 255, 170.0 / 255, 230.0 / 255, 1}
)

// table is indexed [temperature bin][moisture bin]; rows run cold to hot and
// columns dry to wet. Ocean never appears: it is an elevation override.
var table = [TemperatureBins][MoistureBins]Code{
	{Bare, Tundra, Taiga, Snow, Snow},
	{Grassland, Woodland, TemperateForest, TemperateRainforest, TemperateRainforest},
	{Desert, Savannah, TropicalSeasonalForest, TropicalRainforest, TropicalRainforest},
}

// Lookup returns the land biome for a bin pair. Out-of-range bins are
// clamped to the nearest valid bin.
func Lookup(temperatureBin, moistureBin int) Code {
	return table[clampBin(temperatureBin, TemperatureBins)][clampBin(moistureBin, MoistureBins)]
}

func clampBin(b, n int) int {
	if b < 0 {
		return 0
	}
	if b >= n {
		return n - 1
	}
	return b
}

// Digitize returns the bin of v for the given ascending upper edges.
func Digitize(v float64, edges []float64) int {
	for i, e := range edges {
		if v < e {
			return i
		}
	}
	return len(edges)
}

// Classify resamples temperature and moisture to the elevation grid,
// bins them and looks up each cell's biome. Cells whose elevation is exactly
// zero are ocean. The result holds Codes as float64 values.
func Classify(temperature, moisture, elevation *field.ScalarField) (*field.ScalarField, error) {
	if elevation.Len() == 0 {
		return nil, fmt.Errorf("classify: empty elevation field")
	}
	w, h := elevation.Width, elevation.Height
	temp := temperature.Resample(w, h).Normalize01()
	wet := moisture.Resample(w, h).Normalize01()

	out := field.New(w, h)
	for i := range out.Data {
		if elevation.Data[i] == 0 {
			out.Data[i] = float64(Ocean)
			continue
		}
		tb := clampBin(Digitize(temp.Data[i], TemperatureEdges), TemperatureBins)
		mb := clampBin(Digitize(wet.Data[i], MoistureEdges), MoistureBins)
		out.Data[i] = float64(table[tb][mb])
	}
	return out, nil
}

// At converts a biome field cell back to a Code.
func At(biomes *field.ScalarField, x, y int) Code {
	return Code(biomes.At(x, y))
}

// Histogram counts cells per code. Values that are not valid codes are
// ignored.
func Histogram(biomes *field.ScalarField) [NumCodes]int {
	var counts [NumCodes]int
	for _, v := range biomes.Data {
		c := Code(v)
		if c.Valid() {
			counts[c]++
		}
	}
	return counts
}
