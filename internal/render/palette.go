// Package render turns biome and elevation fields into the final map image.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/lawnchairsociety/worldgen/internal/biome"
	"github.com/lawnchairsociety/worldgen/internal/field"
)

// Palette maps each biome code to its colour.
var Palette = [biome.NumCodes]color.RGBA{
	biome.Ocean:                  {0, 0, 153, 255},
	biome.Bare:                   {50, 50, 50, 255},
	biome.TropicalRainforest:     {0, 153, 0, 255},
	biome.TropicalSeasonalForest: {102, 153, 0, 255},
	biome.Savannah:               {255, 255, 153, 255},
	biome.Desert:                 {255, 255, 102, 255},
	biome.TemperateRainforest:    {51, 153, 51, 255},
	biome.TemperateForest:        {0, 102, 0, 255},
	biome.Woodland:               {51, 102, 0, 255},
	biome.Grassland:              {255, 204, 0, 255},
	biome.Taiga:                  {0, 51, 0, 255},
	biome.Tundra:                 {102, 51, 0, 255},
	biome.Snow:                   {255, 255, 255, 255},
}

// ColorOf returns the palette colour of c. Unknown codes render as bare
// ground.
func ColorOf(c biome.Code) color.RGBA {
	if !c.Valid() {
		return Palette[biome.Bare]
	}
	return Palette[c]
}

// Colorize paints one pixel per biome cell.
func Colorize(biomes *field.ScalarField) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, biomes.Width, biomes.Height))
	for i, v := range biomes.Data {
		col := ColorOf(biome.Code(v))
		base := i * 4
		img.Pix[base+0] = col.R
		img.Pix[base+1] = col.G
		img.Pix[base+2] = col.B
		img.Pix[base+3] = col.A
	}
	return img
}

// Relief paints like Colorize, except bare ground is shaded grey by
// elevation (0 black, 1 and above white). The region graph path uses it
// since every land region there is bare.
func Relief(biomes, elevation *field.ScalarField) *image.RGBA {
	img := Colorize(biomes)
	for i, v := range biomes.Data {
		if biome.Code(v) != biome.Bare {
			continue
		}
		g := uint8(math.Round(255 * math.Max(0, math.Min(elevation.Data[i], 1))))
		base := i * 4
		img.Pix[base+0] = g
		img.Pix[base+1] = g
		img.Pix[base+2] = g
	}
	return img
}

// Grayscale previews any scalar field, stretched so its minimum is black
// and its maximum white.
func Grayscale(f *field.ScalarField) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for i, v := range f.Normalize01().Data {
		img.Pix[i] = uint8(math.Round(255 * v))
	}
	return img
}
