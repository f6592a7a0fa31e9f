// Package elevation builds the heightmap and the land/water mask.
package elevation

import (
	"fmt"
	"math"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/noise"
)

// The map domain in noise space. The image grid is stretched over it.
const (
	MapWidth  = 2.0
	MapHeight = 1.0
)

// Params tunes the base and detail passes.
type Params struct {
	Octaves        int
	Persistence    float64
	Lacunarity     float64
	ContinentScale float64
	// Detail is the amplitude of a single elevation sample.
	Detail      float64
	DetailScale float64
	// Redistribution is k in exp(k * elevation).
	Redistribution float64
}

// ParamsFromConfig extracts the elevation settings of cfg.
func ParamsFromConfig(cfg *config.WorldConfig) Params {
	return Params{
		Octaves:        cfg.Noise.Octaves,
		Persistence:    cfg.Noise.Persistence,
		Lacunarity:     cfg.Noise.Lacunarity,
		ContinentScale: cfg.Noise.ContinentScale,
		Detail:         cfg.Noise.Detail,
		DetailScale:    cfg.Noise.DetailScale,
		Redistribution: cfg.Elevation.Redistribution,
	}
}

// Sampler evaluates elevation noise over the map domain.
type Sampler struct {
	noise *noise.Field
	p     Params
}

// NewSampler returns a Sampler drawing from n.
func NewSampler(n *noise.Field, p Params) *Sampler {
	return &Sampler{noise: n, p: p}
}

// Elevation samples one point of the map domain. Longitude tiles with a
// period of MapWidth.
func (s *Sampler) Elevation(x, y float64) float64 {
	cs := s.p.ContinentScale
	return s.p.Detail * s.noise.Sample(cs*x, cs*y, noise.Params{
		Octaves:     s.p.Octaves,
		Persistence: s.p.Persistence,
		Lacunarity:  s.p.Lacunarity,
		TileWidth:   MapWidth * cs,
	})
}

// BasePass samples the rough elevation over a width x height grid.
func (s *Sampler) BasePass(width, height int) *field.ScalarField {
	return s.sampleGrid(width, height, 1)
}

func (s *Sampler) sampleGrid(width, height int, scale float64) *field.ScalarField {
	out := field.New(width, height)
	for i := 0; i < height; i++ {
		y := MapHeight * scale * float64(i) / float64(height)
		for j := 0; j < width; j++ {
			x := MapWidth * scale * float64(j) / float64(width)
			out.Set(j, i, s.Elevation(x, y))
		}
	}
	return out
}

// MaskValue is the value compared against the water level: the rescaled
// elevation pushed through exp and shifted so sea level sits at zero,
// capped at 1 so a water level of 1 drowns everything.
func MaskValue(rescaled float64) float64 {
	return math.Min(math.Exp(rescaled)-1, 1)
}

// Coastline derives the land (1) / water (0) mask from the rough
// elevation. Cells whose MaskValue is at or below waterLevel are water.
// When overlay is non-nil its non-zero cells are forced to land; it must
// match the shape of rough.
func Coastline(rough *field.ScalarField, waterLevel float64, overlay *field.ScalarField) (*field.ScalarField, error) {
	if overlay != nil && !field.SameShape(rough, overlay) {
		return nil, fmt.Errorf("overlay is %dx%d, elevation is %dx%d",
			overlay.Width, overlay.Height, rough.Width, rough.Height)
	}
	scaled := rough.Rescale()
	mask := field.New(rough.Width, rough.Height)
	for i, v := range scaled.Data {
		if MaskValue(v) > waterLevel {
			mask.Data[i] = 1
		}
		if overlay != nil && overlay.Data[i] != 0 {
			mask.Data[i] = 1
		}
	}
	return mask, nil
}

// DetailPass adds finer noise to the rough elevation, applies the
// redistribution curve and multiplies through the coastline mask. Water
// cells end at exactly zero; land cells stay positive.
func (s *Sampler) DetailPass(rough, coastline *field.ScalarField) (*field.ScalarField, error) {
	if !field.SameShape(rough, coastline) {
		return nil, fmt.Errorf("coastline is %dx%d, elevation is %dx%d",
			coastline.Width, coastline.Height, rough.Width, rough.Height)
	}
	detail := s.sampleGrid(rough.Width, rough.Height, s.p.DetailScale)
	out := field.New(rough.Width, rough.Height)
	for i := range out.Data {
		e := rough.Data[i] + detail.Data[i]
		out.Data[i] = coastline.Data[i] * math.Exp(s.p.Redistribution*e)
	}
	return out, nil
}
