// Package climate derives temperature, wind and moisture over the climate
// grid.
package climate

import (
	"math"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/noise"
)

// Params tunes the climate stages.
type Params struct {
	// EquatorFraction places the equator row as a fraction of the grid
	// height from the top.
	EquatorFraction           float64
	ElevationTempContribution float64

	WindOctaves     int
	WindPersistence float64
	WindLacunarity  float64

	MaxMoistureTravel        int
	MoistureElevationPenalty float64
	// ReplenishBelow ends a trace once the cursor reaches a cell lower
	// than this.
	ReplenishBelow float64
	BlurSigma      float64

	// Workers > 1 traces rows concurrently.
	Workers int
}

// DefaultEquatorFraction puts the equator a quarter of the way down.
const DefaultEquatorFraction = 0.25

// ParamsFromConfig extracts the climate settings of cfg.
func ParamsFromConfig(cfg *config.WorldConfig) Params {
	return Params{
		EquatorFraction:           DefaultEquatorFraction,
		ElevationTempContribution: cfg.Climate.ElevationTempContribution,
		WindOctaves:               cfg.Noise.WindOctaves,
		WindPersistence:           cfg.Noise.WindPersistence,
		WindLacunarity:            cfg.Noise.Lacunarity,
		MaxMoistureTravel:         cfg.Climate.MaxMoistureTravel,
		MoistureElevationPenalty:  cfg.Climate.MoistureElevationPenalty,
		ReplenishBelow:            cfg.Climate.ReplenishBelow,
		BlurSigma:                 cfg.Climate.BlurSigma,
		Workers:                   cfg.Climate.Workers,
	}
}

// Temperature resamples elevation to a width x height grid and combines a
// triangular latitude profile, peaking on the equator row, with cooling by
// elevation. The result is rescaled to [-1, 1].
func Temperature(elevation *field.ScalarField, width, height int, p Params) *field.ScalarField {
	scaled := elevation.Resample(width, height)
	equator := p.EquatorFraction * float64(height)
	maxDist := math.Max(equator, float64(height)-equator)
	if maxDist == 0 {
		maxDist = 1
	}

	temp := field.New(width, height)
	for i := 0; i < height; i++ {
		lat := 1 - math.Abs(float64(i)-equator)/maxDist
		for j := 0; j < width; j++ {
			temp.Set(j, i, lat-scaled.At(j, i)*p.ElevationTempContribution)
		}
	}
	return temp.Rescale()
}

// Wind samples a free noise field over the grid, rescaled to [-1, 1]. The
// row index drives the tiled noise axis with a period of one grid width.
func Wind(n *noise.Field, width, height int, p Params) *field.ScalarField {
	wind := field.New(width, height)
	np := noise.Params{
		Octaves:     p.WindOctaves,
		Persistence: p.WindPersistence,
		Lacunarity:  p.WindLacunarity,
		TileWidth:   1,
	}
	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			wind.Set(j, i, n.Sample(float64(i)/float64(width), float64(j)/float64(height), np))
		}
	}
	return wind.Rescale()
}
