package climate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lawnchairsociety/worldgen/internal/field"
)

// Wind thresholds steering the moisture cursor.
const (
	windWest = 0.5
	windEast = -0.5
)

// Step is one cursor position of a moisture trace and the accumulator
// value after reaching it.
type Step struct {
	Row, Col int
	D        float64
}

// Trace follows the wind from (row, col) and returns every step, starting
// with the origin at D = 1. Each step adds the elevation under the cursor
// times the penalty, then moves: strong positive wind one column west,
// strong negative wind one column east, otherwise one row on. Both indices
// wrap. The trace ends after MaxMoistureTravel moves or on reaching a cell
// below ReplenishBelow.
//
// elevation and wind must share a shape.
func Trace(elevation, wind *field.ScalarField, row, col int, p Params) []Step {
	steps := make([]Step, 1, p.MaxMoistureTravel+1)
	steps[0] = Step{Row: row, Col: col, D: 1}
	walk(elevation, wind, row, col, p, func(s Step) { steps = append(steps, s) })
	return steps
}

// walk runs one trace and returns the final accumulator. record, when
// non-nil, sees every step after the origin.
func walk(elevation, wind *field.ScalarField, row, col int, p Params, record func(Step)) float64 {
	d := 1.0
	r, c := row, col
	for n := 0; n < p.MaxMoistureTravel; n++ {
		d += p.MoistureElevationPenalty * elevation.At(c, r)
		switch w := wind.At(c, r); {
		case w > windWest:
			c--
		case w < windEast:
			c++
		default:
			r++
		}
		r = field.Wrap(r, elevation.Height)
		c = field.Wrap(c, elevation.Width)
		if record != nil {
			record(Step{Row: r, Col: c, D: d})
		}
		if elevation.At(c, r) < p.ReplenishBelow {
			break
		}
	}
	return d
}

// Accumulate traces every land cell (elevation > 0) and stores its final
// accumulator. Ocean cells stay 0. elevation is resampled to the wind grid.
func Accumulate(ctx context.Context, elevation, wind *field.ScalarField, p Params) (*field.ScalarField, error) {
	if wind.Len() == 0 {
		return nil, fmt.Errorf("moisture: empty wind field")
	}
	scaled := elevation.Resample(wind.Width, wind.Height)
	acc := field.New(wind.Width, wind.Height)

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, wind.Height)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			// Each worker owns rows w, w+workers, ...
			for i := w; i < wind.Height; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				for j := 0; j < wind.Width; j++ {
					if scaled.At(j, i) <= 0 {
						continue
					}
					acc.Set(j, i, walk(scaled, wind, i, j, p, nil))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return acc, nil
}

// moistureEpsilon guards the normalisation when no land was traced.
const moistureEpsilon = 1e-12

// Moisture turns the accumulators into moisture = 1 - d/max(d) and
// smooths the result with a Gaussian blur. A map with no land is
// uniformly wet.
func Moisture(ctx context.Context, elevation, wind *field.ScalarField, p Params) (*field.ScalarField, error) {
	acc, err := Accumulate(ctx, elevation, wind, p)
	if err != nil {
		return nil, err
	}
	_, hi := acc.MinMax()
	if hi < moistureEpsilon {
		hi = moistureEpsilon
	}
	moist := acc.Map(func(d float64) float64 { return 1 - d/hi })
	return moist.GaussianBlur(p.BlurSigma), nil
}
