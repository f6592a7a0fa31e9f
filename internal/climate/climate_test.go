package climate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/noise"
)

func testParams() Params {
	p := ParamsFromConfig(config.DefaultConfig())
	p.BlurSigma = 0
	return p
}

func constant(w, h int, v float64) *field.ScalarField {
	return field.New(w, h).Map(func(float64) float64 { return v })
}

func TestTemperatureLatitudeProfile(t *testing.T) {
	temp := Temperature(field.New(1, 8), 1, 8, testParams())

	// Equator at row 8/4 = 2, farthest pole at row 7.
	assert.Equal(t, 1.0, temp.At(0, 2))
	assert.Equal(t, -1.0, temp.At(0, 7))
	for i := 3; i < 8; i++ {
		assert.Less(t, temp.At(0, i), temp.At(0, i-1), "row %d", i)
	}
	for i := 0; i < 2; i++ {
		assert.Less(t, temp.At(0, i), temp.At(0, i+1), "row %d", i)
	}
}

func TestTemperatureElevationCools(t *testing.T) {
	elev := field.New(2, 8)
	elev.Set(1, 2, 50)
	p := testParams()

	temp := Temperature(elev, 2, 8, p)
	assert.Less(t, temp.At(1, 2), temp.At(0, 2))
}

func TestTemperatureResamples(t *testing.T) {
	temp := Temperature(field.New(16, 8), 4, 2, testParams())
	assert.Equal(t, 4, temp.Width)
	assert.Equal(t, 2, temp.Height)
}

func TestWindRangeAndDeterminism(t *testing.T) {
	src, err := noise.NewSource(noise.KindSimplex, 6)
	require.NoError(t, err)
	p := testParams()

	a := Wind(noise.NewField(src), 16, 8, p)
	b := Wind(noise.NewField(src), 16, 8, p)
	assert.Equal(t, a.Data, b.Data)

	lo, hi := a.MinMax()
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestTraceForwardWraps(t *testing.T) {
	elev := constant(4, 3, 2)
	wind := field.New(4, 3)
	p := testParams()
	p.MaxMoistureTravel = 5

	steps := Trace(elev, wind, 0, 1, p)
	require.Len(t, steps, 6)

	wantRows := []int{0, 1, 2, 0, 1, 2}
	for k, s := range steps {
		assert.Equal(t, wantRows[k], s.Row, "step %d", k)
		assert.Equal(t, 1, s.Col, "step %d", k)
		assert.Equal(t, 1+2*float64(k), s.D, "step %d", k)
	}
}

func TestTraceLateralWrap(t *testing.T) {
	elev := constant(4, 3, 2)
	p := testParams()
	p.MaxMoistureTravel = 1

	west := Trace(elev, constant(4, 3, 1), 1, 0, p)
	assert.Equal(t, Step{Row: 1, Col: 3, D: 3}, west[1])

	east := Trace(elev, constant(4, 3, -1), 1, 3, p)
	assert.Equal(t, Step{Row: 1, Col: 0, D: 3}, east[1])
}

func TestTraceMonotonicAndBounded(t *testing.T) {
	src, err := noise.NewSource(noise.KindSimplex, 3)
	require.NoError(t, err)
	p := testParams()
	wind := Wind(noise.NewField(src), 24, 12, p)
	elev := field.New(24, 12)
	for i := range elev.Data {
		elev.Data[i] = 1 + float64(i%7)/3
	}

	for row := 0; row < 12; row++ {
		for col := 0; col < 24; col++ {
			steps := Trace(elev, wind, row, col, p)
			assert.LessOrEqual(t, len(steps), p.MaxMoistureTravel+1)
			for k := 1; k < len(steps); k++ {
				assert.GreaterOrEqual(t, steps[k].D, steps[k-1].D)
				assert.True(t, elev.InBounds(steps[k].Col, steps[k].Row))
			}
		}
	}
}

func TestTraceStopsOnLowland(t *testing.T) {
	elev := constant(3, 3, 2)
	elev.Set(0, 1, 0.5)
	p := testParams()

	steps := Trace(elev, field.New(3, 3), 0, 0, p)
	require.Len(t, steps, 2)
	assert.Equal(t, 3.0, steps[1].D)
}

func TestAccumulateSkipsOcean(t *testing.T) {
	elev, err := field.FromRows([][]float64{
		{0, 2, 2},
		{2, 0, 2},
		{2, 2, 0},
	})
	require.NoError(t, err)
	wind := field.New(3, 3)
	p := testParams()

	serial, err := Accumulate(context.Background(), elev, wind, p)
	require.NoError(t, err)
	for i, v := range elev.Data {
		if v == 0 {
			assert.Zero(t, serial.Data[i], "ocean cell %d traced", i)
		} else {
			assert.Greater(t, serial.Data[i], 1.0)
		}
	}

	p.Workers = 4
	parallel, err := Accumulate(context.Background(), elev, wind, p)
	require.NoError(t, err)
	assert.Equal(t, serial.Data, parallel.Data)
}

func TestMoistureRange(t *testing.T) {
	src, err := noise.NewSource(noise.KindSimplex, 6)
	require.NoError(t, err)
	p := testParams()
	wind := Wind(noise.NewField(src), 32, 16, p)
	elev := field.New(32, 16)
	for i := range elev.Data {
		if i%3 != 0 {
			elev.Data[i] = 1.5
		}
	}

	moist, err := Moisture(context.Background(), elev, wind, p)
	require.NoError(t, err)
	lo, hi := moist.MinMax()
	assert.GreaterOrEqual(t, lo, 0.0)
	assert.LessOrEqual(t, hi, 1.0)

	p.BlurSigma = 2
	blurred, err := Moisture(context.Background(), elev, wind, p)
	require.NoError(t, err)
	assert.Equal(t, 32, blurred.Width)
}

func TestMoistureNoLand(t *testing.T) {
	p := testParams()
	p.BlurSigma = 2
	moist, err := Moisture(context.Background(), field.New(8, 4), field.New(8, 4), p)
	require.NoError(t, err)
	for _, v := range moist.Data {
		assert.InDelta(t, 1, v, 1e-9)
	}
}

func TestMoistureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Moisture(ctx, constant(8, 4, 2), field.New(8, 4), testParams())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
