package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	f, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.Equal(t, 6.0, f.At(2, 1))
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, f.Rows())

	_, err = FromRows([][]float64{{1, 2}, {3}})
	require.Error(t, err)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{-1, 8, 7},
		{8, 8, 0},
		{0, 8, 0},
		{7, 8, 7},
		{-9, 8, 7},
		{17, 8, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Wrap(tt.i, tt.n), "Wrap(%d, %d)", tt.i, tt.n)
	}
}

func TestAtWrap(t *testing.T) {
	f, err := FromRows([][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}})
	require.NoError(t, err)

	assert.Equal(t, f.At(3, 0), f.AtWrap(-1, 0))
	assert.Equal(t, f.At(0, 0), f.AtWrap(4, 0))
	assert.Equal(t, f.At(0, 1), f.AtWrap(0, -1))
	assert.Equal(t, f.At(1, 0), f.AtWrap(1, 2))
}

func TestRescaleHitsBothEnds(t *testing.T) {
	fields := [][][]float64{
		{{0.3, -7.1, 2}, {19.25, 4, 4}},
		{{1e-9, 2e-9}},
		{{-3, -2, -1, 0}},
	}
	for _, rows := range fields {
		f, err := FromRows(rows)
		require.NoError(t, err)

		lo, hi := f.Rescale().MinMax()
		assert.Equal(t, -1.0, lo)
		assert.Equal(t, 1.0, hi)
	}
}

func TestRescaleConstantField(t *testing.T) {
	f, err := FromRows([][]float64{{5, 5}, {5, 5}})
	require.NoError(t, err)

	out := f.Rescale()
	for _, v := range out.Data {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.Equal(t, 0.0, v)
	}
}

func TestRescaleDoesNotMutateInput(t *testing.T) {
	f, err := FromRows([][]float64{{1, 2, 3}})
	require.NoError(t, err)
	f.Rescale()
	assert.Equal(t, []float64{1, 2, 3}, f.Data)
}

func TestNormalize01(t *testing.T) {
	f, err := FromRows([][]float64{{10, 15, 20}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, f.Normalize01().Data, 1e-12)
}

func TestResampleIdentity(t *testing.T) {
	f, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, f.Data, f.Resample(2, 2).Data)
}

func TestResampleUpAndDown(t *testing.T) {
	f, err := FromRows([][]float64{{0, 1}, {0, 1}})
	require.NoError(t, err)

	up := f.Resample(4, 2)
	require.Equal(t, 4, up.Width)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.75, 1}, up.Data[:4], 1e-12)

	down := up.Resample(2, 1)
	assert.InDeltaSlice(t, []float64{0.125, 0.875}, down.Data, 1e-12)
}

func TestGaussianBlurPreservesConstant(t *testing.T) {
	f := New(6, 5).Map(func(float64) float64 { return 3 })
	blurred := f.GaussianBlur(2)
	for _, v := range blurred.Data {
		assert.InDelta(t, 3.0, v, 1e-12)
	}
}

func TestGaussianBlurSpreadsSpike(t *testing.T) {
	f := New(9, 9)
	f.Set(4, 4, 1)
	blurred := f.GaussianBlur(1)

	assert.Less(t, blurred.At(4, 4), 1.0)
	assert.Greater(t, blurred.At(3, 4), 0.0)
	assert.InDelta(t, blurred.At(3, 4), blurred.At(5, 4), 1e-12)

	var total float64
	for _, v := range blurred.Data {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestReflect(t *testing.T) {
	assert.Equal(t, 0, reflect(-1, 4))
	assert.Equal(t, 1, reflect(-2, 4))
	assert.Equal(t, 3, reflect(4, 4))
	assert.Equal(t, 2, reflect(5, 4))
	assert.Equal(t, 0, reflect(5, 1))
}
