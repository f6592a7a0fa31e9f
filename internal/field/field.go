// Package field provides the 2D scalar grids passed between generation stages.
package field

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ScalarField is a row-major grid of real values. Row index is latitude (y),
// column index is longitude (x).
type ScalarField struct {
	Width  int
	Height int
	Data   []float64
}

// New allocates a zeroed field.
func New(width, height int) *ScalarField {
	return &ScalarField{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// FromRows builds a field from a slice of equal-length rows.
func FromRows(rows [][]float64) (*ScalarField, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	w := len(rows[0])
	f := New(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d values, want %d", y, len(row), w)
		}
		copy(f.Data[y*w:(y+1)*w], row)
	}
	return f, nil
}

// Len returns the number of cells.
func (f *ScalarField) Len() int {
	return len(f.Data)
}

// At returns the value at column x, row y. It does not wrap.
func (f *ScalarField) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Set stores v at column x, row y.
func (f *ScalarField) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// AtWrap returns the value at (x, y) with both indices wrapped toroidally.
func (f *ScalarField) AtWrap(x, y int) float64 {
	return f.Data[Wrap(y, f.Height)*f.Width+Wrap(x, f.Width)]
}

// Wrap maps any integer index into [0, n).
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// InBounds reports whether (x, y) addresses a cell.
func (f *ScalarField) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// Clone returns a deep copy.
func (f *ScalarField) Clone() *ScalarField {
	c := New(f.Width, f.Height)
	copy(c.Data, f.Data)
	return c
}

// Rows returns the field as a slice of rows sharing no memory with f.
func (f *ScalarField) Rows() [][]float64 {
	rows := make([][]float64, f.Height)
	for y := range rows {
		rows[y] = make([]float64, f.Width)
		copy(rows[y], f.Data[y*f.Width:(y+1)*f.Width])
	}
	return rows
}

// Map returns a new field with fn applied to every cell.
func (f *ScalarField) Map(fn func(float64) float64) *ScalarField {
	out := New(f.Width, f.Height)
	for i, v := range f.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// MinMax returns the smallest and largest values. An empty field yields (0, 0).
func (f *ScalarField) MinMax() (float64, float64) {
	if len(f.Data) == 0 {
		return 0, 0
	}
	return floats.Min(f.Data), floats.Max(f.Data)
}

// Rescale maps the field linearly onto [-1, 1]. A constant field maps to
// all zeros.
func (f *ScalarField) Rescale() *ScalarField {
	if lo, hi := f.MinMax(); lo == hi {
		return New(f.Width, f.Height)
	}
	out := f.Normalize01()
	floats.Scale(2, out.Data)
	floats.AddConst(-1, out.Data)
	return out
}

// Normalize01 maps the field linearly onto [0, 1]. A constant field maps to
// all zeros.
func (f *ScalarField) Normalize01() *ScalarField {
	out := f.Clone()
	if len(out.Data) == 0 {
		return out
	}
	lo, hi := f.MinMax()
	span := hi - lo
	floats.AddConst(-lo, out.Data)
	if span == 0 {
		return out
	}
	floats.Scale(1/span, out.Data)
	// Division can leave the extremes a hair off; pin them.
	for i, v := range f.Data {
		switch v {
		case lo:
			out.Data[i] = 0
		case hi:
			out.Data[i] = 1
		}
	}
	return out
}

// SameShape reports whether two fields have identical dimensions.
func SameShape(a, b *ScalarField) bool {
	return a.Width == b.Width && a.Height == b.Height
}
