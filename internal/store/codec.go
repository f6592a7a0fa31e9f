package store

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/lawnchairsociety/worldgen/internal/field"
)

// encode serialises f as a gonum dense matrix, one row per latitude.
func encode(f *field.ScalarField) ([]byte, error) {
	if f.Width <= 0 || f.Height <= 0 || len(f.Data) != f.Width*f.Height {
		return nil, fmt.Errorf("cannot store %dx%d field with %d values", f.Width, f.Height, len(f.Data))
	}
	return mat.NewDense(f.Height, f.Width, f.Data).MarshalBinary()
}

func decode(data []byte) (*field.ScalarField, error) {
	var m mat.Dense
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	rows, cols := m.Dims()
	f := field.New(cols, rows)
	for y := 0; y < rows; y++ {
		mat.Row(f.Data[y*cols:(y+1)*cols], y, &m)
	}
	return f, nil
}
