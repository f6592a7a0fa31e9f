package field

import "math"

// Resample returns f bilinearly resampled to width x height. Pixel centres
// are aligned, so resampling to the same size is the identity.
func (f *ScalarField) Resample(width, height int) *ScalarField {
	if width == f.Width && height == f.Height {
		return f.Clone()
	}
	out := New(width, height)
	if f.Width == 0 || f.Height == 0 {
		return out
	}
	sx := float64(f.Width) / float64(width)
	sy := float64(f.Height) / float64(height)
	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		y0, y1, ty := span(fy, f.Height)
		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			x0, x1, tx := span(fx, f.Width)
			top := f.At(x0, y0)*(1-tx) + f.At(x1, y0)*tx
			bottom := f.At(x0, y1)*(1-tx) + f.At(x1, y1)*tx
			out.Set(x, y, top*(1-ty)+bottom*ty)
		}
	}
	return out
}

// span returns the two neighbouring sample indices around pos, clamped to
// [0, n), and the interpolation weight of the second.
func span(pos float64, n int) (int, int, float64) {
	if pos <= 0 {
		return 0, 0, 0
	}
	if pos >= float64(n-1) {
		return n - 1, n - 1, 0
	}
	i := int(math.Floor(pos))
	return i, i + 1, pos - float64(i)
}

// GaussianBlur smooths the field with a separable Gaussian of the given
// standard deviation in cells. Borders are reflected.
func (f *ScalarField) GaussianBlur(sigma float64) *ScalarField {
	if sigma <= 0 || f.Len() == 0 {
		return f.Clone()
	}
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	tmp := New(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * f.At(reflect(x+k-radius, f.Width), y)
			}
			tmp.Set(x, y, sum)
		}
	}

	out := New(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * tmp.At(x, reflect(y+k-radius, f.Height))
			}
			out.Set(x, y, sum)
		}
	}
	return out
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	var total float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		total += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= total
	}
	return kernel
}

// reflect mirrors an out-of-range index back into [0, n) the way
// "d c b a | a b c d | d c b a" extends a row.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i = Wrap(i, period)
	if i >= n {
		i = period - 1 - i
	}
	return i
}
