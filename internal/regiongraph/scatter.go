package regiongraph

import (
	"fmt"
	"math"
	"math/rand"
)

// Scatter draws n uniform points over [0,width) x [0,height).
func Scatter(rng *rand.Rand, n int, width, height float64) []Vec2 {
	pts := make([]Vec2, n)
	for i := range pts {
		pts[i] = Vec2{rng.Float64() * width, rng.Float64() * height}
	}
	return pts
}

// PoissonScatter draws roughly n points with Bridson's algorithm, keeping
// them at least a fixed distance apart. The spacing is chosen from n and
// the domain area; the exact count varies with the draw.
func PoissonScatter(rng *rand.Rand, n int, width, height float64) []Vec2 {
	if n <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	minDist := 0.75 * math.Sqrt(width*height/float64(n))
	const maxTries = 30

	cell := minDist / math.Sqrt2
	gw := int(math.Ceil(width / cell))
	gh := int(math.Ceil(height / cell))
	grid := make([]int, gw*gh)
	for i := range grid {
		grid[i] = -1
	}

	toGrid := func(p Vec2) (int, int) {
		gx := min(max(int(p.X/cell), 0), gw-1)
		gy := min(max(int(p.Y/cell), 0), gh-1)
		return gx, gy
	}

	var points []Vec2
	var active []int
	valid := func(p Vec2) bool {
		if p.X < 0 || p.Y < 0 || p.X >= width || p.Y >= height {
			return false
		}
		gx, gy := toGrid(p)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				nx, ny := gx+dx, gy+dy
				if nx < 0 || ny < 0 || nx >= gw || ny >= gh {
					continue
				}
				if idx := grid[ny*gw+nx]; idx >= 0 && points[idx].Sub(p).Len2() < minDist*minDist {
					return false
				}
			}
		}
		return true
	}
	insert := func(p Vec2) {
		idx := len(points)
		points = append(points, p)
		active = append(active, idx)
		gx, gy := toGrid(p)
		grid[gy*gw+gx] = idx
	}

	insert(Vec2{rng.Float64() * width, rng.Float64() * height})
	for len(active) > 0 {
		ai := rng.Intn(len(active))
		p := points[active[ai]]

		found := false
		for k := 0; k < maxTries; k++ {
			angle := rng.Float64() * 2 * math.Pi
			dist := minDist * (1 + rng.Float64())
			c := Vec2{p.X + dist*math.Cos(angle), p.Y + dist*math.Sin(angle)}
			if valid(c) {
				insert(c)
				found = true
				break
			}
		}
		if !found {
			active[ai] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}
	return points
}

// ScatterKind names a point distribution.
type ScatterKind string

const (
	ScatterUniform ScatterKind = "uniform"
	ScatterPoisson ScatterKind = "poisson"
)

// ScatterBy dispatches on kind.
func ScatterBy(kind ScatterKind, rng *rand.Rand, n int, width, height float64) ([]Vec2, error) {
	switch kind {
	case ScatterUniform, "":
		return Scatter(rng, n, width, height), nil
	case ScatterPoisson:
		return PoissonScatter(rng, n, width, height), nil
	default:
		return nil, fmt.Errorf("unknown scatter %q", kind)
	}
}
