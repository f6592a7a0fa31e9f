package regiongraph

import (
	"math"

	"github.com/lawnchairsociety/worldgen/internal/field"
)

// Rasterize paints each region's elevation over a width x height grid
// covering the domain. Pixels outside every kept region are 0.
func (g *Graph) Rasterize(width, height int) *field.ScalarField {
	return g.rasterize(width, height, func(r *Region) float64 { return r.Elevation })
}

// RasterizeBiomes paints each region's biome code.
func (g *Graph) RasterizeBiomes(width, height int) *field.ScalarField {
	return g.rasterize(width, height, func(r *Region) float64 { return float64(r.Biome) })
}

func (g *Graph) rasterize(width, height int, value func(*Region) float64) *field.ScalarField {
	out := field.New(width, height)
	if g.Width <= 0 || g.Height <= 0 {
		return out
	}
	sx := g.Width / float64(width)
	sy := g.Height / float64(height)

	for i := range g.Regions {
		r := &g.Regions[i]
		poly := make([]Vec2, len(r.Vertices))
		lo := Vec2{math.Inf(1), math.Inf(1)}
		hi := Vec2{math.Inf(-1), math.Inf(-1)}
		for k, v := range r.Vertices {
			p := g.Vertices[v]
			poly[k] = p
			lo = Vec2{math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)}
			hi = Vec2{math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)}
		}

		x0 := max(int(math.Floor(lo.X/sx)), 0)
		x1 := min(int(math.Ceil(hi.X/sx)), width-1)
		y0 := max(int(math.Floor(lo.Y/sy)), 0)
		y1 := min(int(math.Ceil(hi.Y/sy)), height-1)
		v := value(r)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				c := Vec2{(float64(x) + 0.5) * sx, (float64(y) + 0.5) * sy}
				if insideConvex(poly, c) {
					out.Set(x, y, v)
				}
			}
		}
	}
	return out
}

// insideConvex tests p against a counter-clockwise convex polygon,
// boundary included.
func insideConvex(poly []Vec2, p Vec2) bool {
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if cross2(b.Sub(a), p.Sub(a)) < 0 {
			return false
		}
	}
	return len(poly) >= 3
}
