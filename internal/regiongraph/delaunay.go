package regiongraph

import "math"

// triangle holds site indices in counter-clockwise order.
type triangle struct {
	a, b, c int
}

type edgeKey struct{ a, b int }

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// triangulate runs Bowyer-Watson over pts. The returned triangles index
// pts; the three extra indices len(pts)..len(pts)+2 are the super-triangle
// corners, and triangles touching them are kept so callers can tell which
// sites lie on the convex hull.
func triangulate(pts []Vec2) ([]triangle, []Vec2) {
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	delta := math.Max(maxX-minX, maxY-minY)
	if delta == 0 {
		delta = 1
	}
	midX, midY := (minX+maxX)/2, (minY+maxY)/2

	all := make([]Vec2, len(pts), len(pts)+3)
	copy(all, pts)
	all = append(all,
		Vec2{midX - 20*delta, midY - delta},
		Vec2{midX + 20*delta, midY - delta},
		Vec2{midX, midY + 20*delta},
	)
	n := len(pts)
	tris := []triangle{{n, n + 1, n + 2}}

	for pi := 0; pi < n; pi++ {
		p := all[pi]

		edgeCount := make(map[edgeKey]int)
		edgeDir := make(map[edgeKey][2]int)
		kept := tris[:0:0]
		for _, t := range tris {
			if !inCircumcircle(all[t.a], all[t.b], all[t.c], p) {
				kept = append(kept, t)
				continue
			}
			for _, e := range [3][2]int{{t.a, t.b}, {t.b, t.c}, {t.c, t.a}} {
				k := makeEdgeKey(e[0], e[1])
				edgeCount[k]++
				edgeDir[k] = e
			}
		}

		// Cavity boundary edges appear once; joined to p they keep the
		// counter-clockwise winding of the triangle they came from.
		for k, count := range edgeCount {
			if count != 1 {
				continue
			}
			e := edgeDir[k]
			kept = append(kept, triangle{e[0], e[1], pi})
		}
		tris = kept
	}
	return tris, all
}

// inCircumcircle reports whether p lies strictly inside the circumcircle of
// the counter-clockwise triangle (a, b, c).
func inCircumcircle(a, b, c, p Vec2) bool {
	ax, ay := a.X-p.X, a.Y-p.Y
	bx, by := b.X-p.X, b.Y-p.Y
	cx, cy := c.X-p.X, c.Y-p.Y

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)

	if cross2(b.Sub(a), c.Sub(a)) < 0 {
		return det < 0
	}
	return det > 0
}

// circumcenter returns the centre of the circle through a, b and c.
// ok is false for a degenerate triangle.
func circumcenter(a, b, c Vec2) (Vec2, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return Vec2{}, false
	}
	a2 := a.Len2()
	b2 := b.Len2()
	c2 := c.Len2()
	return Vec2{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}
