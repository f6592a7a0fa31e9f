// Package regiongraph tessellates the map into Voronoi regions, links
// neighbouring regions and grows mountain ridges across the links.
package regiongraph

import (
	"fmt"
	"math"
	"sort"

	"github.com/lawnchairsociety/worldgen/internal/biome"
)

// Adjacency selects when two regions count as neighbours.
type Adjacency int

const (
	// SharedEdge links regions whose cells share a full boundary edge.
	SharedEdge Adjacency = iota
	// SharedVertex links regions whose cells share any boundary vertex. It
	// also links diagonal cells that only touch at a corner.
	SharedVertex
)

// ParseAdjacency converts the config spelling ("edge", "vertex").
func ParseAdjacency(s string) (Adjacency, error) {
	switch s {
	case "edge", "":
		return SharedEdge, nil
	case "vertex":
		return SharedVertex, nil
	default:
		return SharedEdge, fmt.Errorf("unknown adjacency %q", s)
	}
}

// Region is one bounded Voronoi cell.
type Region struct {
	// Site is the point that generated the cell.
	Site Vec2
	// Centroid is the mean of the cell's vertices.
	Centroid Vec2
	// Vertices index Graph.Vertices in counter-clockwise order.
	Vertices         []int
	VertexElevations []float64
	Elevation        float64
	Biome            biome.Code
	// Neighbors index Graph.Regions, sorted ascending.
	Neighbors []int
}

// Graph owns every region. Links between regions are indices into Regions.
type Graph struct {
	Width, Height float64
	Vertices      []Vec2
	Regions       []Region
}

// BuildOptions tunes tessellation.
type BuildOptions struct {
	Adjacency Adjacency
	// ClipToDomain drops cells with a vertex outside [0,Width) x [0,Height).
	ClipToDomain bool
}

// Build tessellates sites over a width x height domain. Cells on the convex
// hull are unbounded and dropped, so the graph holds fewer regions than
// sites.
func Build(sites []Vec2, width, height float64, opts BuildOptions) (*Graph, error) {
	if len(sites) < 3 {
		return nil, fmt.Errorf("need at least 3 sites, got %d", len(sites))
	}
	seen := make(map[Vec2]struct{}, len(sites))
	for _, s := range sites {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("duplicate site (%g, %g)", s.X, s.Y)
		}
		seen[s] = struct{}{}
	}

	tris, all := triangulate(sites)
	n := len(sites)
	canonicalize(tris)

	g := &Graph{Width: width, Height: height}

	// Voronoi vertices are circumcentres. Coincident ones (cocircular
	// sites) are merged so a corner shared by four cells is one vertex.
	vertexOf := make(map[[2]int64]int)
	incident := make([][]int, n)
	unbounded := make([]bool, n)
	for _, t := range tris {
		corners := [3]int{t.a, t.b, t.c}
		super := false
		for _, c := range corners {
			if c >= n {
				super = true
			}
		}
		if super {
			for _, c := range corners {
				if c < n {
					unbounded[c] = true
				}
			}
			continue
		}
		cc, ok := circumcenter(all[t.a], all[t.b], all[t.c])
		if !ok {
			for _, c := range corners {
				unbounded[c] = true
			}
			continue
		}
		key := [2]int64{int64(math.Round(cc.X * 1e9)), int64(math.Round(cc.Y * 1e9))}
		id, ok := vertexOf[key]
		if !ok {
			id = len(g.Vertices)
			g.Vertices = append(g.Vertices, cc)
			vertexOf[key] = id
		}
		for _, c := range corners {
			incident[c] = append(incident[c], id)
		}
	}

	for s := 0; s < n; s++ {
		if unbounded[s] || len(incident[s]) < 3 {
			continue
		}
		ring := g.orderRing(sites[s], incident[s])
		if len(ring) < 3 {
			continue
		}
		if opts.ClipToDomain && !g.insideDomain(ring) {
			continue
		}
		var centroid Vec2
		for _, v := range ring {
			centroid = centroid.Add(g.Vertices[v])
		}
		g.Regions = append(g.Regions, Region{
			Site:             sites[s],
			Centroid:         centroid.Mul(1 / float64(len(ring))),
			Vertices:         ring,
			VertexElevations: make([]float64, len(ring)),
		})
	}

	g.link(opts.Adjacency)
	return g, nil
}

// canonicalize rotates each triangle so its smallest index comes first and
// sorts the list, making vertex numbering independent of map order.
func canonicalize(tris []triangle) {
	for i, t := range tris {
		switch {
		case t.b < t.a && t.b < t.c:
			tris[i] = triangle{t.b, t.c, t.a}
		case t.c < t.a && t.c < t.b:
			tris[i] = triangle{t.c, t.a, t.b}
		}
	}
	sort.Slice(tris, func(i, j int) bool {
		a, b := tris[i], tris[j]
		if a.a != b.a {
			return a.a < b.a
		}
		if a.b != b.b {
			return a.b < b.b
		}
		return a.c < b.c
	})
}

// orderRing sorts a cell's vertex ids counter-clockwise around site and
// drops repeats left by merged vertices.
func (g *Graph) orderRing(site Vec2, ids []int) []int {
	ring := append([]int(nil), ids...)
	sort.Ints(ring)
	uniq := ring[:0]
	for i, id := range ring {
		if i == 0 || id != ring[i-1] {
			uniq = append(uniq, id)
		}
	}
	ring = uniq
	sort.Slice(ring, func(i, j int) bool {
		a := g.Vertices[ring[i]].Sub(site)
		b := g.Vertices[ring[j]].Sub(site)
		return math.Atan2(a.Y, a.X) < math.Atan2(b.Y, b.X)
	})
	return ring
}

func (g *Graph) insideDomain(ring []int) bool {
	for _, id := range ring {
		v := g.Vertices[id]
		if v.X < 0 || v.Y < 0 || v.X >= g.Width || v.Y >= g.Height {
			return false
		}
	}
	return true
}

// link fills Neighbors from shared vertices.
func (g *Graph) link(adj Adjacency) {
	owners := make(map[int][]int)
	for r := range g.Regions {
		for _, v := range g.Regions[r].Vertices {
			owners[v] = append(owners[v], r)
		}
	}

	shared := make(map[[2]int]int)
	for _, rs := range owners {
		for i := 0; i < len(rs); i++ {
			for j := i + 1; j < len(rs); j++ {
				a, b := rs[i], rs[j]
				if a > b {
					a, b = b, a
				}
				shared[[2]int{a, b}]++
			}
		}
	}

	need := 2
	if adj == SharedVertex {
		need = 1
	}
	for pair, count := range shared {
		if count < need {
			continue
		}
		g.Regions[pair[0]].Neighbors = append(g.Regions[pair[0]].Neighbors, pair[1])
		g.Regions[pair[1]].Neighbors = append(g.Regions[pair[1]].Neighbors, pair[0])
	}
	for r := range g.Regions {
		sort.Ints(g.Regions[r].Neighbors)
	}
}

// NewGraph assembles a graph from prepared regions. Neighbour lists must be
// symmetric and in range.
func NewGraph(width, height float64, vertices []Vec2, regions []Region) (*Graph, error) {
	g := &Graph{Width: width, Height: height, Vertices: vertices, Regions: regions}
	for i := range g.Regions {
		r := &g.Regions[i]
		for _, v := range r.Vertices {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("region %d: vertex %d out of range", i, v)
			}
		}
		if len(r.VertexElevations) != len(r.Vertices) {
			r.VertexElevations = make([]float64, len(r.Vertices))
		}
		r.Neighbors = append([]int(nil), r.Neighbors...)
		sort.Ints(r.Neighbors)
		for _, nb := range r.Neighbors {
			if nb < 0 || nb >= len(regions) || nb == i {
				return nil, fmt.Errorf("region %d: neighbour %d invalid", i, nb)
			}
		}
	}
	for i := range g.Regions {
		for _, nb := range g.Regions[i].Neighbors {
			if !g.IsNeighbor(nb, i) {
				return nil, fmt.Errorf("region %d lists %d but not the reverse", i, nb)
			}
		}
	}
	return g, nil
}

// IsNeighbor reports whether b is in a's neighbour list.
func (g *Graph) IsNeighbor(a, b int) bool {
	nbs := g.Regions[a].Neighbors
	i := sort.SearchInts(nbs, b)
	return i < len(nbs) && nbs[i] == b
}

// Sampler yields an elevation for a point of the map domain.
type Sampler interface {
	Elevation(x, y float64) float64
}

// SampleElevation samples every region vertex and sets each region's
// elevation to the mean of its samples, capped at 1.
func (g *Graph) SampleElevation(s Sampler) {
	samples := make([]float64, len(g.Vertices))
	for i, v := range g.Vertices {
		samples[i] = s.Elevation(v.X, v.Y)
	}
	for i := range g.Regions {
		r := &g.Regions[i]
		if len(r.Vertices) == 0 {
			continue
		}
		var sum float64
		for k, v := range r.Vertices {
			r.VertexElevations[k] = samples[v]
			sum += samples[v]
		}
		r.Elevation = math.Min(sum/float64(len(r.Vertices)), 1)
	}
}

// ClassifyRegions marks regions at or below waterLevel as ocean and the
// rest as bare land.
func (g *Graph) ClassifyRegions(waterLevel float64) {
	for i := range g.Regions {
		if g.Regions[i].Elevation <= waterLevel {
			g.Regions[i].Biome = biome.Ocean
		} else {
			g.Regions[i].Biome = biome.Bare
		}
	}
}
