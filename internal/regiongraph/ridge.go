package regiongraph

import (
	"fmt"
	"math"
	"math/rand"
)

// RidgeParams tunes ridge growth.
type RidgeParams struct {
	// Determination scales how strongly alignment with the ridge direction
	// keeps a neighbour at the ridge's height.
	Determination float64
	// Dropoff multiplies the parent's elevation when the ridge does not
	// continue.
	Dropoff float64
	// NoiseStrength is the standard deviation of the per-step perturbation.
	NoiseStrength float64
	// Floor is the lowest elevation growth may leave behind.
	Floor float64
}

// GrowthResult records one ridge.
type GrowthResult struct {
	Seed      int
	Direction Vec2
	// Order lists regions in the order they were expanded.
	Order []int
}

// Grow picks a random seed region and direction and grows a ridge from
// them. It may be called repeatedly to raise several ranges.
func (g *Graph) Grow(rng *rand.Rand, p RidgeParams) (GrowthResult, error) {
	if len(g.Regions) == 0 {
		return GrowthResult{}, fmt.Errorf("grow ridge: graph has no regions")
	}
	seed := rng.Intn(len(g.Regions))
	angle := rng.Float64() * 2 * math.Pi
	return g.GrowFrom(seed, Vec2{math.Cos(angle), math.Sin(angle)}, rng, p)
}

// GrowFrom grows a ridge from seed along dir.
//
// The seed and its neighbours start at elevation 1. Regions are expanded
// from a LIFO stack, so the walk runs depth first; a region reached along
// several branches keeps the value written last. Each region is expanded
// once, tracked by a visited set local to this call.
func (g *Graph) GrowFrom(seed int, dir Vec2, rng *rand.Rand, p RidgeParams) (GrowthResult, error) {
	if seed < 0 || seed >= len(g.Regions) {
		return GrowthResult{}, fmt.Errorf("grow ridge: seed %d out of range", seed)
	}
	res := GrowthResult{Seed: seed, Direction: dir}

	g.Regions[seed].Elevation = 1
	for _, nb := range g.Regions[seed].Neighbors {
		g.Regions[nb].Elevation = 1
	}

	visited := make([]bool, len(g.Regions))
	stack := []int{seed}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		region := &g.Regions[cur]
		for _, nb := range region.Neighbors {
			if visited[nb] {
				continue
			}
			other := &g.Regions[nb]
			closeness := math.Abs(dir.Dot(other.Centroid.Sub(region.Centroid)))
			mountainProb := closeness * p.Determination
			perturb := p.NoiseStrength * rng.NormFloat64()
			if rng.Float64() < mountainProb {
				other.Elevation = region.Elevation + perturb
			} else {
				other.Elevation = p.Dropoff*region.Elevation + perturb
			}
			other.Elevation = clamp(other.Elevation, p.Floor, 1)
			stack = append(stack, nb)
		}
		visited[cur] = true
		res.Order = append(res.Order, cur)
	}
	return res, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
