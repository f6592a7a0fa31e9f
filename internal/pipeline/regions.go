package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/lawnchairsociety/worldgen/internal/biome"
	"github.com/lawnchairsociety/worldgen/internal/elevation"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/logger"
	"github.com/lawnchairsociety/worldgen/internal/regiongraph"
	"github.com/lawnchairsociety/worldgen/internal/render"
)

// RegionResult is the outcome of RunRegions.
type RegionResult struct {
	// Graph is nil when both rasters came from the store.
	Graph     *regiongraph.Graph
	Elevation *field.ScalarField
	Biomes    *field.ScalarField
	Image     *image.RGBA
	Stats     Stats
}

// RunRegions executes the region graph path: scatter sites, tessellate,
// sample vertex elevations, grow ridges, then rasterize and shade the
// regions as ocean or bare relief.
func (p *Pipeline) RunRegions(ctx context.Context) (*RegionResult, error) {
	p.reset()
	log := logger.Logger().With("fingerprint", p.fingerprint[:16])
	log.Info("Starting region generation", "seed", p.cfg.Seed, "regions", p.cfg.NumRegions)

	elev, err := p.stage(ctx, StageRegionElevation, func(ctx context.Context) (*field.ScalarField, error) {
		g, err := p.regionGraph(ctx)
		if err != nil {
			return nil, err
		}
		return g.Rasterize(p.cfg.Width, p.cfg.Height), nil
	})
	if err != nil {
		return nil, err
	}
	// Pixels no region covers rasterize to 0, which is ocean.
	biomes, err := p.stage(ctx, StageRegionBiomes, func(ctx context.Context) (*field.ScalarField, error) {
		g, err := p.regionGraph(ctx)
		if err != nil {
			return nil, err
		}
		return g.RasterizeBiomes(p.cfg.Width, p.cfg.Height), nil
	})
	if err != nil {
		return nil, err
	}

	img := render.Relief(biomes, elev)
	if err := render.Hillshade(img, elev, render.OptionsFromConfig(p.cfg.Render)); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out, err := p.writeImage(img)
	if err != nil {
		return nil, err
	}
	p.observer.Rendered(ctx, img)

	log.Info("Region generation complete", "output", out)
	return &RegionResult{
		Graph:     p.graph,
		Elevation: elev,
		Biomes:    biomes,
		Image:     img,
		Stats: Stats{
			Fingerprint: p.fingerprint,
			Stages:      p.stats,
			Histogram:   biome.Histogram(biomes),
			Output:      out,
		},
	}, nil
}

// regionGraph builds the graph on first use within a run. The run's random
// stream is fresh at that point, so the graph is the same whichever region
// stage asks first.
func (p *Pipeline) regionGraph(ctx context.Context) (*regiongraph.Graph, error) {
	if p.graph != nil {
		return p.graph, nil
	}
	g, err := p.buildRegions(ctx)
	if err != nil {
		return nil, err
	}
	p.graph = g
	return g, nil
}

func (p *Pipeline) buildRegions(ctx context.Context) (*regiongraph.Graph, error) {
	log := logger.Stage(StageRegionElevation)

	adj, err := regiongraph.ParseAdjacency(p.cfg.Ridge.Adjacency)
	if err != nil {
		return nil, err
	}
	sites, err := regiongraph.ScatterBy(regiongraph.ScatterKind(p.cfg.Ridge.Scatter), p.rng,
		p.cfg.NumRegions, elevation.MapWidth, elevation.MapHeight)
	if err != nil {
		return nil, err
	}
	g, err := regiongraph.Build(sites, elevation.MapWidth, elevation.MapHeight, regiongraph.BuildOptions{
		Adjacency:    adj,
		ClipToDomain: p.cfg.Ridge.ClipToDomain,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Tessellated", "sites", len(sites), "regions", len(g.Regions), "vertices", len(g.Vertices))

	g.SampleElevation(p.sampler())

	params := regiongraph.RidgeParams{
		Determination: p.cfg.Ridge.Determination,
		Dropoff:       p.cfg.Ridge.Dropoff,
		NoiseStrength: p.cfg.Ridge.NoiseStrength,
		Floor:         p.cfg.Ridge.Floor,
	}
	for r := 0; r < p.cfg.Ridge.Ranges; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := g.Grow(p.rng, params)
		if err != nil {
			return nil, err
		}
		log.Debug("Grew ridge", "range", r, "seed", res.Seed, "expanded", len(res.Order))
	}

	g.ClassifyRegions(p.cfg.WaterLevel)
	return g, nil
}
