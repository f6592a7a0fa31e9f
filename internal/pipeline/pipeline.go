// Package pipeline runs the generation stages in order, persisting each
// stage's output so an interrupted run resumes where it stopped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/lawnchairsociety/worldgen/internal/biome"
	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/datapath"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/logger"
	"github.com/lawnchairsociety/worldgen/internal/noise"
	"github.com/lawnchairsociety/worldgen/internal/regiongraph"
	"github.com/lawnchairsociety/worldgen/internal/render"
	"github.com/lawnchairsociety/worldgen/internal/store"
)

// Stage names, also used as artifact keys.
const (
	StageRoughElevation  = "rough_elevation"
	StageCoastline       = "coastline"
	StageElevation       = "elevation"
	StageTemperature     = "temperature"
	StageWind            = "wind"
	StageMoisture        = "moisture"
	StageBiomes          = "biomes"
	StageRegionElevation = "region_elevation"
	StageRegionBiomes    = "region_biomes"
)

// Stages lists the raster path's stages in execution order.
var Stages = []string{
	StageRoughElevation,
	StageCoastline,
	StageElevation,
	StageTemperature,
	StageWind,
	StageMoisture,
	StageBiomes,
}

// StageStat records how one stage was satisfied.
type StageStat struct {
	Name     string
	Cached   bool
	Duration time.Duration
}

// Stats summarises a run.
type Stats struct {
	Fingerprint string
	Stages      []StageStat
	Histogram   [biome.NumCodes]int
	Output      string
}

// Result is the outcome of Run.
type Result struct {
	Image  *image.RGBA
	Biomes *field.ScalarField
	Stats  Stats
}

// Pipeline generates one world from a fixed configuration. A Pipeline runs
// one generation at a time.
type Pipeline struct {
	cfg         *config.WorldConfig
	store       store.Store
	observer    Observer
	noise       *noise.Field
	paths       datapath.Resolver
	outDir      string
	force       bool
	fingerprint string

	// Per-run state.
	rng     *rand.Rand
	results map[string]*field.ScalarField
	stats   []StageStat
	graph   *regiongraph.Graph
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver reports every stage to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithNoise replaces the noise field built from the config.
func WithNoise(n *noise.Field) Option {
	return func(p *Pipeline) { p.noise = n }
}

// WithDataPath resolves relative asset paths such as the overlay bitmap.
func WithDataPath(r datapath.Resolver) Option {
	return func(p *Pipeline) { p.paths = r }
}

// WithOutputDir writes the final image into dir.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) { p.outDir = dir }
}

// WithForce recomputes every stage, overwriting stored artifacts.
func WithForce(force bool) Option {
	return func(p *Pipeline) { p.force = force }
}

// New validates cfg and returns a pipeline backed by st. An invalid config
// is rejected here, before any stage runs.
func New(cfg *config.WorldConfig, st store.Store, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:         cfg,
		store:       st,
		observer:    nopObserver{},
		paths:       datapath.Static("."),
		fingerprint: cfg.Fingerprint(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.noise == nil {
		f, err := noise.Cached(noise.Kind(cfg.Noise.Kind), cfg.Seed)
		if err != nil {
			return nil, err
		}
		p.noise = f
	}
	return p, nil
}

// Fingerprint returns the artifact key shared by this pipeline's stages.
func (p *Pipeline) Fingerprint() string {
	return p.fingerprint
}

func (p *Pipeline) reset() {
	p.rng = rand.New(rand.NewSource(p.cfg.Seed))
	p.results = make(map[string]*field.ScalarField)
	p.stats = nil
	p.graph = nil
}

// Run executes the raster path and renders the map.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.reset()
	log := logger.Logger().With("fingerprint", p.fingerprint[:16])
	log.Info("Starting world generation", "seed", p.cfg.Seed, "width", p.cfg.Width, "height", p.cfg.Height)

	biomes, err := p.biomes(ctx)
	if err != nil {
		return nil, err
	}
	elev, err := p.elevation(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := render.Render(biomes, elev, p.rng, render.OptionsFromConfig(p.cfg.Render))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out, err := p.writeImage(img)
	if err != nil {
		return nil, err
	}
	p.observer.Rendered(ctx, img)

	res := &Result{
		Image:  img,
		Biomes: biomes,
		Stats: Stats{
			Fingerprint: p.fingerprint,
			Stages:      p.stats,
			Histogram:   biome.Histogram(biomes),
			Output:      out,
		},
	}
	log.Info("World generation complete", "stages", len(p.stats), "output", out)
	return res, nil
}

// stage returns the named stage's field: from this run if already
// produced, else from the store, else by calling compute and saving the
// result. compute pulls in its own inputs through stage, so a miss walks
// upstream only as far as the nearest stored artifact.
func (p *Pipeline) stage(ctx context.Context, name string, compute func(context.Context) (*field.ScalarField, error)) (*field.ScalarField, error) {
	if f, ok := p.results[name]; ok {
		return f, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := logger.Stage(name)
	key := store.Key{Stage: name, Fingerprint: p.fingerprint}
	start := time.Now()

	if !p.force {
		f, err := p.store.Load(ctx, key)
		switch {
		case err == nil:
			log.Debug("Loaded stored artifact", "width", f.Width, "height", f.Height)
			return p.finish(ctx, name, f, true, start), nil
		case errors.Is(err, store.ErrNotFound):
			log.Debug("No stored artifact, computing")
		default:
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
	}

	f, err := compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}
	if err := p.store.Save(ctx, key, f); err != nil {
		return nil, fmt.Errorf("stage %s: %w", name, err)
	}
	return p.finish(ctx, name, f, false, start), nil
}

func (p *Pipeline) finish(ctx context.Context, name string, f *field.ScalarField, cached bool, start time.Time) *field.ScalarField {
	elapsed := time.Since(start)
	p.results[name] = f
	p.stats = append(p.stats, StageStat{Name: name, Cached: cached, Duration: elapsed})
	logger.Stage(name).Info("Stage complete", "cached", cached, "duration", elapsed)
	p.observer.Checkpoint(ctx, name, f, cached)
	return f
}

// writeImage encodes img into the output directory, if one is set, and
// returns the written path.
func (p *Pipeline) writeImage(img image.Image) (string, error) {
	if p.outDir == "" {
		return "", nil
	}
	format := p.cfg.Render.Format
	if format == "" {
		format = "png"
	}
	path := filepath.Join(p.outDir, "world."+format)
	err := store.WriteFileAtomic(path, func(w io.Writer) error {
		return render.Encode(w, img, format)
	})
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
