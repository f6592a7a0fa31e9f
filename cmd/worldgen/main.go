package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/datapath"
	"github.com/lawnchairsociety/worldgen/internal/logger"
	"github.com/lawnchairsociety/worldgen/internal/observe"
	"github.com/lawnchairsociety/worldgen/internal/pipeline"
	"github.com/lawnchairsociety/worldgen/internal/report"
	"github.com/lawnchairsociety/worldgen/internal/store"
)

func main() {
	configFile := flag.String("config", "data/world.yaml", "Path to world config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	dataDir := flag.String("data-dir", "", "Artifact directory (default: read from data_path.config)")
	seed := flag.Int64("seed", 0, "Generation seed (overrides the config file)")
	mode := flag.String("mode", "raster", "Generation path: raster or regions")
	outDir := flag.String("out", "", "Directory for the rendered map (default: the data directory)")
	serve := flag.String("serve", "", "Serve checkpoints on this address and keep serving after the run")
	force := flag.Bool("force", false, "Recompute every stage, ignoring stored artifacts")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*loggingConfig)
	logger.Initialize(logConfig)
	if err != nil {
		logger.Warning("Using default logging settings", "error", err)
	}

	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	if err := run(*configFile, *dataDir, *mode, *outDir, *serve, *force, seedSet, *seed); err != nil {
		logger.Error("World generation failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, dataDir, mode, outDir, serve string, force, seedSet bool, seed int64) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if seedSet {
		cfg.Seed = seed
	}
	if serve != "" {
		cfg.Observe.Addr = serve
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if mode != "raster" && mode != "regions" {
		return fmt.Errorf("unknown mode %q", mode)
	}

	var paths datapath.Resolver
	switch {
	case dataDir != "":
		paths = datapath.Static(dataDir)
	case cfg.Storage.DataDir != "":
		paths = datapath.Static(cfg.Storage.DataDir)
	default:
		paths, err = datapath.FromFile("data_path.config", "data")
		if err != nil {
			return err
		}
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if outDir == "" {
		outDir = paths.Base()
	}
	logger.Info("Data directory resolved", "path", paths.Base(), "driver", cfg.Storage.Driver)

	st, err := store.Open(cfg.Storage, paths)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []pipeline.Option{
		pipeline.WithDataPath(paths),
		pipeline.WithOutputDir(outDir),
		pipeline.WithForce(force),
	}

	var hub *observe.Hub
	serveErr := make(chan error, 1)
	if cfg.Observe.Addr != "" {
		hub = observe.NewHub(cfg.Observe)
		defer hub.Close()
		opts = append(opts, pipeline.WithObserver(hub))
		go func() { serveErr <- observe.Serve(ctx, cfg.Observe.Addr, observe.Routes(hub)) }()
	}

	p, err := pipeline.New(cfg, st, opts...)
	if err != nil {
		return err
	}

	var stats pipeline.Stats
	if mode == "regions" {
		res, err := p.RunRegions(ctx)
		if err != nil {
			return err
		}
		stats = res.Stats
	} else {
		res, err := p.Run(ctx)
		if err != nil {
			return err
		}
		stats = res.Stats
	}

	summary := report.NewSummary(cfg.Seed, cfg.Width, cfg.Height, stats)
	logger.Info("Run summary", "summary", summary)
	fmt.Println(summary.Render())

	if hub != nil {
		logger.Info("Run finished, still serving checkpoints (Ctrl+C to stop)", "addr", cfg.Observe.Addr)
		if err := <-serveErr; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}
