package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/datapath"
	"github.com/lawnchairsociety/worldgen/internal/pipeline"
	"github.com/lawnchairsociety/worldgen/internal/report"
	"github.com/lawnchairsociety/worldgen/internal/store"
)

func main() {
	configFile := flag.String("config", "data/world.yaml", "Path to world config YAML file")
	dataDir := flag.String("data-dir", "data", "Artifact directory")
	cols := flag.Int("cols", 100, "Map width in characters")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	list := flag.Bool("list", false, "List stored artifacts instead of drawing the map")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Storage, datapath.Static(*dataDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	var output strings.Builder

	if *list {
		entries, err := st.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing artifacts: %v\n", err)
			os.Exit(1)
		}
		for _, e := range entries {
			output.WriteString(fmt.Sprintf("%-18s %s  %dx%d  %s\n",
				e.Stage, e.Fingerprint[:min(16, len(e.Fingerprint))], e.Width, e.Height,
				e.CreatedAt.Format("2006-01-02 15:04:05")))
		}
	} else {
		key := store.Key{Stage: pipeline.StageBiomes, Fingerprint: cfg.Fingerprint()}
		biomes, err := st.Load(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "No biomes artifact for this config (%s); run worldgen first\n", key)
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading biomes: %v\n", err)
			os.Exit(1)
		}

		output.WriteString(fmt.Sprintf("World Map (Seed: %d, %dx%d)\n", cfg.Seed, biomes.Width, biomes.Height))
		output.WriteString(strings.Repeat("=", 60) + "\n\n")
		output.WriteString(report.ASCII(biomes, *cols))
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(output.String())
	}
}
