//go:build ebiten

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/datapath"
	"github.com/lawnchairsociety/worldgen/internal/pipeline"
	"github.com/lawnchairsociety/worldgen/internal/render"
	"github.com/lawnchairsociety/worldgen/internal/store"
)

type view struct {
	name string
	img  *ebiten.Image
}

// Viewer shows the rendered map and every stored stage of one config.
type Viewer struct {
	views         []view
	current       int
	width, height int
}

func (v *Viewer) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		v.current = (v.current + 1) % len(v.views)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		v.current = (v.current + len(v.views) - 1) % len(v.views)
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	cur := v.views[v.current]
	screen.DrawImage(cur.img, nil)
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s  (%d/%d, arrows to cycle)", cur.name, v.current+1, len(v.views)))
}

func (v *Viewer) Layout(outsideW, outsideH int) (int, int) {
	return v.width, v.height
}

func loadViews(ctx context.Context, cfg *config.WorldConfig, st store.Store) ([]view, error) {
	fp := cfg.Fingerprint()
	names := append([]string{}, pipeline.Stages...)
	names = append(names, pipeline.StageRegionElevation, pipeline.StageRegionBiomes)

	var views []view
	for _, name := range names {
		f, err := st.Load(ctx, store.Key{Stage: name, Fingerprint: fp})
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		views = append(views, view{name: name, img: ebiten.NewImageFromImage(render.Grayscale(f))})

		if name == pipeline.StageBiomes {
			elev, err := st.Load(ctx, store.Key{Stage: pipeline.StageElevation, Fingerprint: fp})
			if err != nil {
				return nil, fmt.Errorf("load elevation: %w", err)
			}
			img, err := render.Render(f, elev, rand.New(rand.NewSource(cfg.Seed)), render.OptionsFromConfig(cfg.Render))
			if err != nil {
				return nil, err
			}
			views = append([]view{{name: "map", img: ebiten.NewImageFromImage(img)}}, views...)
		}
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("no stored artifacts for fingerprint %s; run worldgen first", fp[:16])
	}
	return views, nil
}

func main() {
	configFile := flag.String("config", "data/world.yaml", "Path to world config YAML file")
	dataDir := flag.String("data-dir", "data", "Artifact directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	st, err := store.Open(cfg.Storage, datapath.Static(*dataDir))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	views, err := loadViews(context.Background(), cfg, st)
	if err != nil {
		log.Fatalf("Failed to load views: %v", err)
	}

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("worldgen")
	if err := ebiten.RunGame(&Viewer{views: views, width: cfg.Width, height: cfg.Height}); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
