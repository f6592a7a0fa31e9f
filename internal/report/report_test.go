package report

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lawnchairsociety/worldgen/internal/biome"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/pipeline"
)

func TestBiomeTable(t *testing.T) {
	var hist [biome.NumCodes]int
	hist[biome.Ocean] = 3
	hist[biome.Desert] = 1

	out := BiomeTable(hist)
	for _, want := range []string{"Biome", "ocean", "desert", "75.0%", "25.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("BiomeTable() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "snow") {
		t.Errorf("BiomeTable() lists an absent biome:\n%s", out)
	}
}

func TestStageTable(t *testing.T) {
	out := StageTable([]pipeline.StageStat{
		{Name: "elevation", Cached: true, Duration: time.Millisecond},
		{Name: "moisture", Cached: false, Duration: 2 * time.Second},
	})
	for _, want := range []string{"elevation", "stored", "moisture", "computed", "2s"} {
		if !strings.Contains(out, want) {
			t.Errorf("StageTable() missing %q:\n%s", want, out)
		}
	}
}

func TestSummary(t *testing.T) {
	var hist [biome.NumCodes]int
	hist[biome.Snow] = 8
	s := NewSummary(6, 4, 2, pipeline.Stats{
		Fingerprint: strings.Repeat("a", 64),
		Output:      "out/world.png",
		Stages: []pipeline.StageStat{
			{Name: "biomes", Cached: true},
			{Name: "elevation", Cached: false},
		},
		Histogram: hist,
	})

	if got := s.Cached(); got != 1 {
		t.Errorf("Cached() = %d, want 1", got)
	}
	out := s.Render()
	for _, want := range []string{"4x2", "seed 6", "out/world.png", "snow", "biomes"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}

	v := s.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue() kind = %v, want group", v.Kind())
	}
	for _, a := range v.Group() {
		if a.Key == "fingerprint" && a.Value.String() != strings.Repeat("a", 16) {
			t.Errorf("fingerprint = %q, want 16 characters", a.Value.String())
		}
	}
}

func TestASCII(t *testing.T) {
	biomes, err := field.FromRows([][]float64{
		{0, 0, 12, 12},
		{0, 0, 12, 12},
		{5, 5, 5, 5},
		{5, 5, 5, 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := ASCII(biomes, 4)
	lines := strings.Split(out, "\n")
	if lines[0] != "~~**" {
		t.Errorf("first row = %q, want %q", lines[0], "~~**")
	}
	if lines[1] != "dddd" {
		t.Errorf("second row = %q, want %q", lines[1], "dddd")
	}
	for _, want := range []string{"ocean", "snow", "desert"} {
		if !strings.Contains(out, want) {
			t.Errorf("legend missing %q", want)
		}
	}
	if strings.Contains(out, "taiga") {
		t.Error("legend lists an unused biome")
	}
}
