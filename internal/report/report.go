// Package report formats run summaries for the terminal and the logs.
package report

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lawnchairsociety/worldgen/internal/biome"
	"github.com/lawnchairsociety/worldgen/internal/field"
	"github.com/lawnchairsociety/worldgen/internal/pipeline"
)

var (
	border = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	header = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	cell   = lipgloss.NewStyle().Padding(0, 1)
	title  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Bold(true)
)

// Summary describes a finished run.
type Summary struct {
	Seed        int64
	Width       int
	Height      int
	Fingerprint string
	Output      string
	Stages      []pipeline.StageStat
	Histogram   [biome.NumCodes]int
}

// NewSummary collects the fields of a summary.
func NewSummary(seed int64, width, height int, stats pipeline.Stats) Summary {
	return Summary{
		Seed:        seed,
		Width:       width,
		Height:      height,
		Fingerprint: stats.Fingerprint,
		Output:      stats.Output,
		Stages:      stats.Stages,
		Histogram:   stats.Histogram,
	}
}

// Cached counts stages satisfied from the store.
func (s Summary) Cached() int {
	n := 0
	for _, st := range s.Stages {
		if st.Cached {
			n++
		}
	}
	return n
}

// LogValue groups the summary for structured logs.
func (s Summary) LogValue() slog.Value {
	fp := s.Fingerprint
	if len(fp) > 16 {
		fp = fp[:16]
	}
	return slog.GroupValue(
		slog.Int64("seed", s.Seed),
		slog.String("size", fmt.Sprintf("%dx%d", s.Width, s.Height)),
		slog.String("fingerprint", fp),
		slog.Int("stages", len(s.Stages)),
		slog.Int("cached", s.Cached()),
		slog.String("output", s.Output),
	)
}

// Render lays out the summary header, the stage table and the biome table.
func (s Summary) Render() string {
	head := title.Render(fmt.Sprintf("World %dx%d  seed %d", s.Width, s.Height, s.Seed))
	parts := []string{head}
	if s.Output != "" {
		parts = append(parts, "Written to "+s.Output)
	}
	if len(s.Stages) > 0 {
		parts = append(parts, StageTable(s.Stages))
	}
	parts = append(parts, BiomeTable(s.Histogram))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// BiomeTable renders one row per biome present: name, cell count and share
// of the map.
func BiomeTable(hist [biome.NumCodes]int) string {
	total := 0
	for _, n := range hist {
		total += n
	}

	var rows [][]string
	for _, c := range biome.All() {
		n := hist[c]
		if n == 0 {
			continue
		}
		rows = append(rows, []string{
			c.String(),
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total)),
		})
	}
	return newTable("Biome", "Cells", "Share").Rows(rows...).Render()
}

// StageTable renders how each stage was satisfied.
func StageTable(stages []pipeline.StageStat) string {
	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		source := "computed"
		if s.Cached {
			source = "stored"
		}
		rows = append(rows, []string{s.Name, source, s.Duration.Round(time.Millisecond).String()})
	}
	return newTable("Stage", "Source", "Time").Rows(rows...).Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		BorderHeader(true).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return cell
		})
}

// ASCII returns a character map of biomes downsampled to at most cols
// columns, followed by a legend of the glyphs used.
func ASCII(biomes *field.ScalarField, cols int) string {
	width, height := biomes.Width, biomes.Height
	if cols <= 0 || cols > width {
		cols = width
	}
	step := float64(width) / float64(cols)
	// Terminal cells are about twice as tall as wide.
	rows := max(int(float64(height)/(2*step)), 1)
	rowStep := float64(height) / float64(rows)

	var b strings.Builder
	var used [biome.NumCodes]bool
	for r := 0; r < rows; r++ {
		y := int(float64(r) * rowStep)
		for c := 0; c < cols; c++ {
			code := biome.At(biomes, int(float64(c)*step), y)
			if !code.Valid() {
				code = biome.Bare
			}
			used[code] = true
			b.WriteByte(Glyphs[code])
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nLegend:\n")
	for _, c := range biome.All() {
		if used[c] {
			fmt.Fprintf(&b, "  %c  %s\n", Glyphs[c], c)
		}
	}
	return b.String()
}

// Glyphs maps each biome to its ASCII map character.
var Glyphs = [biome.NumCodes]byte{
	biome.Ocean:                  '~',
	biome.Bare:                   '.',
	biome.TropicalRainforest:     'R',
	biome.TropicalSeasonalForest: 'F',
	biome.Savannah:               's',
	biome.Desert:                 'd',
	biome.TemperateRainforest:    'r',
	biome.TemperateForest:        'f',
	biome.Woodland:               'w',
	biome.Grassland:              'g',
	biome.Taiga:                  't',
	biome.Tundra:                 'u',
	biome.Snow:                   '*',
}
