// Package noise samples fractal coherent noise for terrain and wind fields.
package noise

import (
	"fmt"
	"math"
	"sync"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Kind selects the base coherent-noise primitive.
type Kind string

const (
	KindSimplex Kind = "simplex"
	KindPerlin  Kind = "perlin"
)

// Source is a seeded coherent-noise primitive.
type Source interface {
	Eval2(x, y float64) float64
	Eval3(x, y, z float64) float64
}

// perlinSource adapts go-perlin to Source. One octave only: the fractal sum
// is done by Field so both backends share the same layering.
type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) Eval2(x, y float64) float64    { return s.p.Noise2D(x, y) }
func (s perlinSource) Eval3(x, y, z float64) float64 { return s.p.Noise3D(x, y, z) }

// NewSource returns the primitive for kind, seeded with seed.
func NewSource(kind Kind, seed int64) (Source, error) {
	switch kind {
	case KindSimplex, "":
		return opensimplex.New(seed), nil
	case KindPerlin:
		return perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}, nil
	default:
		return nil, fmt.Errorf("unknown noise kind %q", kind)
	}
}

// Params describes one fractal sum.
type Params struct {
	Octaves     int
	Persistence float64
	Lacunarity  float64
	// TileWidth is the horizontal period. Values <= 0 disable tiling.
	TileWidth float64
}

// Field layers octaves of a Source.
type Field struct {
	src Source
}

// NewField wraps src.
func NewField(src Source) *Field {
	return &Field{src: src}
}

// Sample returns the fractal sum at (x, y), normalised by the total
// amplitude so the result stays within the primitive's range.
func (f *Field) Sample(x, y float64, p Params) float64 {
	octaves := p.Octaves
	if octaves < 1 {
		octaves = 1
	}

	var (
		total     float64
		maxAmp    float64
		amplitude = 1.0
		frequency = 1.0
	)

	if p.TileWidth > 0 {
		// Wrap x around a cylinder whose circumference is the tile width;
		// scaling all three coordinates by the frequency keeps the period.
		radius := p.TileWidth / (2 * math.Pi)
		angle := 2 * math.Pi * x / p.TileWidth
		cx, cz := radius*math.Cos(angle), radius*math.Sin(angle)
		for i := 0; i < octaves; i++ {
			total += amplitude * f.src.Eval3(cx*frequency, y*frequency, cz*frequency)
			maxAmp += amplitude
			amplitude *= p.Persistence
			frequency *= p.Lacunarity
		}
		return total / maxAmp
	}

	for i := 0; i < octaves; i++ {
		total += amplitude * f.src.Eval2(x*frequency, y*frequency)
		maxAmp += amplitude
		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}
	return total / maxAmp
}

type sourceKey struct {
	kind Kind
	seed int64
}

var (
	sourcesMu sync.Mutex
	sources   = map[sourceKey]*Field{}
)

// Cached returns a shared Field for (kind, seed). Fields are stateless, so
// every run with the same noise settings reuses one.
func Cached(kind Kind, seed int64) (*Field, error) {
	key := sourceKey{kind: kind, seed: seed}

	sourcesMu.Lock()
	defer sourcesMu.Unlock()

	if f, ok := sources[key]; ok {
		return f, nil
	}
	src, err := NewSource(kind, seed)
	if err != nil {
		return nil, err
	}
	f := NewField(src)
	sources[key] = f
	return f, nil
}
