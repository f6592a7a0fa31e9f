package elevation

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/field"
)

// OverlayError reports an overlay bitmap that could not be used.
type OverlayError struct {
	Path string
	Err  error
}

func (e *OverlayError) Error() string {
	return fmt.Sprintf("overlay %s: %v", e.Path, e.Err)
}

func (e *OverlayError) Unwrap() error {
	return e.Err
}

// Placement positions the overlay, in fractions of the image size. The
// bitmap keeps its aspect ratio. W == 0 stretches it over the whole image.
type Placement struct {
	X, Y, W float64
}

// presets are the named placements accepted by overlay.preset.
var presets = map[string]Placement{
	"france": {X: 580.0 / 1024, Y: 440.0 / 512, W: 30.0 / 1024},
}

// PlacementFromConfig resolves a preset or the explicit X/Y/W settings.
func PlacementFromConfig(c config.OverlayConfig) (Placement, error) {
	if c.Preset == "" {
		return Placement{X: c.X, Y: c.Y, W: c.W}, nil
	}
	p, ok := presets[c.Preset]
	if !ok {
		return Placement{}, fmt.Errorf("unknown overlay preset %q", c.Preset)
	}
	return p, nil
}

// LoadOverlay decodes the PNG or BMP at path and places it on a
// width x height grid. Cells covered by a non-black pixel are 1, all
// others 0.
func LoadOverlay(path string, width, height int, at Placement) (*field.ScalarField, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &OverlayError{Path: path, Err: err}
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &OverlayError{Path: path, Err: err}
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, &OverlayError{Path: path, Err: fmt.Errorf("image has no pixels")}
	}
	return place(src, width, height, at), nil
}

func place(src image.Image, width, height int, at Placement) *field.ScalarField {
	target := image.Rect(0, 0, width, height)
	if at.W > 0 {
		b := src.Bounds()
		x0 := int(math.Round(at.X * float64(width)))
		y0 := int(math.Round(at.Y * float64(height)))
		w := int(math.Round(at.W * float64(width)))
		h := int(math.Round(float64(w) * float64(b.Dy()) / float64(b.Dx())))
		target = image.Rect(x0, y0, x0+max(w, 1), y0+max(h, 1))
	}

	canvas := image.NewGray(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(canvas, target, src, src.Bounds(), draw.Src, nil)

	out := field.New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if canvas.GrayAt(x, y) != (color.Gray{}) {
				out.Set(x, y, 1)
			}
		}
	}
	return out
}
