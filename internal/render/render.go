package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math/rand"

	"golang.org/x/image/bmp"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/field"
)

// Options tunes dithering and hillshading.
type Options struct {
	DitherStrength int
	ShadowStrength int
	// LightX and LightY offset the pixel each pixel is compared against,
	// up and to the left when positive.
	LightX, LightY int
}

// OptionsFromConfig extracts the render settings.
func OptionsFromConfig(c config.RenderConfig) Options {
	return Options{
		DitherStrength: c.DitherStrength,
		ShadowStrength: c.ShadowStrength,
		LightX:         c.LightX,
		LightY:         c.LightY,
	}
}

// Dither perturbs every pixel by two draws in [0, strength): the first is
// added unless that would pass 255, the second subtracted unless that would
// go below 0. Both checks use the pixel's original value, and one pair of
// draws is shared by a pixel's three channels. All first draws are taken
// before all second draws.
func Dither(img *image.RGBA, rng *rand.Rand, strength int) {
	if strength <= 0 {
		return
	}
	n := len(img.Pix) / 4
	up := make([]int, n)
	down := make([]int, n)
	for i := range up {
		up[i] = rng.Intn(strength)
	}
	for i := range down {
		down[i] = rng.Intn(strength)
	}

	for i := 0; i < n; i++ {
		for ch := 0; ch < 3; ch++ {
			c := int(img.Pix[i*4+ch])
			v := c
			if c <= 255-up[i] {
				v += up[i]
			}
			if c >= down[i] {
				v -= down[i]
			}
			img.Pix[i*4+ch] = uint8(v)
		}
	}
}

// Hillshade darkens land pixels that sit lower than the pixel offset by the
// light vector, dividing their channels by the shadow strength. Pixels
// whose offset falls outside the image are left alone.
func Hillshade(img *image.RGBA, elevation *field.ScalarField, opts Options) error {
	b := img.Bounds()
	if b.Dx() != elevation.Width || b.Dy() != elevation.Height {
		return fmt.Errorf("hillshade: image is %dx%d, elevation is %dx%d",
			b.Dx(), b.Dy(), elevation.Width, elevation.Height)
	}
	if opts.ShadowStrength <= 0 {
		return fmt.Errorf("hillshade: shadow strength %d must be positive", opts.ShadowStrength)
	}
	div := uint8(opts.ShadowStrength)
	if opts.ShadowStrength > 255 {
		div = 255
	}

	for i := 0; i < elevation.Height; i++ {
		for j := 0; j < elevation.Width; j++ {
			sx, sy := j-opts.LightX, i-opts.LightY
			if !elevation.InBounds(sx, sy) {
				continue
			}
			here := elevation.At(j, i)
			if here <= 0 || elevation.At(sx, sy) <= here {
				continue
			}
			base := img.PixOffset(b.Min.X+j, b.Min.Y+i)
			for ch := 0; ch < 3; ch++ {
				img.Pix[base+ch] /= div
			}
		}
	}
	return nil
}

// Render colours the biomes, dithers with rng and applies hillshading.
func Render(biomes, elevation *field.ScalarField, rng *rand.Rand, opts Options) (*image.RGBA, error) {
	if !field.SameShape(biomes, elevation) {
		return nil, fmt.Errorf("render: biomes are %dx%d, elevation is %dx%d",
			biomes.Width, biomes.Height, elevation.Width, elevation.Height)
	}
	img := Colorize(biomes)
	Dither(img, rng, opts.DitherStrength)
	if err := Hillshade(img, elevation, opts); err != nil {
		return nil, err
	}
	return img, nil
}

// Encode writes img as "png" (the default) or "bmp".
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png", "":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}
