package pipeline

import (
	"context"
	"image"

	"github.com/lawnchairsociety/worldgen/internal/field"
)

// Observer is told about every finished stage. It must not modify what it
// is handed; nothing it does changes generated values.
type Observer interface {
	// Checkpoint is called once per stage, after the stage's field is
	// final. cached reports whether it came from the store.
	Checkpoint(ctx context.Context, stage string, f *field.ScalarField, cached bool)
	// Rendered is called with the final image.
	Rendered(ctx context.Context, img image.Image)
}

type nopObserver struct{}

func (nopObserver) Checkpoint(context.Context, string, *field.ScalarField, bool) {}
func (nopObserver) Rendered(context.Context, image.Image)                         {}
