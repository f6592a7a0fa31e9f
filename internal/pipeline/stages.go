package pipeline

import (
	"context"

	"github.com/lawnchairsociety/worldgen/internal/biome"
	"github.com/lawnchairsociety/worldgen/internal/climate"
	"github.com/lawnchairsociety/worldgen/internal/elevation"
	"github.com/lawnchairsociety/worldgen/internal/field"
)

func (p *Pipeline) sampler() *elevation.Sampler {
	return elevation.NewSampler(p.noise, elevation.ParamsFromConfig(p.cfg))
}

func (p *Pipeline) roughElevation(ctx context.Context) (*field.ScalarField, error) {
	return p.stage(ctx, StageRoughElevation, func(context.Context) (*field.ScalarField, error) {
		return p.sampler().BasePass(p.cfg.Width, p.cfg.Height), nil
	})
}

func (p *Pipeline) coastline(ctx context.Context) (*field.ScalarField, error) {
	return p.stage(ctx, StageCoastline, func(ctx context.Context) (*field.ScalarField, error) {
		rough, err := p.roughElevation(ctx)
		if err != nil {
			return nil, err
		}
		var overlay *field.ScalarField
		if p.cfg.ShowOverlayMask {
			at, err := elevation.PlacementFromConfig(p.cfg.Overlay)
			if err != nil {
				return nil, err
			}
			overlay, err = elevation.LoadOverlay(p.paths.Path(p.cfg.Overlay.Path), rough.Width, rough.Height, at)
			if err != nil {
				return nil, err
			}
		}
		return elevation.Coastline(rough, p.cfg.WaterLevel, overlay)
	})
}

func (p *Pipeline) elevation(ctx context.Context) (*field.ScalarField, error) {
	return p.stage(ctx, StageElevation, func(ctx context.Context) (*field.ScalarField, error) {
		rough, err := p.roughElevation(ctx)
		if err != nil {
			return nil, err
		}
		coast, err := p.coastline(ctx)
		if err != nil {
			return nil, err
		}
		return p.sampler().DetailPass(rough, coast)
	})
}

func (p *Pipeline) temperature(ctx context.Context) (*field.ScalarField, error) {
	return p.stage(ctx, StageTemperature, func(ctx context.Context) (*field.ScalarField, error) {
		elev, err := p.elevation(ctx)
		if err != nil {
			return nil, err
		}
		w, h := p.cfg.ClimateGrid()
		return climate.Temperature(elev, w, h, climate.ParamsFromConfig(p.cfg)), nil
	})
}

func (p *Pipeline) wind(ctx context.Context) (*field.ScalarField, error) {
	return p.stage(ctx, StageWind, func(context.Context) (*field.ScalarField, error) {
		w, h := p.cfg.ClimateGrid()
		return climate.Wind(p.noise, w, h, climate.ParamsFromConfig(p.cfg)), nil
	})
}

func (p *Pipeline) moisture(ctx context.Context) (*field.ScalarField, error) {
	return p.stage(ctx, StageMoisture, func(ctx context.Context) (*field.ScalarField, error) {
		elev, err := p.elevation(ctx)
		if err != nil {
			return nil, err
		}
		wind, err := p.wind(ctx)
		if err != nil {
			return nil, err
		}
		return climate.Moisture(ctx, elev, wind, climate.ParamsFromConfig(p.cfg))
	})
}

func (p *Pipeline) biomes(ctx context.Context) (*field.ScalarField, error) {
	return p.stage(ctx, StageBiomes, func(ctx context.Context) (*field.ScalarField, error) {
		temp, err := p.temperature(ctx)
		if err != nil {
			return nil, err
		}
		moist, err := p.moisture(ctx)
		if err != nil {
			return nil, err
		}
		elev, err := p.elevation(ctx)
		if err != nil {
			return nil, err
		}
		return biome.Classify(temp, moist, elev)
	})
}
