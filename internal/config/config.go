package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid world config")

// WorldConfig holds every setting of one generation run. It is treated as
// immutable once a run starts.
type WorldConfig struct {
	// Seed drives the noise primitives and the run's random stream.
	Seed int64 `yaml:"seed"`

	// WaterLevel is the land/water threshold, expected in [-1, 1].
	WaterLevel float64 `yaml:"water_level"`

	// Width and Height are the image grid dimensions. Height is
	// conventionally half of Width.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// ClimateWidth and ClimateHeight size the (possibly coarser) grid used
	// for temperature, wind and moisture. Zero means "same as the image".
	ClimateWidth  int `yaml:"climate_width"`
	ClimateHeight int `yaml:"climate_height"`

	// NumRegions is the tessellation point count for the region graph path.
	NumRegions int `yaml:"num_regions"`

	// ShowOverlayMask forces the overlay bitmap's cells to land.
	ShowOverlayMask bool          `yaml:"show_overlay_mask"`
	Overlay         OverlayConfig `yaml:"overlay"`

	Noise     NoiseConfig     `yaml:"noise"`
	Elevation ElevationConfig `yaml:"elevation"`
	Climate   ClimateConfig   `yaml:"climate"`
	Ridge     RidgeConfig     `yaml:"ridge"`
	Render    RenderConfig    `yaml:"render"`
	Storage   StorageConfig   `yaml:"storage"`
	Observe   ObserveConfig   `yaml:"observe"`
}

// OverlayConfig places a fixed land bitmap on the map.
type OverlayConfig struct {
	// Path is resolved against the data directory when relative.
	Path string `yaml:"path"`

	// Preset names a built-in placement ("france"). Empty uses X/Y/W.
	Preset string `yaml:"preset"`

	// X, Y and W are fractions of the image width/height. W == 0 stretches
	// the bitmap over the whole image.
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
}

// NoiseConfig holds the fractal-sum parameters for terrain and wind.
type NoiseConfig struct {
	Kind            string  `yaml:"kind"`
	Octaves         int     `yaml:"octaves"`
	Persistence     float64 `yaml:"persistence"`
	Lacunarity      float64 `yaml:"lacunarity"`
	ContinentScale  float64 `yaml:"continent_scale"`
	Detail          float64 `yaml:"detail"`
	DetailScale     float64 `yaml:"detail_scale"`
	WindOctaves     int     `yaml:"wind_octaves"`
	WindPersistence float64 `yaml:"wind_persistence"`
}

// ElevationConfig tunes the detail pass.
type ElevationConfig struct {
	// Redistribution is k in exp(k * elevation).
	Redistribution float64 `yaml:"redistribution"`
}

// ClimateConfig tunes temperature and moisture transport.
type ClimateConfig struct {
	ElevationTempContribution float64 `yaml:"elevation_temp_contribution"`
	MaxMoistureTravel         int     `yaml:"max_moisture_travel"`
	MoistureElevationPenalty  float64 `yaml:"moisture_elevation_penalty"`
	ReplenishBelow            float64 `yaml:"replenish_below"`
	BlurSigma                 float64 `yaml:"blur_sigma"`

	// Workers > 1 traces moisture rows concurrently.
	Workers int `yaml:"workers"`
}

// RidgeConfig tunes ridge growth over the region graph.
type RidgeConfig struct {
	Determination float64 `yaml:"determination"`
	Dropoff       float64 `yaml:"dropoff"`
	NoiseStrength float64 `yaml:"noise_strength"`
	Floor         float64 `yaml:"floor"`

	// Ranges is how many ridges are grown over the same graph.
	Ranges int `yaml:"ranges"`

	// Adjacency is "edge" (shared cell edge) or "vertex" (shared corner).
	Adjacency string `yaml:"adjacency"`

	// Scatter is "uniform" or "poisson".
	Scatter string `yaml:"scatter"`

	// ClipToDomain drops regions with a vertex outside the map rectangle.
	ClipToDomain bool `yaml:"clip_to_domain"`
}

// RenderConfig tunes the final image.
type RenderConfig struct {
	DitherStrength int    `yaml:"dither_strength"`
	ShadowStrength int    `yaml:"shadow_strength"`
	LightX         int    `yaml:"light_x"`
	LightY         int    `yaml:"light_y"`
	Format         string `yaml:"format"`
}

// StorageConfig selects where stage artifacts are persisted.
type StorageConfig struct {
	// Driver is "file", "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// DataDir holds file artifacts, the overlay bitmap and the final image.
	// Empty defers to the data-path resolver.
	DataDir string `yaml:"data_dir"`

	// SQLitePath is relative to DataDir unless absolute.
	SQLitePath string `yaml:"sqlite_path"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	// Connection pool settings
	MaxOpenConns    int `yaml:"max_open_conns"`
	MaxIdleConns    int `yaml:"max_idle_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"` // seconds
}

// ObserveConfig holds settings for the optional checkpoint server.
type ObserveConfig struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `yaml:"addr"`

	// AllowedOrigins is a list of origins allowed to open the event stream.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxSubscribers caps concurrent event-stream subscribers (0 = unlimited).
	MaxSubscribers int `yaml:"max_subscribers"`

	// MaxSubscribersPerIP caps subscribers from one address (0 = unlimited).
	MaxSubscribersPerIP int `yaml:"max_subscribers_per_ip"`
}

// DefaultConfig returns the reference 1024x512 world settings.
func DefaultConfig() *WorldConfig {
	return &WorldConfig{
		Seed:       6,
		WaterLevel: 0.15,
		Width:      1024,
		Height:     512,
		NumRegions: 2000,
		Noise: NoiseConfig{
			Kind:            "simplex",
			Octaves:         10,
			Persistence:     0.7,
			Lacunarity:      2.0,
			ContinentScale:  1.5,
			Detail:          0.5,
			DetailScale:     2,
			WindOctaves:     5,
			WindPersistence: 0.5,
		},
		Elevation: ElevationConfig{
			Redistribution: 1.5,
		},
		Climate: ClimateConfig{
			ElevationTempContribution: 0.01,
			MaxMoistureTravel:         100,
			MoistureElevationPenalty:  1,
			ReplenishBelow:            1,
			BlurSigma:                 2,
			Workers:                   1,
		},
		Ridge: RidgeConfig{
			Determination: 0.9,
			Dropoff:       0.8,
			NoiseStrength: 0.05,
			Floor:         0,
			Ranges:        1,
			Adjacency:     "edge",
			Scatter:       "uniform",
		},
		Render: RenderConfig{
			DitherStrength: 20,
			ShadowStrength: 2,
			LightX:         3,
			LightY:         3,
			Format:         "png",
		},
		Storage: StorageConfig{
			Driver:     "file",
			SQLitePath: "artifacts.db",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				SSLMode:         "disable",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 300,
			},
		},
		Observe: ObserveConfig{
			MaxSubscribers:      16,
			MaxSubscribersPerIP: 4,
		},
	}
}

// LoadConfig loads a world configuration from a YAML file and applies
// environment variable overrides. A missing file yields the defaults.
func LoadConfig(path string) (*WorldConfig, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return DefaultConfig(), fmt.Errorf("failed to parse world config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Use defaults if file doesn't exist
		default:
			return config, err
		}
	}

	if err := applyEnv(config); err != nil {
		return config, err
	}
	return config, nil
}

func applyEnv(c *WorldConfig) error {
	if v := os.Getenv("WORLDGEN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WORLDGEN_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("WORLDGEN_WATER_LEVEL"); v != "" {
		level, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("WORLDGEN_WATER_LEVEL: %w", err)
		}
		c.WaterLevel = level
	}
	if v := os.Getenv("WORLDGEN_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("WORLDGEN_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	return nil
}

// ClimateGrid returns the climate grid size, defaulting to the image size.
func (c *WorldConfig) ClimateGrid() (int, int) {
	w, h := c.ClimateWidth, c.ClimateHeight
	if w <= 0 {
		w = c.Width
	}
	if h <= 0 {
		h = c.Height
	}
	return w, h
}

// Validate rejects settings no stage can run with.
func (c *WorldConfig) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.WaterLevel >= -1 && c.WaterLevel <= 1, "water_level %v outside [-1, 1]", c.WaterLevel)
	check(c.Width > 0 && c.Height > 0, "dimensions %dx%d must be positive", c.Width, c.Height)
	check(c.ClimateWidth >= 0 && c.ClimateHeight >= 0, "climate grid %dx%d must not be negative", c.ClimateWidth, c.ClimateHeight)
	check(c.NumRegions > 0, "num_regions %d must be positive", c.NumRegions)
	check(c.Noise.Octaves > 0, "noise.octaves %d must be positive", c.Noise.Octaves)
	check(c.Noise.WindOctaves > 0, "noise.wind_octaves %d must be positive", c.Noise.WindOctaves)
	check(oneOf(c.Noise.Kind, "simplex", "perlin"), "unknown noise.kind %q", c.Noise.Kind)
	check(c.Climate.MaxMoistureTravel >= 0, "climate.max_moisture_travel %d must not be negative", c.Climate.MaxMoistureTravel)
	check(oneOf(c.Ridge.Adjacency, "edge", "vertex"), "unknown ridge.adjacency %q", c.Ridge.Adjacency)
	check(oneOf(c.Ridge.Scatter, "uniform", "poisson"), "unknown ridge.scatter %q", c.Ridge.Scatter)
	check(c.Ridge.Floor <= 1, "ridge.floor %v must not exceed 1", c.Ridge.Floor)
	check(c.Render.DitherStrength >= 0, "render.dither_strength %d must not be negative", c.Render.DitherStrength)
	check(c.Render.ShadowStrength > 0, "render.shadow_strength %d must be positive", c.Render.ShadowStrength)
	check(c.Render.LightX >= 0 && c.Render.LightY >= 0, "render light offset (%d, %d) must not be negative", c.Render.LightX, c.Render.LightY)
	check(oneOf(c.Render.Format, "png", "bmp"), "unknown render.format %q", c.Render.Format)
	check(c.Observe.MaxSubscribers >= 0 && c.Observe.MaxSubscribersPerIP >= 0, "observe subscriber limits must not be negative")
	check(oneOf(c.Storage.Driver, "file", "sqlite", "postgres"), "unknown storage.driver %q", c.Storage.Driver)
	if c.ShowOverlayMask {
		check(c.Overlay.Path != "", "show_overlay_mask set without overlay.path")
		check(oneOf(c.Overlay.Preset, "", "france"), "unknown overlay.preset %q", c.Overlay.Preset)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// fingerprinted is the subset of WorldConfig that changes generated values.
// Storage, rendering and observation settings are left out so moving the
// data directory or restyling the image never invalidates artifacts.
type fingerprinted struct {
	Seed            int64           `yaml:"seed"`
	WaterLevel      float64         `yaml:"water_level"`
	Width           int             `yaml:"width"`
	Height          int             `yaml:"height"`
	ClimateWidth    int             `yaml:"climate_width"`
	ClimateHeight   int             `yaml:"climate_height"`
	NumRegions      int             `yaml:"num_regions"`
	ShowOverlayMask bool            `yaml:"show_overlay_mask"`
	Overlay         OverlayConfig   `yaml:"overlay"`
	Noise           NoiseConfig     `yaml:"noise"`
	Elevation       ElevationConfig `yaml:"elevation"`
	Climate         ClimateConfig   `yaml:"climate"`
	Ridge           RidgeConfig     `yaml:"ridge"`
}

// Fingerprint returns a hex BLAKE2b-256 digest of the generation settings.
func (c *WorldConfig) Fingerprint() string {
	cw, ch := c.ClimateGrid()
	climate := c.Climate
	climate.Workers = 0 // concurrency never changes values
	data, err := yaml.Marshal(fingerprinted{
		Seed:            c.Seed,
		WaterLevel:      c.WaterLevel,
		Width:           c.Width,
		Height:          c.Height,
		ClimateWidth:    cw,
		ClimateHeight:   ch,
		NumRegions:      c.NumRegions,
		ShowOverlayMask: c.ShowOverlayMask,
		Overlay:         c.Overlay,
		Noise:           c.Noise,
		Elevation:       c.Elevation,
		Climate:         climate,
		Ridge:           c.Ridge,
	})
	if err != nil {
		// Plain structs of scalars always marshal.
		panic(fmt.Sprintf("fingerprint marshal: %v", err))
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsOriginAllowed checks if the given origin may open the event stream.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *ObserveConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
