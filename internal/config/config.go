// Package config handles loading and validating the run configuration.
package config

import "time"

// Config holds all run settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Lights  LightsConfig  `yaml:"lights"`
	Scene   SceneConfig   `yaml:"scene"`
	Culling CullingConfig `yaml:"culling"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds viewport and pipeline settings.
type RenderConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	MSAA          int    `yaml:"msaa"`           // Depth samples per pixel: 1, 2 or 4
	Backend       string `yaml:"backend"`        // "cpu" or "wgpu"
	Technique     string `yaml:"technique"`      // "forward_plus" or "tiled_deferred"
	ForceSoftware bool   `yaml:"force_software"` // Ask wgpu for a fallback adapter
	Frames        int    `yaml:"frames"`         // Frames to render; 0 runs until interrupted
	FPSLimit      int    `yaml:"fps_limit"`
}

// LightsConfig holds the active light set.
type LightsConfig struct {
	Mode        string  `yaml:"mode"` // "shadows" or "random"
	Points      int     `yaml:"points"`
	Spots       int     `yaml:"spots"`
	VPLs        bool    `yaml:"vpls"`
	MaxVPLs     int     `yaml:"max_vpls"`
	VPLGrid     int     `yaml:"vpl_grid"`
	VPLRadius   float32 `yaml:"vpl_radius"`
	VPLStrength float32 `yaml:"vpl_strength"`
}

// SceneConfig holds the analytic scene content.
type SceneConfig struct {
	GridObjects    int     `yaml:"grid_objects"`
	BlendedObjects bool    `yaml:"blended_objects"`
	OrbitSpeed     float32 `yaml:"orbit_speed"` // Camera orbit in radians per second
	RayWorkers     int     `yaml:"ray_workers"` // 0 uses NumCPU-1
}

// CullingConfig holds the CPU dispatcher settings.
type CullingConfig struct {
	Workers     int  `yaml:"workers"`      // Tile workers; 0 uses NumCPU
	LaneWorkers int  `yaml:"lane_workers"` // Goroutines per work group; 0 keeps the default
	DebugLists  bool `yaml:"debug_lists"`  // Write index buffers in Tiled Deferred too
}

// OutputConfig holds the files written after the run.
type OutputConfig struct {
	ReportPath   string  `yaml:"report_path"`
	HeatmapPath  string  `yaml:"heatmap_path"`
	HeatmapStyle string  `yaml:"heatmap_style"` // "radar" or "grayscale"
	ImagePath    string  `yaml:"image_path"`    // Tone-mapped light image
	Exposure     float32 `yaml:"exposure"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level         string        `yaml:"level"`
	LogFile       string        `yaml:"log_file"`
	StatsInterval time.Duration `yaml:"stats_interval"`
	Profile       bool          `yaml:"profile"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:     1280,
			Height:    720,
			MSAA:      1,
			Backend:   "cpu",
			Technique: "forward_plus",
			Frames:    60,
		},
		Lights: LightsConfig{
			Mode:        "random",
			Points:      1024,
			Spots:       1024,
			MaxVPLs:     0xFFFF,
			VPLGrid:     48,
			VPLRadius:   200,
			VPLStrength: 0.2 * 0.3,
		},
		Scene: SceneConfig{
			GridObjects:    280,
			BlendedObjects: true,
			OrbitSpeed:     0.2,
		},
		Output: OutputConfig{
			HeatmapStyle: "radar",
			Exposure:     1,
		},
		Logging: LoggingConfig{
			Level:         "info",
			StatsInterval: time.Second,
			Profile:       true,
		},
	}
}
