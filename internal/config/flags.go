package config

import (
	"flag"

	"github.com/Carmen-Shannon/tiled-lighting/common"
)

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagBackend   = flag.String("backend", "", "Culling backend: cpu or wgpu")
	flagTechnique = flag.String("technique", "", "Lighting technique: forward_plus or tiled_deferred")
	flagWidth     = flag.Int("width", 0, "Viewport width")
	flagHeight    = flag.Int("height", 0, "Viewport height")
	flagMSAA      = flag.Int("msaa", 0, "Depth samples per pixel (1, 2 or 4)")
	flagFrames    = flag.Int("frames", -1, "Frames to render (0 runs until interrupted)")
	flagLights    = flag.String("lights", "", "Lighting mode: shadows or random")
	flagPoints    = flag.Int("points", -1, "Active point lights")
	flagSpots     = flag.Int("spots", -1, "Active spot lights")
	flagVPLs      = flag.Bool("vpls", false, "Enable one-bounce VPLs (shadows mode)")
	flagNoBlended = flag.Bool("no-blended", false, "Disable the transparent objects")
	flagReport    = flag.String("report", "", "Write a YAML frame report to this path")
	flagHeatmap   = flag.String("heatmap", "", "Write a per-tile light count PNG to this path")
	flagImage     = flag.String("image", "", "Write the tone-mapped light image PNG to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	cfg.Render.Backend = common.Coalesce(*flagBackend, cfg.Render.Backend)
	cfg.Render.Technique = common.Coalesce(*flagTechnique, cfg.Render.Technique)
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
	if *flagMSAA > 0 {
		cfg.Render.MSAA = *flagMSAA
	}
	if *flagFrames >= 0 {
		cfg.Render.Frames = *flagFrames
	}
	cfg.Lights.Mode = common.Coalesce(*flagLights, cfg.Lights.Mode)
	if *flagPoints >= 0 {
		cfg.Lights.Points = *flagPoints
	}
	if *flagSpots >= 0 {
		cfg.Lights.Spots = *flagSpots
	}
	if *flagVPLs {
		cfg.Lights.VPLs = true
	}
	if *flagNoBlended {
		cfg.Scene.BlendedObjects = false
	}
	cfg.Output.ReportPath = common.Coalesce(*flagReport, cfg.Output.ReportPath)
	cfg.Output.HeatmapPath = common.Coalesce(*flagHeatmap, cfg.Output.HeatmapPath)
	cfg.Output.ImagePath = common.Coalesce(*flagImage, cfg.Output.ImagePath)
}
