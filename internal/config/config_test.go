package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Render.Width != 1280 || cfg.Render.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.Backend != "cpu" {
		t.Errorf("expected backend cpu, got %s", cfg.Render.Backend)
	}
	if cfg.Lights.Mode != "random" {
		t.Errorf("expected random lights, got %s", cfg.Lights.Mode)
	}
	if !cfg.Scene.BlendedObjects {
		t.Error("expected blended objects to be enabled by default")
	}
	if cfg.Logging.StatsInterval != time.Second {
		t.Errorf("expected 1s stats interval, got %v", cfg.Logging.StatsInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tiledlighting.yaml")

	yamlContent := `
render:
  width: 640
  height: 360
  msaa: 4
  backend: wgpu
  technique: tiled_deferred
  frames: 10

lights:
  mode: shadows
  vpls: true
  max_vpls: 512

scene:
  grid_objects: 56
  blended_objects: false

output:
  report_path: "out/report.yaml"
  heatmap_style: grayscale

logging:
  level: debug
  stats_interval: 250ms
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Render.Width != 640 || cfg.Render.MSAA != 4 {
		t.Errorf("unexpected render config %+v", cfg.Render)
	}
	if cfg.Render.Technique != "tiled_deferred" {
		t.Errorf("expected tiled_deferred, got %s", cfg.Render.Technique)
	}
	if cfg.Lights.Mode != "shadows" || !cfg.Lights.VPLs || cfg.Lights.MaxVPLs != 512 {
		t.Errorf("unexpected lights config %+v", cfg.Lights)
	}
	// Unset keys keep their defaults.
	if cfg.Lights.Points != 1024 {
		t.Errorf("expected the default 1024 points, got %d", cfg.Lights.Points)
	}
	if cfg.Scene.BlendedObjects {
		t.Error("expected blended objects to be disabled")
	}
	if cfg.Output.ReportPath != "out/report.yaml" {
		t.Errorf("unexpected report path %s", cfg.Output.ReportPath)
	}
	if cfg.Logging.StatsInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Logging.StatsInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected a valid config, got %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(configPath, []byte("render:\n  width: wide\n  nope\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
	if err := loadFromFile(Default(), "/nonexistent/path/tiledlighting.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Render.Width = 0 }},
		{"negative height", func(c *Config) { c.Render.Height = -1 }},
		{"msaa 3", func(c *Config) { c.Render.MSAA = 3 }},
		{"unknown backend", func(c *Config) { c.Render.Backend = "vulkan" }},
		{"unknown technique", func(c *Config) { c.Render.Technique = "clustered" }},
		{"unknown lighting mode", func(c *Config) { c.Lights.Mode = "sun" }},
		{"too many points", func(c *Config) { c.Lights.Points = 4096 }},
		{"negative spots", func(c *Config) { c.Lights.Spots = -1 }},
		{"negative vpl radius", func(c *Config) { c.Lights.VPLRadius = -5 }},
		{"unknown heatmap style", func(c *Config) { c.Output.HeatmapStyle = "jet" }},
		{"zero exposure", func(c *Config) { c.Output.Exposure = 0 }},
		{"negative workers", func(c *Config) { c.Culling.Workers = -2 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "backend and technique flags",
			setup: func() {
				*flagBackend = "wgpu"
				*flagTechnique = "deferred"
			},
			verify: func(cfg *Config) {
				if cfg.Render.Backend != "wgpu" || cfg.Render.Technique != "deferred" {
					t.Errorf("unexpected render config %+v", cfg.Render)
				}
			},
			teardown: func() {
				*flagBackend = ""
				*flagTechnique = ""
			},
		},
		{
			name:  "zero frames runs forever",
			setup: func() { *flagFrames = 0 },
			verify: func(cfg *Config) {
				if cfg.Render.Frames != 0 {
					t.Errorf("expected 0 frames, got %d", cfg.Render.Frames)
				}
			},
			teardown: func() { *flagFrames = -1 },
		},
		{
			name: "light flags",
			setup: func() {
				*flagLights = "shadows"
				*flagPoints = 0
				*flagVPLs = true
				*flagNoBlended = true
			},
			verify: func(cfg *Config) {
				if cfg.Lights.Mode != "shadows" || cfg.Lights.Points != 0 || !cfg.Lights.VPLs {
					t.Errorf("unexpected lights config %+v", cfg.Lights)
				}
				if cfg.Scene.BlendedObjects {
					t.Error("expected blended objects disabled")
				}
			},
			teardown: func() {
				*flagLights = ""
				*flagPoints = -1
				*flagVPLs = false
				*flagNoBlended = false
			},
		},
		{
			name: "output flags",
			setup: func() {
				*flagReport = "r.yaml"
				*flagHeatmap = "h.png"
			},
			verify: func(cfg *Config) {
				if cfg.Output.ReportPath != "r.yaml" || cfg.Output.HeatmapPath != "h.png" {
					t.Errorf("unexpected output config %+v", cfg.Output)
				}
			},
			teardown: func() {
				*flagReport = ""
				*flagHeatmap = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()
			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}
	if err := os.WriteFile(fileName, []byte("render:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find tiledlighting.yaml in the current directory")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tiledlighting.yaml")
	cfg := Default()
	cfg.Render.Width = 333
	cfg.Lights.VPLs = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Render.Width != 333 || !loaded.Lights.VPLs {
		t.Errorf("saved values were not reloaded: %+v", loaded)
	}
}
