package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/tiled-lighting/engine"
	"github.com/Carmen-Shannon/tiled-lighting/engine/camera"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/profiler"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
	"github.com/Carmen-Shannon/tiled-lighting/engine/scene"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
	"github.com/Carmen-Shannon/tiled-lighting/internal/config"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

// errNoFrame is returned when outputs are requested before any frame finished.
var errNoFrame = errors.New("no frame was rendered")

// app wires one scene, its renderer and the engine from a validated config.
type app struct {
	cfg *config.Config

	r     renderer.Renderer
	cam   camera.Camera
	scene scene.Scene
	eng   engine.Engine
	prof  *profiler.Profiler
	style renderer.HeatmapStyle

	log *zap.Logger
}

// newApp builds the pipeline described by cfg. cfg must have passed Validate.
func newApp(cfg *config.Config) (*app, error) {
	backend, err := renderer.ParseBackendType(cfg.Render.Backend)
	if err != nil {
		return nil, err
	}
	technique, err := renderer.ParseTechnique(cfg.Render.Technique)
	if err != nil {
		return nil, err
	}
	mode, err := light.ParseLightingMode(cfg.Lights.Mode)
	if err != nil {
		return nil, err
	}
	style, err := renderer.ParseHeatmapStyle(cfg.Output.HeatmapStyle)
	if err != nil {
		return nil, err
	}

	var dispatcherOpts []tiling.DispatcherBuilderOption
	if cfg.Culling.Workers > 0 {
		dispatcherOpts = append(dispatcherOpts, tiling.WithWorkers(cfg.Culling.Workers))
	}
	if cfg.Culling.LaneWorkers > 0 {
		dispatcherOpts = append(dispatcherOpts, tiling.WithLaneWorkers(cfg.Culling.LaneWorkers))
	}
	// A heat map of a Tiled Deferred run needs the lists written out.
	debugLists := cfg.Culling.DebugLists || (technique == renderer.TechniqueTiledDeferred && cfg.Output.HeatmapPath != "")

	w, h := cfg.Render.Width, cfg.Render.Height
	r, err := renderer.NewRenderer(backend, w, h,
		renderer.WithTechnique(technique),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Render.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.Render.ForceSoftware),
		renderer.WithDispatcherOptions(dispatcherOpts...),
		renderer.WithDebugLists(debugLists),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s renderer: %w", backend, err)
	}

	ctrl := camera.NewSceneController(scene.DefaultBounds.Min, scene.DefaultBounds.Max)
	cam := camera.NewCamera(camera.WithViewport(w, h), camera.WithController(ctrl))

	sceneOpts := []scene.SceneBuilderOption{
		scene.WithLightingMode(mode),
		scene.WithActiveLights(cfg.Lights.Points, cfg.Lights.Spots),
		scene.WithGridObjects(cfg.Scene.GridObjects),
		scene.WithBlendedObjects(cfg.Scene.BlendedObjects),
		scene.WithVPLs(cfg.Lights.VPLs, cfg.Lights.VPLRadius, cfg.Lights.VPLStrength),
		scene.WithMaxVPLs(cfg.Lights.MaxVPLs),
	}
	if cfg.Lights.VPLGrid > 0 {
		sceneOpts = append(sceneOpts, scene.WithVPLGrid(cfg.Lights.VPLGrid))
	}
	if cfg.Scene.RayWorkers > 0 {
		sceneOpts = append(sceneOpts, scene.WithRayWorkers(cfg.Scene.RayWorkers))
	}
	sc := scene.NewScene("tiledlighting", cam, r, w, h, sceneOpts...)

	prof := profiler.NewProfiler(profiler.WithUpdateInterval(cfg.Logging.StatsInterval))
	eng := engine.NewEngine(
		engine.WithScene(0, sc),
		engine.WithFrames(cfg.Render.Frames),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.Logging.Profile),
		engine.WithRenderFrameLimit(float64(cfg.Render.FPSLimit)),
	)
	if speed := cfg.Scene.OrbitSpeed; speed != 0 {
		eng.SetTickCallback(func(dt float32) {
			ctrl.Orbit(speed*dt, 0)
		})
	}

	return &app{
		cfg:   cfg,
		r:     r,
		cam:   cam,
		scene: sc,
		eng:   eng,
		prof:  prof,
		style: style,
		log:   logger.Component("app"),
	}, nil
}

// Run renders until the frame budget is spent or ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	return a.eng.Run(ctx)
}

// WriteOutputs writes the report, heat map and light image the config asks
// for. The last frame's buffers stay valid after the engine stops.
func (a *app) WriteOutputs() error {
	out := a.cfg.Output
	if out.ReportPath == "" && out.HeatmapPath == "" && out.ImagePath == "" {
		return nil
	}
	last := a.prof.Last()
	if last == nil {
		return errNoFrame
	}

	if out.ReportPath != "" {
		data, err := yaml.Marshal(a.prof.Report())
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := writeFile(out.ReportPath, func(f *os.File) error {
			_, err := f.Write(data)
			return err
		}); err != nil {
			return err
		}
		a.log.Info("wrote frame report", zap.String("path", out.ReportPath))
	}

	if out.HeatmapPath != "" {
		img, err := renderer.Heatmap(a.style, last.Points, last.Spots, last.VPLs)
		if err != nil {
			return err
		}
		if err := writeFile(out.HeatmapPath, func(f *os.File) error {
			return renderer.WritePNG(f, img)
		}); err != nil {
			return err
		}
		a.log.Info("wrote heat map", zap.String("path", out.HeatmapPath))
	}

	if out.ImagePath != "" {
		if last.Light == nil {
			return fmt.Errorf("light image: %w", errNoFrame)
		}
		img := last.Light.ToRGBA(out.Exposure)
		if err := writeFile(out.ImagePath, func(f *os.File) error {
			return renderer.WritePNG(f, img)
		}); err != nil {
			return err
		}
		a.log.Info("wrote light image", zap.String("path", out.ImagePath))
	}
	return nil
}

// Close stops the scene workers and releases the renderer.
func (a *app) Close() {
	a.scene.Release()
	a.r.Release()
}

func writeFile(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
