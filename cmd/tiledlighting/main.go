// Package main runs the tiled lighting engine headless on the analytic scene
// and reports per-tile culling statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/tiled-lighting/internal/config"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 2
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== Tiled Lighting ===",
		zap.String("backend", cfg.Render.Backend),
		zap.String("technique", cfg.Render.Technique),
		zap.Int("width", cfg.Render.Width),
		zap.Int("height", cfg.Render.Height),
	)
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		logger.Error("failed to initialize", zap.Error(err))
		return 1
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("run failed", zap.Error(err))
		return 1
	}
	if err := a.WriteOutputs(); err != nil {
		logger.Error("failed to write outputs", zap.Error(err))
		return 1
	}

	logger.Info("finished", zap.Int("frames", a.eng.Frames()))
	return 0
}
