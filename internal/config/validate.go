package config

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks every setting the engine cannot clamp on its own.
//
// Returns:
//   - error: the first problem found, wrapping ErrInvalid
func (c *Config) Validate() error {
	r := c.Render
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalid, r.Width, r.Height)
	}
	if !renderer.MSAASampleCount(r.MSAA).Valid() {
		return fmt.Errorf("%w: msaa %d (want 1, 2 or 4)", ErrInvalid, r.MSAA)
	}
	if _, err := renderer.ParseBackendType(r.Backend); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := renderer.ParseTechnique(r.Technique); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if r.Frames < 0 || r.FPSLimit < 0 {
		return fmt.Errorf("%w: frames %d, fps limit %d", ErrInvalid, r.Frames, r.FPSLimit)
	}

	l := c.Lights
	if _, err := light.ParseLightingMode(l.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if l.Points < 0 || l.Points > light.MaxNumLights {
		return fmt.Errorf("%w: %d point lights (max %d)", ErrInvalid, l.Points, light.MaxNumLights)
	}
	if l.Spots < 0 || l.Spots > light.MaxNumLights {
		return fmt.Errorf("%w: %d spot lights (max %d)", ErrInvalid, l.Spots, light.MaxNumLights)
	}
	if l.MaxVPLs < 0 || l.VPLGrid < 0 || l.VPLRadius < 0 || l.VPLStrength < 0 {
		return fmt.Errorf("%w: negative VPL setting", ErrInvalid)
	}

	s := c.Scene
	if s.GridObjects < 0 || s.RayWorkers < 0 {
		return fmt.Errorf("%w: grid objects %d, ray workers %d", ErrInvalid, s.GridObjects, s.RayWorkers)
	}
	if c.Culling.Workers < 0 || c.Culling.LaneWorkers < 0 {
		return fmt.Errorf("%w: negative worker count", ErrInvalid)
	}

	if _, err := renderer.ParseHeatmapStyle(c.Output.HeatmapStyle); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Output.Exposure <= 0 {
		return fmt.Errorf("%w: exposure %v", ErrInvalid, c.Output.Exposure)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Logging.Level)
	}
	if c.Logging.StatsInterval < 0 {
		return fmt.Errorf("%w: stats interval %v", ErrInvalid, c.Logging.StatsInterval)
	}
	return nil
}
