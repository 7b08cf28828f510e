package scene

import (
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithRayWorkers sets the number of worker goroutines used to ray-cast the
// frame buffers. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRayWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.rayWorkers = n
	}
}

// WithBounds replaces the room. The random light pools are generated inside
// these bounds.
//
// Parameters:
//   - bounds: the room's bounding box
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBounds(bounds light.Bounds) SceneBuilderOption {
	return func(s *scene) {
		s.bounds = bounds
	}
}

// WithLightingMode selects the initial light set. Default is light.LightingShadows.
//
// Parameters:
//   - mode: the lighting mode
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLightingMode(mode light.LightingMode) SceneBuilderOption {
	return func(s *scene) {
		s.lightingMode = mode
	}
}

// WithActiveLights sets how many point and spot lights are active. Counts
// above the selected pool sizes are clamped each frame.
//
// Parameters:
//   - points: active point lights
//   - spots: active spot lights
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActiveLights(points, spots int) SceneBuilderOption {
	return func(s *scene) {
		s.numPoints, s.numSpots = points, spots
	}
}

// WithGridObjects sets the number of occluder panels. Default is MaxNumGridObjects.
//
// Parameters:
//   - n: the panel count, clamped to [0, MaxNumGridObjects]
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGridObjects(n int) SceneBuilderOption {
	return func(s *scene) {
		s.numGridObjects = n
	}
}

// WithBlendedObjects toggles the transparent cubes. Enabled by default.
//
// Parameters:
//   - enabled: true to draw them
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBlendedObjects(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.blendedObjects = enabled
	}
}

// WithVPLs enables one-bounce indirect light from the first shadow-casting
// spot light.
//
// Parameters:
//   - enabled: true to scatter VPLs
//   - radius: the VPL culling radius, values <= 0 keep DefaultVPLRadius
//   - strength: the bounce strength, values <= 0 keep DefaultVPLStrength
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithVPLs(enabled bool, radius, strength float32) SceneBuilderOption {
	return func(s *scene) {
		s.vplsEnabled = enabled
		if radius > 0 {
			s.vplRadius = radius
		}
		if strength > 0 {
			s.vplStrength = strength
		}
	}
}

// WithVPLGrid sets the side of the VPL ray grid.
//
// Parameters:
//   - n: rays per side (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithVPLGrid(n int) SceneBuilderOption {
	return func(s *scene) {
		s.vplGrid = max(n, 1)
	}
}

// WithMaxVPLs caps the VPLs the culling stage reads, mirroring the GPU's
// append-counter limit. Default is MaxVPLsUnlimited.
//
// Parameters:
//   - n: the cap; 0 disables VPL culling while still scattering them
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxVPLs(n int) SceneBuilderOption {
	return func(s *scene) {
		s.maxVPLs = max(n, 0)
	}
}
