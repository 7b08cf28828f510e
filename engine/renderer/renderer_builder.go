package renderer

import "github.com/Carmen-Shannon/tiled-lighting/engine/tiling"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithTechnique sets the initial lighting technique. The default is TechniqueForwardPlus.
//
// Parameters:
//   - t: the technique
//
// Returns:
//   - RendererBuilderOption: a function that applies the technique option to a renderer
func WithTechnique(t Technique) RendererBuilderOption {
	return func(r *renderer) {
		r.technique = t
	}
}

// WithMSAA sets the number of depth samples per pixel. When not specified, the default is
// MSAAOff. Frames passed to RenderFrame must carry depth buffers with this many samples.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA2x or MSAA4x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.msaa = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for comparing the GPU kernel against the CPU backend
// on machines without a GPU. Ignored by the CPU backend.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithDispatcherOptions configures the worker pool of the CPU backend.
//
// Parameters:
//   - opts: options passed to tiling.NewDispatcher
//
// Returns:
//   - RendererBuilderOption: a function that stores the dispatcher options
func WithDispatcherOptions(opts ...tiling.DispatcherBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.dispatcherOptions = append(r.dispatcherOptions, opts...)
	}
}

// WithDebugLists makes the Tiled Deferred technique also write the global
// index buffers so the per-tile heat maps can be drawn.
//
// Parameters:
//   - enabled: true to write the buffers
//
// Returns:
//   - RendererBuilderOption: a function that applies the option
func WithDebugLists(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.debugLists = enabled
	}
}

// WithShadeWorkers limits the goroutines of the Forward+ shading pass. The
// default is runtime.NumCPU().
//
// Parameters:
//   - n: the worker limit, values below 1 are ignored
//
// Returns:
//   - RendererBuilderOption: a function that applies the option
func WithShadeWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.shadeWorkers = n
		}
	}
}

// WithBackend supplies a ready backend instead of creating one from the
// backend type. The renderer takes ownership and releases it.
//
// Parameters:
//   - b: the backend
//
// Returns:
//   - RendererBuilderOption: a function that applies the option
func WithBackend(b RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = b
	}
}
