package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

// RendererBackendType identifies the culling backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeCPU runs the culling kernel as emulated work groups on a worker pool.
	BackendTypeCPU RendererBackendType = iota

	// BackendTypeWGPU runs the culling kernel as a WebGPU compute shader.
	BackendTypeWGPU
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeCPU:
		return "cpu"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return fmt.Sprintf("backend(%d)", int(t))
	}
}

// ParseBackendType converts a backend name from configuration.
//
// Parameters:
//   - s: "cpu" or "wgpu", case-insensitive
//
// Returns:
//   - RendererBackendType: the parsed backend
//   - error: non-nil for an unknown name
func ParseBackendType(s string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cpu", "":
		return BackendTypeCPU, nil
	case "wgpu", "webgpu", "gpu":
		return BackendTypeWGPU, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", s)
	}
}

// MSAASampleCount controls the number of depth samples per pixel the culling
// kernel reduces. Only 1, 2 and 4 are supported.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisampling (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA2x reduces 2 depth samples per pixel.
	MSAA2x MSAASampleCount = 2

	// MSAA4x reduces 4 depth samples per pixel.
	MSAA4x MSAASampleCount = 4
)

// Valid reports whether the sample count is supported.
func (c MSAASampleCount) Valid() bool {
	return c == MSAAOff || c == MSAA2x || c == MSAA4x
}

// RendererBackend runs culling dispatches for the Renderer. Both backends
// honor the same Pass contract: every non-nil target is fully overwritten,
// and a non-nil Shade is called once per on-screen pixel after the tile's
// lists are complete.
type RendererBackend interface {
	// Name returns the backend name reported in frame statistics.
	//
	// Returns:
	//   - string: "cpu" or "wgpu"
	Name() string

	// Cull runs one dispatch and blocks until its targets are written.
	//
	// Parameters:
	//   - ctx: cancels the dispatch before it starts
	//   - pass: the inputs and targets
	//
	// Returns:
	//   - tiling.FrameStats: the aggregated per-tile results
	//   - error: validation, device or cancellation failure
	Cull(ctx context.Context, pass *tiling.Pass) (tiling.FrameStats, error)

	// Release frees every resource held by the backend.
	Release()
}
