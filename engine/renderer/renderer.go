package renderer

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

// Technique selects the lighting architecture.
type Technique int

const (
	// TechniqueForwardPlus culls into per-tile index buffers, then shades
	// every pixel from the buffers in a separate pass.
	TechniqueForwardPlus Technique = iota

	// TechniqueTiledDeferred culls and shades in one fused dispatch that
	// reads the work group's lists directly.
	TechniqueTiledDeferred
)

func (t Technique) String() string {
	switch t {
	case TechniqueForwardPlus:
		return "forward_plus"
	case TechniqueTiledDeferred:
		return "tiled_deferred"
	default:
		return fmt.Sprintf("technique(%d)", int(t))
	}
}

// ParseTechnique converts a technique name from configuration.
//
// Parameters:
//   - s: "forward_plus" or "tiled_deferred"; "forward+" and "deferred" are accepted too
//
// Returns:
//   - Technique: the parsed technique
//   - error: non-nil for an unknown name
func ParseTechnique(s string) (Technique, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward_plus", "forward+", "forwardplus", "":
		return TechniqueForwardPlus, nil
	case "tiled_deferred", "deferred", "tileddeferred":
		return TechniqueTiledDeferred, nil
	default:
		return 0, fmt.Errorf("unknown technique %q", s)
	}
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	technique    Technique
	capacity     light.TileCapacity
	msaa         MSAASampleCount
	debugLists   bool
	shadeWorkers int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	dispatcherOptions    []tiling.DispatcherBuilderOption

	// Frame targets, reused across frames and resized with the viewport.
	points        *tiling.TileIndexBuffer
	spots         *tiling.TileIndexBuffer
	vpls          *tiling.TileIndexBuffer
	blendedPoints *tiling.TileIndexBuffer
	blendedSpots  *tiling.TileIndexBuffer
	edges         *tiling.EdgeMask
	lightImage    *LightImage

	log *zap.Logger
}

// Renderer runs the per-frame lighting pipeline: tile culling on the selected
// backend followed by shading into an HDR light image.
//
// Usage pattern:
//  1. Create with NewRenderer for a viewport size
//  2. Call RenderFrame once per frame with that frame's depth, surfaces and lights
//  3. Read statistics, index buffers and the light image from the FrameResult
//  4. Call Resize when the viewport changes and Release when done
type Renderer interface {
	// BackendType returns the selected culling backend.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Backend returns the culling backend.
	//
	// Returns:
	//   - RendererBackend: the backend
	Backend() RendererBackend

	// Technique returns the active lighting technique.
	//
	// Returns:
	//   - Technique: the technique
	Technique() Technique

	// SetTechnique switches the lighting technique for subsequent frames.
	//
	// Parameters:
	//   - t: the technique
	SetTechnique(t Technique)

	// MSAA returns the number of depth samples per pixel frames must carry.
	//
	// Returns:
	//   - MSAASampleCount: the sample count
	MSAA() MSAASampleCount

	// Capacity returns the tile sizing of the current viewport.
	//
	// Returns:
	//   - light.TileCapacity: the sizing
	Capacity() light.TileCapacity

	// Resize recomputes the tile grid and reallocates every frame target.
	//
	// Parameters:
	//   - width: the new viewport width in pixels
	//   - height: the new viewport height in pixels
	Resize(width, height int)

	// RenderFrame culls and shades one frame.
	//
	// Parameters:
	//   - ctx: cancels the frame before it starts
	//   - f: the frame inputs
	//
	// Returns:
	//   - *FrameResult: statistics and the renderer-owned outputs
	//   - error: invalid inputs, a backend failure or cancellation
	RenderFrame(ctx context.Context, f *Frame) (*FrameResult, error)

	// Release frees the backend and every target.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer for a viewport with the given backend.
//
// Parameters:
//   - backendType: the culling backend
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the ready renderer
//   - error: an invalid option or a backend that could not start
func NewRenderer(backendType RendererBackendType, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:           &sync.Mutex{},
		backendType:  backendType,
		msaa:         MSAAOff,
		shadeWorkers: runtime.NumCPU(),
		log:          logger.Component("renderer"),
	}
	for _, opt := range options {
		opt(r)
	}
	if !r.msaa.Valid() {
		return nil, fmt.Errorf("unsupported MSAA sample count %d", r.msaa)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", width, height)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeCPU:
			r.backend = newCPURendererBackend(r.dispatcherOptions...)
		case BackendTypeWGPU:
			b, err := newWGPURendererBackend(r.forceFallbackAdapter)
			if err != nil {
				return nil, err
			}
			r.backend = b
		default:
			return nil, fmt.Errorf("unknown backend %s", backendType)
		}
	}

	r.resize(width, height)
	r.log.Info("renderer ready",
		zap.Stringer("backend", backendType),
		zap.Stringer("technique", r.technique),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint32("msaa", uint32(r.msaa)),
	)
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Technique() Technique {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.technique
}

func (r *renderer) SetTechnique(t Technique) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.technique = t
}

func (r *renderer) MSAA() MSAASampleCount {
	return r.msaa
}

func (r *renderer) Capacity() light.TileCapacity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resize(width, height)
}

func (r *renderer) resize(width, height int) {
	c := light.NewTileCapacity(width, height)
	r.capacity = c
	if r.points == nil {
		r.points = tiling.NewTileIndexBuffer(c, light.LightTypePoint)
		r.spots = tiling.NewTileIndexBuffer(c, light.LightTypeSpot)
		r.vpls = tiling.NewTileIndexBuffer(c, light.LightTypeVPL)
		r.blendedPoints = tiling.NewTileIndexBuffer(c, light.LightTypePoint)
		r.blendedSpots = tiling.NewTileIndexBuffer(c, light.LightTypeSpot)
	} else {
		for _, b := range []*tiling.TileIndexBuffer{r.points, r.spots, r.vpls, r.blendedPoints, r.blendedSpots} {
			b.Resize(c)
		}
	}
	r.edges = tiling.NewEdgeMask(width, height)
	r.lightImage = NewLightImage(width, height)
}

func (r *renderer) RenderFrame(ctx context.Context, f *Frame) (*FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFrame(f); err != nil {
		return nil, err
	}
	switch r.technique {
	case TechniqueTiledDeferred:
		return r.renderTiledDeferred(ctx, f)
	default:
		return r.renderForwardPlus(ctx, f)
	}
}

// checkFrame rejects inputs that do not match the viewport. Depth sizes are
// checked again by the backend.
func (r *renderer) checkFrame(f *Frame) error {
	c := r.capacity
	if f.Depth == nil || f.Opaque == nil {
		return fmt.Errorf("frame needs an opaque depth buffer and G-buffer: %w", tiling.ErrDepthSizeMismatch)
	}
	if f.Depth.Samples != int(r.msaa) {
		return fmt.Errorf("%w: depth has %d samples, renderer expects %d", tiling.ErrDepthSizeMismatch, f.Depth.Samples, r.msaa)
	}
	if f.Opaque.Width != c.Width || f.Opaque.Height != c.Height {
		return fmt.Errorf("%w: G-buffer is %dx%d, viewport %dx%d", tiling.ErrDepthSizeMismatch, f.Opaque.Width, f.Opaque.Height, c.Width, c.Height)
	}
	if f.BlendedDepth != nil && f.Blended != nil && (f.Blended.Width != c.Width || f.Blended.Height != c.Height) {
		return fmt.Errorf("%w: blended G-buffer is %dx%d, viewport %dx%d", tiling.ErrDepthSizeMismatch, f.Blended.Width, f.Blended.Height, c.Width, c.Height)
	}
	return nil
}

// basePass fills the inputs every dispatch of a frame shares.
func (r *renderer) basePass(f *Frame, mode tiling.Mode) *tiling.Pass {
	p := &tiling.Pass{
		Mode:     mode,
		Capacity: r.capacity,
		View:     f.View,
		InvProj:  f.InvProj,
		Depth:    f.Depth,
		Points:   f.Points.CenterAndRadius()[:f.Points.Active(f.NumPoints)],
		Spots:    f.Spots.CenterAndRadius()[:f.Spots.Active(f.NumSpots)],
	}
	if mode.VPLs() {
		p.VPLs = f.VPLs.CenterAndRadius()
		p.MaxVPLs = f.MaxVPLs
		p.VPLCounter = f.VPLCounter
	}
	return p
}

// surfaceAt returns the shading inputs of one G-buffer pixel and its view depth.
func surfaceAt(g *GBuffer, view mgl32.Mat4, eye mgl32.Vec3, x, y int) (sp surfacePoint, viewZ float32, ok bool) {
	pos, n, ok := g.at(x, y)
	if !ok {
		return sp, 0, false
	}
	sp = surfacePoint{
		pos:    pos,
		normal: normalize(n),
		toEye:  normalize(eye.Sub(pos)),
	}
	return sp, common.TransformPoint(view, pos).Z(), true
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend != nil {
		r.backend.Release()
		r.backend = nil
	}
}
