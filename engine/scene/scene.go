package scene

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/camera"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

// MaxVPLsUnlimited lets every generated VPL through the culling stage.
const MaxVPLsUnlimited = 0xFFFF

// Scene is a headless stand-in for the geometry passes of a renderer. It
// ray-casts an analytic room to produce the depth buffers and G-buffers a
// frame needs, selects the active lights and scatters VPLs, then hands the
// frame to its Renderer.
//
// Usage pattern:
//  1. Create with NewScene and the camera and renderer it draws with
//  2. Move the camera or change the light settings between frames
//  3. Call Render once per frame
//  4. Call Release when done
type Scene interface {
	// Name returns the scene name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Active reports whether the engine renders this scene.
	//
	// Returns:
	//   - bool: true when active
	Active() bool

	// SetActive enables or disables rendering of the scene.
	//
	// Parameters:
	//   - active: the new state
	SetActive(active bool)

	// Camera returns the scene camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Renderer returns the renderer frames are submitted to.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Bounds returns the room the scene is built in.
	//
	// Returns:
	//   - light.Bounds: the bounding box
	Bounds() light.Bounds

	// Lights returns the generated light pools.
	//
	// Returns:
	//   - *light.Library: the random and shadow-casting pools
	Lights() *light.Library

	// LightingMode returns the active light set.
	//
	// Returns:
	//   - light.LightingMode: the mode
	LightingMode() light.LightingMode

	// SetLightingMode selects the active light set.
	//
	// Parameters:
	//   - mode: the mode
	SetLightingMode(mode light.LightingMode)

	// ActiveLights returns the requested active point and spot counts.
	//
	// Returns:
	//   - points, spots: the counts, before clamping to the pools
	ActiveLights() (points, spots int)

	// SetActiveLights sets how many lights of each pool are culled and shaded.
	//
	// Parameters:
	//   - points, spots: the counts; they are clamped to the pool sizes per frame
	SetActiveLights(points, spots int)

	// NumGridObjects returns the number of occluder panels.
	//
	// Returns:
	//   - int: the count
	NumGridObjects() int

	// SetNumGridObjects changes the number of occluder panels.
	//
	// Parameters:
	//   - n: the count, clamped to [0, MaxNumGridObjects]
	SetNumGridObjects(n int)

	// SetBlendedObjects toggles the transparent cubes.
	//
	// Parameters:
	//   - enabled: true to draw them
	SetBlendedObjects(enabled bool)

	// SetVPLs toggles one-bounce indirect light. VPLs only exist in the
	// shadow-casting lighting mode.
	//
	// Parameters:
	//   - enabled: true to scatter VPLs
	SetVPLs(enabled bool)

	// Resize reallocates the frame buffers and resizes the renderer.
	//
	// Parameters:
	//   - width, height: the new viewport size in pixels
	Resize(width, height int)

	// PrepareFrame ray-casts the depth buffers and G-buffers for the current
	// camera and gathers the lights.
	//
	// Parameters:
	//   - ctx: cancels before the ray-cast starts
	//
	// Returns:
	//   - *renderer.Frame: the frame, owned by the scene until the next call
	//   - error: cancellation or a ray-cast failure
	PrepareFrame(ctx context.Context) (*renderer.Frame, error)

	// Render prepares a frame and submits it to the renderer.
	//
	// Parameters:
	//   - ctx: cancels before the frame starts
	//
	// Returns:
	//   - *renderer.FrameResult: the renderer's output
	//   - error: any preparation or rendering error
	Render(ctx context.Context) (*renderer.FrameResult, error)

	// Release stops the ray-cast workers. The renderer is owned by the caller.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	cam camera.Camera
	r   renderer.Renderer

	bounds  light.Bounds
	geo     *geometry
	library *light.Library

	lightingMode   light.LightingMode
	numPoints      int
	numSpots       int
	numGridObjects int
	blendedObjects bool

	vplsEnabled bool
	vplGrid     int
	vplRadius   float32
	vplStrength float32
	maxVPLs     int
	vpls        *light.Pool

	width   int
	height  int
	samples int

	depth        *tiling.DepthBuffer
	blendedDepth *tiling.DepthBuffer
	opaque       *renderer.GBuffer
	blended      *renderer.GBuffer
	frame        renderer.Frame

	// rayPool is a persistent set of goroutines for the per-frame ray-cast.
	// Each task is one band of rows.
	rayPool    worker.DynamicWorkerPool
	rayWorkers int
	taskID     int

	log *zap.Logger
}

var _ Scene = &scene{}

// NewScene creates a Scene for a viewport. The camera and renderer are
// required and NewScene panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to render from (must not be nil)
//   - r: the renderer to submit frames to (must not be nil)
//   - width, height: the viewport size in pixels
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, width, height int, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		active:         true,
		cam:            cam,
		r:              r,
		bounds:         DefaultBounds,
		lightingMode:   light.LightingShadows,
		numPoints:      light.MaxNumLights,
		numSpots:       light.MaxNumLights,
		numGridObjects: MaxNumGridObjects,
		blendedObjects: true,
		vplGrid:        DefaultVPLGrid,
		vplRadius:      DefaultVPLRadius,
		vplStrength:    DefaultVPLStrength,
		maxVPLs:        MaxVPLsUnlimited,
		rayWorkers:     max(runtime.NumCPU()-1, 1),
		log:            logger.Component("scene"),
	}

	for _, option := range options {
		option(s)
	}

	s.library = light.NewLibrary(s.bounds)
	s.geo = newGeometry(s.bounds, s.numGridObjects)
	s.vpls = light.NewPool(light.LightTypeVPL, s.vplGrid*s.vplGrid)
	s.rayPool = worker.NewDynamicWorkerPool(s.rayWorkers, 256, 1*time.Second)
	s.resize(width, height)

	s.log.Info("scene ready",
		zap.String("name", name),
		zap.Int("grid_objects", len(s.geo.grid)),
		zap.Stringer("lighting", s.lightingMode),
		zap.Int("workers", s.rayWorkers),
	)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Bounds() light.Bounds {
	return s.bounds
}

func (s *scene) Lights() *light.Library {
	return s.library
}

func (s *scene) LightingMode() light.LightingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lightingMode
}

func (s *scene) SetLightingMode(mode light.LightingMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightingMode = mode
}

func (s *scene) ActiveLights() (points, spots int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numPoints, s.numSpots
}

func (s *scene) SetActiveLights(points, spots int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numPoints, s.numSpots = points, spots
}

func (s *scene) NumGridObjects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.geo.grid)
}

func (s *scene) SetNumGridObjects(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numGridObjects = n
	s.geo = newGeometry(s.bounds, n)
}

func (s *scene) SetBlendedObjects(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blendedObjects = enabled
}

func (s *scene) SetVPLs(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vplsEnabled = enabled
}

func (s *scene) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize(width, height)
	s.r.Resize(width, height)
	s.cam.SetAspect(float32(width) / float32(height))
}

// resize reallocates the frame buffers when the viewport or the renderer's
// sample count changed. Caller must hold the mutex.
func (s *scene) resize(width, height int) {
	samples := int(s.r.MSAA())
	if s.depth != nil && width == s.width && height == s.height && samples == s.samples {
		return
	}
	s.width, s.height, s.samples = width, height, samples
	s.depth = tiling.NewDepthBuffer(width, height, samples)
	s.blendedDepth = tiling.NewDepthBuffer(width, height, samples)
	s.opaque = renderer.NewGBuffer(width, height)
	s.blended = renderer.NewGBuffer(width, height)
}

func (s *scene) PrepareFrame(ctx context.Context) (*renderer.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resize(s.width, s.height)
	s.cam.Update()
	view := s.cam.ViewMatrix()
	proj := s.cam.ProjectionMatrix()
	invProj := s.cam.InverseProjectionMatrix()
	eye := s.cam.Position()

	rc := &rayCaster{
		geo:      s.geo,
		eye:      eye,
		invView:  view.Inv(),
		proj:     proj,
		invProj:  invProj,
		width:    s.width,
		height:   s.height,
		samples:  s.samples,
		offsets:  sampleOffsets(s.samples),
		blended:  s.blendedObjects,
		depth:    s.depth,
		bdepth:   s.blendedDepth,
		opaque:   s.opaque,
		blendedG: s.blended,
	}
	if err := s.castRows(rc); err != nil {
		return nil, err
	}

	points, spots := s.library.Select(s.lightingMode)
	f := &s.frame
	*f = renderer.Frame{
		View:      view,
		InvProj:   invProj,
		Eye:       eye,
		Depth:     s.depth,
		Opaque:    s.opaque,
		Points:    points,
		Spots:     spots,
		NumPoints: points.Active(s.numPoints),
		NumSpots:  spots.Active(s.numSpots),
	}
	if s.blendedObjects {
		f.BlendedDepth = s.blendedDepth
		f.Blended = s.blended
	}
	if s.vplsEnabled && s.lightingMode == light.LightingShadows {
		f.VPLs = s.vpls
		f.VPLCounter = s.scatterVPLs()
		f.MaxVPLs = s.maxVPLs
	}
	return f, nil
}

// castRows fans the ray-cast out over the worker pool one band of tile rows
// at a time. Every band writes only its own rows. A WaitGroup is the frame
// barrier since the pool's own Wait blocks until workers idle out.
func (s *scene) castRows(rc *rayCaster) error {
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for y0 := 0; y0 < rc.height; y0 += light.TileRes {
		y1 := min(y0+light.TileRes, rc.height)
		wg.Add(1)
		s.taskID++
		s.rayPool.SubmitTask(worker.Task{
			ID: s.taskID,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errOnce.Do(func() {
							firstErr = fmt.Errorf("scene %s: ray-cast rows %d-%d panicked: %v", s.name, y0, y1, r)
						})
					}
				}()
				for y := y0; y < y1; y++ {
					rc.row(y)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return firstErr
}

func (s *scene) Render(ctx context.Context) (*renderer.FrameResult, error) {
	f, err := s.PrepareFrame(ctx)
	if err != nil {
		return nil, err
	}
	return s.r.RenderFrame(ctx, f)
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rayPool != nil {
		s.rayPool.Stop()
		s.rayPool = nil
	}
}

// rayCaster holds everything one frame's ray-cast reads and writes.
type rayCaster struct {
	geo     *geometry
	eye     mgl32.Vec3
	invView mgl32.Mat4
	proj    mgl32.Mat4
	invProj mgl32.Mat4

	width, height, samples int
	offsets                []mgl32.Vec2
	blended                bool

	depth, bdepth    *tiling.DepthBuffer
	opaque, blendedG *renderer.GBuffer
}

// viewRay returns the normalized view-space direction through a point of the
// viewport given in pixels.
func (rc *rayCaster) viewRay(px, py float32) mgl32.Vec3 {
	ndc := mgl32.Vec4{px/float32(rc.width)*2 - 1, 1 - py/float32(rc.height)*2, 1, 1}
	return common.ProjToView(rc.invProj, ndc).Normalize()
}

// project converts a view depth to the stored inverted depth. Surfaces
// outside the clip range are treated as background.
func (rc *rayCaster) project(viewZ float32) float32 {
	c := rc.proj.Mul4x1(mgl32.Vec4{0, 0, viewZ, 1})
	d := c.Z() / c.W()
	if d <= 0 || d > 1 {
		return 0
	}
	return d
}

func (rc *rayCaster) trace(px, py float32) (opaque, blended hit, viewDir, worldDir mgl32.Vec3) {
	viewDir = rc.viewRay(px, py)
	worldDir = rc.invView.Mul4x1(viewDir.Vec4(0)).Vec3().Normalize()
	r := newRay(rc.eye, worldDir)
	opaque = rc.geo.traceOpaque(r)
	if rc.blended {
		blended = rc.geo.traceBlended(r)
		if opaque.ok() && blended.t >= opaque.t {
			blended = hit{}
		}
	}
	return opaque, blended, viewDir, worldDir
}

// row fills one row of every buffer. Depth comes from the jittered sample
// positions; the G-buffers use the pixel center.
func (rc *rayCaster) row(y int) {
	for x := range rc.width {
		for s, off := range rc.offsets {
			o, b, vd, _ := rc.trace(float32(x)+0.5+off.X(), float32(y)+0.5+off.Y())
			var od, bd float32
			if o.ok() {
				od = rc.project(vd.Z() * o.t)
			}
			if b.ok() {
				bd = rc.project(vd.Z() * b.t)
			}
			rc.depth.Set(x, y, s, od)
			rc.bdepth.Set(x, y, s, bd)
		}

		o, b, _, wd := rc.center(x, y)
		rc.opaque.Unset(x, y)
		rc.blendedG.Unset(x, y)
		if o.ok() {
			rc.opaque.Set(x, y, rc.eye.Add(wd.Mul(o.t)), o.normal)
		}
		if b.ok() {
			rc.blendedG.Set(x, y, rc.eye.Add(wd.Mul(b.t)), b.normal)
		}
	}
}

// center traces the pixel center, the ray the G-buffers are built from.
func (rc *rayCaster) center(x, y int) (opaque, blended hit, viewDir, worldDir mgl32.Vec3) {
	return rc.trace(float32(x)+0.5, float32(y)+0.5)
}

// sampleOffsets returns the standard multisample positions in pixels
// relative to the pixel center.
func sampleOffsets(samples int) []mgl32.Vec2 {
	switch samples {
	case 2:
		return []mgl32.Vec2{{4.0 / 16, 4.0 / 16}, {-4.0 / 16, -4.0 / 16}}
	case 4:
		return []mgl32.Vec2{{-2.0 / 16, -6.0 / 16}, {6.0 / 16, -2.0 / 16}, {-6.0 / 16, 2.0 / 16}, {2.0 / 16, 6.0 / 16}}
	default:
		return []mgl32.Vec2{{0, 0}}
	}
}
