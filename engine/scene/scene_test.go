package scene

import (
	"context"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/engine/camera"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
)

func TestBoxIntersect(t *testing.T) {
	b := Box{Min: mgl32.Vec3{-1, -1, 4}, Max: mgl32.Vec3{1, 1, 6}}
	h := b.intersect(newRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}))
	if !h.ok() || h.t != 4 || h.normal != (mgl32.Vec3{0, 0, -1}) {
		t.Errorf("unexpected front hit %+v", h)
	}
	if h := b.intersect(newRay(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})); h.ok() {
		t.Errorf("expected a miss, got %+v", h)
	}
	if h := b.intersect(newRay(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 1})); h.ok() {
		t.Errorf("a box behind the ray should be missed, got %+v", h)
	}
}

func TestRoomIntersectInside(t *testing.T) {
	room := Box{Min: DefaultBounds.Min, Max: DefaultBounds.Max}
	eye := mgl32.Vec3{0, 100, 0}

	floor := room.intersectInside(newRay(eye, mgl32.Vec3{0, -1, 0}))
	if !floor.ok() || floor.t != 100 || floor.normal != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("unexpected floor hit %+v", floor)
	}
	wall := room.intersectInside(newRay(eye, mgl32.Vec3{1, 0, 0}))
	if !wall.ok() || wall.t != DefaultBounds.Max.X() || wall.normal != (mgl32.Vec3{-1, 0, 0}) {
		t.Errorf("unexpected wall hit %+v", wall)
	}
	if sky := room.intersectInside(newRay(eye, mgl32.Vec3{0, 1, 0})); sky.ok() {
		t.Errorf("the room has no ceiling, got %+v", sky)
	}
}

func TestGridLayout(t *testing.T) {
	first, last := gridPanel(0), gridPanel(MaxNumGridObjects-1)
	if c := first.Center(); c != (mgl32.Vec3{gridPlaneX, gridTopY, gridFirstZ}) {
		t.Errorf("unexpected first panel center %v", c)
	}
	wantLast := mgl32.Vec3{gridPlaneX, gridTopY - 9*gridStep, gridFirstZ - 27*gridStep}
	if !last.Center().ApproxEqualThreshold(wantLast, 1e-3) {
		t.Errorf("last panel center %v, want %v", last.Center(), wantLast)
	}
	if got := len(newGeometry(DefaultBounds, 1000).grid); got != MaxNumGridObjects {
		t.Errorf("grid count should clamp to %d, got %d", MaxNumGridObjects, got)
	}
}

func TestTraceGridMatchesBruteForce(t *testing.T) {
	g := newGeometry(DefaultBounds, MaxNumGridObjects)
	rng := rand.New(rand.NewSource(3))
	eye := mgl32.Vec3{-650, 350, 0}
	for i := range 2000 {
		dir := mgl32.Vec3{1, rng.Float32()*2 - 1, rng.Float32()*3 - 1.5}.Normalize()
		if i%10 == 0 {
			// Nearly parallel to the grid plane.
			dir = mgl32.Vec3{0.01, rng.Float32()*2 - 1, 1}.Normalize()
		}
		r := newRay(eye, dir)

		var want hit
		for _, b := range g.grid {
			want = want.closer(b.intersect(r))
		}
		got := g.traceGrid(r)
		if got.ok() != want.ok() || (got.ok() && got.t != want.t) {
			t.Fatalf("ray %d %v: grid lookup %+v, brute force %+v", i, dir, got, want)
		}
	}
}

func TestSampleOffsets(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		if got := len(sampleOffsets(n)); got != n {
			t.Errorf("%d samples: got %d offsets", n, got)
		}
	}
}

func newTestScene(t *testing.T, w, h int, ropts []renderer.RendererBuilderOption, opts ...SceneBuilderOption) Scene {
	t.Helper()
	ctrl := camera.NewSceneController(DefaultBounds.Min, DefaultBounds.Max)
	cam := camera.NewCamera(camera.WithViewport(w, h), camera.WithController(ctrl))
	r, err := renderer.NewRenderer(renderer.BackendTypeCPU, w, h, ropts...)
	if err != nil {
		t.Fatal(err)
	}
	s := NewScene("test", cam, r, w, h, append([]SceneBuilderOption{WithRayWorkers(2)}, opts...)...)
	t.Cleanup(func() {
		s.Release()
		r.Release()
	})
	return s
}

func TestPrepareFrame(t *testing.T) {
	const w, h = 64, 36
	s := newTestScene(t, w, h, []renderer.RendererBuilderOption{renderer.WithMSAA(renderer.MSAA2x)},
		WithVPLs(true, 0, 0), WithVPLGrid(16), WithActiveLights(4, 100))

	f, err := s.PrepareFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.Depth.Samples != 2 || f.Depth.Width != w || f.BlendedDepth == nil {
		t.Fatalf("unexpected depth buffers %dx%d@%d", f.Depth.Width, f.Depth.Height, f.Depth.Samples)
	}
	if f.NumPoints != 4 || f.NumSpots != light.MaxNumShadowCastingSpots {
		t.Errorf("expected 4 points and clamped spots, got %d %d", f.NumPoints, f.NumSpots)
	}
	if f.VPLCounter == 0 || f.VPLCounter != f.VPLs.Len() || f.MaxVPLs != MaxVPLsUnlimited {
		t.Errorf("expected scattered VPLs, got counter %d len %d max %d", f.VPLCounter, f.VPLs.Len(), f.MaxVPLs)
	}

	covered, blended := 0, 0
	for y := range h {
		for x := range w {
			for smp := range 2 {
				d := f.Depth.At(x, y, smp)
				if d < 0 || d > 1 {
					t.Fatalf("depth %v out of range at (%d,%d)", d, x, y)
				}
				if bd := f.BlendedDepth.At(x, y, smp); bd != 0 {
					blended++
					if d != 0 && bd < d {
						t.Fatalf("blended depth %v behind opaque %v at (%d,%d)", bd, d, x, y)
					}
				}
			}
			if f.Opaque.Covered[y*w+x] {
				covered++
			}
		}
	}
	if covered == 0 {
		t.Error("the camera should see the room")
	}
	if blended == 0 {
		t.Error("the default view should see some transparent cubes")
	}

	s.SetLightingMode(light.LightingRandom)
	f, err = s.PrepareFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if f.VPLs != nil || f.MaxVPLs != 0 {
		t.Error("VPLs only exist in the shadow-casting mode")
	}
	if f.NumSpots != 100 {
		t.Errorf("expected 100 random spots, got %d", f.NumSpots)
	}
}

func TestRenderBothTechniques(t *testing.T) {
	const w, h = 48, 32
	s := newTestScene(t, w, h, nil, WithLightingMode(light.LightingRandom), WithActiveLights(256, 256), WithGridObjects(56))
	if s.NumGridObjects() != 56 {
		t.Fatalf("expected 56 grid objects, got %d", s.NumGridObjects())
	}

	res, err := s.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Opaque.Points.Active != 256 || res.Blended == nil {
		t.Errorf("unexpected Forward+ stats %+v", res.Opaque)
	}

	s.Renderer().SetTechnique(renderer.TechniqueTiledDeferred)
	s.SetBlendedObjects(false)
	res, err = s.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Technique != renderer.TechniqueTiledDeferred || res.Blended != nil {
		t.Errorf("unexpected deferred result %+v", res)
	}

	s.Resize(80, 48)
	if c := s.Renderer().Capacity(); c.Width != 80 || c.Height != 48 {
		t.Errorf("renderer was not resized: %+v", c)
	}
	if _, err := s.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Render(ctx); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}
