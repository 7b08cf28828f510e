package renderer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

const testPlaneZ = 100

// newTestFrame builds a frame looking at a wall testPlaneZ units in front of
// the eye, lit by one point and one spot light. When blended is set, the
// left half of the view also has a transparent layer halfway to the wall.
func newTestFrame(t *testing.T, w, h, samples int, blended bool) *Frame {
	t.Helper()
	proj := common.PerspectiveReversedZ(mgl32.DegToRad(60), float32(w)/float32(h), 1, 1000)
	invProj, ok := common.InvertProjection(proj)
	if !ok {
		t.Fatal("projection is singular")
	}
	eye := mgl32.Vec3{0, 0, -testPlaneZ}
	view := common.LookAtLH(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	invView := view.Inv()

	projDepth := func(z float32) float32 {
		c := proj.Mul4x1(mgl32.Vec4{0, 0, z, 1})
		return c.Z() / c.W()
	}

	f := &Frame{
		View:    view,
		InvProj: invProj,
		Eye:     eye,
		Depth:   tiling.NewDepthBuffer(w, h, samples),
		Opaque:  NewGBuffer(w, h),
	}
	if blended {
		f.BlendedDepth = tiling.NewDepthBuffer(w, h, samples)
		f.Blended = NewGBuffer(w, h)
	}

	for y := range h {
		for x := range w {
			ndc := mgl32.Vec4{(float32(x)+0.5)/float32(w)*2 - 1, (float32(h)-float32(y)-0.5)/float32(h)*2 - 1, 1, 1}
			near := common.ProjToView(invProj, ndc)
			p := near.Mul(testPlaneZ / near.Z())
			for s := range samples {
				f.Depth.Set(x, y, s, projDepth(testPlaneZ))
			}
			f.Opaque.Set(x, y, common.TransformPoint(invView, p), mgl32.Vec3{0, 0, -1})

			if blended && x < w/2 {
				q := near.Mul(testPlaneZ / 2 / near.Z())
				for s := range samples {
					f.BlendedDepth.Set(x, y, s, projDepth(testPlaneZ/2))
				}
				f.Blended.Set(x, y, common.TransformPoint(invView, q), mgl32.Vec3{0, 0, -1})
			}
		}
	}

	f.Points = light.NewPool(light.LightTypePoint, 2)
	if err := f.Points.Add(light.NewLight(light.LightTypePoint,
		light.WithCenter(0, 0, -10), light.WithRadius(60), light.WithColor(1, 0.5, 0.25))); err != nil {
		t.Fatal(err)
	}
	f.Spots = light.NewPool(light.LightTypeSpot, 1)
	if err := f.Spots.Add(light.NewShadowSpot(mgl32.Vec3{0, 0, -60}, 40, mgl32.Vec3{}, 200, 200, 255)); err != nil {
		t.Fatal(err)
	}
	f.NumPoints, f.NumSpots = f.Points.Len(), f.Spots.Len()
	return f
}

func TestParseBackendAndTechnique(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want RendererBackendType
	}{{"cpu", BackendTypeCPU}, {"WGPU", BackendTypeWGPU}, {"", BackendTypeCPU}} {
		got, err := ParseBackendType(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseBackendType(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseBackendType("metal"); err == nil {
		t.Error("expected an error for an unknown backend")
	}

	if got, err := ParseTechnique("deferred"); err != nil || got != TechniqueTiledDeferred {
		t.Errorf("ParseTechnique(deferred) = %v, %v", got, err)
	}
	if got := TechniqueForwardPlus.String(); got != "forward_plus" {
		t.Errorf("expected forward_plus, got %s", got)
	}
	if _, err := ParseTechnique("clustered"); err == nil {
		t.Error("expected an error for an unknown technique")
	}

	for _, c := range []MSAASampleCount{MSAAOff, MSAA2x, MSAA4x} {
		if !c.Valid() {
			t.Errorf("%d should be valid", c)
		}
	}
	if MSAASampleCount(8).Valid() {
		t.Error("8 samples should be rejected")
	}
}

func TestNewRendererRejectsBadOptions(t *testing.T) {
	if _, err := NewRenderer(BackendTypeCPU, 64, 32, WithMSAA(3)); err == nil {
		t.Error("expected an error for 3 samples")
	}
	if _, err := NewRenderer(BackendTypeCPU, 0, 32); err == nil {
		t.Error("expected an error for an empty viewport")
	}
}

func TestForwardPlusMatchesTiledDeferred(t *testing.T) {
	const w, h = 80, 48
	f := newTestFrame(t, w, h, 1, false)

	r, err := NewRenderer(BackendTypeCPU, w, h, WithDispatcherOptions(tiling.WithWorkers(2)), WithShadeWorkers(3))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	fwd, err := r.RenderFrame(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if fwd.Technique != TechniqueForwardPlus || fwd.Points == nil || fwd.Blended != nil {
		t.Fatalf("unexpected Forward+ result %+v", fwd)
	}
	if fwd.Opaque.Backend != "cpu" || fwd.Opaque.Points.Active != 1 || fwd.Opaque.Spots.Active != 1 {
		t.Errorf("unexpected stats %+v", fwd.Opaque)
	}
	forward := append([]mgl32.Vec3(nil), fwd.Light.Pix...)

	lit := 0
	for _, c := range forward {
		if c.X() > 0 {
			lit++
		}
	}
	if lit == 0 || lit == len(forward) {
		t.Errorf("expected a partially lit wall, got %d of %d pixels lit", lit, len(forward))
	}

	r.SetTechnique(TechniqueTiledDeferred)
	def, err := r.RenderFrame(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if def.Points != nil {
		t.Error("deferred frame wrote global lists without debug lists")
	}
	for i, c := range def.Light.Pix {
		if !c.ApproxEqualThreshold(forward[i], 1e-5) {
			t.Fatalf("pixel %d: deferred %v, Forward+ %v", i, c, forward[i])
		}
	}
}

func TestShadeForwardPlusRepeatable(t *testing.T) {
	const w, h = 48, 32
	f := newTestFrame(t, w, h, 1, true)

	r, err := NewRenderer(BackendTypeCPU, w, h, WithShadeWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	res, err := r.RenderFrame(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	first := append([]mgl32.Vec3(nil), res.Light.Pix...)

	// shading again from the same lists must succeed and reproduce the image
	impl := r.(*renderer)
	impl.lightImage.Clear()
	if err := impl.shadeForwardPlus(f, false, true); err != nil {
		t.Fatalf("shade failed: %v", err)
	}
	for i, c := range impl.lightImage.Pix {
		if c != first[i] {
			t.Fatalf("pixel %d: expected %v, got %v", i, first[i], c)
		}
	}
}

func TestForwardPlusBlendedLayer(t *testing.T) {
	const w, h = 64, 32
	f := newTestFrame(t, w, h, 1, true)

	r, err := NewRenderer(BackendTypeCPU, w, h)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	res, err := r.RenderFrame(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if res.Blended == nil || res.BlendedPoints == nil {
		t.Fatal("expected blended statistics and lists")
	}
	if res.Blended.Mode != tiling.ModeBlended.String() {
		t.Errorf("expected blended mode, got %s", res.Blended.Mode)
	}
	// The right half has no transparent layer, so its tiles see only background.
	if res.Blended.EmptyTiles == 0 {
		t.Error("expected empty blended tiles on the right half")
	}
	halfZ, _, _ := res.BlendedPoints.Header(0)
	if halfZ >= testPlaneZ {
		t.Errorf("blended halfZ %v should be nearer than the wall", halfZ)
	}
}

func TestTiledDeferredEdgesAndDebugLists(t *testing.T) {
	const w, h = 48, 32
	f := newTestFrame(t, w, h, 4, false)
	// A depth step across one sample of column 20 makes that column an edge.
	for y := range h {
		f.Depth.Set(20, y, 3, 0)
		f.Depth.Set(20, y, 2, f.Depth.At(0, 0, 0)*4)
	}

	r, err := NewRenderer(BackendTypeCPU, w, h, WithMSAA(MSAA4x), WithTechnique(TechniqueTiledDeferred), WithDebugLists(true))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	res, err := r.RenderFrame(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if res.Points == nil || res.Spots == nil {
		t.Fatal("debug lists were not written")
	}
	if res.Edges == nil || !res.Edges.IsEdge(20, 5) || res.Edges.IsEdge(10, 5) {
		t.Error("expected column 20 and only it to be an edge")
	}
	if res.Opaque.EdgePixels != h {
		t.Errorf("expected %d edge pixels, got %d", h, res.Opaque.EdgePixels)
	}
}

func TestRenderFrameValidation(t *testing.T) {
	r, err := NewRenderer(BackendTypeCPU, 32, 32, WithMSAA(MSAA2x))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	f := newTestFrame(t, 32, 32, 1, false)
	if _, err := r.RenderFrame(context.Background(), f); !errors.Is(err, tiling.ErrDepthSizeMismatch) {
		t.Errorf("expected ErrDepthSizeMismatch for a sample count mismatch, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderFrame(ctx, newTestFrame(t, 32, 32, 2, false)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	r.Resize(64, 32)
	if c := r.Capacity(); c.TilesX != 4 || c.TilesY != 2 {
		t.Errorf("unexpected capacity after resize %+v", c)
	}
}

// recordingBackend captures the passes it is asked to cull.
type recordingBackend struct {
	mu     sync.Mutex
	modes  []tiling.Mode
	closed bool
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) Cull(_ context.Context, p *tiling.Pass) (tiling.FrameStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes = append(b.modes, p.Mode)
	return tiling.FrameStats{Mode: p.Mode.String(), Backend: b.Name()}, nil
}

func (b *recordingBackend) Release() { b.closed = true }

func TestRendererUsesInjectedBackend(t *testing.T) {
	const w, h = 32, 16
	f := newTestFrame(t, w, h, 1, true)
	f.VPLs = light.NewPool(light.LightTypeVPL, 1)
	if err := f.VPLs.Add(light.NewLight(light.LightTypeVPL, light.WithCenter(0, 0, -5), light.WithRadius(20))); err != nil {
		t.Fatal(err)
	}
	f.MaxVPLs, f.VPLCounter = 1, 1

	b := &recordingBackend{}
	r, err := NewRenderer(BackendTypeCPU, w, h, WithBackend(b))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.RenderFrame(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	r.Release()

	seen := map[tiling.Mode]bool{}
	for _, m := range b.modes {
		seen[m] = true
	}
	if len(b.modes) != 2 || !seen[tiling.ModeForwardPlusVPL] || !seen[tiling.ModeBlended] {
		t.Errorf("expected a VPL opaque pass and a blended pass, got %v", b.modes)
	}
	if !b.closed {
		t.Error("Release did not release the backend")
	}
}
