package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestFalloffCurves(t *testing.T) {
	if !approx(Falloff(0), 1) || !approx(Falloff(1), 0) {
		t.Errorf("Falloff endpoints: %v %v", Falloff(0), Falloff(1))
	}
	if Falloff(0.25) <= Falloff(0.5) {
		t.Error("Falloff should decrease with distance")
	}
	if !approx(VPLFalloff(0), 1) || !approx(VPLFalloff(1), 0) || !approx(VPLFalloff(0.5), 0.5) {
		t.Errorf("VPLFalloff: %v %v %v", VPLFalloff(0), VPLFalloff(0.5), VPLFalloff(1))
	}
	if VPLFalloff(2) != 0 {
		t.Error("VPLFalloff beyond the radius should be 0")
	}
}

func TestSpotAttenuation(t *testing.T) {
	cosCone := float32(math.Cos(math.Pi / 4))
	if SpotAttenuation(1, cosCone) != 1 {
		t.Errorf("on axis: got %v", SpotAttenuation(1, cosCone))
	}
	if SpotAttenuation(cosCone, cosCone) != 0 || SpotAttenuation(0, cosCone) != 0 {
		t.Error("expected 0 at and outside the cone edge")
	}
	mid := (1 + cosCone) / 2
	if !approx(SpotAttenuation(mid, cosCone), 0.25) {
		t.Errorf("halfway: got %v", SpotAttenuation(mid, cosCone))
	}
}

func TestSpotApex(t *testing.T) {
	apex := SpotApex(mgl32.Vec4{0, 10, 0, 4}, mgl32.Vec3{0, -1, 0})
	if !apex.ApproxEqual(mgl32.Vec3{0, 14, 0}) {
		t.Errorf("expected apex (0,14,0), got %v", apex)
	}
}

func TestLightSetShade(t *testing.T) {
	points := light.NewPool(light.LightTypePoint, 2)
	_ = points.Add(light.NewLight(light.LightTypePoint, light.WithCenter(0, 5, 0), light.WithRadius(10)))
	_ = points.Add(light.NewLight(light.LightTypePoint, light.WithCenter(0, 50, 0), light.WithRadius(10)))
	spots := light.NewPool(light.LightTypeSpot, 1)
	_ = spots.Add(light.NewLight(light.LightTypeSpot,
		light.WithCenter(0, 10, 0), light.WithRadius(10), light.WithDirection(0, -1, 0), light.WithSpotCone(0.9, 30)))
	vpls := light.NewPool(light.LightTypeVPL, 2)
	_ = vpls.Add(light.NewLight(light.LightTypeVPL,
		light.WithCenter(0, 4, 0), light.WithRadius(8), light.WithDirection(0, -1, 0),
		light.WithSourceDirection(mgl32.Vec3{0, 1, 0})))
	_ = vpls.Add(light.NewLight(light.LightTypeVPL,
		light.WithCenter(0, 4, 0), light.WithRadius(8), light.WithDirection(0, 1, 0),
		light.WithSourceDirection(mgl32.Vec3{0, 1, 0})))

	s := &lightSet{points: points, spots: spots, vpls: vpls}
	sp := &surfacePoint{normal: mgl32.Vec3{0, 1, 0}, toEye: mgl32.Vec3{0, 1, 0}}

	if c := s.point(0, sp); c.X() <= 0 {
		t.Errorf("expected light from the near point, got %v", c)
	}
	if c := s.point(1, sp); c != (mgl32.Vec3{}) {
		t.Errorf("expected no light beyond the radius, got %v", c)
	}
	if c := s.spot(0, sp); c.X() <= 0 {
		t.Errorf("expected light under the spot, got %v", c)
	}
	if c := s.vpl(0, sp); c.X() <= 0 {
		t.Errorf("expected light from the downward VPL, got %v", c)
	}
	if c := s.vpl(1, sp); c != (mgl32.Vec3{}) {
		t.Errorf("an upward VPL should not light the floor, got %v", c)
	}

	all := s.shade(sp, []uint16{0, 1}, []uint16{0}, []uint16{0, 1})
	want := s.point(0, sp).Add(s.spot(0, sp)).Add(s.vpl(0, sp))
	if !all.ApproxEqual(want) {
		t.Errorf("shade %v, expected the sum %v", all, want)
	}

	// A floor facing away from the spawning light keeps part of the VPL.
	back := &surfacePoint{normal: mgl32.Vec3{0, 1, 0}, toEye: sp.toEye}
	s.vpls = light.NewPool(light.LightTypeVPL, 1)
	_ = s.vpls.Add(light.NewLight(light.LightTypeVPL,
		light.WithCenter(0, 4, 0), light.WithRadius(8), light.WithDirection(0, -1, 0),
		light.WithSourceDirection(mgl32.Vec3{0, -1, 0})))
	if c := s.vpl(0, back); c != (mgl32.Vec3{}) {
		t.Errorf("a fully back-facing surface should get nothing at 50%% contribution, got %v", c)
	}
}
