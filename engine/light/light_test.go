package light

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestPackSpotParamsRoundTrip(t *testing.T) {
	dirs := []mgl32.Vec3{
		{0, -1, 0},
		mgl32.Vec3{0.3, 0.4, -0.5}.Normalize(),
		mgl32.Vec3{-0.7, 0.1, 0.7}.Normalize(),
		{0, 0, -1},
	}
	for _, d := range dirs {
		p := PackSpotParams(d, SpotConeCosine, 180)
		got, cosCone, falloff := p.Unpack()
		for i := range 3 {
			if !approx(got[i], d[i], 2e-3) {
				t.Errorf("dir %v: expected component %d ~%f, got %f", d, i, d[i], got[i])
			}
		}
		if !approx(cosCone, SpotConeCosine, 1e-3) {
			t.Errorf("expected cone cosine ~%f, got %f", SpotConeCosine, cosCone)
		}
		if falloff != 180 {
			t.Errorf("expected falloff 180, got %f", falloff)
		}
		if (d.Z() < 0) != (p[2]&spotSignBit != 0) {
			t.Errorf("dir %v: sign bit does not carry sign of z", d)
		}
	}
}

func TestPackColor(t *testing.T) {
	c := PackColor(200, 100, 0)
	if c != 0xFF0064C8 {
		t.Errorf("expected 0xFF0064C8, got %#x", c)
	}
	rgb := UnpackColor(c)
	if !approx(rgb[0], 200.0/255, 1e-6) || !approx(rgb[1], 100.0/255, 1e-6) || rgb[2] != 0 {
		t.Errorf("unexpected unpacked color %v", rgb)
	}
}

func TestSpotApexOnSphere(t *testing.T) {
	l := NewShadowSpot(mgl32.Vec3{0, 100, 0}, 50, mgl32.Vec3{0, 0, 0}, 255, 255, 255)
	if l.Center() != (mgl32.Vec3{0, 50, 0}) {
		t.Errorf("expected center (0,50,0), got %v", l.Center())
	}
	if l.Apex() != (mgl32.Vec3{0, 100, 0}) {
		t.Errorf("expected apex at the eye, got %v", l.Apex())
	}
	if !approx(l.FalloffRadius(), 66.666666, 1e-3) {
		t.Errorf("expected falloff ~66.67, got %f", l.FalloffRadius())
	}
}

func TestPoolAdd(t *testing.T) {
	p := NewPool(LightTypePoint, 2)
	for range 2 {
		if err := p.Add(NewLight(LightTypePoint, WithRadius(1))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := p.Add(NewLight(LightTypePoint)); !errors.Is(err, ErrPoolFull) {
		t.Errorf("expected ErrPoolFull, got %v", err)
	}
	if err := NewPool(LightTypeSpot, 1).Add(NewLight(LightTypePoint)); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
	if p.Active(10) != 2 || p.Active(-1) != 0 {
		t.Errorf("expected active count clamped to [0,2], got %d and %d", p.Active(10), p.Active(-1))
	}
	p.Reset()
	if p.Len() != 0 || p.Cap() != 2 {
		t.Errorf("expected empty pool with capacity 2, got len %d cap %d", p.Len(), p.Cap())
	}
}

func TestShadowCastingPools(t *testing.T) {
	points, spots := NewShadowCastingPools()
	if points.Len() != MaxNumShadowCastingPoints || spots.Len() != MaxNumShadowCastingSpots {
		t.Fatalf("expected 12/12 lights, got %d/%d", points.Len(), spots.Len())
	}
	first := points.CenterAndRadius()[0]
	if first != (mgl32.Vec4{-620, 136, 218, 450}) {
		t.Errorf("unexpected first point light %v", first)
	}
	if points.Colors()[0] != PackColor(200, 100, 0) {
		t.Errorf("unexpected first point color %#x", points.Colors()[0])
	}
	if len(spots.SpotParams()) != MaxNumShadowCastingSpots {
		t.Errorf("expected spot params for every spot, got %d", len(spots.SpotParams()))
	}
}

func TestGenerateRandomPoolsDeterministic(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{-1400, 0, -600}, Max: mgl32.Vec3{1400, 800, 600}}
	p1, s1 := GenerateRandomPools(b, DefaultSeed)
	p2, s2 := GenerateRandomPools(b, DefaultSeed)

	if p1.Len() != MaxNumLights || s1.Len() != MaxNumLights {
		t.Fatalf("expected %d lights per pool, got %d/%d", MaxNumLights, p1.Len(), s1.Len())
	}
	for i := range MaxNumLights {
		if p1.CenterAndRadius()[i] != p2.CenterAndRadius()[i] || s1.SpotParams()[i] != s2.SpotParams()[i] {
			t.Fatalf("light %d differs between runs", i)
		}
		c := p1.CenterAndRadius()[i]
		for k := range 3 {
			if c[k] < b.Min[k] || c[k] >= b.Max[k] {
				t.Fatalf("light %d outside bounds: %v", i, c)
			}
		}
	}
	if r := p1.CenterAndRadius()[0].W(); !approx(r, b.RandomLightRadius(), 1e-3) {
		t.Errorf("expected radius %f, got %f", b.RandomLightRadius(), r)
	}
}

func TestLibrarySelect(t *testing.T) {
	lib := NewLibrary(Bounds{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}})
	if p, _ := lib.Select(LightingRandom); p != lib.RandomPoints {
		t.Error("expected random points for LightingRandom")
	}
	if _, s := lib.Select(LightingShadows); s != lib.ShadowSpots {
		t.Error("expected shadow spots for LightingShadows")
	}
	if m, err := ParseLightingMode("RANDOM"); err != nil || m != LightingRandom {
		t.Errorf("expected LightingRandom, got %v (%v)", m, err)
	}
	if _, err := ParseLightingMode("disco"); err == nil {
		t.Error("expected error for unknown lighting mode")
	}
}
