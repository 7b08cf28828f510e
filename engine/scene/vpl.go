package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer"
)

const (
	// DefaultVPLGrid is the side of the ray grid scattered over the spot
	// cone; at most DefaultVPLGrid² VPLs are produced per frame.
	DefaultVPLGrid = 48
	// DefaultVPLRadius is the culling radius of every VPL.
	DefaultVPLRadius float32 = 200
	// DefaultVPLStrength scales the bounced spot light.
	DefaultVPLStrength float32 = 0.2 * 0.3
	// vplColorThreshold drops VPLs too dim to matter.
	vplColorThreshold float32 = 1e-3
	// vplSurfaceOffset lifts a VPL off the surface it was spawned on.
	vplSurfaceOffset float32 = 1
)

// scatterVPLs replaces the VPL pool with one bounce of the first
// shadow-casting spot light. Rays on a regular grid over the cone hit the
// opaque geometry; each hit becomes a VPL facing out of the surface and
// colored by the spot's attenuated light. Caller must hold the mutex.
//
// Returns:
//   - int: the number of VPLs appended
func (s *scene) scatterVPLs() int {
	s.vpls.Reset()

	spots := s.library.ShadowSpots
	if spots.Len() == 0 {
		return 0
	}
	apex, axis, color := light.FirstShadowSpot()
	_, cosCone, falloffRadius := spots.SpotParams()[0].Unpack()

	right, up := basis(axis)
	tanCone := float32(math.Sqrt(float64(1-cosCone*cosCone))) / cosCone
	n := s.vplGrid
	for j := range n {
		for i := range n {
			u := (float32(i)+0.5)/float32(n)*2 - 1
			v := (float32(j)+0.5)/float32(n)*2 - 1
			if u*u+v*v > 1 {
				continue
			}
			dir := axis.Add(right.Mul(u * tanCone)).Add(up.Mul(v * tanCone)).Normalize()
			h := s.geo.traceOpaque(newRay(apex, dir))
			if !h.ok() || h.t >= falloffRadius {
				continue
			}

			k := renderer.Falloff(h.t/falloffRadius) * renderer.SpotAttenuation(dir.Dot(axis), cosCone) * s.vplStrength
			c := color.Mul(k)
			if max(c.X(), c.Y(), c.Z()) < vplColorThreshold {
				continue
			}
			p := apex.Add(dir.Mul(h.t)).Add(h.normal.Mul(vplSurfaceOffset))
			if err := s.vpls.Add(light.NewLight(light.LightTypeVPL,
				light.WithCenter(p.X(), p.Y(), p.Z()),
				light.WithRadius(s.vplRadius),
				light.WithDirection(h.normal.X(), h.normal.Y(), h.normal.Z()),
				light.WithColor(c.X(), c.Y(), c.Z()),
				light.WithSourceDirection(dir.Mul(-1)),
			)); err != nil {
				return s.vpls.Len()
			}
		}
	}
	return s.vpls.Len()
}

// basis returns two unit vectors perpendicular to dir and to each other.
func basis(dir mgl32.Vec3) (right, up mgl32.Vec3) {
	ref := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(dir.Y())) > 0.9 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	right = ref.Cross(dir).Normalize()
	up = dir.Cross(right)
	return right, up
}
