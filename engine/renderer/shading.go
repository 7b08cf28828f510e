package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// VPLBackFaceContribution scales how much light a VPL adds to surfaces facing
// away from the light that spawned it. 1 keeps all of it, small values
// remove most of it.
const VPLBackFaceContribution float32 = 0.5

// specularPower is the Blinn-Phong exponent of the reduced shading model.
const specularPower = 8

// Falloff is the fake inverse-square attenuation used by point and spot
// lights. It is 1 at the light and reaches 0 at the falloff radius.
//
// Parameters:
//   - x: distance divided by the falloff radius, in [0, 1]
//
// Returns:
//   - float32: the attenuation
func Falloff(x float32) float32 {
	return -0.05 + 1.05/(1+20*x*x)
}

// SpotAttenuation is the radial cone attenuation of a spot light: 0 at the
// cone edge and 1 on the axis, squared.
//
// Parameters:
//   - cosAngle: cosine of the angle between the axis and the shaded point
//   - cosCone: cosine of the cone half-angle
//
// Returns:
//   - float32: the attenuation, 0 outside the cone
func SpotAttenuation(cosAngle, cosCone float32) float32 {
	if cosAngle <= cosCone || cosCone >= 1 {
		return 0
	}
	a := (cosAngle - cosCone) / (1 - cosCone)
	return a * a
}

// SpotApex returns the position of a spot light's cone apex. The culling
// sphere is centered radius units from the apex along the light direction.
//
// Parameters:
//   - centerAndRadius: the culling sphere
//   - dir: the normalized light direction
//
// Returns:
//   - mgl32.Vec3: the apex
func SpotApex(centerAndRadius mgl32.Vec4, dir mgl32.Vec3) mgl32.Vec3 {
	return centerAndRadius.Vec3().Sub(dir.Mul(centerAndRadius.W()))
}

// VPLFalloff is the smooth falloff used by virtual point lights,
// smoothstep(1, 0, x).
//
// Parameters:
//   - x: distance divided by the VPL radius, in [0, 1]
//
// Returns:
//   - float32: the attenuation
func VPLFalloff(x float32) float32 {
	t := saturate(1 - x)
	return t * t * (3 - 2*t)
}

func saturate(v float32) float32 {
	return min(max(v, 0), 1)
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 0 {
		return v.Mul(1 / l)
	}
	return v
}

func specular(toLight, toEye, n mgl32.Vec3) float32 {
	h := normalize(toEye.Add(toLight))
	return float32(math.Pow(float64(saturate(h.Dot(n))), specularPower))
}

// lightSet is the light data one shading stage reads.
type lightSet struct {
	points *light.Pool
	spots  *light.Pool
	vpls   *light.Pool
}

// surfacePoint is the geometry of one shaded point in world space.
type surfacePoint struct {
	pos    mgl32.Vec3
	normal mgl32.Vec3
	toEye  mgl32.Vec3
}

// point returns the diffuse plus specular contribution of point light i.
func (s *lightSet) point(i uint16, sp *surfacePoint) mgl32.Vec3 {
	cr := s.points.CenterAndRadius()[i]
	toLight := cr.Vec3().Sub(sp.pos)
	dist := toLight.Len()
	if dist >= cr.W() || dist == 0 {
		return mgl32.Vec3{}
	}
	toLight = toLight.Mul(1 / dist)

	falloff := Falloff(dist / cr.W())
	k := (saturate(toLight.Dot(sp.normal)) + specular(toLight, sp.toEye, sp.normal)) * falloff
	return s.points.Color(int(i)).Mul(k)
}

// spot returns the diffuse plus specular contribution of spot light i.
func (s *lightSet) spot(i uint16, sp *surfacePoint) mgl32.Vec3 {
	cr := s.spots.CenterAndRadius()[i]
	dir, cosCone, falloffRadius := s.spots.SpotParams()[i].Unpack()
	apex := SpotApex(cr, dir)

	toLight := apex.Sub(sp.pos)
	dist := toLight.Len()
	if dist >= falloffRadius || dist == 0 {
		return mgl32.Vec3{}
	}
	toLight = toLight.Mul(1 / dist)

	radial := SpotAttenuation(toLight.Mul(-1).Dot(dir), cosCone)
	if radial == 0 {
		return mgl32.Vec3{}
	}
	falloff := Falloff(dist/falloffRadius) * radial
	k := (saturate(toLight.Dot(sp.normal)) + specular(toLight, sp.toEye, sp.normal)) * falloff
	return s.spots.Color(int(i)).Mul(k)
}

// vpl returns the diffuse contribution of VPL i. Light only leaves a VPL on
// the side its surface normal faces, and surfaces facing away from the
// spawning light keep VPLBackFaceContribution of it.
func (s *lightSet) vpl(i uint16, sp *surfacePoint) mgl32.Vec3 {
	cr := s.vpls.CenterAndRadius()[i]
	data := s.vpls.VPLData()[i]

	toLight := cr.Vec3().Sub(sp.pos)
	dist := toLight.Len()
	if dist >= cr.W() || dist == 0 {
		return mgl32.Vec3{}
	}
	toLight = toLight.Mul(1 / dist)

	emit := max(0, data.Direction.Vec3().Dot(toLight.Mul(-1)))
	if emit <= 0 {
		return mgl32.Vec3{}
	}

	sourceNdotL := data.SourceLightDirection.Vec3().Dot(sp.normal)
	if sourceNdotL < 0 {
		sourceNdotL = saturate(1 + sourceNdotL/VPLBackFaceContribution)
	} else {
		sourceNdotL = 1
	}

	k := saturate(toLight.Dot(sp.normal)) * VPLFalloff(dist/cr.W()) * emit * sourceNdotL
	return data.Color.Vec3().Mul(k)
}

// shade accumulates every listed light at one surface point.
func (s *lightSet) shade(sp *surfacePoint, points, spots, vpls []uint16) mgl32.Vec3 {
	var c mgl32.Vec3
	for _, i := range points {
		c = c.Add(s.point(i, sp))
	}
	for _, i := range spots {
		c = c.Add(s.spot(i, sp))
	}
	if s.vpls != nil {
		for _, i := range vpls {
			c = c.Add(s.vpl(i, sp))
		}
	}
	return c
}
