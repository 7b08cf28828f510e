package light

import "github.com/go-gl/mathgl/mgl32"

// MaxNumShadowCastingPoints is the number of authored shadow-casting point lights.
const MaxNumShadowCastingPoints = 12

// MaxNumShadowCastingSpots is the number of authored shadow-casting spot lights.
const MaxNumShadowCastingSpots = 12

// shadowFalloffScale relates a shadow-casting spot's radius to its falloff.
const shadowFalloffScale float32 = 1.33333333

type authoredPoint struct {
	center  mgl32.Vec3
	radius  float32
	r, g, b uint8
}

type authoredSpot struct {
	eye     mgl32.Vec3
	radius  float32
	lookAt  mgl32.Vec3
	r, g, b uint8
}

var shadowCastingPoints = [MaxNumShadowCastingPoints]authoredPoint{
	// hanging lamps
	{mgl32.Vec3{-620, 136, 218}, 450, 200, 100, 0},
	{mgl32.Vec3{-620, 136, -140}, 450, 200, 100, 0},
	{mgl32.Vec3{490, 136, 218}, 450, 200, 100, 0},
	{mgl32.Vec3{490, 136, -140}, 450, 200, 100, 0},
	// corners
	{mgl32.Vec3{-1280, 120, -300}, 500, 120, 60, 60},
	{mgl32.Vec3{-1280, 200, 430}, 600, 50, 50, 128},
	{mgl32.Vec3{1030, 200, 545}, 500, 255, 128, 0},
	{mgl32.Vec3{1180, 220, -390}, 500, 100, 100, 255},
	// midpoints
	{mgl32.Vec3{-65, 100, 220}, 500, 200, 200, 200},
	{mgl32.Vec3{-65, 100, -140}, 500, 200, 200, 200},
	// high gallery
	{mgl32.Vec3{600, 660, -30}, 800, 100, 100, 100},
	{mgl32.Vec3{-700, 660, 80}, 800, 100, 100, 100},
}

var shadowCastingSpots = [MaxNumShadowCastingSpots]authoredSpot{
	// curtain
	{mgl32.Vec3{-772, 254, -503}, 800, mgl32.Vec3{-814, 180, -250}, 255, 255, 255},
	// lions
	{mgl32.Vec3{1130, 378, 40}, 500, mgl32.Vec3{1150, 290, 40}, 200, 200, 100},
	{mgl32.Vec3{-1260, 378, 40}, 500, mgl32.Vec3{-1280, 290, 40}, 200, 200, 100},
	// gallery
	{mgl32.Vec3{-115, 660, -100}, 800, mgl32.Vec3{-115, 630, 0}, 200, 200, 200},
	{mgl32.Vec3{-115, 660, 100}, 800, mgl32.Vec3{-115, 630, -100}, 200, 200, 200},
	{mgl32.Vec3{-770, 660, -100}, 800, mgl32.Vec3{-770, 630, 0}, 200, 200, 200},
	{mgl32.Vec3{-770, 660, 100}, 800, mgl32.Vec3{-770, 630, -100}, 200, 200, 200},
	{mgl32.Vec3{500, 660, -100}, 800, mgl32.Vec3{500, 630, 0}, 200, 200, 200},
	{mgl32.Vec3{500, 660, 100}, 800, mgl32.Vec3{500, 630, -100}, 200, 200, 200},
	// red corner
	{mgl32.Vec3{-1240, 90, -70}, 700, mgl32.Vec3{-1240, 140, -405}, 200, 0, 0},
	{mgl32.Vec3{-1000, 90, -260}, 700, mgl32.Vec3{-1240, 140, -405}, 200, 0, 0},
	// green corner
	{mgl32.Vec3{-900, 60, 340}, 700, mgl32.Vec3{-1360, 255, 555}, 100, 200, 100},
}

// NewShadowSpot builds a shadow-casting spot light from its eye position,
// radius and look-at target. The culling sphere is centered one radius along
// the view direction so that the cone apex sits on the sphere.
//
// Parameters:
//   - eye: the cone apex
//   - radius: the culling sphere radius
//   - lookAt: the point the spot is aimed at
//   - r, g, b: the 8-bit color
//
// Returns:
//   - Light: the spot light
func NewShadowSpot(eye mgl32.Vec3, radius float32, lookAt mgl32.Vec3, r, g, b uint8) Light {
	dir := normalize3(lookAt.Sub(eye))
	center := eye.Add(dir.Mul(radius))
	return NewLight(LightTypeSpot,
		WithCenter(center.X(), center.Y(), center.Z()),
		WithRadius(radius),
		WithDirection(dir.X(), dir.Y(), dir.Z()),
		WithColor8(r, g, b),
		WithSpotCone(SpotConeCosine, radius*shadowFalloffScale),
		WithCastsShadows(true),
	)
}

// NewShadowCastingPools builds the authored shadow-casting point and spot pools.
//
// Returns:
//   - points: 12 point lights
//   - spots: 12 spot lights
func NewShadowCastingPools() (points, spots *Pool) {
	points = NewPool(LightTypePoint, MaxNumShadowCastingPoints)
	for _, a := range shadowCastingPoints {
		_ = points.Add(NewLight(LightTypePoint,
			WithCenter(a.center.X(), a.center.Y(), a.center.Z()),
			WithRadius(a.radius),
			WithColor8(a.r, a.g, a.b),
			WithCastsShadows(true),
		))
	}

	spots = NewPool(LightTypeSpot, MaxNumShadowCastingSpots)
	for _, a := range shadowCastingSpots {
		_ = spots.Add(NewShadowSpot(a.eye, a.radius, a.lookAt, a.r, a.g, a.b))
	}
	return points, spots
}

// FirstShadowSpot returns the apex and direction of the first authored
// shadow-casting spot. Indirect lighting scatters VPLs from it.
//
// Returns:
//   - eye: the spot apex
//   - dir: the normalized spot direction
//   - color: the spot color
func FirstShadowSpot() (eye, dir, color mgl32.Vec3) {
	a := shadowCastingSpots[0]
	return a.eye, normalize3(a.lookAt.Sub(a.eye)), mgl32.Vec3{float32(a.r) / 255, float32(a.g) / 255, float32(a.b) / 255}
}
