package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithCenter is an option builder that sets the world-space center of the
// light's culling sphere.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the center option to a lightImpl
func WithCenter(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.center = mgl32.Vec3{x, y, z}
	}
}

// WithRadius is an option builder that sets the culling sphere radius.
//
// Parameters:
//   - radius: the bounding radius
//
// Returns:
//   - LightBuilderOption: a function that applies the radius option to a lightImpl
func WithRadius(radius float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.radius = radius
	}
}

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = normalize3(mgl32.Vec3{x, y, z})
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithColor8 is an option builder that sets the color from 8-bit channels,
// the precision the culling buffers store.
//
// Parameters:
//   - r: the red channel
//   - g: the green channel
//   - b: the blue channel
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor8(r, g, b uint8) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{float32(r) / 255, float32(g) / 255, float32(b) / 255}
	}
}

// WithSpotCone is an option builder that sets the cosine of the spot cone
// half-angle and the falloff distance.
//
// Parameters:
//   - cosCone: cosine of the cone half-angle, must be positive
//   - falloffRadius: distance at which the light reaches zero
//
// Returns:
//   - LightBuilderOption: a function that applies the cone option to a lightImpl
func WithSpotCone(cosCone, falloffRadius float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.cosCone = cosCone
		l.falloffRadius = falloffRadius
	}
}

// WithSourceDirection is an option builder that sets the direction from a VPL
// back towards the light that spawned it.
//
// Parameters:
//   - dir: the source direction (will be normalized)
//
// Returns:
//   - LightBuilderOption: a function that applies the source direction to a lightImpl
func WithSourceDirection(dir mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.sourceDirection = normalize3(dir)
	}
}

// WithCastsShadows is an option builder that marks the light as part of the
// authored shadow-casting set.
//
// Parameters:
//   - castsShadows: true to enable shadow casting
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow casting option to a lightImpl
func WithCastsShadows(castsShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castsShadows = castsShadows
	}
}

// normalize3 normalizes a vector. Returns a zero vector if the input has zero length.
func normalize3(v mgl32.Vec3) mgl32.Vec3 {
	if v.LenSqr() == 0 {
		return mgl32.Vec3{}
	}
	return v.Normalize()
}
