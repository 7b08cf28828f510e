package light

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxNumLights is the capacity of each random light pool.
const MaxNumLights = 2048

// DefaultSeed seeds the random light generator so that runs are repeatable.
const DefaultSeed = 1

// SpotConeCosine is the cosine of the half-angle of the largest-volume cone
// that fits in a sphere when the cone's apex is on the sphere: atan(sqrt(2)/2).
const SpotConeCosine float32 = 0.816496580927726

// SpotFalloffScale is the height of that cone relative to the sphere radius.
const SpotFalloffScale float32 = 1.333333333333

// randomRadiusScale scales the scene half-extent to the radius of a random light.
const randomRadiusScale = 0.075

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// HalfExtent returns half the box diagonal as a vector.
func (b Bounds) HalfExtent() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// RandomLightRadius returns the culling radius used for random lights in a
// scene with these bounds.
func (b Bounds) RandomLightRadius() float32 {
	return randomRadiusScale * b.HalfExtent().Len()
}

// generator produces the random light attributes. The color and direction
// generators alternate between two distributions on every call.
type generator struct {
	rng          *rand.Rand
	colorCounter uint
	dirCounter   uint
}

func newGenerator(seed int64) *generator {
	return &generator{rng: rand.New(rand.NewSource(seed))}
}

// float returns a value in [lo, hi).
func (g *generator) float(lo, hi float32) float32 {
	v := float32(g.rng.Float64())*(hi-lo) + lo
	if v >= hi {
		v = lo
	}
	return v
}

func (g *generator) position(b Bounds) mgl32.Vec3 {
	return mgl32.Vec3{
		g.float(b.Min.X(), b.Max.X()),
		g.float(b.Min.Y(), b.Max.Y()),
		g.float(b.Min.Z(), b.Max.Z()),
	}
}

// color alternates between a green-floored and a red-floored distribution to
// avoid overly dim lights, then quantizes to 8 bits.
func (g *generator) color() (r, gr, b uint8) {
	g.colorCounter++
	var c mgl32.Vec3
	if g.colorCounter%2 == 0 {
		c = mgl32.Vec3{g.float(0, 1), g.float(0.27, 1), g.float(0, 1)}
	} else {
		c = mgl32.Vec3{g.float(0.9, 1), g.float(0, 1), g.float(0, 1)}
	}
	return quantize(c[0]), quantize(c[1]), quantize(c[2])
}

// direction returns a normalized direction whose y component alternates
// between pointing up and down, never closer than 0.1 to horizontal before
// normalization.
func (g *generator) direction() mgl32.Vec3 {
	g.dirCounter++
	d := mgl32.Vec3{g.float(-1, 1), g.float(0.1, 1), g.float(-1, 1)}
	if g.dirCounter%2 == 0 {
		d[1] = -d[1]
	}
	return d.Normalize()
}

// GenerateRandomPools fills a point pool and a spot pool with MaxNumLights
// lights each, uniformly distributed in the bounds. The same seed always
// yields the same lights.
//
// Parameters:
//   - bounds: the scene bounding box
//   - seed: the random seed
//
// Returns:
//   - points: the random point lights
//   - spots: the random spot lights
func GenerateRandomPools(bounds Bounds, seed int64) (points, spots *Pool) {
	g := newGenerator(seed)
	radius := bounds.RandomLightRadius()
	falloff := SpotFalloffScale * radius

	points = NewPool(LightTypePoint, MaxNumLights)
	for range MaxNumLights {
		p := g.position(bounds)
		r, gr, b := g.color()
		_ = points.Add(NewLight(LightTypePoint,
			WithCenter(p.X(), p.Y(), p.Z()),
			WithRadius(radius),
			WithColor8(r, gr, b),
		))
	}

	spots = NewPool(LightTypeSpot, MaxNumLights)
	for range MaxNumLights {
		p := g.position(bounds)
		r, gr, b := g.color()
		d := g.direction()
		_ = spots.Add(NewLight(LightTypeSpot,
			WithCenter(p.X(), p.Y(), p.Z()),
			WithRadius(radius),
			WithColor8(r, gr, b),
			WithDirection(d.X(), d.Y(), d.Z()),
			WithSpotCone(SpotConeCosine, falloff),
		))
	}
	return points, spots
}
