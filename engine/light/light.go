package light

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypePoint represents a light that emits in all directions from its
	// center. The culling sphere and the falloff distance are the same.
	LightTypePoint LightType = iota

	// LightTypeSpot represents a light that emits in a cone along a direction.
	// The culling sphere encloses the cone: its center sits one radius along
	// the direction from the cone apex.
	LightTypeSpot

	// LightTypeVPL represents a virtual point light, a one-bounce indirect
	// source scattered on a lit surface. VPLs emit over the hemisphere around
	// their surface normal.
	LightTypeVPL
)

// String returns the lowercase name of the light type.
func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	case LightTypeVPL:
		return "vpl"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType       LightType
	center          mgl32.Vec3
	radius          float32
	color           mgl32.Vec3
	direction       mgl32.Vec3
	cosCone         float32
	falloffRadius   float32
	sourceDirection mgl32.Vec3
	castsShadows    bool
}

// Light defines the interface for a single light record.
//
// A Light is a construction-time value: it is built with options, then copied
// into a Pool which stores it in the flat layout the culling kernel reads.
// Type-specific properties (cone for spots, source direction for VPLs) return
// zero values when not applicable.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (point, spot, or VPL)
	Type() LightType

	// Center returns the world-space center of the light's culling sphere.
	//
	// Returns:
	//   - mgl32.Vec3: the sphere center
	Center() mgl32.Vec3

	// Radius returns the radius of the light's culling sphere.
	//
	// Returns:
	//   - float32: the bounding radius
	Radius() float32

	// CenterAndRadius returns the culling sphere packed as (x, y, z, radius).
	//
	// Returns:
	//   - mgl32.Vec4: center in xyz, radius in w
	CenterAndRadius() mgl32.Vec4

	// Color returns the linear RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Direction returns the normalized cone axis for spots or the surface
	// normal for VPLs. Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: normalized direction
	Direction() mgl32.Vec3

	// CosCone returns the cosine of the spot cone half-angle.
	//
	// Returns:
	//   - float32: cos(cone half-angle), 0 for non-spot lights
	CosCone() float32

	// FalloffRadius returns the distance at which a spot light's contribution
	// reaches zero. For point lights and VPLs this equals Radius.
	//
	// Returns:
	//   - float32: the falloff distance
	FalloffRadius() float32

	// Apex returns the position of the spot cone tip, Center - Radius*Direction.
	// For point lights and VPLs it returns Center.
	//
	// Returns:
	//   - mgl32.Vec3: the emitting position
	Apex() mgl32.Vec3

	// SourceDirection returns the direction from the VPL towards the light
	// that spawned it. Zero for point and spot lights.
	//
	// Returns:
	//   - mgl32.Vec3: normalized source direction
	SourceDirection() mgl32.Vec3

	// CastsShadows returns whether this light belongs to the authored
	// shadow-casting set.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with any provided options
// applied. Spot lights default to the max-volume cone of their sphere.
//
// Parameters:
//   - lightType: the kind of light to create (point, spot, or VPL)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		color:     mgl32.Vec3{1, 1, 1},
		direction: mgl32.Vec3{0, -1, 0},
	}
	if lightType == LightTypeSpot {
		l.cosCone = SpotConeCosine
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.falloffRadius == 0 {
		l.falloffRadius = l.radius
		if lightType == LightTypeSpot {
			l.falloffRadius = l.radius * SpotFalloffScale
		}
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Center() mgl32.Vec3 {
	return l.center
}

func (l *lightImpl) Radius() float32 {
	return l.radius
}

func (l *lightImpl) CenterAndRadius() mgl32.Vec4 {
	return l.center.Vec4(l.radius)
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *lightImpl) CosCone() float32 {
	if l.lightType != LightTypeSpot {
		return 0
	}
	return l.cosCone
}

func (l *lightImpl) FalloffRadius() float32 {
	return l.falloffRadius
}

func (l *lightImpl) Apex() mgl32.Vec3 {
	if l.lightType != LightTypeSpot {
		return l.center
	}
	return l.center.Sub(l.direction.Mul(l.radius))
}

func (l *lightImpl) SourceDirection() mgl32.Vec3 {
	if l.lightType != LightTypeVPL {
		return mgl32.Vec3{}
	}
	return l.sourceDirection
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}
