package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: n·p + d = 0
// where n is the unit normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// PlaneThroughOrigin builds the plane through the origin and the two points
// b and c. The normal is normalize(cross(b, c)), so under the left-hand rule
// the positive half-space lies on the side the winding b→c turns away from.
//
// Parameters:
//   - b: first point on the plane
//   - c: second point on the plane
//
// Returns:
//   - Plane: the plane with Distance 0
func PlaneThroughOrigin(b, c mgl32.Vec3) Plane {
	n := b.Cross(c)
	if n.LenSqr() > 0 {
		n = n.Normalize()
	}
	return Plane{Normal: n}
}

// SignedDistance returns the signed distance of p from the plane.
//
// Parameters:
//   - p: the point to test
//
// Returns:
//   - float32: positive on the side the normal points to
func (p Plane) SignedDistance(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.Distance
}

// Frustum represents the six planes of a camera view frustum.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts the six frustum planes from a view-projection
// matrix built with PerspectiveReversedZ (clip z in [0, w], near at z = w).
// Uses the Gribb/Hartmann row combination method.
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Rows()

	rows := [6]mgl32.Vec4{
		FrustumLeft:   r3.Add(r0),
		FrustumRight:  r3.Sub(r0),
		FrustumBottom: r3.Add(r1),
		FrustumTop:    r3.Sub(r1),
		FrustumNear:   r3.Sub(r2), // reversed depth: z <= w
		FrustumFar:    r2,         // reversed depth: z >= 0
	}

	var f Frustum
	for i, r := range rows {
		n := r.Vec3()
		l := n.Len()
		if l > 0 {
			f.Planes[i] = Plane{Normal: n.Mul(1 / l), Distance: r.W() / l}
		}
	}
	return f
}

// IntersectsSphere reports whether a sphere overlaps the frustum volume.
//
// Parameters:
//   - center: sphere center in the same space as the planes
//   - radius: sphere radius
//
// Returns:
//   - bool: false only if the sphere is entirely outside one plane
func (f Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}
