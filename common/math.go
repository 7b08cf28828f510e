package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// FltMax is the largest finite float32. Tile depth reductions start their
// minimum at this value so that an untouched tile keeps an empty range.
const FltMax float32 = math.MaxFloat32

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// LookAtLH builds a left-handed view matrix. View space has +X right, +Y up
// and +Z pointing from the eye towards the target. The matrix is column-major.
//
// Parameters:
//   - eye: camera position in world space
//   - target: point the camera looks at
//   - up: approximate up direction (typically 0,1,0)
//
// Returns:
//   - mgl32.Mat4: the world-to-view transform
func LookAtLH(eye, target, up mgl32.Vec3) mgl32.Mat4 {
	z := target.Sub(eye)
	if z.LenSqr() == 0 {
		z = mgl32.Vec3{0, 0, 1}
	}
	z = z.Normalize()

	x := up.Cross(z)
	if x.LenSqr() == 0 {
		x = mgl32.Vec3{1, 0, 0}
	}
	x = x.Normalize()
	y := z.Cross(x)

	return mgl32.Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// PerspectiveReversedZ builds a left-handed perspective projection with
// inverted depth: the near plane maps to depth 1 and the far plane to depth 0.
// Depth buffers produced with this projection are cleared to 0, so a stored
// depth of exactly 0 means no geometry was rasterized there.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func PerspectiveReversedZ(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	a := near / (near - far)
	b := near * far / (far - near)

	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = a
	m[11] = 1
	m[14] = b
	return m
}

// InvertProjection inverts a projection matrix, reporting false when the
// matrix is singular.
//
// Parameters:
//   - proj: the projection matrix
//
// Returns:
//   - mgl32.Mat4: the inverse, or the identity when singular
//   - bool: true if the matrix could be inverted
func InvertProjection(proj mgl32.Mat4) (mgl32.Mat4, bool) {
	if proj.Det() == 0 {
		return mgl32.Ident4(), false
	}
	return proj.Inv(), true
}

// ProjDepthToView converts a stored projection-space depth back to a
// view-space Z distance using only the last two entries of the inverse
// projection's w row.
//
// Parameters:
//   - invProj: the inverse projection matrix
//   - depth: the projected depth value
//
// Returns:
//   - float32: the view-space Z of the sample
func ProjDepthToView(invProj mgl32.Mat4, depth float32) float32 {
	return 1.0 / (depth*invProj[11] + invProj[15])
}

// ProjToView unprojects a clip-space point through the inverse projection
// and performs the perspective divide.
//
// Parameters:
//   - invProj: the inverse projection matrix
//   - p: the clip-space point
//
// Returns:
//   - mgl32.Vec3: the view-space position
func ProjToView(invProj mgl32.Mat4, p mgl32.Vec4) mgl32.Vec3 {
	v := invProj.Mul4x1(p)
	return v.Vec3().Mul(1 / v.W())
}

// TransformPoint transforms a position by an affine matrix (w = 1).
//
// Parameters:
//   - m: the transform
//   - p: the point
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}
