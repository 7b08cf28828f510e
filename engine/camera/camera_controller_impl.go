package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// cameraControllerImpl is the single implementation of CameraController.
// Orbit methods modify spherical coordinates and recompute position; planar
// methods translate both position and target along local camera axes,
// preserving the orbit relationship.
type cameraControllerImpl struct {
	mu *sync.Mutex

	// Camera position (computed from target + spherical coords)
	position mgl32.Vec3
	target   mgl32.Vec3

	// Spherical coordinates (offset from target)
	radius    float32
	azimuth   float32 // Horizontal angle around Y axis
	elevation float32 // Vertical angle from horizontal plane

	// Orbit constraints
	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
	panSpeed   float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new camera controller with sensible defaults.
// The returned controller supports both orbit and planar controls simultaneously.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu: &sync.Mutex{},

		radius:    250.0,
		azimuth:   0.0,
		elevation: float32(math.Pi / 6),

		minRadius:    1.0,
		maxRadius:    100000.0,
		minElevation: -float32(math.Pi/2 - 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed: 0.03,
		zoomSpeed:  15.0,
		panSpeed:   1.0,
	}

	for _, option := range options {
		option(cc)
	}

	cc.clamp()
	cc.updatePosition()
	return cc
}

// NewSceneController frames a scene bounding box the way the demo's default
// view does: the eye sits on the -X side of the center, lowered by a third of
// the box height, looking along +X.
//
// Parameters:
//   - min, max: the scene bounding box
//   - options: further options applied after framing
//
// Returns:
//   - CameraController: the framed controller
func NewSceneController(min, max mgl32.Vec3, options ...CameraControllerOption) CameraController {
	center := min.Add(max).Mul(0.5)
	ext := max.Sub(min).Mul(0.5)
	target := center.Sub(mgl32.Vec3{0, 0.35 * ext.Y(), 0})
	eye := center.Sub(mgl32.Vec3{0.45 * ext.X(), 0.35 * ext.Y(), 0})

	opts := append([]CameraControllerOption{WithTarget(target), WithEye(eye)}, options...)
	return NewCameraController(opts...)
}

// --- internal helpers ---

// updatePosition recomputes the camera position from spherical coordinates.
// Azimuth 0 places the eye on the -Z side of the target so that the view
// looks along +Z. Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position = cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		-cc.radius * cosElev * cosAzim,
	})
}

// setSpherical derives radius, azimuth and elevation from an eye offset
// relative to the target. Caller must hold the mutex.
func (cc *cameraControllerImpl) setSpherical(offset mgl32.Vec3) {
	r := offset.Len()
	if r < 1e-6 {
		return
	}
	cc.radius = r
	cc.elevation = float32(math.Asin(float64(offset.Y() / r)))
	cc.azimuth = float32(math.Atan2(float64(offset.X()), float64(-offset.Z())))
}

func (cc *cameraControllerImpl) clamp() {
	cc.radius = mgl32.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = mgl32.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
}

// localAxes computes the camera's left-handed local axes, consistent with
// LookAtLH. If position and target coincide, all returned vectors are zero.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) localAxes() (right, up, forward mgl32.Vec3) {
	f := cc.target.Sub(cc.position)
	if f.Len() < 1e-8 {
		return
	}
	forward = f.Normalize()

	// right = normalize(cross(worldUp, forward)) with worldUp = (0, 1, 0)
	r := mgl32.Vec3{forward.Z(), 0, -forward.X()}
	if r.Len() < 1e-8 {
		return mgl32.Vec3{}, mgl32.Vec3{}, forward
	}
	right = r.Normalize()
	up = forward.Cross(right)
	return right, up, forward
}

// --- CameraController shared methods ---

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *cameraControllerImpl) LookAt(eye, target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.setSpherical(eye.Sub(target))
	cc.clamp()
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius -= delta * cc.zoomSpeed
	cc.clamp()
	cc.updatePosition()
}

// --- orbitCameraController implementation ---

func (cc *cameraControllerImpl) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation += dElevation
	cc.clamp()
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.Orbit(-cc.OrbitSpeed(), 0)
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.Orbit(cc.OrbitSpeed(), 0)
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = radius
	cc.clamp()
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *cameraControllerImpl) OrbitSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.orbitSpeed
}

// --- planarCameraController implementation ---

func (cc *cameraControllerImpl) PanRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	right, _, _ := cc.localAxes()
	offset := right.Mul(delta * cc.panSpeed)
	cc.target = cc.target.Add(offset)
	cc.position = cc.position.Add(offset)
}

func (cc *cameraControllerImpl) PanForward(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, _, forward := cc.localAxes()
	offset := forward.Mul(delta * cc.panSpeed)
	cc.target = cc.target.Add(offset)
	cc.position = cc.position.Add(offset)
}
