package tiling

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// TileBounds is everything a lane needs to classify a light against one tile:
// the four side planes and the tile's depth range split at halfZ.
type TileBounds struct {
	Planes [4]common.Plane
	MinZ   float32
	HalfZ  float32
	MaxZ   float32
}

// SetDepth stores the reduced depth range.
func (b *TileBounds) SetDepth(minZ, maxZ, halfZ float32) {
	b.MinZ, b.MaxZ, b.HalfZ = minZ, maxZ, halfZ
}

// Classify tests a view-space sphere against the tile. The sphere must be
// inside or intersecting all four side planes. It belongs to list A when it
// overlaps [MinZ, HalfZ] and to list B when it overlaps [HalfZ, MaxZ]; it
// may belong to both.
//
// Parameters:
//   - center: sphere center in view space
//   - r: sphere radius
//
// Returns:
//   - inA: the sphere overlaps the near half
//   - inB: the sphere overlaps the far half
func (b *TileBounds) Classify(center mgl32.Vec3, r float32) (inA, inB bool) {
	for i := range b.Planes {
		if b.Planes[i].SignedDistance(center) >= r {
			return false, false
		}
	}
	z := center.Z()
	inA = -z+b.MinZ < r && z-b.HalfZ < r
	inB = -z+b.HalfZ < r && z-b.MaxZ < r
	return inA, inB
}

// sharedList is a group-shared two-list index array. List A fills slots
// [0, capacity) and list B fills [capacity, 2*capacity), each driven by its
// own atomic counter. A light whose slot would fall outside its list is
// dropped and counted as overflow.
type sharedList struct {
	capacity uint32
	counterA atomic.Uint32
	counterB atomic.Uint32
	overflow atomic.Uint32
	indices  []uint16
}

func newSharedList(capacity int) *sharedList {
	return &sharedList{
		capacity: uint32(capacity),
		indices:  make([]uint16, 2*capacity),
	}
}

func (l *sharedList) reset() {
	l.counterA.Store(0)
	l.counterB.Store(l.capacity)
	l.overflow.Store(0)
}

func (l *sharedList) appendA(index uint16) {
	slot := l.counterA.Add(1) - 1
	if slot >= l.capacity {
		l.overflow.Add(1)
		return
	}
	l.indices[slot] = index
}

func (l *sharedList) appendB(index uint16) {
	slot := l.counterB.Add(1) - 1
	if slot >= 2*l.capacity {
		l.overflow.Add(1)
		return
	}
	l.indices[slot] = index
}

func (l *sharedList) countA() int {
	return int(min(l.counterA.Load(), l.capacity))
}

func (l *sharedList) countB() int {
	return int(min(l.counterB.Load()-l.capacity, l.capacity))
}

func (l *sharedList) listA() []uint16 {
	return l.indices[:l.countA()]
}

func (l *sharedList) listB() []uint16 {
	return l.indices[l.capacity : int(l.capacity)+l.countB()]
}

// classifyLights is the single culling loop shared by point lights, spot
// lights and VPLs. Each lane strides over the light array by the group size
// and appends passing indices to the group's lists.
func classifyLights(lane int, spheres []mgl32.Vec4, view mgl32.Mat4, bounds *TileBounds, out *sharedList) {
	for i := lane; i < len(spheres); i += light.NumThreadsPerTile {
		s := spheres[i]
		inA, inB := bounds.Classify(common.TransformPoint(view, s.Vec3()), s.W())
		if inA {
			out.appendA(uint16(i))
		}
		if inB {
			out.appendB(uint16(i))
		}
	}
}
