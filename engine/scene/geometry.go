package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// MaxNumGridObjects is the number of panels in the occluder grid.
const MaxNumGridObjects = 280

// Occluder grid layout: 10 rows of 28 square panels standing in the plane
// x = gridPlaneX, facing the default camera.
const (
	gridPanelSize  float32 = 100
	gridThickness  float32 = 2
	gridPlaneX     float32 = 725
	gridTopY       float32 = 1000
	gridFirstZ     float32 = 1467
	gridStep       float32 = 1.05 * gridPanelSize
	gridRowLength          = 28
	gridRows               = MaxNumGridObjects / gridRowLength
	gridParallelEps        = 0.05
)

// NumBlendedObjects is the number of transparent cubes.
const NumBlendedObjects = 40

const (
	blendedHalfSize  float32 = 30
	blendedRowLength         = 10
)

// DefaultBounds is the room the analytic scene is built in. The authored
// shadow-casting lights are placed for this room.
var DefaultBounds = light.Bounds{
	Min: mgl32.Vec3{-1400, 0, -620},
	Max: mgl32.Vec3{1300, 1100, 620},
}

// Box is an axis-aligned box.
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the middle of the box.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// ray is a half-line with a precomputed reciprocal direction for slab tests.
type ray struct {
	origin mgl32.Vec3
	dir    mgl32.Vec3
	invDir mgl32.Vec3
}

func newRay(origin, dir mgl32.Vec3) ray {
	r := ray{origin: origin, dir: dir}
	for i := range 3 {
		if dir[i] != 0 {
			r.invDir[i] = 1 / dir[i]
		} else {
			r.invDir[i] = float32(math.Inf(1))
		}
	}
	return r
}

func (r ray) at(t float32) mgl32.Vec3 {
	return r.origin.Add(r.dir.Mul(t))
}

// hit is the nearest surface along a ray. A zero t means no surface.
type hit struct {
	t      float32
	normal mgl32.Vec3
}

func (h hit) ok() bool { return h.t > 0 }

// closer keeps the nearer of two hits.
func (h hit) closer(o hit) hit {
	if o.ok() && (!h.ok() || o.t < h.t) {
		return o
	}
	return h
}

// slabs returns the entry and exit distances of a ray through a box and the
// axes they happen on. The box is missed when tNear > tFar.
func (b Box) slabs(r ray) (tNear, tFar float32, nearAxis, farAxis int) {
	tNear, tFar = -common.FltMax, common.FltMax
	for i := range 3 {
		t0 := (b.Min[i] - r.origin[i]) * r.invDir[i]
		t1 := (b.Max[i] - r.origin[i]) * r.invDir[i]
		if r.invDir[i] < 0 {
			t0, t1 = t1, t0
		}
		// A ray parallel to a slab and outside it yields NaN or an empty range.
		if t0 != t0 || t1 != t1 {
			if r.origin[i] < b.Min[i] || r.origin[i] > b.Max[i] {
				return 1, 0, 0, 0
			}
			continue
		}
		if t0 > tNear {
			tNear, nearAxis = t0, i
		}
		if t1 < tFar {
			tFar, farAxis = t1, i
		}
	}
	return tNear, tFar, nearAxis, farAxis
}

// axisNormal is the unit normal on an axis facing against the ray.
func axisNormal(axis int, dir mgl32.Vec3) mgl32.Vec3 {
	var n mgl32.Vec3
	if dir[axis] > 0 {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return n
}

// intersect returns the front-face hit of a ray on the outside of the box.
func (b Box) intersect(r ray) hit {
	tNear, tFar, axis, _ := b.slabs(r)
	if tNear > tFar || tNear <= 0 {
		return hit{}
	}
	return hit{t: tNear, normal: axisNormal(axis, r.dir)}
}

// intersectInside returns the hit on the inner walls of the box. The top face
// is open, so rays leaving through it see the sky.
func (b Box) intersectInside(r ray) hit {
	tNear, tFar, _, axis := b.slabs(r)
	if tNear > tFar || tFar <= 0 {
		return hit{}
	}
	if axis == 1 && r.dir.Y() > 0 {
		return hit{}
	}
	return hit{t: tFar, normal: axisNormal(axis, r.dir)}
}

// gridPanel returns the box of grid panel i.
func gridPanel(i int) Box {
	row := (i / gridRowLength) % gridRows
	col := i % gridRowLength
	y := gridTopY - float32(row)*gridStep
	z := gridFirstZ - float32(col)*gridStep
	h := gridPanelSize / 2
	return Box{
		Min: mgl32.Vec3{gridPlaneX - gridThickness/2, y - h, z - h},
		Max: mgl32.Vec3{gridPlaneX + gridThickness/2, y + h, z + h},
	}
}

// blendedCube returns the box of transparent cube i. Half the cubes sit on
// a low shelf and half on a high one.
func blendedCube(i int) Box {
	col := i % blendedRowLength
	row := (i % (NumBlendedObjects / 2)) / blendedRowLength
	c := mgl32.Vec3{float32(col)*200 - 800, 80, float32(row)*200 - 80}
	if i >= NumBlendedObjects/2 {
		c[1] = 220
	}
	e := mgl32.Vec3{blendedHalfSize, blendedHalfSize, blendedHalfSize}
	return Box{Min: c.Sub(e), Max: c.Add(e)}
}

// geometry is the static content of the scene.
type geometry struct {
	room    Box
	grid    []Box
	blended []Box
}

func newGeometry(bounds light.Bounds, numGrid int) *geometry {
	g := &geometry{
		room:    Box{Min: bounds.Min, Max: bounds.Max},
		grid:    make([]Box, min(max(numGrid, 0), MaxNumGridObjects)),
		blended: make([]Box, NumBlendedObjects),
	}
	for i := range g.grid {
		g.grid[i] = gridPanel(i)
	}
	for i := range g.blended {
		g.blended[i] = blendedCube(i)
	}
	return g
}

// traceGrid finds the nearest grid panel. Panels are laid out on a regular
// lattice, so only the cells around the ray's crossing of the grid plane are
// tested unless the ray runs almost parallel to it.
func (g *geometry) traceGrid(r ray) hit {
	var best hit
	if len(g.grid) == 0 {
		return best
	}
	if math.Abs(float64(r.dir.X())) < gridParallelEps {
		for _, b := range g.grid {
			best = best.closer(b.intersect(r))
		}
		return best
	}

	t := (gridPlaneX - r.origin.X()) * r.invDir.X()
	if t <= 0 {
		return best
	}
	p := r.at(t)
	row := int(math.Round(float64((gridTopY - p.Y()) / gridStep)))
	col := int(math.Round(float64((gridFirstZ - p.Z()) / gridStep)))
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			rr, cc := row+dr, col+dc
			if rr < 0 || rr >= gridRows || cc < 0 || cc >= gridRowLength {
				continue
			}
			if i := rr*gridRowLength + cc; i < len(g.grid) {
				best = best.closer(g.grid[i].intersect(r))
			}
		}
	}
	return best
}

// traceOpaque returns the nearest opaque surface: the room walls, the floor
// or a grid panel.
func (g *geometry) traceOpaque(r ray) hit {
	return g.room.intersectInside(r).closer(g.traceGrid(r))
}

// traceBlended returns the nearest transparent cube.
func (g *geometry) traceBlended(r ray) hit {
	var best hit
	for _, b := range g.blended {
		best = best.closer(b.intersect(r))
	}
	return best
}
