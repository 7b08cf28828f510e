package tiling

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// testView is a camera at (0,0,-eyeDist) looking at the origin.
type testView struct {
	capacity light.TileCapacity
	view     mgl32.Mat4
	proj     mgl32.Mat4
	invProj  mgl32.Mat4
	eyeDist  float32
}

const testFovY = 60.0

func newTestView(t *testing.T, w, h int) testView {
	t.Helper()
	const eyeDist = 500
	proj := common.PerspectiveReversedZ(mgl32.DegToRad(testFovY), float32(w)/float32(h), 1, 10000)
	inv, ok := common.InvertProjection(proj)
	if !ok {
		t.Fatal("projection is singular")
	}
	return testView{
		capacity: light.NewTileCapacity(w, h),
		view:     common.LookAtLH(mgl32.Vec3{0, 0, -eyeDist}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		proj:     proj,
		invProj:  inv,
		eyeDist:  eyeDist,
	}
}

// projDepth converts a view-space z to the stored (inverted) depth.
func (v testView) projDepth(viewZ float32) float32 {
	c := v.proj.Mul4x1(mgl32.Vec4{0, 0, viewZ, 1})
	return c.Z() / c.W()
}

// frustumPoint returns the view-space point at depth viewZ on the camera ray
// through screen position (px, py) of the viewport.
func (v testView) frustumPoint(px, py, viewZ float32) mgl32.Vec3 {
	w := float32(v.capacity.Width)
	h := float32(v.capacity.Height)
	near := common.ProjToView(v.invProj, mgl32.Vec4{px/w*2 - 1, (h-py)/h*2 - 1, 1, 1})
	return near.Mul(viewZ / near.Z())
}

// worldFromView maps a view-space point back to world space.
func (v testView) worldFromView(p mgl32.Vec3) mgl32.Vec3 {
	return common.TransformPoint(v.view.Inv(), p)
}

// slopedDepth fills a depth buffer with a surface whose view depth grows with
// x and y, leaving the bottom-right quarter as background.
func (v testView) slopedDepth(samples int) *DepthBuffer {
	c := v.capacity
	d := NewDepthBuffer(c.Width, c.Height, samples)
	for y := range c.Height {
		for x := range c.Width {
			if x >= c.Width*3/4 && y >= c.Height*3/4 {
				continue
			}
			z := v.eyeDist - 100 + float32(x) + 2*float32(y)
			for s := range samples {
				d.Set(x, y, s, v.projDepth(z+float32(s)))
			}
		}
	}
	return d
}

// randomLights scatters spheres in front of the camera.
func randomLights(n int, seed int64) []mgl32.Vec4 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]mgl32.Vec4, n)
	for i := range out {
		out[i] = mgl32.Vec4{
			rng.Float32()*800 - 400,
			rng.Float32()*500 - 250,
			rng.Float32()*900 - 300,
			10 + rng.Float32()*40,
		}
	}
	return out
}

// referenceTile recomputes a tile's bounds sequentially from the depth buffer.
func referenceTile(v testView, depth *DepthBuffer, tx, ty int) TileBounds {
	minZ, maxZ := common.FltMax, float32(0)
	for y := ty * light.TileRes; y < (ty+1)*light.TileRes; y++ {
		for x := tx * light.TileRes; x < (tx+1)*light.TileRes; x++ {
			for s := range depth.Samples {
				d := depth.At(x, y, s)
				if d == 0 {
					continue
				}
				z := common.ProjDepthToView(v.invProj, d)
				minZ = min(minZ, z)
				maxZ = max(maxZ, z)
			}
		}
	}
	b := TileBounds{Planes: BuildTileFrustum(tx, ty, v.capacity.Width, v.capacity.Height, v.invProj)}
	b.SetDepth(minZ, maxZ, (minZ+maxZ)/2)
	return b
}

func indexSet(list []uint16) map[uint16]int {
	m := make(map[uint16]int, len(list))
	for _, i := range list {
		m[i]++
	}
	return m
}

func tileLists(b *TileIndexBuffer, tile int) (a, bl []uint16) {
	base := tile * b.Stride()
	_, countA, countB := b.Header(tile)
	a = b.Data()[base+tileHeaderSize : base+tileHeaderSize+countA]
	bl = b.Data()[base+tileHeaderSize+b.MaxPerTile() : base+tileHeaderSize+b.MaxPerTile()+countB]
	return a, bl
}
