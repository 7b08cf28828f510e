package tiling

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/common"
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// BuildTileFrustum builds the four side planes of a tile's view-space frustum.
// The tile corners, clockwise from top-left, are projected onto the near
// plane (NDC z = 1 under inverted depth) and unprojected with invProj. Each
// plane passes through the origin and two adjacent corners. Its positive
// half-space is outside the tile, so a point is inside when its signed
// distance to all four planes is negative.
//
// Parameters:
//   - tx, ty: the tile coordinates
//   - viewportW, viewportH: the viewport the projection was built for, so a
//     tile's frustum covers exactly the pixels TileAt maps to it
//   - invProj: the inverse projection matrix
//
// Returns:
//   - [4]common.Plane: top, right, bottom, left planes
func BuildTileFrustum(tx, ty, viewportW, viewportH int, invProj mgl32.Mat4) [4]common.Plane {
	pxm := float32(light.TileRes * tx)
	pym := float32(light.TileRes * ty)
	pxp := float32(light.TileRes * (tx + 1))
	pyp := float32(light.TileRes * (ty + 1))
	w := float32(max(viewportW, 1))
	h := float32(max(viewportH, 1))

	toView := func(px, py float32) mgl32.Vec3 {
		return common.ProjToView(invProj, mgl32.Vec4{px/w*2 - 1, (h-py)/h*2 - 1, 1, 1})
	}
	corners := [4]mgl32.Vec3{
		toView(pxm, pym),
		toView(pxp, pym),
		toView(pxp, pyp),
		toView(pxm, pyp),
	}

	var planes [4]common.Plane
	for i := range 4 {
		planes[i] = common.PlaneThroughOrigin(corners[i], corners[(i+1)&3])
	}
	return planes
}
