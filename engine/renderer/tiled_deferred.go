package renderer

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

// renderTiledDeferred runs the fused cull and shade dispatch. Shading reads
// the work group's lists, so the global index buffers are only written when
// debug lists are enabled. Blended geometry is not lit by this technique.
func (r *renderer) renderTiledDeferred(ctx context.Context, f *Frame) (*FrameResult, error) {
	vpls := f.vplsEnabled()
	res := &FrameResult{
		Technique: TechniqueTiledDeferred,
		Light:     r.lightImage,
	}

	pass := r.basePass(f, tiling.ModeFor(true, vpls))
	if r.msaa > MSAAOff {
		r.edges.Clear()
		pass.Targets.Edges = r.edges
		res.Edges = r.edges
	}
	if r.debugLists {
		pass.Targets.Points = r.points
		pass.Targets.Spots = r.spots
		res.Points, res.Spots = r.points, r.spots
		if vpls {
			pass.Targets.VPLs = r.vpls
			res.VPLs = r.vpls
		}
	}

	lights := f.lights()
	pass.Shade = func(x, y int, _ bool, tl *tiling.TileLights) {
		sp, viewZ, ok := surfaceAt(f.Opaque, f.View, f.Eye, x, y)
		if !ok {
			r.lightImage.set(x, y, mgl32.Vec3{})
			return
		}
		r.lightImage.set(x, y, lights.shade(&sp, tl.Points(viewZ), tl.Spots(viewZ), tl.VPLs(viewZ)))
	}

	start := time.Now()
	stats, err := r.backend.Cull(ctx, pass)
	if err != nil {
		return nil, err
	}
	res.Opaque = stats
	res.CullTime = time.Since(start)
	return res, nil
}
