package renderer

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

// BlendedAlpha is the coverage of the transparent layer when it is composited
// over the opaque light.
const BlendedAlpha float32 = 0.5

// renderForwardPlus culls the opaque and blended layers concurrently, then
// shades every pixel from the global index buffers.
func (r *renderer) renderForwardPlus(ctx context.Context, f *Frame) (*FrameResult, error) {
	vpls := f.vplsEnabled()
	res := &FrameResult{
		Technique: TechniqueForwardPlus,
		Points:    r.points,
		Spots:     r.spots,
		Light:     r.lightImage,
	}

	opaque := r.basePass(f, tiling.ModeFor(false, vpls))
	opaque.Targets = tiling.Targets{Points: r.points, Spots: r.spots}
	if vpls {
		opaque.Targets.VPLs = r.vpls
		res.VPLs = r.vpls
	}

	var blended *tiling.Pass
	if f.BlendedDepth != nil {
		blended = r.basePass(f, tiling.ModeBlended)
		blended.BlendedDepth = f.BlendedDepth
		blended.Targets = tiling.Targets{Points: r.blendedPoints, Spots: r.blendedSpots}
		res.BlendedPoints = r.blendedPoints
		res.BlendedSpots = r.blendedSpots
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := r.backend.Cull(gctx, opaque)
		res.Opaque = stats
		return err
	})
	if blended != nil {
		g.Go(func() error {
			stats, err := r.backend.Cull(gctx, blended)
			if err == nil {
				res.Blended = &stats
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.CullTime = time.Since(start)

	start = time.Now()
	if err := r.shadeForwardPlus(f, vpls, blended != nil && f.Blended != nil); err != nil {
		return nil, err
	}
	res.ShadeTime = time.Since(start)
	return res, nil
}

// shadeForwardPlus is the forward shading pass. Rows are shaded concurrently
// and every pixel reads only the lists of its own tile.
func (r *renderer) shadeForwardPlus(f *Frame, vpls, blended bool) error {
	lights := f.lights()
	c := r.capacity

	var g errgroup.Group
	g.SetLimit(r.shadeWorkers)
	for y := range c.Height {
		g.Go(func() error {
			for x := range c.Width {
				var out mgl32.Vec3
				if sp, viewZ, ok := surfaceAt(f.Opaque, f.View, f.Eye, x, y); ok {
					var vplList []uint16
					if vpls {
						vplList = r.vpls.LightList(x, y, viewZ)
					}
					out = lights.shade(&sp, r.points.LightList(x, y, viewZ), r.spots.LightList(x, y, viewZ), vplList)
				}
				if blended {
					if sp, viewZ, ok := surfaceAt(f.Blended, f.View, f.Eye, x, y); ok {
						layer := lights.shade(&sp, r.blendedPoints.LightList(x, y, viewZ), r.blendedSpots.LightList(x, y, viewZ), nil)
						out = out.Mul(1 - BlendedAlpha).Add(layer.Mul(BlendedAlpha))
					}
				}
				r.lightImage.set(x, y, out)
			}
			return nil
		})
	}
	return g.Wait()
}
