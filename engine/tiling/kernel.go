package tiling

import (
	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// runTile executes the culling kernel for one tile as one work group:
//
//	init → barrier → depth reduce → barrier → classify → barrier → write → shade
//
// The frustum is built by lane 0 during init since every lane would compute
// the same planes.
func runTile(p *Pass, tx, ty int, wg workgroup, g *groupShared) TileStats {
	capacity := p.Capacity
	tile := tx + ty*capacity.TilesX
	x0, y0 := tx*light.TileRes, ty*light.TileRes

	var blended *DepthBuffer
	if p.Mode.Blended() {
		blended = p.BlendedDepth
	}
	captureEdges := p.Mode.Deferred() && p.Depth.Samples > 1

	g.init()
	g.bounds.Planes = BuildTileFrustum(tx, ty, capacity.Width, capacity.Height, p.InvProj)

	wg.phase(func(lane int) {
		x, y := x0+lane%light.TileRes, y0+lane/light.TileRes
		minZ, maxZ := PixelDepthRange(p.InvProj, p.Depth, blended, x, y)
		g.depth.include(minZ, maxZ)

		edge := captureEdges && IsEdge(minZ, maxZ)
		g.edges[lane] = edge
		if edge {
			g.edgePixels.Add(1)
		}
		if captureEdges && p.Targets.Edges != nil && x < capacity.Width && y < capacity.Height {
			p.Targets.Edges.Set(x, y, edge)
		}
	})

	minZ, maxZ, halfZ := g.depth.bounds()
	g.bounds.SetDepth(minZ, maxZ, halfZ)

	numVPLs := p.NumVPLs()
	wg.phase(func(lane int) {
		classifyLights(lane, p.Points, p.View, &g.bounds, g.points)
		classifyLights(lane, p.Spots, p.View, &g.bounds, g.spots)
		if numVPLs > 0 {
			classifyLights(lane, p.VPLs[:numVPLs], p.View, &g.bounds, g.vpls)
		}
	})

	t := p.Targets
	if t.Points != nil || t.Spots != nil || t.VPLs != nil {
		wg.phase(func(lane int) {
			if t.Points != nil {
				t.Points.WriteTile(lane, tile, halfZ, g.points.listA(), g.points.listB())
			}
			if t.Spots != nil {
				t.Spots.WriteTile(lane, tile, halfZ, g.spots.listA(), g.spots.listB())
			}
			if t.VPLs != nil && p.Mode.VPLs() {
				t.VPLs.WriteTile(lane, tile, halfZ, g.vpls.listA(), g.vpls.listB())
			}
		})
	}

	if p.Shade != nil {
		lights := TileLights{
			Tile:   tile,
			HalfZ:  halfZ,
			points: [2][]uint16{g.points.listA(), g.points.listB()},
			spots:  [2][]uint16{g.spots.listA(), g.spots.listB()},
			vpls:   [2][]uint16{g.vpls.listA(), g.vpls.listB()},
		}
		wg.phase(func(lane int) {
			x, y := x0+lane%light.TileRes, y0+lane/light.TileRes
			if x < capacity.Width && y < capacity.Height {
				p.Shade(x, y, g.edges[lane], &lights)
			}
		})
	}

	stats := TileStats{
		Tile:       tile,
		MinZ:       minZ,
		MaxZ:       maxZ,
		HalfZ:      halfZ,
		Points:     listStats(g.points, capacity.MaxLightsPerTile, t.Points != nil),
		Spots:      listStats(g.spots, capacity.MaxLightsPerTile, t.Spots != nil),
		EdgePixels: int(g.edgePixels.Load()),
	}
	if numVPLs > 0 {
		stats.VPLs = listStats(g.vpls, capacity.MaxVPLsPerTile, t.VPLs != nil)
	}
	return stats
}

// listStats reports a group's list sizes. When the list is written to a
// global buffer, entries beyond the runtime per-tile maximum are clamped away
// and counted as overflow along with the group-shared drops.
func listStats(l *sharedList, runtimeMax int, written bool) ListStats {
	s := ListStats{
		CountA:   l.countA(),
		CountB:   l.countB(),
		Overflow: int(l.overflow.Load()),
	}
	if written {
		if s.CountA > runtimeMax {
			s.Overflow += s.CountA - runtimeMax
			s.CountA = runtimeMax
		}
		if s.CountB > runtimeMax {
			s.Overflow += s.CountB - runtimeMax
			s.CountB = runtimeMax
		}
	}
	return s
}
