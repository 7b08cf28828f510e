package tiling

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// workgroup runs the lanes of one tile in phases. Every lane of a phase
// finishes before the next phase starts, which is the barrier between them.
// With laneWorkers > 1 the lanes of a phase run concurrently on that many
// goroutines; group-shared counters are atomics so either way is valid.
type workgroup struct {
	laneWorkers int
}

func (w workgroup) phase(fn func(lane int)) {
	if w.laneWorkers <= 1 {
		for lane := range light.NumThreadsPerTile {
			fn(lane)
		}
		return
	}

	var (
		wg       sync.WaitGroup
		panicMu  sync.Mutex
		panicked any
	)
	for g := range w.laneWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if panicked == nil {
						panicked = r
					}
					panicMu.Unlock()
				}
			}()
			for lane := g; lane < light.NumThreadsPerTile; lane += w.laneWorkers {
				fn(lane)
			}
		}()
	}
	wg.Wait()

	// surface lane panics on the tile's goroutine so the dispatcher can recover them
	if panicked != nil {
		panic(panicked)
	}
}

// groupShared is the memory one work group shares between its lanes.
type groupShared struct {
	depth      depthRange
	bounds     TileBounds
	points     *sharedList
	spots      *sharedList
	vpls       *sharedList
	edges      [light.NumThreadsPerTile]bool
	edgePixels atomic.Uint32
}

func newGroupShared() *groupShared {
	return &groupShared{
		points: newSharedList(light.MaxNumLightsPerTileCap),
		spots:  newSharedList(light.MaxNumLightsPerTileCap),
		vpls:   newSharedList(light.MaxNumVPLsPerTileCap),
	}
}

// init is the work of lane 0 at the start of a dispatch.
func (g *groupShared) init() {
	g.depth.reset()
	g.points.reset()
	g.spots.reset()
	g.vpls.reset()
	g.edgePixels.Store(0)
}

// groupSharedPool recycles group memory between tiles and frames.
var groupSharedPool = sync.Pool{
	New: func() any { return newGroupShared() },
}

// TileLights is the read-only view of one tile's culled lists handed to
// inline shading in the fused deferred path.
type TileLights struct {
	Tile   int
	HalfZ  float32
	points [2][]uint16
	spots  [2][]uint16
	vpls   [2][]uint16
}

func pick(lists [2][]uint16, viewZ, halfZ float32) []uint16 {
	if viewZ < halfZ {
		return lists[0]
	}
	return lists[1]
}

// Points returns the point light indices for a shaded point at viewZ.
func (t *TileLights) Points(viewZ float32) []uint16 { return pick(t.points, viewZ, t.HalfZ) }

// Spots returns the spot light indices for a shaded point at viewZ.
func (t *TileLights) Spots(viewZ float32) []uint16 { return pick(t.spots, viewZ, t.HalfZ) }

// VPLs returns the VPL indices for a shaded point at viewZ.
func (t *TileLights) VPLs(viewZ float32) []uint16 { return pick(t.vpls, viewZ, t.HalfZ) }

// ShadeFunc shades one pixel inside the culling work group. It runs after the
// lists are complete and is called once per on-screen pixel of the tile.
// Implementations must only write state owned by pixel (x, y).
type ShadeFunc func(x, y int, edge bool, lights *TileLights)

// NewTileLights builds the inline-shading view of a tile from index buffers
// that were already written, for backends that cannot shade inside the
// culling work group. Nil buffers give empty lists.
//
// Parameters:
//   - tile: the flattened tile index
//   - points, spots, vpls: the written index buffers
//
// Returns:
//   - TileLights: the tile's lists
func NewTileLights(tile int, points, spots, vpls *TileIndexBuffer) TileLights {
	t := TileLights{Tile: tile}
	for _, b := range []*TileIndexBuffer{points, spots, vpls} {
		if b != nil {
			t.HalfZ, _, _ = b.Header(tile)
			break
		}
	}
	t.points = points.tileLists(tile)
	t.spots = spots.tileLists(tile)
	t.vpls = vpls.tileLists(tile)
	return t
}
