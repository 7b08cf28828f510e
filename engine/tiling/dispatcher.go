package tiling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/internal/logger"
)

// ErrCapacityMismatch is returned when a target buffer was sized for a
// different viewport than the pass.
var ErrCapacityMismatch = errors.New("index buffer capacity does not match pass")

// ErrDispatcherClosed is returned by Dispatch after Close.
var ErrDispatcherClosed = errors.New("dispatcher is closed")

// maxLightIndex is the largest light count a uint16 index list can address.
const maxLightIndex = math.MaxUint16 + 1

// Targets are the outputs a dispatch writes. Nil buffers are skipped, which
// is how the fused deferred path avoids writing global lists.
type Targets struct {
	Points *TileIndexBuffer
	Spots  *TileIndexBuffer
	VPLs   *TileIndexBuffer
	Edges  *EdgeMask
}

// Pass is the input of one culling dispatch.
type Pass struct {
	Mode     Mode
	Capacity light.TileCapacity

	View    mgl32.Mat4
	InvProj mgl32.Mat4

	Depth        *DepthBuffer
	BlendedDepth *DepthBuffer

	// Active culling spheres, already limited to the active counts.
	Points []mgl32.Vec4
	Spots  []mgl32.Vec4
	VPLs   []mgl32.Vec4

	// The VPL count is min(MaxVPLs, VPLCounter), mirroring the GPU append
	// counter read-back. MaxVPLs of 0 disables VPLs.
	MaxVPLs    int
	VPLCounter int

	Shade   ShadeFunc
	Targets Targets
}

// NumVPLs returns the number of VPLs the kernel walks.
func (p *Pass) NumVPLs() int {
	if !p.Mode.VPLs() {
		return 0
	}
	return max(min(p.MaxVPLs, p.VPLCounter, len(p.VPLs)), 0)
}

// Validate checks the pass before any tile runs. Backends call it before
// touching any buffer.
func (p *Pass) Validate() error {
	if p.Capacity.NumTiles() == 0 {
		return fmt.Errorf("viewport %dx%d has no tiles", p.Capacity.Width, p.Capacity.Height)
	}
	if p.Depth == nil {
		return fmt.Errorf("%s pass: %w: no depth buffer", p.Mode, ErrDepthSizeMismatch)
	}
	if err := p.Depth.checkSize(p.Capacity.Width, p.Capacity.Height); err != nil {
		return fmt.Errorf("%s pass: %w", p.Mode, err)
	}
	if p.Mode.Blended() {
		if p.BlendedDepth == nil {
			return fmt.Errorf("%s pass: %w: no blended depth buffer", p.Mode, ErrDepthSizeMismatch)
		}
		if err := p.BlendedDepth.checkSize(p.Capacity.Width, p.Capacity.Height); err != nil {
			return fmt.Errorf("%s pass: blended %w", p.Mode, err)
		}
		if p.BlendedDepth.Samples != p.Depth.Samples {
			return fmt.Errorf("%s pass: %w: blended depth has %d samples, opaque %d",
				p.Mode, ErrDepthSizeMismatch, p.BlendedDepth.Samples, p.Depth.Samples)
		}
	}
	for _, b := range []*TileIndexBuffer{p.Targets.Points, p.Targets.Spots, p.Targets.VPLs} {
		if b != nil && b.Capacity() != p.Capacity {
			return fmt.Errorf("%s pass: %w: %s buffer", p.Mode, ErrCapacityMismatch, b.Kind())
		}
	}
	if e := p.Targets.Edges; e != nil && (e.Width != p.Capacity.Width || e.Height != p.Capacity.Height) {
		return fmt.Errorf("%s pass: %w: edge mask", p.Mode, ErrCapacityMismatch)
	}
	if len(p.Points) > maxLightIndex || len(p.Spots) > maxLightIndex || len(p.VPLs) > maxLightIndex {
		return fmt.Errorf("%s pass: more than %d lights of one kind", p.Mode, maxLightIndex)
	}
	return nil
}

// Dispatcher runs culling dispatches on the CPU, one work group per tile.
type Dispatcher interface {
	// Dispatch culls every tile of the pass and blocks until all tiles are
	// done. Cancellation is observed before the dispatch starts; a started
	// dispatch always runs to completion so targets are never half written.
	//
	// Parameters:
	//   - ctx: cancels the dispatch before it starts
	//   - pass: the inputs and targets
	//
	// Returns:
	//   - FrameStats: aggregated per-tile results
	//   - error: validation failure, cancellation, or a panicking tile
	Dispatch(ctx context.Context, pass *Pass) (FrameStats, error)

	// Workers returns the maximum number of tiles processed concurrently.
	//
	// Returns:
	//   - int: the worker pool size
	Workers() int

	// Close stops the worker pool. Dispatch fails afterwards.
	Close()
}

// dispatcherImpl is the implementation of the Dispatcher interface.
type dispatcherImpl struct {
	workers     int
	queueSize   int
	laneWorkers int
	idleTimeout time.Duration

	// pool is a persistent set of goroutines reused across frames. Each task
	// is one tile; tasks never wait on each other.
	pool   worker.DynamicWorkerPool
	taskID atomic.Int64
	closed atomic.Bool
	log    *zap.Logger
}

var _ Dispatcher = &dispatcherImpl{}

// NewDispatcher creates a CPU dispatcher with any provided options applied.
//
// Parameters:
//   - opts: variadic list of DispatcherBuilderOption functions
//
// Returns:
//   - Dispatcher: the ready dispatcher
func NewDispatcher(opts ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcherImpl{
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		laneWorkers: 1,
		idleTimeout: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pool = worker.NewDynamicWorkerPool(d.workers, d.queueSize, d.idleTimeout)
	d.log = logger.Component("tiling")
	return d
}

func (d *dispatcherImpl) Workers() int {
	return d.workers
}

func (d *dispatcherImpl) Close() {
	if d.closed.CompareAndSwap(false, true) {
		d.pool.Stop()
	}
}

func (d *dispatcherImpl) Dispatch(ctx context.Context, p *Pass) (FrameStats, error) {
	if d.closed.Load() {
		return FrameStats{}, ErrDispatcherClosed
	}
	if err := ctx.Err(); err != nil {
		return FrameStats{}, err
	}
	if err := p.Validate(); err != nil {
		return FrameStats{}, err
	}

	start := time.Now()
	capacity := p.Capacity
	tiles := make([]TileStats, capacity.NumTiles())
	wg := workgroup{laneWorkers: d.laneWorkers}

	var (
		done     sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for ty := range capacity.TilesY {
		for tx := range capacity.TilesX {
			done.Add(1)
			d.pool.SubmitTask(worker.Task{
				ID: int(d.taskID.Add(1)),
				Do: func() (any, error) {
					defer done.Done()
					defer func() {
						if r := recover(); r != nil {
							errOnce.Do(func() {
								firstErr = fmt.Errorf("%s pass: tile (%d,%d) panicked: %v", p.Mode, tx, ty, r)
							})
						}
					}()

					g := groupSharedPool.Get().(*groupShared)
					tiles[tx+ty*capacity.TilesX] = runTile(p, tx, ty, wg, g)
					groupSharedPool.Put(g)
					return nil, nil
				},
			})
		}
	}
	done.Wait()

	if firstErr != nil {
		return FrameStats{}, firstErr
	}

	stats := NewFrameStats(p, tiles, time.Since(start))
	stats.Backend = "cpu"
	d.log.Debug("dispatch complete",
		zap.Stringer("mode", p.Mode),
		zap.Int("tiles", stats.Tiles),
		zap.Int("points", stats.Points.Active),
		zap.Int("spots", stats.Spots.Active),
		zap.Int("vpls", stats.VPLs.Active),
		zap.Int("overflow_tiles", stats.OverflowTiles),
		zap.Duration("elapsed", stats.DispatchTime),
	)
	return stats, nil
}
