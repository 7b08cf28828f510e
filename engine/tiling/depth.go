package tiling

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/common"
)

// ErrDepthSizeMismatch is returned when a depth buffer does not match the
// viewport the dispatch was sized for.
var ErrDepthSizeMismatch = errors.New("depth buffer size does not match viewport")

// EdgeThreshold is the view-space depth spread across a pixel's samples above
// which the pixel is treated as a geometry edge.
const EdgeThreshold float32 = 50

// DepthBuffer is a projected depth buffer with inverted depth: near is 1 and
// far or cleared is 0. Samples of one pixel are stored contiguously.
type DepthBuffer struct {
	Width   int
	Height  int
	Samples int
	Data    []float32
}

// NewDepthBuffer allocates a cleared depth buffer.
//
// Parameters:
//   - width, height: size in pixels
//   - samples: samples per pixel (1, 2 or 4)
//
// Returns:
//   - *DepthBuffer: the cleared buffer
func NewDepthBuffer(width, height, samples int) *DepthBuffer {
	samples = max(samples, 1)
	return &DepthBuffer{
		Width:   width,
		Height:  height,
		Samples: samples,
		Data:    make([]float32, width*height*samples),
	}
}

// At returns the depth of one sample. Reads outside the buffer return 0,
// which the reducer treats as background.
func (d *DepthBuffer) At(x, y, sample int) float32 {
	if x < 0 || y < 0 || x >= d.Width || y >= d.Height || sample >= d.Samples {
		return 0
	}
	return d.Data[(y*d.Width+x)*d.Samples+sample]
}

// Set stores the depth of one sample.
func (d *DepthBuffer) Set(x, y, sample int, depth float32) {
	d.Data[(y*d.Width+x)*d.Samples+sample] = depth
}

// Clear resets every sample to the far value.
func (d *DepthBuffer) Clear() {
	clear(d.Data)
}

// checkSize verifies the buffer matches a viewport.
func (d *DepthBuffer) checkSize(width, height int) error {
	if d.Width != width || d.Height != height || len(d.Data) != width*height*d.Samples {
		return fmt.Errorf("%w: %dx%d (%d samples, %d values), viewport %dx%d",
			ErrDepthSizeMismatch, d.Width, d.Height, d.Samples, len(d.Data), width, height)
	}
	return nil
}

// EdgeMask marks pixels whose samples span a depth discontinuity. Each pixel
// is written by exactly one lane, so no synchronization is needed.
type EdgeMask struct {
	Width  int
	Height int
	edges  []bool
}

// NewEdgeMask allocates a mask with no edges.
func NewEdgeMask(width, height int) *EdgeMask {
	return &EdgeMask{Width: width, Height: height, edges: make([]bool, width*height)}
}

// Set marks or clears a pixel.
func (m *EdgeMask) Set(x, y int, edge bool) {
	m.edges[y*m.Width+x] = edge
}

// IsEdge reports whether a pixel is an edge. Pixels outside the mask are not.
func (m *EdgeMask) IsEdge(x, y int) bool {
	if m == nil || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.edges[y*m.Width+x]
}

// Count returns the number of edge pixels.
func (m *EdgeMask) Count() int {
	n := 0
	for _, e := range m.edges {
		if e {
			n++
		}
	}
	return n
}

// Clear unmarks every pixel.
func (m *EdgeMask) Clear() {
	clear(m.edges)
}

// depthRange is the group-shared min/max view depth, stored as float32 bit
// patterns so that unsigned integer min/max orders positive floats correctly.
type depthRange struct {
	zMin atomic.Uint32
	zMax atomic.Uint32
}

func (r *depthRange) reset() {
	r.zMin.Store(math.Float32bits(common.FltMax))
	r.zMax.Store(0)
}

func (r *depthRange) include(minZ, maxZ float32) {
	atomicMinUint32(&r.zMin, math.Float32bits(minZ))
	atomicMaxUint32(&r.zMax, math.Float32bits(maxZ))
}

// bounds returns the tile's depth range and its midpoint. A tile that saw only
// background keeps minZ = FLT_MAX and maxZ = 0.
func (r *depthRange) bounds() (minZ, maxZ, halfZ float32) {
	minZ = math.Float32frombits(r.zMin.Load())
	maxZ = math.Float32frombits(r.zMax.Load())
	return minZ, maxZ, (minZ + maxZ) / 2
}

func atomicMinUint32(a *atomic.Uint32, v uint32) {
	for {
		old := a.Load()
		if v >= old || a.CompareAndSwap(old, v) {
			return
		}
	}
}

func atomicMaxUint32(a *atomic.Uint32, v uint32) {
	for {
		old := a.Load()
		if v <= old || a.CompareAndSwap(old, v) {
			return
		}
	}
}

// PixelDepthRange computes the view-space depth range of one pixel over all
// its samples. With blended set, the far end comes from the opaque depth and
// the near end from the blended depth, and only samples covered by blended
// geometry count. Otherwise only non-background opaque samples count. A pixel
// with no counted samples returns (FLT_MAX, 0).
//
// Parameters:
//   - invProj: the inverse projection matrix
//   - opaque: the opaque depth buffer
//   - blended: the blended depth buffer, or nil for the opaque policy
//   - x, y: pixel coordinates
//
// Returns:
//   - minZ, maxZ: the pixel's view-space depth range
func PixelDepthRange(invProj mgl32.Mat4, opaque, blended *DepthBuffer, x, y int) (minZ, maxZ float32) {
	minZ, maxZ = common.FltMax, 0
	for s := range opaque.Samples {
		d := opaque.At(x, y, s)
		viewZ := common.ProjDepthToView(invProj, d)
		if blended != nil {
			db := blended.At(x, y, s)
			if db != 0 {
				maxZ = max(maxZ, viewZ)
				minZ = min(minZ, common.ProjDepthToView(invProj, db))
			}
			continue
		}
		if d != 0 {
			maxZ = max(maxZ, viewZ)
			minZ = min(minZ, viewZ)
		}
	}
	return minZ, maxZ
}

// IsEdge reports whether a pixel's depth spread marks a geometry edge.
func IsEdge(minZ, maxZ float32) bool {
	return maxZ-minZ > EdgeThreshold
}
