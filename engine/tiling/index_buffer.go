package tiling

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
)

// tileHeaderSize is the number of uint16 elements before a tile's lists:
// halfZ high bits, halfZ low bits, count A, count B.
const tileHeaderSize = 4

// PackHalfZ splits the bit pattern of a float32 into two uint16 halves.
//
// Parameters:
//   - halfZ: the tile's mid depth in view space
//
// Returns:
//   - hi: bits >> 16
//   - lo: bits & 0xFFFF
func PackHalfZ(halfZ float32) (hi, lo uint16) {
	bits := math.Float32bits(halfZ)
	return uint16(bits >> 16), uint16(bits & 0xFFFF)
}

// UnpackHalfZ rebuilds the float32 written by PackHalfZ. The round trip is bit-exact.
//
// Parameters:
//   - hi: the high half
//   - lo: the low half
//
// Returns:
//   - float32: the mid depth
func UnpackHalfZ(hi, lo uint16) float32 {
	return math.Float32frombits(uint32(hi)<<16 | uint32(lo))
}

// TileIndexBuffer is the global per-tile light index buffer for one light
// kind. It is a flat []uint16 over all tiles with a fixed stride of
// 2*MaxPerTile+4 elements:
//
//	[0] halfZ hi  [1] halfZ lo  [2] count A  [3] count B
//	[4, 4+MaxPerTile)              list A (near half of the tile's depth range)
//	[4+MaxPerTile, 4+2*MaxPerTile) list B (far half)
//
// The writer and reader share one TileCapacity, so their strides always agree.
type TileIndexBuffer struct {
	kind       light.LightType
	capacity   light.TileCapacity
	maxPerTile int
	stride     int
	data       []uint16
}

// NewTileIndexBuffer allocates a buffer for a light kind. VPL buffers use the
// VPL per-tile budget; point and spot buffers use the light budget.
//
// Parameters:
//   - capacity: the tile sizing for the viewport
//   - kind: the light kind the buffer indexes
//
// Returns:
//   - *TileIndexBuffer: the zeroed buffer
func NewTileIndexBuffer(capacity light.TileCapacity, kind light.LightType) *TileIndexBuffer {
	b := &TileIndexBuffer{kind: kind}
	b.Resize(capacity)
	return b
}

// Resize re-derives the stride for a new viewport, reusing storage when it is large enough.
//
// Parameters:
//   - capacity: the new tile sizing
func (b *TileIndexBuffer) Resize(capacity light.TileCapacity) {
	b.capacity = capacity
	if b.kind == light.LightTypeVPL {
		b.maxPerTile = capacity.MaxVPLsPerTile
		b.stride = capacity.VPLElementsPerTile()
	} else {
		b.maxPerTile = capacity.MaxLightsPerTile
		b.stride = capacity.LightElementsPerTile()
	}
	n := b.stride * capacity.NumTiles()
	if cap(b.data) >= n {
		b.data = b.data[:n]
		clear(b.data)
		return
	}
	b.data = make([]uint16, n)
}

// Kind returns the light kind this buffer indexes.
func (b *TileIndexBuffer) Kind() light.LightType { return b.kind }

// Capacity returns the tile sizing the buffer was built for.
func (b *TileIndexBuffer) Capacity() light.TileCapacity { return b.capacity }

// MaxPerTile returns the runtime capacity of each list.
func (b *TileIndexBuffer) MaxPerTile() int { return b.maxPerTile }

// Stride returns the per-tile stride in uint16 elements.
func (b *TileIndexBuffer) Stride() int { return b.stride }

// Data returns the raw element slice.
func (b *TileIndexBuffer) Data() []uint16 { return b.data }

// SizeBytes returns the buffer size in bytes.
func (b *TileIndexBuffer) SizeBytes() int { return 2 * len(b.data) }

// WriteTile writes one lane's share of a tile. Lane 0 writes the header; every
// lane copies list entries lane, lane+256, ... Calling it for all lanes of a
// work group writes the whole tile. Counts above MaxPerTile are clamped and
// the excess entries are not copied.
//
// Parameters:
//   - lane: the lane index in [0, NumThreadsPerTile)
//   - tile: the flattened tile index
//   - halfZ: the tile's mid depth
//   - listA: indices of lights overlapping [minZ, halfZ]
//   - listB: indices of lights overlapping [halfZ, maxZ]
func (b *TileIndexBuffer) WriteTile(lane, tile int, halfZ float32, listA, listB []uint16) {
	base := tile * b.stride
	countA := min(len(listA), b.maxPerTile)
	countB := min(len(listB), b.maxPerTile)

	if lane == 0 {
		hi, lo := PackHalfZ(halfZ)
		b.data[base] = hi
		b.data[base+1] = lo
		b.data[base+2] = uint16(countA)
		b.data[base+3] = uint16(countB)
	}

	a := b.data[base+tileHeaderSize : base+tileHeaderSize+b.maxPerTile]
	for i := lane; i < countA; i += light.NumThreadsPerTile {
		a[i] = listA[i]
	}
	bl := b.data[base+tileHeaderSize+b.maxPerTile : base+b.stride]
	for i := lane; i < countB; i += light.NumThreadsPerTile {
		bl[i] = listB[i]
	}
}

// TileAt returns the flattened tile index containing pixel (x, y), or -1 when
// the pixel lies outside the tile grid.
//
// Parameters:
//   - x, y: pixel coordinates
//
// Returns:
//   - int: the tile index
func (b *TileIndexBuffer) TileAt(x, y int) int {
	tx, ty := x/light.TileRes, y/light.TileRes
	if x < 0 || y < 0 || tx >= b.capacity.TilesX || ty >= b.capacity.TilesY {
		return -1
	}
	return tx + ty*b.capacity.TilesX
}

// Header returns the decoded header of a tile.
//
// Parameters:
//   - tile: the flattened tile index
//
// Returns:
//   - halfZ: the tile's mid depth
//   - countA: entries in list A
//   - countB: entries in list B
func (b *TileIndexBuffer) Header(tile int) (halfZ float32, countA, countB int) {
	base := tile * b.stride
	return UnpackHalfZ(b.data[base], b.data[base+1]), int(b.data[base+2]), int(b.data[base+3])
}

// LightList returns the light indices relevant to a shaded point: list A when
// the point is nearer than the tile's halfZ, list B otherwise. The returned
// slice aliases the buffer and must not be modified. Pixels outside the grid
// yield nil.
//
// Parameters:
//   - x, y: pixel coordinates
//   - viewZ: the view-space depth of the shaded point
//
// Returns:
//   - []uint16: the light indices to evaluate
func (b *TileIndexBuffer) LightList(x, y int, viewZ float32) []uint16 {
	tile := b.TileAt(x, y)
	if tile < 0 {
		return nil
	}
	base := tile * b.stride
	halfZ := UnpackHalfZ(b.data[base], b.data[base+1])
	if viewZ < halfZ {
		start := base + tileHeaderSize
		return b.data[start : start+int(b.data[base+2])]
	}
	start := base + tileHeaderSize + b.maxPerTile
	return b.data[start : start+int(b.data[base+3])]
}

// ForEachLight calls fn for every index LightList would return.
//
// Parameters:
//   - x, y: pixel coordinates
//   - viewZ: the view-space depth of the shaded point
//   - fn: called once per light index
func (b *TileIndexBuffer) ForEachLight(x, y int, viewZ float32, fn func(index uint16)) {
	for _, idx := range b.LightList(x, y, viewZ) {
		fn(idx)
	}
}

// TileCount returns countA+countB for a tile, used by the debug views.
func (b *TileIndexBuffer) TileCount(tile int) int {
	base := tile * b.stride
	return int(b.data[base+2]) + int(b.data[base+3])
}

// LoadBytes replaces the contents with little-endian uint16 data read back
// from a GPU buffer.
//
// Parameters:
//   - p: the raw bytes, exactly SizeBytes long
//
// Returns:
//   - error: non-nil when the length does not match
func (b *TileIndexBuffer) LoadBytes(p []byte) error {
	if len(p) != b.SizeBytes() {
		return fmt.Errorf("index buffer read-back is %d bytes, expected %d", len(p), b.SizeBytes())
	}
	for i := range b.data {
		b.data[i] = binary.LittleEndian.Uint16(p[2*i:])
	}
	return nil
}

// tileLists returns both lists of a tile. A nil buffer yields empty lists.
func (b *TileIndexBuffer) tileLists(tile int) [2][]uint16 {
	if b == nil {
		return [2][]uint16{}
	}
	base := tile * b.stride
	a := base + tileHeaderSize
	bl := a + b.maxPerTile
	return [2][]uint16{
		b.data[a : a+int(b.data[base+2])],
		b.data[bl : bl+int(b.data[base+3])],
	}
}
