package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/x448/float16"
)

// SpotParams is the packed per-spot-light record read by shading: four
// half-precision floats holding direction x, direction y, the cone cosine
// with the sign of direction z stored in its sign bit, and the falloff radius.
// Size: 8 bytes.
type SpotParams [4]uint16

// spotSignBit is the float16 sign bit reused to carry the sign of direction z.
const spotSignBit = 0x8000

// PackSpotParams packs a spot light's direction, cone and falloff into
// half-precision form. The cone cosine must be positive so that its sign bit
// is free to carry the sign of dir.z.
//
// Parameters:
//   - dir: the normalized cone axis
//   - cosCone: cosine of the cone half-angle (> 0)
//   - falloffRadius: falloff distance (> 0)
//
// Returns:
//   - SpotParams: the packed parameters
func PackSpotParams(dir mgl32.Vec3, cosCone, falloffRadius float32) SpotParams {
	p := SpotParams{
		float16.Fromfloat32(dir.X()).Bits(),
		float16.Fromfloat32(dir.Y()).Bits(),
		float16.Fromfloat32(cosCone).Bits(),
		float16.Fromfloat32(falloffRadius).Bits(),
	}
	if dir.Z() < 0 {
		p[2] |= spotSignBit
	} else {
		p[2] &^= spotSignBit
	}
	return p
}

// Unpack rebuilds the direction, cone cosine and falloff radius. The z
// component of the direction is reconstructed from x and y.
//
// Returns:
//   - dir: the normalized cone axis
//   - cosCone: cosine of the cone half-angle
//   - falloffRadius: falloff distance
func (p SpotParams) Unpack() (dir mgl32.Vec3, cosCone, falloffRadius float32) {
	x := float16.Frombits(p[0]).Float32()
	y := float16.Frombits(p[1]).Float32()
	z := float32(math.Sqrt(math.Max(0, float64(1-x*x-y*y))))
	if p[2]&spotSignBit != 0 {
		z = -z
	}
	cosCone = float16.Frombits(p[2] &^ spotSignBit).Float32()
	falloffRadius = float16.Frombits(p[3]).Float32()
	return mgl32.Vec3{x, y, z}, cosCone, falloffRadius
}

// PackColor packs 8-bit RGB into an RGBA8 unorm word (alpha 255), byte order
// R, G, B, A in memory.
//
// Parameters:
//   - r, g, b: the color channels
//
// Returns:
//   - uint32: the packed color
func PackColor(r, g, b uint8) uint32 {
	return 255<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
}

// UnpackColor converts a packed RGBA8 word back to linear [0,1] RGB.
//
// Parameters:
//   - c: the packed color
//
// Returns:
//   - mgl32.Vec3: the color channels
func UnpackColor(c uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c&0xFF) / 255,
		float32((c>>8)&0xFF) / 255,
		float32((c>>16)&0xFF) / 255,
	}
}

// quantize converts a [0,1] channel to 8 bits with round-half-up.
func quantize(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

// VPLData is the per-VPL shading record.
// Size: 48 bytes.
type VPLData struct {
	Direction            mgl32.Vec4 // offset  0: surface normal the VPL emits around
	Color                mgl32.Vec4 // offset 16: linear RGB flux
	SourceLightDirection mgl32.Vec4 // offset 32: direction back to the spawning light
}

// Cull mode flags carried in GPUCullUniforms.Flags.
const (
	// CullFlagVPLs enables the VPL list in the dispatch.
	CullFlagVPLs uint32 = 1 << iota
	// CullFlagBlended selects the blended-aware depth policy and disables VPLs.
	CullFlagBlended
)

// GPUCullUniformsSource is the WGSL declaration matching GPUCullUniforms.
//
//go:embed assets/cull_uniforms.wgsl
var GPUCullUniformsSource string

// GPUCullUniforms is the GPU-aligned uniform data for the tile culling compute
// kernel. It carries the matrices needed to rebuild tile frusta and convert
// depth to view space, the active light counts, and the tile sizing.
// Size: 176 bytes (WGSL uniform aligned).
//
// Layout:
//
//	mat4x4<f32> inv_proj             (64 bytes, offset   0)
//	mat4x4<f32> view                 (64 bytes, offset  64)
//	u32         num_lights           ( 4 bytes, offset 128)
//	u32         num_spot_lights      ( 4 bytes, offset 132)
//	u32         num_vpls             ( 4 bytes, offset 136)
//	u32         window_width         ( 4 bytes, offset 140)
//	u32         window_height        ( 4 bytes, offset 144)
//	u32         max_lights_per_tile  ( 4 bytes, offset 148)
//	u32         max_vpls_per_tile    ( 4 bytes, offset 152)
//	u32         num_tiles_x          ( 4 bytes, offset 156)
//	u32         num_tiles_y          ( 4 bytes, offset 160)
//	u32         flags                ( 4 bytes, offset 164)
//	u32         num_samples          ( 4 bytes, offset 168)
//	u32         _pad                 ( 4 bytes, offset 172)
type GPUCullUniforms struct {
	InvProj          [16]float32
	View             [16]float32
	NumLights        uint32
	NumSpotLights    uint32
	NumVPLs          uint32
	WindowWidth      uint32
	WindowHeight     uint32
	MaxLightsPerTile uint32
	MaxVPLsPerTile   uint32
	NumTilesX        uint32
	NumTilesY        uint32
	Flags            uint32
	NumSamples       uint32
	_pad             uint32
}

// NewGPUCullUniforms fills the uniform block from a capacity and the frame's
// matrices and counts.
//
// Parameters:
//   - capacity: the tile sizing for the viewport
//   - view: the world-to-view matrix
//   - invProj: the inverse projection matrix
//   - numPoints, numSpots, numVPLs: active light counts
//   - flags: CullFlag bits
//   - samples: depth samples per pixel
//
// Returns:
//   - GPUCullUniforms: the populated uniforms
func NewGPUCullUniforms(capacity TileCapacity, view, invProj mgl32.Mat4, numPoints, numSpots, numVPLs int, flags uint32, samples int) GPUCullUniforms {
	return GPUCullUniforms{
		InvProj:          invProj,
		View:             view,
		NumLights:        uint32(numPoints),
		NumSpotLights:    uint32(numSpots),
		NumVPLs:          uint32(numVPLs),
		WindowWidth:      uint32(capacity.Width),
		WindowHeight:     uint32(capacity.Height),
		MaxLightsPerTile: uint32(capacity.MaxLightsPerTile),
		MaxVPLsPerTile:   uint32(capacity.MaxVPLsPerTile),
		NumTilesX:        uint32(capacity.TilesX),
		NumTilesY:        uint32(capacity.TilesY),
		Flags:            flags,
		NumSamples:       uint32(samples),
	}
}

// Size returns the size of the GPUCullUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (176)
func (u *GPUCullUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPUCullUniforms into a 176-byte little-endian buffer
// suitable for GPU upload.
//
// Returns:
//   - []byte: 176-byte buffer ready for GPU upload
func (u *GPUCullUniforms) Marshal() []byte {
	buf := make([]byte, 176)
	off := 0

	// inv_proj (64 bytes)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.InvProj[i]))
		off += 4
	}
	// view (64 bytes)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.View[i]))
		off += 4
	}
	for _, v := range [...]uint32{
		u.NumLights, u.NumSpotLights, u.NumVPLs,
		u.WindowWidth, u.WindowHeight,
		u.MaxLightsPerTile, u.MaxVPLsPerTile,
		u.NumTilesX, u.NumTilesY,
		u.Flags, u.NumSamples,
		0, // _pad
	} {
		binary.LittleEndian.PutUint32(buf[off:off+4], v)
		off += 4
	}
	return buf
}

// MarshalCenterAndRadius serializes culling spheres into a little-endian
// vec4<f32> array for a storage buffer. An empty input yields one zeroed
// element so the buffer binding is never zero-sized.
//
// Parameters:
//   - spheres: center in xyz, radius in w
//
// Returns:
//   - []byte: 16 bytes per sphere
func MarshalCenterAndRadius(spheres []mgl32.Vec4) []byte {
	buf := make([]byte, 16*max(len(spheres), 1))
	for i, s := range spheres {
		for c := range 4 {
			binary.LittleEndian.PutUint32(buf[16*i+4*c:], math.Float32bits(s[c]))
		}
	}
	return buf
}
