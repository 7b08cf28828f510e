package renderer

import (
	"image"
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

// GBuffer holds the world-space surface of every pixel for one layer of
// geometry. Pixels without geometry have Covered false.
type GBuffer struct {
	Width    int
	Height   int
	Covered  []bool
	Position []mgl32.Vec3
	Normal   []mgl32.Vec3
}

// NewGBuffer allocates an empty G-buffer.
//
// Parameters:
//   - width, height: size in pixels
//
// Returns:
//   - *GBuffer: the empty buffer
func NewGBuffer(width, height int) *GBuffer {
	n := width * height
	return &GBuffer{
		Width:    width,
		Height:   height,
		Covered:  make([]bool, n),
		Position: make([]mgl32.Vec3, n),
		Normal:   make([]mgl32.Vec3, n),
	}
}

// Set stores the surface seen by pixel (x, y).
func (g *GBuffer) Set(x, y int, pos, normal mgl32.Vec3) {
	i := y*g.Width + x
	g.Covered[i] = true
	g.Position[i] = pos
	g.Normal[i] = normal
}

// Unset marks pixel (x, y) uncovered.
func (g *GBuffer) Unset(x, y int) {
	g.Covered[y*g.Width+x] = false
}

// Clear marks every pixel uncovered.
func (g *GBuffer) Clear() {
	clear(g.Covered)
}

func (g *GBuffer) at(x, y int) (pos, normal mgl32.Vec3, ok bool) {
	i := y*g.Width + x
	if !g.Covered[i] {
		return pos, normal, false
	}
	return g.Position[i], g.Normal[i], true
}

// LightImage is the HDR light accumulation target.
type LightImage struct {
	Width  int
	Height int
	Pix    []mgl32.Vec3
}

// NewLightImage allocates a black image.
func NewLightImage(width, height int) *LightImage {
	return &LightImage{Width: width, Height: height, Pix: make([]mgl32.Vec3, width*height)}
}

// At returns the accumulated light of pixel (x, y).
func (l *LightImage) At(x, y int) mgl32.Vec3 {
	return l.Pix[y*l.Width+x]
}

func (l *LightImage) set(x, y int, c mgl32.Vec3) {
	l.Pix[y*l.Width+x] = c
}

// Clear resets the image to black.
func (l *LightImage) Clear() {
	clear(l.Pix)
}

// ToRGBA tone maps the image with a Reinhard curve after scaling by exposure.
//
// Parameters:
//   - exposure: linear scale applied before tone mapping
//
// Returns:
//   - *image.RGBA: an 8-bit image of the same size
func (l *LightImage) ToRGBA(exposure float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	for y := range l.Height {
		for x := range l.Width {
			c := l.At(x, y).Mul(exposure)
			img.SetRGBA(x, y, color.RGBA{
				R: toneMap(c.X()),
				G: toneMap(c.Y()),
				B: toneMap(c.Z()),
				A: 255,
			})
		}
	}
	return img
}

func toneMap(v float32) uint8 {
	v = max(v, 0)
	return uint8(v/(1+v)*255 + 0.5)
}

// Frame is everything one RenderFrame call consumes. The depth buffers and
// G-buffers must match the renderer's viewport.
type Frame struct {
	View    mgl32.Mat4
	InvProj mgl32.Mat4
	Eye     mgl32.Vec3

	Depth        *tiling.DepthBuffer
	BlendedDepth *tiling.DepthBuffer

	Opaque  *GBuffer
	Blended *GBuffer

	Points *light.Pool
	Spots  *light.Pool
	VPLs   *light.Pool

	// Active counts, clamped to the pool sizes.
	NumPoints int
	NumSpots  int

	// MaxVPLs of 0 disables VPLs. VPLCounter is the number of VPLs the
	// producer appended this frame.
	MaxVPLs    int
	VPLCounter int
}

// vplsEnabled reports whether the frame culls VPLs.
func (f *Frame) vplsEnabled() bool {
	return f.MaxVPLs > 0 && f.VPLs.Len() > 0
}

func (f *Frame) lights() *lightSet {
	s := &lightSet{points: f.Points, spots: f.Spots}
	if f.vplsEnabled() {
		s.vpls = f.VPLs
	}
	return s
}

// FrameResult is the output of one frame. The buffers are owned by the
// Renderer and stay valid until the next RenderFrame call.
type FrameResult struct {
	Technique Technique

	Opaque  tiling.FrameStats
	Blended *tiling.FrameStats

	// Per-tile lists of the opaque pass. The Tiled Deferred technique leaves
	// them nil unless debug lists are enabled.
	Points *tiling.TileIndexBuffer
	Spots  *tiling.TileIndexBuffer
	VPLs   *tiling.TileIndexBuffer

	// Per-tile lists of the blended pass, nil without blended geometry.
	BlendedPoints *tiling.TileIndexBuffer
	BlendedSpots  *tiling.TileIndexBuffer

	Edges *tiling.EdgeMask
	Light *LightImage

	CullTime  time.Duration
	ShadeTime time.Duration
}
