package light

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrPoolFull is returned when adding a light to a pool that is at capacity.
var ErrPoolFull = errors.New("light pool is full")

// ErrKindMismatch is returned when adding a light whose type differs from the pool's.
var ErrKindMismatch = errors.New("light type does not match pool")

// Pool is a fixed-capacity arena of lights of one kind, stored in the flat
// per-field layout the culling kernel and shading read directly. The first
// Len() entries of every slice are valid.
type Pool struct {
	kind            LightType
	centerAndRadius []mgl32.Vec4
	colors          []uint32
	spotParams      []SpotParams
	vplData         []VPLData
}

// NewPool allocates an empty pool for the given light kind.
//
// Parameters:
//   - kind: the light type this pool stores
//   - capacity: the maximum number of lights
//
// Returns:
//   - *Pool: the empty pool
func NewPool(kind LightType, capacity int) *Pool {
	p := &Pool{
		kind:            kind,
		centerAndRadius: make([]mgl32.Vec4, 0, capacity),
	}
	switch kind {
	case LightTypeVPL:
		p.vplData = make([]VPLData, 0, capacity)
	case LightTypeSpot:
		p.spotParams = make([]SpotParams, 0, capacity)
		fallthrough
	default:
		p.colors = make([]uint32, 0, capacity)
	}
	return p
}

// Add appends a light to the pool. Point and spot colors are quantized to
// 8 bits per channel.
//
// Parameters:
//   - l: the light to store
//
// Returns:
//   - error: ErrPoolFull at capacity, ErrKindMismatch for a foreign light type
func (p *Pool) Add(l Light) error {
	if l.Type() != p.kind {
		return fmt.Errorf("%w: got %s, pool holds %s", ErrKindMismatch, l.Type(), p.kind)
	}
	if len(p.centerAndRadius) == cap(p.centerAndRadius) {
		return ErrPoolFull
	}

	p.centerAndRadius = append(p.centerAndRadius, l.CenterAndRadius())
	c := l.Color()
	switch p.kind {
	case LightTypeVPL:
		p.vplData = append(p.vplData, VPLData{
			Direction:            l.Direction().Vec4(0),
			Color:                c.Vec4(1),
			SourceLightDirection: l.SourceDirection().Vec4(0),
		})
	case LightTypeSpot:
		p.spotParams = append(p.spotParams, PackSpotParams(l.Direction(), l.CosCone(), l.FalloffRadius()))
		fallthrough
	default:
		p.colors = append(p.colors, PackColor(quantize(c[0]), quantize(c[1]), quantize(c[2])))
	}
	return nil
}

// Kind returns the light type stored in this pool.
func (p *Pool) Kind() LightType {
	return p.kind
}

// Len returns the number of lights stored.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.centerAndRadius)
}

// Cap returns the pool's capacity.
func (p *Pool) Cap() int {
	return cap(p.centerAndRadius)
}

// Active clamps a requested active count to the pool's contents.
//
// Parameters:
//   - n: the requested count
//
// Returns:
//   - int: n limited to [0, Len()]
func (p *Pool) Active(n int) int {
	return min(max(n, 0), p.Len())
}

// CenterAndRadius returns the culling spheres.
func (p *Pool) CenterAndRadius() []mgl32.Vec4 {
	if p == nil {
		return nil
	}
	return p.centerAndRadius
}

// Colors returns the packed RGBA8 colors of point and spot lights.
func (p *Pool) Colors() []uint32 {
	return p.colors
}

// SpotParams returns the packed spot parameters. Nil for other kinds.
func (p *Pool) SpotParams() []SpotParams {
	return p.spotParams
}

// VPLData returns the VPL shading records. Nil for other kinds.
func (p *Pool) VPLData() []VPLData {
	return p.vplData
}

// Color returns the linear color of light i.
//
// Parameters:
//   - i: the light index
//
// Returns:
//   - mgl32.Vec3: the color
func (p *Pool) Color(i int) mgl32.Vec3 {
	if p.kind == LightTypeVPL {
		return p.vplData[i].Color.Vec3()
	}
	return UnpackColor(p.colors[i])
}

// Reset empties the pool without releasing its storage. Only the per-frame
// VPL pool is reset; generated pools stay immutable.
func (p *Pool) Reset() {
	p.centerAndRadius = p.centerAndRadius[:0]
	p.colors = p.colors[:0]
	p.spotParams = p.spotParams[:0]
	p.vplData = p.vplData[:0]
}

// LightingMode selects which light set is active.
type LightingMode int

const (
	// LightingShadows uses the authored shadow-casting lights.
	LightingShadows LightingMode = iota
	// LightingRandom uses the generated random lights.
	LightingRandom
)

// String returns the config name of the mode.
func (m LightingMode) String() string {
	switch m {
	case LightingShadows:
		return "shadows"
	case LightingRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParseLightingMode parses a lighting mode name ("shadows" or "random").
//
// Parameters:
//   - s: the mode name, case-insensitive
//
// Returns:
//   - LightingMode: the parsed mode
//   - error: non-nil for an unknown name
func ParseLightingMode(s string) (LightingMode, error) {
	switch strings.ToLower(s) {
	case "shadows", "shadow":
		return LightingShadows, nil
	case "random":
		return LightingRandom, nil
	default:
		return LightingShadows, fmt.Errorf("unknown lighting mode %q", s)
	}
}

// Library holds every generated pool. It is built once for a scene's bounds.
type Library struct {
	RandomPoints *Pool
	RandomSpots  *Pool
	ShadowPoints *Pool
	ShadowSpots  *Pool
}

// NewLibrary generates the random pools for the given scene bounds and the
// authored shadow-casting pools.
//
// Parameters:
//   - bounds: the scene bounding box
//
// Returns:
//   - *Library: the populated library
func NewLibrary(bounds Bounds) *Library {
	points, spots := GenerateRandomPools(bounds, DefaultSeed)
	shadowPoints, shadowSpots := NewShadowCastingPools()
	return &Library{
		RandomPoints: points,
		RandomSpots:  spots,
		ShadowPoints: shadowPoints,
		ShadowSpots:  shadowSpots,
	}
}

// Select returns the point and spot pools for a lighting mode.
//
// Parameters:
//   - mode: the active lighting mode
//
// Returns:
//   - points: the point light pool
//   - spots: the spot light pool
func (lib *Library) Select(mode LightingMode) (points, spots *Pool) {
	if mode == LightingRandom {
		return lib.RandomPoints, lib.RandomSpots
	}
	return lib.ShadowPoints, lib.ShadowSpots
}
