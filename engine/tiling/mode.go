package tiling

import "fmt"

// Mode selects which kernel variant a dispatch runs.
type Mode int

const (
	// ModeForwardPlus culls points and spots into global index buffers.
	ModeForwardPlus Mode = iota
	// ModeForwardPlusVPL additionally culls VPLs.
	ModeForwardPlusVPL
	// ModeDeferred culls points and spots and shades inline from the group lists.
	ModeDeferred
	// ModeDeferredVPL additionally culls and shades VPLs inline.
	ModeDeferredVPL
	// ModeBlended culls for transparent geometry: the near end of each tile's
	// range comes from the blended depth. VPLs are never culled here.
	ModeBlended
)

// VPLs reports whether the mode culls VPLs.
func (m Mode) VPLs() bool {
	return m == ModeForwardPlusVPL || m == ModeDeferredVPL
}

// Deferred reports whether the mode shades inline.
func (m Mode) Deferred() bool {
	return m == ModeDeferred || m == ModeDeferredVPL
}

// Blended reports whether the mode uses the blended depth policy.
func (m Mode) Blended() bool {
	return m == ModeBlended
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeForwardPlus:
		return "forward_plus"
	case ModeForwardPlusVPL:
		return "forward_plus_vpl"
	case ModeDeferred:
		return "deferred"
	case ModeDeferredVPL:
		return "deferred_vpl"
	case ModeBlended:
		return "blended"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ModeFor returns the opaque kernel mode for a technique and VPL setting.
//
// Parameters:
//   - deferred: true for tiled deferred, false for Forward+
//   - vpls: true to cull VPLs
//
// Returns:
//   - Mode: the kernel mode
func ModeFor(deferred, vpls bool) Mode {
	switch {
	case deferred && vpls:
		return ModeDeferredVPL
	case deferred:
		return ModeDeferred
	case vpls:
		return ModeForwardPlusVPL
	default:
		return ModeForwardPlus
	}
}
