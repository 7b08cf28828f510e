package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

// HeatmapStyle selects how per-tile light counts are colored.
type HeatmapStyle int

const (
	// HeatmapRadar uses the weather radar palette on a log scale.
	HeatmapRadar HeatmapStyle = iota
	// HeatmapGrayscale maps count/max linearly to gray.
	HeatmapGrayscale
)

// ParseHeatmapStyle converts a style name from configuration.
func ParseHeatmapStyle(s string) (HeatmapStyle, error) {
	switch s {
	case "radar", "":
		return HeatmapRadar, nil
	case "grayscale", "gray":
		return HeatmapGrayscale, nil
	default:
		return 0, fmt.Errorf("unknown heatmap style %q", s)
	}
}

var radarColors = [14]color.RGBA{
	rgb(0, 0.9255, 0.9255),   // cyan
	rgb(0, 0.62745, 0.9647),  // light blue
	rgb(0, 0, 0.9647),        // blue
	rgb(0, 1, 0),             // bright green
	rgb(0, 0.7843, 0),        // green
	rgb(0, 0.5647, 0),        // dark green
	rgb(1, 1, 0),             // yellow
	rgb(0.90588, 0.75294, 0), // yellow-orange
	rgb(1, 0.5647, 0),        // orange
	rgb(1, 0, 0),             // bright red
	rgb(0.8392, 0, 0),        // red
	rgb(0.75294, 0, 0),       // dark red
	rgb(1, 0, 1),             // magenta
	rgb(0.6, 0.3333, 0.7882), // purple
}

var (
	radarAtMax = rgb(0.847, 0.745, 0.921)
	radarOver  = rgb(1, 1, 1)
	radarNone  = rgb(0, 0, 0)
)

func rgb(r, g, b float32) color.RGBA {
	return color.RGBA{R: uint8(r*255 + 0.5), G: uint8(g*255 + 0.5), B: uint8(b*255 + 0.5), A: 255}
}

// RadarColor maps a tile's light count to the radar palette. Zero is black,
// exactly max is light purple and anything above max is white. Between, the
// palette index is log_b(n) where b is chosen so that log_b(max) is 14.
//
// Parameters:
//   - n: the tile's light count
//   - maxPerTile: the per-tile maximum
//
// Returns:
//   - color.RGBA: the tile color
func RadarColor(n, maxPerTile int) color.RGBA {
	switch {
	case n == 0:
		return radarNone
	case n == maxPerTile:
		return radarAtMax
	case n > maxPerTile:
		return radarOver
	}
	logBase := math.Exp2(0.07142857 * math.Log2(float64(maxPerTile)))
	idx := int(math.Floor(math.Log2(float64(n)) / math.Log2(logBase)))
	return radarColors[min(max(idx, 0), len(radarColors)-1)]
}

// GrayscaleColor maps count/max to a gray level, saturating at white.
//
// Parameters:
//   - n: the tile's light count
//   - maxPerTile: the per-tile maximum
//
// Returns:
//   - color.RGBA: the tile color
func GrayscaleColor(n, maxPerTile int) color.RGBA {
	if maxPerTile <= 0 {
		return radarNone
	}
	v := uint8(min(float64(n)/float64(maxPerTile), 1)*255 + 0.5)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// Heatmap draws one pixel per tile colored by the summed A+B counts of the
// given buffers, then scales it up to the viewport with nearest-neighbor
// filtering so every tile covers its 16×16 pixels. The maximum is the
// point/spot budget unless only VPL buffers are given.
//
// Parameters:
//   - style: the palette
//   - buffers: index buffers of one viewport; nil entries are skipped
//
// Returns:
//   - *image.RGBA: the heat map at viewport resolution
//   - error: non-nil when no buffer is given or their capacities differ
func Heatmap(style HeatmapStyle, buffers ...*tiling.TileIndexBuffer) (*image.RGBA, error) {
	var (
		c       light.TileCapacity
		set     bool
		onlyVPL = true
		bufs    []*tiling.TileIndexBuffer
	)
	for _, b := range buffers {
		if b == nil {
			continue
		}
		if set && b.Capacity() != c {
			return nil, fmt.Errorf("heatmap: %s buffer has a different capacity", b.Kind())
		}
		c, set = b.Capacity(), true
		onlyVPL = onlyVPL && b.Kind() == light.LightTypeVPL
		bufs = append(bufs, b)
	}
	if !set {
		return nil, fmt.Errorf("heatmap: no index buffers")
	}

	maxPerTile := c.MaxLightsPerTile
	if onlyVPL {
		maxPerTile = c.MaxVPLsPerTile
	}
	colorOf := RadarColor
	if style == HeatmapGrayscale {
		colorOf = GrayscaleColor
	}

	tiles := image.NewRGBA(image.Rect(0, 0, c.TilesX, c.TilesY))
	for ty := range c.TilesY {
		for tx := range c.TilesX {
			n := 0
			for _, b := range bufs {
				n += b.TileCount(tx + ty*c.TilesX)
			}
			tiles.SetRGBA(tx, ty, colorOf(n, maxPerTile))
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, c.TilesX*light.TileRes, c.TilesY*light.TileRes))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), tiles, tiles.Bounds(), xdraw.Src, nil)
	return out.SubImage(image.Rect(0, 0, c.Width, c.Height)).(*image.RGBA), nil
}

// WritePNG encodes an image as PNG.
//
// Parameters:
//   - w: the destination
//   - img: the image
//
// Returns:
//   - error: an encoding or write error
func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}
