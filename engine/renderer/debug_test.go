package renderer

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/tiled-lighting/engine/light"
	"github.com/Carmen-Shannon/tiled-lighting/engine/tiling"
)

func TestRadarColor(t *testing.T) {
	const maxPerTile = 272
	tests := []struct {
		name string
		n    int
		want color.RGBA
	}{
		{"none", 0, color.RGBA{0, 0, 0, 255}},
		{"one", 1, radarColors[0]},
		{"just below max", maxPerTile - 1, radarColors[13]},
		{"max", maxPerTile, radarAtMax},
		{"over max", maxPerTile + 1, color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RadarColor(tt.n, maxPerTile); got != tt.want {
				t.Errorf("RadarColor(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}

	prev := -1
	for n := 1; n < maxPerTile; n++ {
		c := RadarColor(n, maxPerTile)
		idx := -1
		for i, rc := range radarColors {
			if rc == c {
				idx = i
			}
		}
		if idx < prev {
			t.Fatalf("palette index went backwards at n=%d", n)
		}
		prev = idx
	}
}

func TestGrayscaleColor(t *testing.T) {
	if c := GrayscaleColor(0, 10); c.R != 0 {
		t.Errorf("expected black, got %v", c)
	}
	if c := GrayscaleColor(20, 10); c.R != 255 {
		t.Errorf("expected saturation at white, got %v", c)
	}
	if c := GrayscaleColor(5, 10); c.R != 128 {
		t.Errorf("expected mid gray, got %v", c)
	}
}

func TestHeatmap(t *testing.T) {
	c := light.NewTileCapacity(40, 20)
	points := tiling.NewTileIndexBuffer(c, light.LightTypePoint)
	spots := tiling.NewTileIndexBuffer(c, light.LightTypeSpot)
	for lane := range light.NumThreadsPerTile {
		points.WriteTile(lane, 1, 10, []uint16{0}, nil)
		spots.WriteTile(lane, 1, 10, nil, []uint16{0})
	}

	img, err := Heatmap(HeatmapRadar, points, nil, spots)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("expected a 40x20 image, got %v", b)
	}
	if got := img.RGBAAt(0, 0); got != radarNone {
		t.Errorf("tile 0 should be black, got %v", got)
	}
	if got, want := img.RGBAAt(20, 5), RadarColor(2, c.MaxLightsPerTile); got != want {
		t.Errorf("tile 1 should show two lights: got %v want %v", got, want)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("written PNG does not decode: %v", err)
	}

	if _, err := Heatmap(HeatmapRadar); err == nil {
		t.Error("expected an error without buffers")
	}
	other := tiling.NewTileIndexBuffer(light.NewTileCapacity(64, 64), light.LightTypePoint)
	if _, err := Heatmap(HeatmapGrayscale, points, other); err == nil {
		t.Error("expected an error for mismatched capacities")
	}
}
