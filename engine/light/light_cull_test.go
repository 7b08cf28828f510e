package light

import "testing"

func TestTileCounts(t *testing.T) {
	tests := []struct {
		w, h   int
		tx, ty uint32
	}{
		{1920, 1080, 120, 68},
		{1280, 720, 80, 45},
		{17, 16, 2, 1},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		tx, ty := TileCounts(tt.w, tt.h)
		if tx != tt.tx || ty != tt.ty {
			t.Errorf("TileCounts(%d, %d): expected %dx%d, got %dx%d", tt.w, tt.h, tt.tx, tt.ty, tx, ty)
		}
	}
}

func TestMaxNumLightsPerTile(t *testing.T) {
	tests := []struct {
		h      int
		lights int
		vpls   int
	}{
		{1080, 128, 952},
		{2160, 128, 952},
		{720, 176, 976},
		{120, 256, 1016},
		{119, 272, 1024},
		{-5, 272, 1024},
	}
	for _, tt := range tests {
		if got := MaxNumLightsPerTile(tt.h); got != tt.lights {
			t.Errorf("MaxNumLightsPerTile(%d): expected %d, got %d", tt.h, tt.lights, got)
		}
		if got := MaxNumVPLsPerTile(tt.h); got != tt.vpls {
			t.Errorf("MaxNumVPLsPerTile(%d): expected %d, got %d", tt.h, tt.vpls, got)
		}
		if MaxNumLightsPerTile(tt.h) > MaxNumLightsPerTileCap {
			t.Errorf("runtime max exceeds compile-time cap at h=%d", tt.h)
		}
	}
}

func TestTileCapacity(t *testing.T) {
	c := NewTileCapacity(1920, 1080)
	if c.TilesX != 120 || c.TilesY != 68 {
		t.Fatalf("expected 120x68 tiles, got %dx%d", c.TilesX, c.TilesY)
	}
	if c.NumTiles() != 8160 {
		t.Errorf("expected 8160 tiles, got %d", c.NumTiles())
	}
	if c.LightElementsPerTile() != 260 {
		t.Errorf("expected 260 elements per tile, got %d", c.LightElementsPerTile())
	}
	if c.VPLElementsPerTile() != 2*952+4 {
		t.Errorf("expected %d VPL elements per tile, got %d", 2*952+4, c.VPLElementsPerTile())
	}

	small := NewTileCapacity(10, 5)
	if small.TilesX != 1 || small.TilesY != 1 {
		t.Errorf("expected a partial viewport to round up to one tile, got %dx%d", small.TilesX, small.TilesY)
	}
}
