package tiling

import (
	"time"

	"github.com/Carmen-Shannon/tiled-lighting/common"
)

// ListStats describes one light kind's lists for one tile.
type ListStats struct {
	CountA   int
	CountB   int
	Overflow int
}

// Total returns CountA+CountB.
func (s ListStats) Total() int { return s.CountA + s.CountB }

// TileStats is the outcome of culling one tile.
type TileStats struct {
	Tile       int
	MinZ       float32
	MaxZ       float32
	HalfZ      float32
	Points     ListStats
	Spots      ListStats
	VPLs       ListStats
	EdgePixels int
}

// Empty reports whether the tile saw only background depth.
func (s TileStats) Empty() bool {
	return s.MaxZ == 0 && s.MinZ == common.FltMax
}

// Overflow returns the number of lights the tile dropped across all kinds.
func (s TileStats) Overflow() int {
	return s.Points.Overflow + s.Spots.Overflow + s.VPLs.Overflow
}

// KindStats aggregates one light kind over a frame.
type KindStats struct {
	Active     int     `yaml:"active"`
	AvgPerTile float64 `yaml:"avg_per_tile"`
	MaxPerTile int     `yaml:"max_per_tile"`
	Dropped    int     `yaml:"dropped"`
}

// FrameStats aggregates one dispatch.
type FrameStats struct {
	Mode          string        `yaml:"mode"`
	Backend       string        `yaml:"backend"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Tiles         int           `yaml:"tiles"`
	EmptyTiles    int           `yaml:"empty_tiles"`
	Points        KindStats     `yaml:"points"`
	Spots         KindStats     `yaml:"spots"`
	VPLs          KindStats     `yaml:"vpls"`
	OverflowTiles int           `yaml:"overflow_tiles"`
	DroppedLights int           `yaml:"dropped_lights"`
	EdgePixels    int           `yaml:"edge_pixels"`
	DispatchTime  time.Duration `yaml:"dispatch_time"`
}

// NewFrameStats folds per-tile results into frame totals.
//
// Parameters:
//   - p: the dispatched pass
//   - tiles: per-tile results indexed by tile
//   - elapsed: wall time of the dispatch
//
// Returns:
//   - FrameStats: the aggregate
func NewFrameStats(p *Pass, tiles []TileStats, elapsed time.Duration) FrameStats {
	fs := FrameStats{
		Mode:         p.Mode.String(),
		Width:        p.Capacity.Width,
		Height:       p.Capacity.Height,
		Tiles:        len(tiles),
		DispatchTime: elapsed,
	}
	fs.Points.Active = len(p.Points)
	fs.Spots.Active = len(p.Spots)
	fs.VPLs.Active = p.NumVPLs()

	var sumPoints, sumSpots, sumVPLs int
	for _, t := range tiles {
		if t.Empty() {
			fs.EmptyTiles++
		}
		if o := t.Overflow(); o > 0 {
			fs.OverflowTiles++
			fs.DroppedLights += o
		}
		fs.EdgePixels += t.EdgePixels

		sumPoints += t.Points.Total()
		sumSpots += t.Spots.Total()
		sumVPLs += t.VPLs.Total()
		fs.Points.MaxPerTile = max(fs.Points.MaxPerTile, t.Points.Total())
		fs.Spots.MaxPerTile = max(fs.Spots.MaxPerTile, t.Spots.Total())
		fs.VPLs.MaxPerTile = max(fs.VPLs.MaxPerTile, t.VPLs.Total())
		fs.Points.Dropped += t.Points.Overflow
		fs.Spots.Dropped += t.Spots.Overflow
		fs.VPLs.Dropped += t.VPLs.Overflow
	}
	if n := float64(len(tiles)); n > 0 {
		fs.Points.AvgPerTile = float64(sumPoints) / n
		fs.Spots.AvgPerTile = float64(sumSpots) / n
		fs.VPLs.AvgPerTile = float64(sumVPLs) / n
	}
	return fs
}
