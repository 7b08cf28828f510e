package light

// TileRes is the width and height in pixels of each screen-space tile used
// for light culling. One work group of TileRes*TileRes lanes culls each tile.
const TileRes = 16

// NumThreadsPerTile is the number of lanes in one culling work group.
const NumThreadsPerTile = TileRes * TileRes

// MaxNumLightsPerTileCap is the compile-time capacity of each group-shared
// point/spot list. Runtime per-tile maxima never exceed it.
const MaxNumLightsPerTileCap = 272

// MaxNumVPLsPerTileCap is the compile-time capacity of each group-shared VPL list.
const MaxNumVPLsPerTileCap = 1024

// OverflowWordsPerTile is the number of u32 drop counters the GPU kernel
// writes for each tile: points, spots, then VPLs.
const OverflowWordsPerTile = 3

// capacityHeightLimit is the viewport height at and above which the per-tile
// budgets stop shrinking.
const capacityHeightLimit = 1080

// capacityHeightStep is the height step, in pixels, between budget reductions.
const capacityHeightStep = 120

// TileCounts computes the number of tiles in each dimension for a given screen
// resolution and the configured TileRes.
//
// Parameters:
//   - screenWidth: screen width in pixels
//   - screenHeight: screen height in pixels
//
// Returns:
//   - tileCountX: number of tile columns
//   - tileCountY: number of tile rows
func TileCounts(screenWidth, screenHeight int) (tileCountX, tileCountY uint32) {
	tileCountX = (uint32(max(screenWidth, 0)) + TileRes - 1) / TileRes
	tileCountY = (uint32(max(screenHeight, 0)) + TileRes - 1) / TileRes
	return
}

// MaxNumLightsPerTile returns the runtime per-tile list capacity for point and
// spot lights. Lower resolutions have larger tiles relative to the scene, so
// they get a larger budget: 256 at 120 lines down to 128 at 1080 and above.
//
// Parameters:
//   - screenHeight: viewport height in pixels
//
// Returns:
//   - int: the per-list capacity
func MaxNumLightsPerTile(screenHeight int) int {
	steps := clampHeight(screenHeight) / capacityHeightStep
	return MaxNumLightsPerTileCap - 16*steps
}

// MaxNumVPLsPerTile returns the runtime per-tile list capacity for VPLs.
//
// Parameters:
//   - screenHeight: viewport height in pixels
//
// Returns:
//   - int: the per-list capacity
func MaxNumVPLsPerTile(screenHeight int) int {
	steps := clampHeight(screenHeight) / capacityHeightStep
	return MaxNumVPLsPerTileCap - 8*steps
}

func clampHeight(h int) int {
	return min(max(h, 0), capacityHeightLimit)
}

// TileCapacity holds every size that both the index writer and the index
// reader depend on. It is computed once per viewport so that the two sides
// can never disagree on strides.
type TileCapacity struct {
	Width            int
	Height           int
	TilesX           int
	TilesY           int
	MaxLightsPerTile int
	MaxVPLsPerTile   int
}

// NewTileCapacity computes the tile grid and per-tile budgets for a viewport.
//
// Parameters:
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - TileCapacity: the sizing for this viewport
func NewTileCapacity(width, height int) TileCapacity {
	tx, ty := TileCounts(width, height)
	return TileCapacity{
		Width:            width,
		Height:           height,
		TilesX:           int(tx),
		TilesY:           int(ty),
		MaxLightsPerTile: MaxNumLightsPerTile(height),
		MaxVPLsPerTile:   MaxNumVPLsPerTile(height),
	}
}

// NumTiles returns the total number of tiles.
func (c TileCapacity) NumTiles() int {
	return c.TilesX * c.TilesY
}

// LightElementsPerTile returns the per-tile stride, in uint16 elements, of a
// point or spot index buffer: a four-element header plus two lists.
func (c TileCapacity) LightElementsPerTile() int {
	return 2*c.MaxLightsPerTile + 4
}

// VPLElementsPerTile returns the per-tile stride of a VPL index buffer.
func (c TileCapacity) VPLElementsPerTile() int {
	return 2*c.MaxVPLsPerTile + 4
}
