package shiftfile

import "github.com/govetachun/shiftfile/internal/layout"

// Tunable constants named in spec.md §4.6-§4.9.
const (
	// CompactionSteps bounds how many neighbour blocks on each side
	// make_room is willing to touch (spec.md §4.8).
	CompactionSteps = 4

	// ExtraGrowthNum/Den implement EXTRA_GROWTH = ×3/2 (spec.md §4.9).
	ExtraGrowthNum = 3
	ExtraGrowthDen = 2

	// MaxSize bounds the logical file size so that free_count*B cannot
	// overflow a uint32 (spec.md §3 invariant 7). 1GiB leaves enormous
	// headroom below the 4GiB uint32 ceiling for any block size this
	// engine supports.
	MaxSize uint32 = 1 << 30
)

// maxBlocks returns the largest number of usable data blocks (excluding
// the reserved swap block) addressable within MaxSize.
func maxBlocks(blockSize uint32) uint32 {
	return MaxSize/blockSize - 1
}

func clampBlocks(blocks uint32, blockSize uint32) uint32 {
	mb := maxBlocks(blockSize)
	if blocks > mb {
		return mb
	}
	return blocks
}

// worthRebuild implements spec.md §4.6's heuristic: whole-tree rebuild
// (O(N)) beats d incremental edits at O(log N) each iff
// final_size/d > log2(average_size). Computed with a shift test so no
// floating point or log call is needed, mirroring the integer-only
// style throughout btree/*.go.
func worthRebuild(finalSize uint32, d uint32, blockSize uint32) bool {
	if d == 0 {
		return false
	}
	// average_size here is taken as blockSize, the unit of occupancy the
	// heuristic is comparing against; log2(blockSize) is its bit length
	// minus one.
	logAvg := bitLen(blockSize) - 1
	if logAvg < 1 {
		logAvg = 1
	}
	return finalSize/d > uint32(logAvg)
}

func bitLen(v uint32) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// DefaultBlockSize is a convenience re-export so callers outside this package
// don't need to import internal/layout just for the default.
const DefaultBlockSize = layout.BlockSizeDefault
