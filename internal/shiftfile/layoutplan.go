package shiftfile

import "github.com/govetachun/shiftfile/internal/layout"

// roundUp rounds x up to the next multiple of n (n must be a power of two
// in practice, but this works for any positive n).
func roundUp(x, n uint32) uint32 {
	if x%n == 0 {
		return x
	}
	return x + (n - x%n)
}

// planLayout computes a (meta_data_size, map_size) pair that can hold at
// least minUsableBlocks data blocks plus the reserved swap block, with
// EXTRA_GROWTH amortisation applied and clamped to the addressable range
// (spec.md §4.9). growthNum/growthDen is the EXTRA_GROWTH ratio to apply;
// callers without an open Container yet (the initial promote layout) use
// the package defaults, while growTo/rebuildWithCapacity pass the
// container's own (possibly CLI-overridden) ratio.
func planLayout(minUsableBlocks uint32, blockSize uint32, growthNum, growthDen uint32) (meta, mapSize, usableBlocks uint32) {
	blocks := minUsableBlocks * growthNum / growthDen
	if blocks < minUsableBlocks {
		blocks = minUsableBlocks
	}
	blocks = clampBlocks(blocks, blockSize)
	if blocks < minUsableBlocks {
		blocks = minUsableBlocks
	}
	meta = layout.MetaDataSizeFor(blocks, blockSize)
	mapSize = meta + (blocks+1)*blockSize // +1 for the reserved swap block
	return meta, mapSize, blocks
}
