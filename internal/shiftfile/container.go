// Package shiftfile implements the shiftable random-access byte container
// of spec.md: a file-like store whose insert/remove operations run in
// sub-linear time by shifting block-sized chunks through a height-
// balanced, order-statistic tree instead of rewriting the whole file.
package shiftfile

import (
	"github.com/govetachun/shiftfile/internal/arena"
	"github.com/govetachun/shiftfile/internal/avltree"
	"github.com/govetachun/shiftfile/internal/layout"
	"github.com/govetachun/shiftfile/internal/osal"
	"github.com/govetachun/shiftfile/pkg/utils"
	"github.com/govetachun/shiftfile/pkg/xerrors"
)

// cursor caches the last-resolved (abs_pos, node, rel_pos) triple, per
// spec.md §4.4 and §9 — a single-writer optimisation, explicitly not
// safe across processes.
type cursor struct {
	absPos uint32
	node   uint32
	relPos uint32
}

// Container is the open shiftable file: the mapped region plus the
// arena/free-list/tree views over it and the cached cursor.
type Container struct {
	osFile osal.File
	opened bool

	region    []byte
	hdr       layout.Header
	arena     *arena.Arena
	free      *arena.FreeList
	tree      *avltree.Tree
	dummy     uint32
	blockSize uint32

	disableShrink bool
	growthNum     uint32
	growthDen     uint32
	cur           cursor
}

// Size returns the logical file size: bytes_subtree(dummy).
func (c *Container) Size() uint32 {
	return c.arena.BytesSubtree(c.dummy)
}

// Tell returns the cursor's absolute position.
func (c *Container) Tell() uint32 { return c.cur.absPos }

// BlockSize returns B, the fixed data block size this container was
// formatted with.
func (c *Container) BlockSize() uint32 { return c.blockSize }

// firstDataBlockIndex returns the lowest node index whose data block
// lives past the metadata region (layout.FirstDataBlockIndex).
func (c *Container) firstDataBlockIndex() uint32 {
	return layout.FirstDataBlockIndex(c.hdr.MetaDataSize(), c.blockSize)
}

// totalBlockSlots returns how many blockSize-sized slots the whole
// mapped region has (metadata-occupied + usable + the swap block).
func (c *Container) totalBlockSlots() uint32 {
	return layout.TotalBlocks(c.hdr.MapSize(), c.blockSize)
}

// usableBlockCount returns how many data-block-sized node slots are
// available for occupied+free use (excludes the metadata prefix and the
// reserved swap block).
func (c *Container) usableBlockCount() uint32 {
	return c.totalBlockSlots() - c.firstDataBlockIndex() - 1
}

// usedBlocks returns the number of occupied (data-holding) nodes.
func (c *Container) usedBlocks() uint32 {
	return c.usableBlockCount() - uint32(c.free.Count())
}

// swapBlockIndex returns the node index of the reserved swap block: the
// last block-sized slot in the region.
func (c *Container) swapBlockIndex() uint32 {
	return c.totalBlockSlots() - 1
}

// DisableShrink toggles whether shrink() auto-triggers after remove
// (spec.md §4.9), for real-time workloads that would rather keep blocks
// than pay for a resize.
func (c *Container) DisableShrink(v bool) { c.disableShrink = v }

// SetGrowthFactor overrides EXTRA_GROWTH (spec.md §4.9) from its default
// ExtraGrowthNum/ExtraGrowthDen for this container. num/den must express
// a ratio >= 1 (growth never shrinks the requested capacity); a smaller
// ratio means less amortisation headroom and more frequent growTo calls.
func (c *Container) SetGrowthFactor(num, den uint32) error {
	if den == 0 || num < den {
		return xerrors.Precondition("set_growth_factor", "growth factor must be a ratio >= 1")
	}
	c.growthNum = num
	c.growthDen = den
	return nil
}

// extraGrowth applies this container's EXTRA_GROWTH ratio to a block
// count, clamped so it never drops below its input.
func (c *Container) extraGrowth(blocks uint32) uint32 {
	g := blocks * c.growthNum / c.growthDen
	if g < blocks {
		return blocks
	}
	return g
}

// rebind repoints every view at a freshly mapped region (after grow or
// shrink changes the backing mapping), per spec.md §9's pointer-freedom
// rule: nothing outside this function holds a slice into the old region.
func (c *Container) rebind(region []byte) {
	c.region = region
	c.hdr = layout.NewHeader(region)
	c.arena.Rebind(region)
}

// assertOpen panics (via utils.Assert) when op is called on a container
// that is not open.
func (c *Container) assertOpen(op string) {
	utils.Assert(c.opened, "shiftfile: "+op+" called on a closed container")
}
