package shiftfile

import (
	"github.com/govetachun/shiftfile/internal/arena"
	"github.com/govetachun/shiftfile/internal/avltree"
	"github.com/govetachun/shiftfile/internal/layout"
	"github.com/govetachun/shiftfile/pkg/xerrors"
)

// remap unmaps the current region, resizes the backing store to newSize,
// and maps it again, rebinding every view over the region (spec.md §9:
// nothing outside Container survives a remap, so this is the only place
// that touches the raw region pointer across a resize).
func (c *Container) remap(newSize uint32) ([]byte, error) {
	if err := c.osFile.Unmap(); err != nil {
		return nil, xerrors.AllocFailure("resize", "unmap before resize failed", err)
	}
	if err := c.osFile.Resize(newSize); err != nil {
		return nil, xerrors.AllocFailure("resize", "resize failed", err)
	}
	region, err := c.osFile.Map()
	if err != nil {
		return nil, xerrors.AllocFailure("resize", "remap failed", err)
	}
	c.rebind(region)
	return region, nil
}

// ensureFreeBlocks grows the container, if needed, so at least need free
// data blocks are available (spec.md §4.9).
func (c *Container) ensureFreeBlocks(need uint32) error {
	if uint32(c.free.Count()) >= need {
		return nil
	}
	occupied := c.usedBlocks()
	return c.growTo(occupied + need)
}

// growTo ensures the container can address at least targetUsableBlocks
// data blocks. When the new meta_data_size does not change, this is a
// pure append: the backing store grows and the newly available indices
// join the free list. When meta_data_size changes, the node-index
// space shifts under every existing data block, so growTo instead falls
// back to a full rebuild-via-restream (spec.md §4.9's documented
// simplification in place of a partial move_node-based relocation).
func (c *Container) growTo(targetUsableBlocks uint32) error {
	if targetUsableBlocks <= c.usableBlockCount() {
		return nil
	}
	if targetUsableBlocks > maxBlocks(c.blockSize) {
		return xerrors.SizeOverflow("grow", "requested capacity exceeds MaxSize")
	}
	newMeta, newMapSize, _ := planLayout(targetUsableBlocks, c.blockSize, c.growthNum, c.growthDen)
	if newMeta != c.hdr.MetaDataSize() {
		return c.rebuildWithCapacity(targetUsableBlocks)
	}

	oldSwap := c.swapBlockIndex()
	if _, err := c.remap(newMapSize); err != nil {
		return err
	}
	c.hdr.SetMapSize(newMapSize)
	newSwap := c.swapBlockIndex()
	for i := oldSwap; i < newSwap; i++ {
		c.free.FreeNodesContiguous(i, 1)
	}
	return nil
}

// shrink gives back trailing capacity once usage falls far enough below
// it, unless DisableShrink(true) was called (spec.md §4.9). It never
// relocates occupied nodes, only reclaims indices at the tail of the
// usable range that are already free.
func (c *Container) shrink() error {
	if c.disableShrink {
		return nil
	}
	usable := c.usableBlockCount()
	used := c.usedBlocks()
	target := c.extraGrowth(used)
	target = clampBlocks(target, c.blockSize)
	if target >= usable {
		return nil
	}
	// Only the trailing [target, usable) indices can be reclaimed, and
	// only if every one of them is actually free; otherwise an occupied
	// block sits past the new boundary and shrink must wait for a future
	// defrag to relocate it.
	first := c.firstDataBlockIndex() + target
	last := c.firstDataBlockIndex() + usable
	for i := first; i < last; i++ {
		if !c.arena.IsFree(i) {
			return nil
		}
	}
	for i := first; i < last; i++ {
		c.free.UnfreeNode(i)
	}
	newMapSize := c.hdr.MetaDataSize() + (target+1)*c.blockSize
	if _, err := c.remap(newMapSize); err != nil {
		return err
	}
	c.hdr.SetMapSize(newMapSize)
	return nil
}

// rebuildWithCapacity reads out every occupied byte in in-order sequence,
// reformats the backing store at a new capacity, and rebuilds the tree in
// one bulk BuildTree call — spec.md §4.9's fallback for the case where
// meta_data_size itself must grow, so every existing node index's data
// block address shifts.
func (c *Container) rebuildWithCapacity(targetUsableBlocks uint32) error {
	total := c.Size()
	snapshot := make([]byte, total)
	off := uint32(0)
	for n := c.arena.Next(c.dummy); n != c.dummy; n = c.arena.Next(n) {
		b := c.arena.Bytes(n)
		copy(snapshot[off:off+b], c.arena.Block(n, c.blockSize)[:b])
		off += b
	}

	meta, mapSize, _ := planLayout(targetUsableBlocks, c.blockSize, c.growthNum, c.growthDen)
	if _, err := c.remap(mapSize); err != nil {
		return err
	}
	region := c.region
	for i := uint32(0); i < meta; i++ {
		region[i] = 0
	}
	layout.WriteMagic(region, c.blockSize)
	hdr := layout.NewHeader(region)
	hdr.SetMapSize(mapSize)
	hdr.SetMetaDataSize(meta)
	hdr.SetFreeListFirst(arena.Null)
	hdr.SetFreeListLast(arena.Null)
	hdr.SetFreeCount(0)
	hdr.SetStateFlags(layout.StateOpenBit)

	c.hdr = hdr
	c.free = arena.NewFreeList(c.arena, hdr)
	c.tree = avltree.New(c.arena, c.dummy)

	first := c.firstDataBlockIndex()
	last := c.swapBlockIndex()
	for i := first; i < last; i++ {
		c.arena.SetPrev(i, arena.Null)
		c.arena.SetNext(i, arena.Null)
		c.arena.SetPrevFree(i, arena.Null)
		c.arena.SetNextFree(i, arena.Null)
	}

	var built []uint32
	idx := first
	remaining := total
	off = 0
	for remaining > 0 {
		n := remaining
		if n > c.blockSize {
			n = c.blockSize
		}
		block := c.arena.Block(idx, c.blockSize)
		copy(block, snapshot[off:off+n])
		c.arena.ResetOccupied(idx)
		c.arena.SetBytes(idx, n)
		built = append(built, idx)
		idx++
		off += n
		remaining -= n
	}
	for i := 0; i < len(built); i++ {
		if i+1 < len(built) {
			c.arena.SetNext(built[i], built[i+1])
		} else {
			c.arena.SetNext(built[i], arena.Null)
		}
	}
	head := arena.Null
	if len(built) > 0 {
		head = built[0]
	}
	c.tree.BuildTree(head, uint32(len(built)))
	relinkDummyList(c, built)
	for i := idx; i < last; i++ {
		c.free.FreeNodesContiguous(i, 1)
	}
	c.resetCursorToZero()
	return nil
}

// Defrag rewrites the occupied blocks into contiguous index order,
// preserving in-order content (spec.md §4.9 compact_data). It is the same
// restream used by rebuildWithCapacity, kept at the container's current
// capacity.
func (c *Container) Defrag() error {
	c.assertOpen("defrag")
	num, den := c.growthNum, c.growthDen
	c.growthNum, c.growthDen = 1, 1
	err := c.rebuildWithCapacity(c.usableBlockCount())
	c.growthNum, c.growthDen = num, den
	return err
}
