package shiftfile

import (
	"github.com/govetachun/shiftfile/internal/arena"
	"github.com/govetachun/shiftfile/internal/avltree"
	"github.com/govetachun/shiftfile/internal/layout"
	"github.com/govetachun/shiftfile/internal/osal"
	"github.com/govetachun/shiftfile/pkg/xerrors"
)

// Open implements spec.md §4.10: if the backing store is empty or lacks
// the magic bytes it is promoted from a plain file of payload size p; if
// it already carries a matching shiftable header, the existing metadata
// is used as-is; any other case is refused.
func Open(file osal.File, name string, mode osal.Mode, blockSize uint32) (*Container, error) {
	if blockSize == 0 {
		blockSize = layout.BlockSizeDefault
	}
	if err := file.Open(name, mode); err != nil {
		return nil, xerrors.AllocFailure("Open", "backing store open failed", err)
	}

	size, err := file.Size()
	if err != nil {
		file.Close()
		return nil, xerrors.AllocFailure("Open", "stat failed", err)
	}

	if size >= layout.HeaderSize {
		region, err := file.Map()
		if err != nil {
			file.Close()
			return nil, xerrors.AllocFailure("Open", "initial map failed", err)
		}
		if layout.MagicOK(region) {
			return openExisting(file, region, blockSize)
		}
		if err := file.Unmap(); err != nil {
			file.Close()
			return nil, xerrors.AllocFailure("Open", "unmap before promotion failed", err)
		}
	}

	return openPlain(file, size, blockSize)
}

func openExisting(file osal.File, region []byte, wantBlockSize uint32) (*Container, error) {
	if !layout.VersionAndBlockSizeOK(region, wantBlockSize) {
		file.Unmap()
		file.Close()
		return nil, xerrors.FormatMismatch("Open", "version, endianness, or block size does not match")
	}
	hdr := layout.NewHeader(region)
	if hdr.StateFlags() != layout.StateClosedOK {
		file.Unmap()
		file.Close()
		return nil, xerrors.DirtyState("Open", "state_flags != CLOSED_OK; recovery is not implemented")
	}

	c := newContainer(file, region, hdr, wantBlockSize)
	c.hdr.SetStateFlags(layout.StateOpenBit)
	c.resetCursorToZero()
	c.opened = true
	return c, nil
}

// openPlain promotes an empty-or-plain file of payloadSize bytes into
// shiftable form (spec.md §4.10).
func openPlain(file osal.File, payloadSize uint32, blockSize uint32) (*Container, error) {
	targetBlocks := (payloadSize + blockSize - 1) / blockSize
	// A rough first pass at meta size tells us how many extra blocks the
	// relocated metadata-overwritten prefix will need; one pass is enough
	// because meta grows far slower than the block count that drives it.
	roughMeta := layout.MetaDataSizeFor(targetBlocks, blockSize)
	reloBlocks := (roughMeta + blockSize - 1) / blockSize
	meta, mapSize, _ := planLayout(targetBlocks+reloBlocks, blockSize, ExtraGrowthNum, ExtraGrowthDen)

	if err := file.Resize(mapSize); err != nil {
		file.Close()
		return nil, xerrors.AllocFailure("Open", "resize for promotion failed", err)
	}
	region, err := file.Map()
	if err != nil {
		file.Close()
		return nil, xerrors.AllocFailure("Open", "map for promotion failed", err)
	}

	movedLen := payloadSize
	if meta < movedLen {
		movedLen = meta
	}
	// The relocated prefix goes past both the payload and the metadata
	// area, which is zeroed next.
	movedOffset := roundUp(payloadSize, blockSize)
	if movedOffset < meta {
		movedOffset = meta
	}
	if movedLen > 0 {
		copy(region[movedOffset:movedOffset+movedLen], region[0:movedLen])
	}
	for i := uint32(0); i < meta; i++ {
		region[i] = 0
	}

	layout.WriteMagic(region, blockSize)
	hdr := layout.NewHeader(region)
	hdr.SetMapSize(mapSize)
	hdr.SetMetaDataSize(meta)
	hdr.SetFreeListFirst(arena.Null)
	hdr.SetFreeListLast(arena.Null)
	hdr.SetFreeCount(0)
	hdr.SetStateFlags(layout.StateOpenBit)

	c := newContainer(file, region, hdr, blockSize)

	first := c.firstDataBlockIndex()
	last := c.swapBlockIndex() // exclusive upper bound on usable indices
	for i := first; i < last; i++ {
		c.arena.SetPrev(i, arena.Null)
		c.arena.SetNext(i, arena.Null)
		c.arena.SetPrevFree(i, arena.Null)
		c.arena.SetNextFree(i, arena.Null)
	}

	// Build the in-order occupied chain: run B (the payload's first
	// movedLen bytes, relocated above) first, run A (the rest of the
	// payload, which never moved) second. Each chunk's node is the block
	// index its bytes already occupy, so nothing is copied here.
	var buildList []uint32
	next := first
	appendRun := func(offset, length uint32) {
		remaining := length
		off := offset
		for remaining > 0 {
			n := remaining
			if n > blockSize {
				n = blockSize
			}
			idx := off / blockSize
			if idx >= next {
				next = idx + 1
			}
			c.arena.ResetOccupied(idx)
			c.arena.SetBytes(idx, n)
			buildList = append(buildList, idx)
			off += n
			remaining -= n
		}
	}
	if movedLen > 0 {
		appendRun(movedOffset, movedLen)
	}
	if payloadSize > movedLen {
		appendRun(movedLen, payloadSize-movedLen)
	}

	// Chain the built nodes via Next/Prev for BuildTree, then free the
	// remaining capacity.
	for i := 0; i < len(buildList); i++ {
		if i+1 < len(buildList) {
			c.arena.SetNext(buildList[i], buildList[i+1])
		} else {
			c.arena.SetNext(buildList[i], arena.Null)
		}
	}
	head := arena.Null
	if len(buildList) > 0 {
		head = buildList[0]
	}
	c.tree.BuildTree(head, uint32(len(buildList)))
	// Splice the built run into the dummy's in-order list.
	relinkDummyList(c, buildList)

	for i := next; i < last; i++ {
		c.free.FreeNodesContiguous(i, 1)
	}

	c.resetCursorToZero()
	c.opened = true
	return c, nil
}

// relinkDummyList threads the dummy's circular prev/next list through the
// freshly built run of nodes, in the order given.
func relinkDummyList(c *Container, run []uint32) {
	if len(run) == 0 {
		c.arena.SetNext(c.dummy, c.dummy)
		c.arena.SetPrev(c.dummy, c.dummy)
		return
	}
	c.arena.SetNext(c.dummy, run[0])
	c.arena.SetPrev(run[0], c.dummy)
	for i := 0; i+1 < len(run); i++ {
		c.arena.SetNext(run[i], run[i+1])
		c.arena.SetPrev(run[i+1], run[i])
	}
	last := run[len(run)-1]
	c.arena.SetNext(last, c.dummy)
	c.arena.SetPrev(c.dummy, last)
}

func newContainer(file osal.File, region []byte, hdr layout.Header, blockSize uint32) *Container {
	dummy := layout.DummyIndex()
	a := arena.New(region)
	fl := arena.NewFreeList(a, hdr)
	tr := avltree.New(a, dummy)
	return &Container{
		osFile:    file,
		region:    region,
		hdr:       hdr,
		arena:     a,
		free:      fl,
		tree:      tr,
		dummy:     dummy,
		blockSize: blockSize,
		growthNum: ExtraGrowthNum,
		growthDen: ExtraGrowthDen,
	}
}

func (c *Container) resetCursorToZero() {
	first := c.arena.Next(c.dummy)
	if first == c.dummy {
		c.cur = cursor{absPos: 0, node: c.dummy, relPos: 0}
		return
	}
	c.cur = cursor{absPos: 0, node: first, relPos: 0}
}
