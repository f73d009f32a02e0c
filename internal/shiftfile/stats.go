package shiftfile

import "github.com/govetachun/shiftfile/internal/avltree"

// Stats reports introspection counters used by tests and the stats CLI
// verb; none of it is required for normal operation (spec.md §6 stats).
type Stats struct {
	TotalBytes      uint32
	OccupiedNodes   uint32
	FreeNodes       uint32
	TreeHeight      uint32
	MapSize         uint32
	MetaDataSize    uint32
	SwapBlockOffset uint32
}

// Stats snapshots the container's current bookkeeping.
func (c *Container) Stats() Stats {
	c.assertOpen("stats")
	var height uint32
	if root := c.tree.Root(); root != avltree.Null {
		height = c.arena.Height(root)
	}
	return Stats{
		TotalBytes:      c.Size(),
		OccupiedNodes:   c.usedBlocks(),
		FreeNodes:       uint32(c.free.Count()),
		TreeHeight:      height,
		MapSize:         c.hdr.MapSize(),
		MetaDataSize:    c.hdr.MetaDataSize(),
		SwapBlockOffset: c.swapBlockIndex() * c.blockSize,
	}
}
