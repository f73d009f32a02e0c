package shiftfile

import (
	"github.com/govetachun/shiftfile/internal/arena"
	"github.com/govetachun/shiftfile/pkg/utils"
	"github.com/govetachun/shiftfile/pkg/xerrors"
)

// Insert splices data into the file at pos, shifting everything at or
// after pos forward (spec.md §4.6 insert). pos may equal Size() to
// append. Three escalating strategies are tried in order: absorbing
// directly into the current block (hopping to a more-empty neighbour at
// a block boundary first, if that helps), freeing room via make_room
// compaction among nearby blocks, and finally allocating fresh blocks.
// The cursor is left positioned just past the inserted data.
func (c *Container) Insert(pos uint32, data []byte) error {
	c.assertOpen("insert")
	size := c.Size()
	if pos > size {
		return xerrors.Precondition("insert", "pos beyond end of file")
	}
	if len(data) == 0 {
		return nil
	}
	newSize := size + uint32(len(data))
	if newSize < size || newSize > MaxSize {
		return xerrors.SizeOverflow("insert", "insert would exceed MaxSize")
	}

	if pos == size {
		if err := c.insertBeforeBulk(c.dummy, data); err != nil {
			return err
		}
		c.repositionCursor(pos + uint32(len(data)))
		return nil
	}

	node, rel := c.resolve(pos)

	// Strategy 1: absorb in-block, hopping to a more-empty neighbour at a
	// block boundary first if that's where we are and it would help.
	if uint32(len(data)) < c.blockSize {
		nodeBytes := c.arena.Bytes(node)
		switch {
		case rel == nodeBytes:
			if next := c.arena.Next(node); next != c.dummy && c.arena.Bytes(next) < nodeBytes {
				node, rel = next, 0
				nodeBytes = c.arena.Bytes(node)
			}
		case rel == 0:
			if prev := c.arena.Prev(node); prev != c.dummy && c.arena.Bytes(prev) < nodeBytes {
				node = prev
				nodeBytes = c.arena.Bytes(node)
				rel = nodeBytes
			}
		}

		if uint32(len(data)) <= c.blockSize-nodeBytes {
			c.shiftAndCopy(node, rel, nodeBytes, data)
			c.tree.UpdateCounters(node)
			c.repositionCursor(pos + uint32(len(data)))
			return nil
		}
	}

	// Strategy 2: free room via local compaction (spec.md §4.8) and write
	// as much of data as now fits, advancing block by block.
	node, rel, room := c.makeRoom(node, rel)
	written := c.fillFromRoom(node, rel, room, data)
	if written == uint32(len(data)) {
		c.repositionCursor(pos + uint32(len(data)))
		return nil
	}

	// Strategy 3: still not enough room nearby — allocate fresh blocks for
	// the rest, splitting a clean node boundary first if needed. Every
	// block the rest needs is reserved before a node index is taken, since
	// a grow may restream the store and renumber its nodes; the rest goes
	// right after the bytes fillFromRoom already placed.
	rest := uint32(len(data)) - written
	if err := c.ensureFreeBlocks(1 + (rest+c.blockSize-1)/c.blockSize); err != nil {
		return err
	}
	c.cur = cursor{absPos: c.Size(), node: c.dummy}
	node, rel = c.resolve(pos + written)
	ref, err := c.splitAt(node, rel)
	if err != nil {
		return err
	}
	if err := c.insertBeforeBulk(ref, data[written:]); err != nil {
		return err
	}
	c.repositionCursor(pos + uint32(len(data)))
	return nil
}

// shiftAndCopy makes room for len(data) bytes at rel inside node (whose
// current length is nodeBytes) by shifting node's own tail right, then
// copies data into the gap. Caller is responsible for node's counters.
func (c *Container) shiftAndCopy(node, rel, nodeBytes uint32, data []byte) {
	block := c.arena.Block(node, c.blockSize)
	n := uint32(len(data))
	if rel != nodeBytes {
		copy(block[rel+n:nodeBytes+n], block[rel:nodeBytes])
	}
	copy(block[rel:rel+n], data)
	c.arena.SetBytes(node, nodeBytes+n)
}

// fillFromRoom writes as much of data as fits into the room bytes of
// slack make_room freed up starting at (node, rel), advancing to
// following blocks as each one fills, and reclaims any blocks that end up
// completely emptied by the compaction. It returns how many bytes of
// data were written.
func (c *Container) fillFromRoom(node, rel, room uint32, data []byte) uint32 {
	written := uint32(0)
	for room > 0 && written < uint32(len(data)) {
		nodeBytes := c.arena.Bytes(node)
		capacity := c.blockSize - nodeBytes
		if capacity == 0 {
			next := c.arena.Next(node)
			if rel != nodeBytes || next == c.dummy {
				break
			}
			node, rel = next, 0
			continue
		}
		chunk := uint32(len(data)) - written
		if chunk > capacity {
			chunk = capacity
		}
		if chunk > room {
			chunk = room
		}
		c.shiftAndCopy(node, rel, nodeBytes, data[written:written+chunk])
		c.tree.UpdateCounters(node)

		written += chunk
		rel += chunk
		room -= chunk

		if rel != c.arena.Bytes(node) {
			break
		}
		next := c.arena.Next(node)
		if next == c.dummy {
			break
		}
		node, rel = next, 0
	}

	if room >= c.blockSize {
		next := c.arena.Next(node)
		for next != c.dummy && c.arena.Bytes(next) == 0 {
			empty := next
			next = c.arena.Next(empty)
			c.tree.ExtractNode(empty)
			c.free.FreeNodesContiguous(empty, 1)
		}
	}
	return written
}

// repositionCursor resolves pos fresh and stores it as the cached cursor.
// The old cursor is dropped first: after a mutation its node's start may
// have moved, so the search starts from the dummy, whose start is always
// Size().
func (c *Container) repositionCursor(pos uint32) {
	c.cur = cursor{absPos: c.Size(), node: c.dummy}
	node, rel := c.resolve(pos)
	c.cur = cursor{absPos: pos, node: node, relPos: rel}
}

// Remove deletes n bytes starting at pos, shifting everything after the
// removed range back (spec.md §4.7 remove). A range confined to a single
// block is trimmed in place; a range spanning several blocks deletes the
// fully-covered ones (via worthRebuild's choice of a whole-tree rebuild
// or incremental extraction) and trims the partial ones at either edge,
// with no extra node allocated for the deleted middle. A make_room pass
// and greedy neighbour-merge clean up afterwards. The cursor is left at
// pos.
func (c *Container) Remove(pos uint32, n uint32) error {
	c.assertOpen("remove")
	if n == 0 {
		return nil
	}
	size := c.Size()
	end := pos + n
	if end < pos || end > size {
		return xerrors.Precondition("remove", "range exceeds end of file")
	}

	node, rel := c.resolve(pos)
	if rel == c.arena.Bytes(node) {
		node = c.arena.Next(node)
		rel = 0
	}

	available := c.arena.Bytes(node) - rel
	if n <= available {
		nodeBytes := c.arena.Bytes(node)
		if n < available {
			block := c.arena.Block(node, c.blockSize)
			copy(block[rel:nodeBytes-n], block[rel+n:nodeBytes])
		}
		c.arena.SetBytes(node, nodeBytes-n)
		if c.arena.Bytes(node) > 0 {
			c.tree.UpdateCounters(node)
		} else {
			c.tree.ExtractNode(node)
			c.free.FreeNodesContiguous(node, 1)
		}
	} else {
		c.removeAcrossNodes(node, rel, n, available)
	}

	// The cached cursor still describes the layout before the removal.
	c.cur = cursor{absPos: c.Size(), node: c.dummy}
	mergeNode, mergeRel := c.resolve(pos)
	c.makeRoomAndMerge(mergeNode, mergeRel)

	if err := c.shrink(); err != nil {
		return err
	}

	c.repositionCursor(pos)
	return nil
}

// removeAcrossNodes deletes n bytes that span more than a single node:
// available bytes are trimmed from the tail of node (deleting node itself
// if that empties it), any fully-covered nodes after it are deleted
// outright, and the head of the final partially-covered node (if any) is
// trimmed (spec.md §4.7's "otherwise" branch — no node is allocated for
// the deleted middle). worthRebuild picks between a whole-tree rebuild
// (splice the deleted run out of the in-order list directly and call
// BuildTree once) and incremental per-node ExtractNode calls.
func (c *Container) removeAcrossNodes(node, rel, n, available uint32) {
	nodeBytes := c.arena.Bytes(node)
	c.arena.SetBytes(node, nodeBytes-available)
	firstEmptied := c.arena.Bytes(node) == 0
	if !firstEmptied {
		c.tree.UpdateCounters(node)
	}

	pending := n - available
	var toDelete []uint32
	if firstEmptied {
		toDelete = append(toDelete, node)
	}
	cur := c.arena.Next(node)
	for pending > 0 && cur != c.dummy && pending >= c.arena.Bytes(cur) {
		pending -= c.arena.Bytes(cur)
		toDelete = append(toDelete, cur)
		cur = c.arena.Next(cur)
	}
	if pending > 0 {
		utils.Assert(cur != c.dummy, "shiftfile: remove range exceeded end of file")
		curBytes := c.arena.Bytes(cur)
		block := c.arena.Block(cur, c.blockSize)
		copy(block[:curBytes-pending], block[pending:curBytes])
		c.arena.SetBytes(cur, curBytes-pending)
		c.tree.UpdateCounters(cur)
	}

	if len(toDelete) == 0 {
		return
	}

	finalSize := c.usedBlocks() - uint32(len(toDelete))
	if worthRebuild(finalSize, uint32(len(toDelete)), c.blockSize) {
		predecessor := c.arena.Prev(toDelete[0])
		successor := c.arena.Next(toDelete[len(toDelete)-1])
		c.arena.SetNext(predecessor, successor)
		c.arena.SetPrev(successor, predecessor)
		for _, idx := range toDelete {
			c.free.FreeNodesContiguous(idx, 1)
		}
		head := arena.Null
		if finalSize > 0 {
			head = c.arena.Next(c.dummy)
		}
		c.tree.BuildTree(head, finalSize)
	} else {
		for _, idx := range toDelete {
			c.tree.ExtractNode(idx)
			c.free.FreeNodesContiguous(idx, 1)
		}
	}
}

// makeRoomAndMerge runs make_room once at (node, rel) and, if it freed at
// least a full block's worth of capacity, walks back to a block boundary
// and greedily merges forward while neighbouring blocks' combined
// contents still fit in one block, freeing the absorbed blocks (spec.md
// §4.7's post-removal cleanup).
func (c *Container) makeRoomAndMerge(node, rel uint32) {
	if c.Size() == 0 {
		return
	}
	node, rel, room := c.makeRoom(node, rel)
	if room < c.blockSize {
		return
	}
	for rel == 0 && c.arena.Prev(node) != c.dummy {
		node = c.arena.Prev(node)
		rel = c.arena.Bytes(node)
	}
	for {
		next := c.arena.Next(node)
		if next == c.dummy || c.arena.Bytes(node)+c.arena.Bytes(next) > c.blockSize {
			break
		}
		if nb := c.arena.Bytes(next); nb > 0 {
			used := c.arena.Bytes(node)
			block := c.arena.Block(node, c.blockSize)
			copy(block[used:used+nb], c.arena.Block(next, c.blockSize)[:nb])
			c.arena.SetBytes(node, used+nb)
		}
		c.tree.ExtractNode(next)
		c.free.FreeNodesContiguous(next, 1)
	}
	c.tree.UpdateCounters(node)
}

// splitAt guarantees a node boundary falls exactly at the relative offset
// rel inside node, splitting node's tail into a freshly allocated node
// when rel is not already 0 or at node's own length. It returns the node
// that now begins at the original (node, rel) position — dummy if rel
// pointed past node's last byte and node had no successor. This is a
// single-node split, used only to create a clean insertion boundary
// before strategy 3's new-block allocation; it is not make_room (spec.md
// §4.8), which is implemented separately in makeroom.go.
func (c *Container) splitAt(node uint32, rel uint32) (uint32, error) {
	if rel == 0 {
		return node, nil
	}
	nodeLen := c.arena.Bytes(node)
	if rel >= nodeLen {
		return c.arena.Next(node), nil
	}

	tailLen := nodeLen - rel
	tail := make([]byte, tailLen)
	copy(tail, c.arena.Block(node, c.blockSize)[rel:nodeLen])

	c.arena.SetBytes(node, rel)
	c.tree.UpdateCountersAndRebalance(node)

	if err := c.ensureFreeBlocks(1); err != nil {
		c.arena.SetBytes(node, nodeLen)
		c.tree.UpdateCountersAndRebalance(node)
		return 0, err
	}
	newNode := c.free.AllocNode()
	c.arena.ResetOccupied(newNode)
	copy(c.arena.Block(newNode, c.blockSize), tail)
	c.arena.SetBytes(newNode, tailLen)

	ref := c.arena.Next(node)
	c.tree.InsertBefore(ref, newNode)
	return newNode, nil
}

// insertBeforeBulk threads len(data) bytes of fresh content into the
// in-order sequence immediately before ref: it tops off ref's
// predecessor's block first when it has spare room, then allocates fresh
// blocks for the remainder and attaches them into the tree either
// node-by-node (incremental rebalance) or via a whole-tree rebuild,
// whichever worthRebuild predicts is cheaper (spec.md §4.6 strategy 3).
func (c *Container) insertBeforeBulk(ref uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	off := uint32(0)
	pred := c.arena.Prev(ref)
	if pred != c.dummy {
		used := c.arena.Bytes(pred)
		room := c.blockSize - used
		if room > 0 {
			chunk := uint32(len(data))
			if chunk > room {
				chunk = room
			}
			block := c.arena.Block(pred, c.blockSize)
			copy(block[used:used+chunk], data[:chunk])
			c.arena.SetBytes(pred, used+chunk)
			c.tree.UpdateCountersAndRebalance(pred)
			off += chunk
		}
	}
	if off == uint32(len(data)) {
		return nil
	}

	remaining := uint32(len(data)) - off
	numBlocks := (remaining + c.blockSize - 1) / c.blockSize
	if err := c.ensureFreeBlocks(numBlocks); err != nil {
		return err
	}

	first := c.free.AllocNodes(numBlocks)
	nodes := make([]uint32, 0, numBlocks)
	for cur := first; uint32(len(nodes)) < numBlocks; {
		next := c.arena.Next(cur)
		n := uint32(len(data)) - off
		if n > c.blockSize {
			n = c.blockSize
		}
		block := c.arena.Block(cur, c.blockSize)
		copy(block, data[off:off+n])
		c.arena.ResetOccupied(cur)
		c.arena.SetBytes(cur, n)
		nodes = append(nodes, cur)
		off += n
		cur = next
	}

	// Splice the whole run into the in-order list first, so a whole-tree
	// rebuild (if chosen below) can walk it directly from dummy.Next.
	p := c.arena.Prev(ref)
	c.arena.SetNext(p, nodes[0])
	c.arena.SetPrev(nodes[0], p)
	for i := 0; i+1 < len(nodes); i++ {
		c.arena.SetNext(nodes[i], nodes[i+1])
		c.arena.SetPrev(nodes[i+1], nodes[i])
	}
	last := nodes[len(nodes)-1]
	c.arena.SetNext(last, ref)
	c.arena.SetPrev(ref, last)

	if worthRebuild(c.usedBlocks(), uint32(len(nodes)), c.blockSize) {
		c.tree.BuildTree(c.arena.Next(c.dummy), c.usedBlocks())
	} else {
		for _, idx := range nodes {
			c.tree.AttachNode(ref, idx)
		}
	}
	return nil
}
