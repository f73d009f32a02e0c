package shiftfile

// makeRoom implements spec.md §4.8: it produces as much contiguous free
// room as possible adjacent to (node, relPos) by repacking bytes across
// up to CompactionSteps neighbour blocks on each side — first donating
// bytes leftward from node's own head into earlier blocks' slack, then
// donating bytes rightward from node's own tail into later blocks'
// slack — without changing the tree's structure, the in-order sequence,
// or moving any byte across the cursor position itself. It returns the
// (possibly shifted, if node itself donated all its own bytes on one
// side) cursor position and the total free room now sitting next to it.
//
// Ported from the neighbour-redistribution algorithm in
// shiftable_files/detail/insert_remove.cpp's make_room, adapted to this
// engine's arena accessors and to stop at a dummy boundary instead of
// requiring one not be crossed.
func (c *Container) makeRoom(node, relPos uint32) (uint32, uint32, uint32) {
	if node == c.dummy {
		prev := c.arena.Prev(node)
		if prev == c.dummy {
			return c.dummy, 0, 0
		}
		node = prev
		relPos = c.arena.Bytes(node)
	}

	first, last := node, node
	var roomPrev, roomNext uint32
	changed := false

	// Gather up to CompactionSteps blocks before node and learn how much
	// slack they collectively have.
	movableLeft := relPos
	for i, n := 0, c.arena.Prev(node); i < CompactionSteps && n != c.dummy; i, n = i+1, c.arena.Prev(n) {
		first = n
		movableLeft += c.arena.Bytes(n)
		roomPrev += c.blockSize - c.arena.Bytes(n)
	}

	if roomPrev > 0 {
		cur := first
		movable := movableLeft - c.arena.Bytes(cur)
		for cur != node && movable > 0 {
			curBytes := c.arena.Bytes(cur)
			if curBytes >= c.blockSize {
				cur = c.arena.Next(cur)
				movable -= c.arena.Bytes(cur)
				continue
			}
			src := c.arena.Next(cur)
			for src != node && c.arena.Bytes(src) == 0 {
				src = c.arena.Next(src)
			}
			srcBytes := c.arena.Bytes(src)
			if srcBytes == 0 {
				break
			}
			n := movable
			if srcBytes < n {
				n = srcBytes
			}
			if room := c.blockSize - curBytes; n > room {
				n = room
			}
			dst := c.arena.Block(cur, c.blockSize)
			s := c.arena.Block(src, c.blockSize)
			copy(dst[curBytes:curBytes+n], s[:n])
			c.arena.SetBytes(cur, curBytes+n)
			if srcBytes > n {
				copy(s[:srcBytes-n], s[n:srcBytes])
			}
			c.arena.SetBytes(src, srcBytes-n)
			if src == node {
				relPos -= n
			}
			movable -= n
			changed = true
		}
	}

	// Same idea to the right: gather blocks after node, donate bytes from
	// node's own tail and the blocks between rightward into their slack.
	movableRight := c.arena.Bytes(node) - relPos
	for i, n := 0, c.arena.Next(node); i < CompactionSteps && n != c.dummy; i, n = i+1, c.arena.Next(n) {
		last = n
		movableRight += c.arena.Bytes(n)
		roomNext += c.blockSize - c.arena.Bytes(n)
	}

	if roomNext > 0 {
		cur := last
		movable := movableRight - c.arena.Bytes(cur)
		var offset uint32
		for cur != node && movable > 0 {
			curBytes := c.arena.Bytes(cur)
			if curBytes >= c.blockSize {
				cur = c.arena.Prev(cur)
				movable -= c.arena.Bytes(cur)
				offset = 0
				continue
			}
			src := c.arena.Prev(cur)
			for src != node && c.arena.Bytes(src) == 0 {
				src = c.arena.Prev(src)
			}
			srcBytes := c.arena.Bytes(src)
			if srcBytes == 0 {
				break
			}
			dst := c.arena.Block(cur, c.blockSize)
			if offset == 0 {
				room := c.blockSize - curBytes
				offset = movable
				if offset > room {
					offset = room
				}
				if curBytes > 0 {
					copy(dst[offset:offset+curBytes], dst[:curBytes])
				}
			}
			n := offset
			if n > srcBytes {
				n = srcBytes
			}
			s := c.arena.Block(src, c.blockSize)
			copy(dst[offset-n:offset], s[srcBytes-n:srcBytes])
			c.arena.SetBytes(cur, curBytes+n)
			c.arena.SetBytes(src, srcBytes-n)
			movable -= n
			offset -= n
			changed = true
		}
	}

	if changed {
		for n := first; ; n = c.arena.Next(n) {
			c.tree.UpdateCounters(n)
			if n == last {
				break
			}
		}
	}

	if relPos == c.arena.Bytes(node) && c.arena.Next(node) != c.dummy {
		node = c.arena.Next(node)
		relPos = 0
	}

	return node, relPos, roomPrev + roomNext
}
