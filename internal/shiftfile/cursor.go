package shiftfile

import "github.com/govetachun/shiftfile/pkg/xerrors"

// resolve maps an absolute byte offset to (node, relPos), using the cached
// cursor as a finger-search starting point when it holds a usable
// position (spec.md §4.4). pos == Size() resolves to the end-of-file
// sentinel (the dummy node, relPos 0); pos > Size() resolves to the same
// sentinel with relPos carrying the excess (spec.md §8's seek-past-end
// boundary behavior — not an error condition).
func (c *Container) resolve(pos uint32) (node uint32, relPos uint32) {
	size := c.Size()
	if pos > size {
		return c.dummy, pos - size
	}
	if pos == 0 || size == 0 {
		if size == 0 {
			return c.dummy, 0
		}
		return c.arena.Next(c.dummy), 0
	}
	if pos == size {
		return c.dummy, 0
	}

	ownStart, ok := c.cursorOwnStart()
	if !ok {
		return c.tree.FindPos(pos)
	}
	return c.tree.SeekNear(c.cur.node, ownStart, pos)
}

// cursorOwnStart returns the absolute offset of the cached cursor node's
// own block start, if the cache holds a position usable as a finger-search
// seed (i.e. not mid-construction).
func (c *Container) cursorOwnStart() (uint32, bool) {
	if c.cur.node == c.dummy {
		return c.Size(), true
	}
	if c.cur.relPos > c.arena.Bytes(c.cur.node) {
		return 0, false
	}
	return c.cur.absPos - c.cur.relPos, true
}

// SeekSet moves the cursor to an absolute offset (spec.md §6 seek_set).
// pos may exceed Size(): the cursor then sits at the end-of-file sentinel
// with the excess recorded, and a subsequent read there simply returns 0
// bytes (spec.md §8) rather than erroring.
func (c *Container) SeekSet(pos uint32) error {
	c.assertOpen("seek_set")
	node, rel := c.resolve(pos)
	c.cur = cursor{absPos: pos, node: node, relPos: rel}
	return nil
}

// SeekCur moves the cursor by a signed delta relative to its current
// position (spec.md §6 seek_cur). Only a resulting negative position is
// rejected; seeking past end of file is allowed (spec.md §8).
func (c *Container) SeekCur(delta int64) error {
	c.assertOpen("seek_cur")
	target := int64(c.cur.absPos) + delta
	if target < 0 {
		return xerrors.Precondition("seek_cur", "resulting position would be negative")
	}
	if target > int64(^uint32(0)) {
		return xerrors.SizeOverflow("seek_cur", "resulting position overflows")
	}
	return c.SeekSet(uint32(target))
}

// SeekEnd moves the cursor to offset bytes before/after the end of the
// file (spec.md §6 seek_end); offset is usually <= 0, but a positive
// offset seeking past end of file is allowed (spec.md §8).
func (c *Container) SeekEnd(offset int64) error {
	c.assertOpen("seek_end")
	target := int64(c.Size()) + offset
	if target < 0 {
		return xerrors.Precondition("seek_end", "resulting position would be negative")
	}
	if target > int64(^uint32(0)) {
		return xerrors.SizeOverflow("seek_end", "resulting position overflows")
	}
	return c.SeekSet(uint32(target))
}
