package shiftfile

import (
	"io"

	"github.com/govetachun/shiftfile/pkg/xerrors"
)

// Read copies up to len(buf) bytes starting at the cursor into buf,
// advancing the cursor by the number of bytes copied (spec.md §6 read).
// It returns io.EOF (with n==0) only when the cursor is already at or past
// end of file; otherwise it copies min(len(buf), Size()-Tell()) bytes with
// a nil error, so a read that reaches end of file comes back short.
func (c *Container) Read(buf []byte) (int, error) {
	c.assertOpen("read")
	if len(buf) == 0 {
		return 0, nil
	}
	if c.cur.absPos >= c.Size() {
		return 0, io.EOF
	}
	remaining := c.Size() - c.cur.absPos
	want := uint32(len(buf))
	if want > remaining {
		want = remaining
	}

	node, rel := c.cur.node, c.cur.relPos
	var n uint32
	for n < want {
		block := c.arena.Block(node, c.blockSize)
		nodeLen := c.arena.Bytes(node)
		avail := nodeLen - rel
		chunk := want - n
		if chunk > avail {
			chunk = avail
		}
		copy(buf[n:n+chunk], block[rel:rel+chunk])
		n += chunk
		rel += chunk
		if rel == nodeLen {
			node = c.arena.Next(node)
			rel = 0
		}
	}

	newAbs := c.cur.absPos + n
	if node == c.dummy {
		c.cur = cursor{absPos: newAbs, node: c.dummy, relPos: 0}
	} else {
		c.cur = cursor{absPos: newAbs, node: node, relPos: rel}
	}
	return int(n), nil
}

// Write overwrites len(buf) bytes starting at the cursor, extending the
// logical size (and growing the container) if the write runs past the
// current end of file (spec.md §6 write). It never inserts: bytes already
// within [cursor, Size()) are overwritten in place. When the cursor sits
// past the end of file, the gap up to it is first filled with zero bytes.
func (c *Container) Write(buf []byte) (int, error) {
	c.assertOpen("write")
	if len(buf) == 0 {
		return 0, nil
	}
	total := c.cur.absPos + uint32(len(buf))
	if total < c.cur.absPos || total > MaxSize {
		return 0, xerrors.SizeOverflow("write", "write would exceed MaxSize")
	}

	start := c.cur.absPos
	size := c.Size()
	if start > size {
		if err := c.appendAt(make([]byte, start-size)); err != nil {
			return 0, err
		}
		size = start
		c.cur = cursor{absPos: start, node: c.dummy, relPos: 0}
	}
	overwriteLen := uint32(0)
	if c.cur.absPos < size {
		overwriteLen = size - c.cur.absPos
		if overwriteLen > uint32(len(buf)) {
			overwriteLen = uint32(len(buf))
		}
	}

	var n uint32
	if overwriteLen > 0 {
		node, rel := c.cur.node, c.cur.relPos
		for n < overwriteLen {
			block := c.arena.Block(node, c.blockSize)
			nodeLen := c.arena.Bytes(node)
			avail := nodeLen - rel
			chunk := overwriteLen - n
			if chunk > avail {
				chunk = avail
			}
			copy(block[rel:rel+chunk], buf[n:n+chunk])
			n += chunk
			rel += chunk
			if rel == nodeLen {
				node = c.arena.Next(node)
				rel = 0
			}
		}
	}

	if n < uint32(len(buf)) {
		if err := c.appendAt(buf[n:]); err != nil {
			return int(n), err
		}
		n = uint32(len(buf))
	}

	newAbs := start + n
	node, rel := c.resolve(newAbs)
	c.cur = cursor{absPos: newAbs, node: node, relPos: rel}
	return int(n), nil
}

// appendAt extends the file by len(data) bytes at the current end of
// file, via the same insertBeforeBulk primitive insert/remove use
// (editops.go), inserting before the dummy since the dummy is the tail of
// the in-order list.
func (c *Container) appendAt(data []byte) error {
	return c.insertBeforeBulk(c.dummy, data)
}
