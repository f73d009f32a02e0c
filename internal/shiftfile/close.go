package shiftfile

import "github.com/govetachun/shiftfile/internal/layout"

// Close releases the container (spec.md §6 close). With restorePlain
// false the file keeps its shiftable layout: state_flags is marked
// CLOSED_OK so a later Open recognises it and resumes without
// re-promoting. With restorePlain true the content is compacted back
// into a plain, header-free file of exactly Size() bytes — the mirror
// image of openPlain's promotion.
func (c *Container) Close(restorePlain bool) error {
	c.assertOpen("close")
	if restorePlain {
		if err := c.restoreToPlain(); err != nil {
			return err
		}
	} else {
		c.hdr.SetStateFlags(layout.StateClosedOK)
		if err := c.osFile.Unmap(); err != nil {
			return err
		}
	}
	if err := c.osFile.Close(); err != nil {
		return err
	}
	c.opened = false
	return nil
}

// restoreToPlain defragments the occupied run into a single contiguous
// in-order snapshot, writes it over the header/metadata prefix, and
// truncates the backing store to exactly that many bytes.
func (c *Container) restoreToPlain() error {
	size := c.Size()
	snapshot := make([]byte, size)
	off := uint32(0)
	for n := c.arena.Next(c.dummy); n != c.dummy; n = c.arena.Next(n) {
		b := c.arena.Bytes(n)
		copy(snapshot[off:off+b], c.arena.Block(n, c.blockSize)[:b])
		off += b
	}
	copy(c.region[:size], snapshot)

	if err := c.osFile.Unmap(); err != nil {
		return err
	}
	return c.osFile.Resize(size)
}
