package shiftfile

import (
	"fmt"

	"github.com/govetachun/shiftfile/internal/avltree"
)

// verifyInvariants walks the whole structure checking the invariants of
// spec.md §3 and §8: subtree byte counts, AVL balance, the in-order list
// matching the tree's in-order sequence, and free-list/occupied
// accounting. It is a debug/test tool, not part of the operational path.
func verifyInvariants(c *Container) error {
	seen := make(map[uint32]bool)
	var count, totalBytes uint32

	var walk func(n, parent uint32) (height uint32, bytesSubtree uint32, err error)
	walk = func(n, parent uint32) (uint32, uint32, error) {
		if n == avltree.Null {
			return 0, 0, nil
		}
		if seen[n] {
			return 0, 0, fmt.Errorf("node %d visited twice", n)
		}
		seen[n] = true
		if c.arena.Parent(n) != parent {
			return 0, 0, fmt.Errorf("node %d parent link mismatch", n)
		}
		first, last := c.firstDataBlockIndex(), c.swapBlockIndex()
		if n < first || n >= last {
			return 0, 0, fmt.Errorf("node %d outside usable index range [%d,%d)", n, first, last)
		}

		lh, lb, err := walk(c.arena.Left(n), n)
		if err != nil {
			return 0, 0, err
		}
		rh, rb, err := walk(c.arena.Right(n), n)
		if err != nil {
			return 0, 0, err
		}
		diff := int(lh) - int(rh)
		if diff > 1 || diff < -1 {
			return 0, 0, fmt.Errorf("node %d unbalanced: left height %d, right height %d", n, lh, rh)
		}
		wantHeight := lh
		if rh > wantHeight {
			wantHeight = rh
		}
		wantHeight++
		if c.arena.Height(n) != wantHeight {
			return 0, 0, fmt.Errorf("node %d height %d, want %d", n, c.arena.Height(n), wantHeight)
		}
		wantBytesSubtree := c.arena.Bytes(n) + lb + rb
		if c.arena.BytesSubtree(n) != wantBytesSubtree {
			return 0, 0, fmt.Errorf("node %d bytes_subtree %d, want %d", n, c.arena.BytesSubtree(n), wantBytesSubtree)
		}

		count++
		totalBytes += c.arena.Bytes(n)
		return wantHeight, wantBytesSubtree, nil
	}

	if _, _, err := walk(c.tree.Root(), c.dummy); err != nil {
		return err
	}
	if totalBytes != c.Size() {
		return fmt.Errorf("tree total bytes %d != Size() %d", totalBytes, c.Size())
	}

	var listCount uint32
	for n := c.arena.Next(c.dummy); n != c.dummy; n = c.arena.Next(n) {
		if !seen[n] {
			return fmt.Errorf("node %d present in the in-order list but not reachable from the tree root", n)
		}
		listCount++
	}
	if listCount != count {
		return fmt.Errorf("in-order list length %d != tree node count %d", listCount, count)
	}

	freeSeen := make(map[uint32]bool)
	var freeCount uint32
	for i := c.free.First(); i != avltree.Null; i = c.arena.NextFree(i) {
		if seen[i] || freeSeen[i] {
			return fmt.Errorf("node %d present in both the free list and the occupied structures", i)
		}
		freeSeen[i] = true
		freeCount++
	}
	if freeCount != uint32(c.free.Count()) {
		return fmt.Errorf("free list actual length %d != free_count %d", freeCount, c.free.Count())
	}
	if want := c.usableBlockCount() - count; uint32(c.free.Count()) != want {
		return fmt.Errorf("free_count %d does not match usable_blocks(%d) - occupied(%d)", c.free.Count(), c.usableBlockCount(), count)
	}
	return nil
}
