package avltree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govetachun/shiftfile/internal/arena"
	"github.com/govetachun/shiftfile/internal/layout"
)

// newTestTree allocates an arena with n usable node slots (plus the dummy
// at index 0) and a Tree rooted at dummy index 0, for tests that don't
// need the on-disk header/free-list machinery.
func newTestTree(n int) (*arena.Arena, *Tree) {
	region := make([]byte, (n+1)*layout.NodeSize)
	a := arena.New(region)
	tr := New(a, 0)
	return a, tr
}

// buildChain allocates n fresh nodes, threads them into an in-order
// Next chain (as BuildTree expects) and also closes the Prev/Next
// circular list through dummy (index 0), since BuildTree itself only
// wires up the tree, not the in-order list — that's relinkDummyList's
// job in the real engine, reproduced here for unit tests that exercise
// InsertBefore/ExtractNode directly.
func buildChain(a *arena.Arena, n int, bytesPer uint32) []uint32 {
	const dummy = 0
	ids := make([]uint32, n)
	for i := 0; i < n; i++ {
		idx := uint32(i + 1)
		a.ResetOccupied(idx)
		a.SetBytes(idx, bytesPer)
		ids[i] = idx
	}
	if n == 0 {
		a.SetNext(dummy, dummy)
		a.SetPrev(dummy, dummy)
		return ids
	}
	a.SetNext(dummy, ids[0])
	a.SetPrev(ids[0], dummy)
	for i := 0; i < n; i++ {
		if i+1 < n {
			a.SetNext(ids[i], ids[i+1])
			a.SetPrev(ids[i+1], ids[i])
		} else {
			a.SetNext(ids[i], dummy)
			a.SetPrev(dummy, ids[i])
		}
	}
	return ids
}

func TestBuildTreeSizeAndBalance(t *testing.T) {
	a, tr := newTestTree(15)
	ids := buildChain(a, 15, 10)
	tr.BuildTree(ids[0], uint32(len(ids)))

	require.Equal(t, uint32(150), a.BytesSubtree(tr.Dummy))
	require.NotEqual(t, Null, tr.Root())

	var countNodes func(n uint32) int
	countNodes = func(n uint32) int {
		if n == Null {
			return 0
		}
		return 1 + countNodes(a.Left(n)) + countNodes(a.Right(n))
	}
	require.Equal(t, 15, countNodes(tr.Root()))
}

func TestInsertBeforeAndFindPos(t *testing.T) {
	a, tr := newTestTree(5)
	ids := buildChain(a, 3, 10)
	tr.BuildTree(ids[0], 3)

	extra := uint32(4)
	a.ResetOccupied(extra)
	a.SetBytes(extra, 10)
	first := a.Next(tr.Dummy)
	tr.InsertBefore(first, extra)

	require.Equal(t, uint32(40), a.BytesSubtree(tr.Dummy))

	node, rel := tr.FindPos(0)
	require.Equal(t, extra, node)
	require.Equal(t, uint32(0), rel)

	node, rel = tr.FindPos(15)
	require.Equal(t, ids[0], node)
	require.Equal(t, uint32(5), rel)
}

func TestExtractNodeShrinksSubtree(t *testing.T) {
	a, tr := newTestTree(5)
	ids := buildChain(a, 5, 10)
	tr.BuildTree(ids[0], 5)
	require.Equal(t, uint32(50), a.BytesSubtree(tr.Dummy))

	mid := ids[2]
	tr.ExtractNode(mid)

	require.Equal(t, uint32(40), a.BytesSubtree(tr.Dummy))
	require.Equal(t, Null, a.Left(mid))
	require.Equal(t, Null, a.Right(mid))
	require.Equal(t, Null, a.Parent(mid))
	require.True(t, a.IsFree(mid))

	var countNodes func(n uint32) int
	countNodes = func(n uint32) int {
		if n == Null {
			return 0
		}
		return 1 + countNodes(a.Left(n)) + countNodes(a.Right(n))
	}
	require.Equal(t, 4, countNodes(tr.Root()))
}

func TestSeekNearMatchesFindPos(t *testing.T) {
	a, tr := newTestTree(20)
	ids := buildChain(a, 20, 7)
	tr.BuildTree(ids[0], uint32(len(ids)))

	total := a.BytesSubtree(tr.Dummy)
	for pos := uint32(0); pos < total; pos += 3 {
		wantNode, wantRel := tr.FindPos(pos)
		// ids[0] is the first in-order node, so its own block starts at
		// absolute offset 0 — a valid finger-search seed for every pos.
		gotNode, gotRel := tr.SeekNear(ids[0], 0, pos)
		require.Equalf(t, wantNode, gotNode, "pos=%d", pos)
		require.Equalf(t, wantRel, gotRel, "pos=%d", pos)
	}
}
