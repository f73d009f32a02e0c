package arena

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govetachun/shiftfile/internal/layout"
)

func newTestArena(nodes int) *Arena {
	region := make([]byte, nodes*layout.NodeSize)
	return New(region)
}

func TestChildAndParentRoundTrip(t *testing.T) {
	a := newTestArena(8)
	a.SetChild(1, 0, 2)
	a.SetChild(1, 1, 3)
	a.SetParent(2, 1)
	a.SetParent(3, 1)

	require.Equal(t, uint32(2), a.Left(1))
	require.Equal(t, uint32(3), a.Right(1))
	require.Equal(t, uint32(1), a.Parent(2))
	require.Equal(t, uint32(1), a.Parent(3))
}

func TestResetOccupiedClearsEverything(t *testing.T) {
	a := newTestArena(4)
	a.SetLeft(1, 2)
	a.SetRight(1, 3)
	a.SetParent(1, 4)
	a.SetPrev(1, 2)
	a.SetNext(1, 3)
	a.SetBytes(1, 99)
	a.SetBytesSubtree(1, 99)

	a.ResetOccupied(1)

	require.Equal(t, Null, a.Left(1))
	require.Equal(t, Null, a.Right(1))
	require.Equal(t, Null, a.Parent(1))
	require.Equal(t, Null, a.Prev(1))
	require.Equal(t, Null, a.Next(1))
	require.Equal(t, uint32(0), a.Bytes(1))
	require.Equal(t, uint32(0), a.BytesSubtree(1))
	require.Equal(t, uint32(1), a.Height(1))
	require.True(t, a.IsFree(1))
}

func TestBlockAddressing(t *testing.T) {
	blockSize := uint32(16)
	region := make([]byte, 4*blockSize)
	a := New(region)
	b := a.Block(2, blockSize)
	require.Len(t, b, int(blockSize))
	b[0] = 0xAB
	require.Equal(t, byte(0xAB), region[2*blockSize])
}

func TestFreeListAllocAndFree(t *testing.T) {
	const n = 10
	region := make([]byte, n*layout.NodeSize)
	a := New(region)
	hdrBuf := make([]byte, layout.HeaderSize)
	hdr := layout.NewHeader(hdrBuf)
	fl := NewFreeList(a, hdr)

	fl.FreeNodesContiguous(1, 5) // indices 1..5
	require.Equal(t, 5, fl.Count())

	head := fl.AllocNodes(2)
	require.NotEqual(t, Null, head)
	require.Equal(t, 3, fl.Count())

	// the two allocated nodes should chain via Next and have Prev==Null.
	require.Equal(t, Null, a.Prev(head))
	second := a.Next(head)
	require.NotEqual(t, Null, second)
	require.Equal(t, Null, a.Next(second))

	fl.FreeNodesList(head, 2)
	require.Equal(t, 5, fl.Count())
}
