// Package arena implements the fixed-size node arena and free list
// described in spec.md §3 and §4.1: 32-byte node records stored at
// index*NodeSize inside the mapped region, threaded into an occupied
// in-order list and a free list that share the same children[] slots.
//
// Every node is addressed by a uint32 index into the region, never by a
// pointer — the region may be unmapped and remapped at a different base
// address by grow/shrink, and no index survives a remap invalidation
// except through this arena, matching spec.md §9's pointer-freedom rule.
package arena

import (
	"encoding/binary"

	"github.com/govetachun/shiftfile/internal/layout"
)

// Node field byte offsets within one 32-byte record.
const (
	offChild0       = 0
	offChild1       = 4
	offParent       = 8
	offPrev         = 12
	offNext         = 16
	offBytes        = 20
	offBytesSubtree = 24
	offHeight       = 28
)

// Null is the sentinel index meaning "no node" (the header occupies index
// region starting at 0, so 0 is never a valid occupied or free node index).
const Null uint32 = 0

// Arena is a thin view over the node-index region of a mapped file. It
// holds no state of its own beyond the region slice; all persistent state
// (free list head/tail/count) lives in the header, exactly like the rest
// of this engine's pointer-free design.
type Arena struct {
	region []byte
}

// New wraps region (the full mapped file) as a node arena.
func New(region []byte) *Arena {
	return &Arena{region: region}
}

// Rebind repoints the arena at a new backing region after a remap. The
// caller is responsible for ensuring no stale slices from the old region
// are retained anywhere else.
func (a *Arena) Rebind(region []byte) { a.region = region }

// nodeBytes returns the 32-byte slice backing node index i.
func (a *Arena) nodeBytes(i uint32) []byte {
	off := uint64(i) * layout.NodeSize
	return a.region[off : off+layout.NodeSize]
}

func (a *Arena) Child(i uint32, side int) uint32 {
	return binary.LittleEndian.Uint32(a.nodeBytes(i)[offChild0+4*side:])
}
func (a *Arena) SetChild(i uint32, side int, v uint32) {
	binary.LittleEndian.PutUint32(a.nodeBytes(i)[offChild0+4*side:], v)
}

func (a *Arena) Parent(i uint32) uint32     { return binary.LittleEndian.Uint32(a.nodeBytes(i)[offParent:]) }
func (a *Arena) SetParent(i uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.nodeBytes(i)[offParent:], v)
}

func (a *Arena) Prev(i uint32) uint32 { return binary.LittleEndian.Uint32(a.nodeBytes(i)[offPrev:]) }
func (a *Arena) SetPrev(i uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.nodeBytes(i)[offPrev:], v)
}

func (a *Arena) Next(i uint32) uint32 { return binary.LittleEndian.Uint32(a.nodeBytes(i)[offNext:]) }
func (a *Arena) SetNext(i uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.nodeBytes(i)[offNext:], v)
}

func (a *Arena) Bytes(i uint32) uint32 { return binary.LittleEndian.Uint32(a.nodeBytes(i)[offBytes:]) }
func (a *Arena) SetBytes(i uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.nodeBytes(i)[offBytes:], v)
}

func (a *Arena) BytesSubtree(i uint32) uint32 {
	return binary.LittleEndian.Uint32(a.nodeBytes(i)[offBytesSubtree:])
}
func (a *Arena) SetBytesSubtree(i uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.nodeBytes(i)[offBytesSubtree:], v)
}

func (a *Arena) Height(i uint32) uint32 {
	return binary.LittleEndian.Uint32(a.nodeBytes(i)[offHeight:])
}
func (a *Arena) SetHeight(i uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.nodeBytes(i)[offHeight:], v)
}

// Left and Right are the tree-child convenience accessors (side 0/1).
func (a *Arena) Left(i uint32) uint32         { return a.Child(i, 0) }
func (a *Arena) Right(i uint32) uint32        { return a.Child(i, 1) }
func (a *Arena) SetLeft(i uint32, v uint32)   { a.SetChild(i, 0, v) }
func (a *Arena) SetRight(i uint32, v uint32)  { a.SetChild(i, 1, v) }

// PrevFree and NextFree alias children[0]/children[1] for free nodes
// (spec.md §4.1: free nodes thread through the same slots as tree
// children, since a node is never both occupied and free at once).
func (a *Arena) PrevFree(i uint32) uint32        { return a.Child(i, 0) }
func (a *Arena) SetPrevFree(i uint32, v uint32)  { a.SetChild(i, 0, v) }
func (a *Arena) NextFree(i uint32) uint32        { return a.Child(i, 1) }
func (a *Arena) SetNextFree(i uint32, v uint32)  { a.SetChild(i, 1, v) }

// IsFree reports whether node i is on the free list: prev == 0 && next == 0
// (spec.md §3 entity "Node").
func (a *Arena) IsFree(i uint32) bool {
	return a.Prev(i) == Null && a.Next(i) == Null
}

// ResetOccupied clears list and tree links and the byte counters of a
// freshly allocated node, ready to be linked by insert_before or the bulk
// builder.
func (a *Arena) ResetOccupied(i uint32) {
	a.SetLeft(i, Null)
	a.SetRight(i, Null)
	a.SetParent(i, Null)
	a.SetPrev(i, Null)
	a.SetNext(i, Null)
	a.SetBytes(i, 0)
	a.SetBytesSubtree(i, 0)
	a.SetHeight(i, 1)
}

// Block returns the data block owned by occupied node i: blockSize bytes
// at offset i*blockSize in the region (spec.md §3 entity "Data block").
func (a *Arena) Block(i uint32, blockSize uint32) []byte {
	off := uint64(i) * uint64(blockSize)
	return a.region[off : off+uint64(blockSize)]
}
