// Package avltree implements the AVL maintenance core described in
// spec.md §4.2: height/bytes_subtree propagation, single and double
// rotation, and the bulk builder in build.go. It operates purely on node
// indices via an *arena.Arena — no pointers, so it survives being rebound
// to a different backing region after a remap (spec.md §9).
//
// The tree is rooted at dummy.left; dummy is also the head/tail sentinel
// of the in-order occupied list threaded through prev/next (spec.md §3).
// Rotation never touches prev/next, only parent/children (spec.md §4.2).
package avltree

import "github.com/govetachun/shiftfile/internal/arena"

// Null is re-exported for callers that only import avltree.
const Null = arena.Null

// left/right side indices, matching arena.Left/Right (child slot 0/1).
const (
	Left  = 0
	Right = 1
)

// Tree is a view over an arena rooted at a fixed dummy node index.
type Tree struct {
	A     *arena.Arena
	Dummy uint32
}

// New returns a Tree rooted through dummy.left.
func New(a *arena.Arena, dummy uint32) *Tree {
	return &Tree{A: a, Dummy: dummy}
}

// Root returns the current tree root (Null if the tree is empty).
func (t *Tree) Root() uint32 { return t.A.Left(t.Dummy) }

func (t *Tree) height(n uint32) uint32 {
	if n == Null {
		return 0
	}
	return t.A.Height(n)
}

func (t *Tree) bytesSubtreeOf(n uint32) uint32 {
	if n == Null {
		return 0
	}
	return t.A.BytesSubtree(n)
}

func other(side int) int { return 1 - side }

// attach makes child the side-th child of parent, fixing up child's
// parent link too (unless child is Null). It never touches prev/next.
func (t *Tree) attach(parent uint32, side int, child uint32) {
	t.A.SetChild(parent, side, child)
	if child != Null {
		t.A.SetParent(child, parent)
	}
}

// childSlot returns which side of parent currently holds child.
func (t *Tree) childSlot(parent, child uint32) int {
	if t.A.Child(parent, Left) == child {
		return Left
	}
	return Right
}

// recompute recalculates height and bytes_subtree of n from its children
// (spec.md §3 invariants 4-5). n must not be Null.
func (t *Tree) recompute(n uint32) {
	l, r := t.A.Left(n), t.A.Right(n)
	lh, rh := t.height(l), t.height(r)
	h := lh
	if rh > h {
		h = rh
	}
	t.A.SetHeight(n, h+1)
	t.A.SetBytesSubtree(n, t.A.Bytes(n)+t.bytesSubtreeOf(l)+t.bytesSubtreeOf(r))
}

// rotateSingle performs the single AVL rotation that shortens the
// heavySide subtree of root by pulling its heavySide child up. Returns
// the new subtree root; the caller is responsible for reattaching it to
// root's former parent.
func (t *Tree) rotateSingle(root uint32, heavySide int) uint32 {
	pivot := t.A.Child(root, heavySide)
	moved := t.A.Child(pivot, other(heavySide))
	t.attach(root, heavySide, moved)
	t.attach(pivot, other(heavySide), root)
	t.recompute(root)
	t.recompute(pivot)
	return pivot
}

// rotateDouble performs the double AVL rotation: an inner single rotation
// on root's heavySide child, followed by the outer single rotation on
// root (spec.md §4.2).
func (t *Tree) rotateDouble(root uint32, heavySide int) uint32 {
	child := t.A.Child(root, heavySide)
	newChild := t.rotateSingle(child, other(heavySide))
	t.attach(root, heavySide, newChild)
	return t.rotateSingle(root, heavySide)
}

// rebalanceOnce inspects n and, if unbalanced, performs the appropriate
// single or double rotation, returning the (possibly new) subtree root.
// Assumes n's children are already correctly balanced and counted.
func (t *Tree) rebalanceOnce(n uint32) uint32 {
	lh, rh := t.height(t.A.Left(n)), t.height(t.A.Right(n))
	var heavySide int
	switch {
	case lh > rh+1:
		heavySide = Left
	case rh > lh+1:
		heavySide = Right
	default:
		return n // already balanced
	}
	child := t.A.Child(n, heavySide)
	outer := t.height(t.A.Child(child, heavySide))
	inner := t.height(t.A.Child(child, other(heavySide)))
	if inner <= outer {
		return t.rotateSingle(n, heavySide)
	}
	return t.rotateDouble(n, heavySide)
}

// UpdateCounters walks n upward to the dummy, recomputing height and
// bytes_subtree from children at every level, without rebalancing
// (spec.md §4.2). The dummy itself is exempt from the AVL balance
// invariant but its bytes_subtree (the logical file size) and height are
// still refreshed from its one real child, the root.
func (t *Tree) UpdateCounters(n uint32) {
	for n != t.Dummy && n != Null {
		t.recompute(n)
		n = t.A.Parent(n)
	}
	t.recompute(t.Dummy)
}

// UpdateCountersAndRebalance walks n upward to the dummy. At each node it
// recomputes counters, then rebalances once if the AVL invariant is
// violated, reattaching the (possibly new) subtree root to the original
// parent before continuing upward (spec.md §4.2). The dummy is exempt
// from rebalancing but its counters are refreshed last, same as above.
func (t *Tree) UpdateCountersAndRebalance(n uint32) {
	for n != t.Dummy && n != Null {
		t.recompute(n)
		parent := t.A.Parent(n)
		newRoot := t.rebalanceOnce(n)
		if newRoot != n {
			side := t.childSlot(parent, n)
			t.attach(parent, side, newRoot)
		}
		n = parent
	}
	t.recompute(t.Dummy)
}
