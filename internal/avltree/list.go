package avltree

// InsertBefore splices an isolated node newNode (no children, no list
// links) into the in-order sequence immediately before ref, attaches it
// into the tree, and rebalances upward to the dummy (spec.md §3
// "Lifecycles", §4.2).
//
// Standard technique: if ref has no left child, newNode becomes ref's
// left child (it is already the in-order predecessor slot); otherwise
// newNode becomes the right child of ref's in-order predecessor in the
// tree, which by construction has no right child.
func (t *Tree) InsertBefore(ref, newNode uint32) {
	// list links: splice newNode in before ref.
	p := t.A.Prev(ref)
	t.A.SetNext(p, newNode)
	t.A.SetPrev(newNode, p)
	t.A.SetNext(newNode, ref)
	t.A.SetPrev(ref, newNode)

	t.AttachNode(ref, newNode)
}

// AttachNode attaches an isolated node newNode into the tree at the
// in-order predecessor slot of ref, without touching the in-order list.
// Callers that splice a whole run of nodes into the list themselves
// before deciding how to attach them (e.g. bulk inserts choosing between
// incremental attach and a whole-tree rebuild) use this directly;
// InsertBefore is AttachNode plus the list splice for the single-node
// case.
func (t *Tree) AttachNode(ref, newNode uint32) {
	if t.A.Left(ref) == Null {
		t.attach(ref, Left, newNode)
	} else {
		pred := t.A.Left(ref)
		for t.A.Right(pred) != Null {
			pred = t.A.Right(pred)
		}
		t.attach(pred, Right, newNode)
	}
	t.UpdateCountersAndRebalance(newNode)
}

// ExtractNode removes an occupied node from both the in-order list and
// the tree, rebalancing upward, and leaves it isolated (children/list
// links all Null) so the caller can return it to the free list (spec.md
// §3 "Lifecycles").
func (t *Tree) ExtractNode(n uint32) {
	prev, next := t.A.Prev(n), t.A.Next(n)
	t.A.SetNext(prev, next)
	t.A.SetPrev(next, prev)
	t.A.SetPrev(n, Null)
	t.A.SetNext(n, Null)

	parent := t.A.Parent(n)
	left, right := t.A.Left(n), t.A.Right(n)

	var replacement uint32
	switch {
	case left == Null && right == Null:
		replacement = Null
	case left == Null:
		replacement = right
	case right == Null:
		replacement = left
	default:
		// Replace n with its in-order successor (leftmost node of right
		// subtree), which has no left child.
		succ := right
		for t.A.Left(succ) != Null {
			succ = t.A.Left(succ)
		}
		succParent := t.A.Parent(succ)
		succRight := t.A.Right(succ)
		if succParent != n {
			t.attach(succParent, Left, succRight)
			t.attach(succ, Right, right)
		}
		t.attach(succ, Left, left)
		replacement = succ
		// Rebalance from succParent (or succ itself if succ was n's
		// direct right child) upward once the swap is in place.
		startAt := succParent
		if startAt == n {
			startAt = succ
		}
		t.attach(parent, t.childSlotOrLeft(parent, n), replacement)
		if replacement != Null {
			t.A.SetParent(replacement, parent)
		}
		t.A.SetLeft(n, Null)
		t.A.SetRight(n, Null)
		t.A.SetParent(n, Null)
		t.UpdateCountersAndRebalance(startAt)
		return
	}

	t.attach(parent, t.childSlotOrLeft(parent, n), replacement)
	if replacement != Null {
		t.A.SetParent(replacement, parent)
	}
	t.A.SetLeft(n, Null)
	t.A.SetRight(n, Null)
	t.A.SetParent(n, Null)
	t.UpdateCountersAndRebalance(parent)
}

// childSlotOrLeft is childSlot but tolerant of parent == dummy, whose
// only meaningful slot is Left (dummy.right is always Null per spec.md §3).
func (t *Tree) childSlotOrLeft(parent, child uint32) int {
	if parent == t.Dummy {
		return Left
	}
	return t.childSlot(parent, child)
}
