package avltree

// BuildTree constructs a perfectly balanced tree from an in-order chain
// of num already-initialised nodes threaded through Next (as produced by
// arena.FreeList.AllocNodes or a sequence of extracted nodes), and links
// it in as the tree under t.Dummy, replacing whatever was there
// (spec.md §4.3).
//
// The spec describes an iterative two-stack simulation of an in-order
// traversal with O(log N) auxiliary memory; buildSubtree below expresses
// the same halve-the-remaining-count recursion using the Go call stack,
// which is bounded by the same O(log N) depth — the two approaches visit
// nodes in the identical order and produce an identical tree shape.
func (t *Tree) BuildTree(first uint32, num uint32) uint32 {
	cur := first
	root := t.buildSubtree(&cur, num)
	t.attach(t.Dummy, Left, root)
	t.recompute(t.Dummy)
	return root
}

// buildSubtree consumes the next count nodes from the chain pointed to by
// *cur (following Next), builds a balanced subtree from them, and leaves
// *cur pointing just past the consumed nodes.
func (t *Tree) buildSubtree(cur *uint32, count uint32) uint32 {
	if count == 0 {
		return Null
	}
	leftCount := count / 2
	left := t.buildSubtree(cur, leftCount)

	n := *cur
	*cur = t.A.Next(n)

	rightCount := count - leftCount - 1
	right := t.buildSubtree(cur, rightCount)

	t.attach(n, Left, left)
	t.attach(n, Right, right)
	t.recompute(n)
	return n
}
