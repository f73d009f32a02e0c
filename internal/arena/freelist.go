package arena

import "github.com/govetachun/shiftfile/internal/layout"

// FreeList threads free node indices through the PrevFree/NextFree slots
// of the arena, with head, tail and count mirrored in the file header
// (spec.md §4.1). The only heap allocation is FreeNodesList's scratch
// slice of the run's indices.
type FreeList struct {
	arena *Arena
	hdr   layout.Header
}

// NewFreeList binds a FreeList view to the given arena and header.
func NewFreeList(a *Arena, hdr layout.Header) *FreeList {
	return &FreeList{arena: a, hdr: hdr}
}

// Count returns free_count.
func (fl *FreeList) Count() int { return int(fl.hdr.FreeCount()) }

// First returns free_list_first (Null if empty).
func (fl *FreeList) First() uint32 { return fl.hdr.FreeListFirst() }

// pushFront inserts a single already-isolated free node at the head of
// the free list, overwriting its PrevFree/NextFree slots.
func (fl *FreeList) pushFront(i uint32) {
	head := fl.hdr.FreeListFirst()
	fl.arena.SetNextFree(i, head)
	fl.arena.SetPrevFree(i, Null)
	if head != Null {
		fl.arena.SetPrevFree(head, i)
	} else {
		fl.hdr.SetFreeListLast(i)
	}
	fl.hdr.SetFreeListFirst(i)
	fl.hdr.SetFreeCount(fl.hdr.FreeCount() + 1)
}

// FreeNodesContiguous inserts the contiguous index range [first,
// first+num) at the head of the free list (spec.md §4.1).
func (fl *FreeList) FreeNodesContiguous(first uint32, num uint32) {
	for i := uint32(0); i < num; i++ {
		idx := first + i
		fl.arena.SetPrev(idx, Null)
		fl.arena.SetNext(idx, Null)
		fl.arena.SetPrevFree(idx, Null)
		fl.arena.SetNextFree(idx, Null)
		fl.pushFront(idx)
	}
}

// FreeNodesList inserts num nodes starting at first and following
// next-pointers (i.e. an already-built singly chained run, as produced by
// AllocNodes), head-inserted as a single splice (spec.md §4.1).
func (fl *FreeList) FreeNodesList(first uint32, num uint32) {
	if num == 0 {
		return
	}
	// Collect the chain by its "next" pointers first, then clear prev/next
	// on every node so it reads as free (IsFree), and splice the nodes onto
	// the head of the list through their PrevFree/NextFree slots.
	idx := first
	nodes := make([]uint32, 0, num)
	for n := uint32(0); n < num; n++ {
		nodes = append(nodes, idx)
		idx = fl.arena.Next(idx)
	}
	for _, n := range nodes {
		fl.arena.SetPrev(n, Null)
		fl.arena.SetNext(n, Null)
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		fl.pushFront(nodes[i])
	}
}

// UnfreeNode unlinks a specific free node from wherever it sits in the
// list (spec.md §4.1: used by grow/shrink when a required index happens
// to be free).
func (fl *FreeList) UnfreeNode(pos uint32) {
	prev := fl.arena.PrevFree(pos)
	next := fl.arena.NextFree(pos)
	if prev != Null {
		fl.arena.SetNextFree(prev, next)
	} else {
		fl.hdr.SetFreeListFirst(next)
	}
	if next != Null {
		fl.arena.SetPrevFree(next, prev)
	} else {
		fl.hdr.SetFreeListLast(prev)
	}
	fl.arena.SetPrevFree(pos, Null)
	fl.arena.SetNextFree(pos, Null)
	fl.hdr.SetFreeCount(fl.hdr.FreeCount() - 1)
}

// AllocNodes removes the first num free nodes from the list and returns
// them re-linked via Next as a single chain, the head first, ready to be
// initialised as an in-order run (spec.md §4.1). Precondition: num <=
// Count().
func (fl *FreeList) AllocNodes(num uint32) uint32 {
	if num == 0 {
		return Null
	}
	head := fl.hdr.FreeListFirst()
	cur := head
	for n := uint32(0); n < num; n++ {
		next := fl.arena.NextFree(cur)
		if n+1 < num {
			fl.arena.SetNext(cur, next)
		} else {
			fl.arena.SetNext(cur, Null)
		}
		fl.arena.SetPrev(cur, Null)
		if n+1 == num {
			// detach the remainder of the free list from this run.
			if next != Null {
				fl.arena.SetPrevFree(next, Null)
			} else {
				fl.hdr.SetFreeListLast(Null)
			}
			fl.hdr.SetFreeListFirst(next)
		}
		cur = next
	}
	fl.hdr.SetFreeCount(fl.hdr.FreeCount() - num)
	return head
}

// AllocNode is AllocNodes(1); it returns a single isolated node (Next/Prev
// both Null).
func (fl *FreeList) AllocNode() uint32 {
	i := fl.AllocNodes(1)
	if i != Null {
		fl.arena.SetNext(i, Null)
	}
	return i
}
