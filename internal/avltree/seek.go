package avltree

// maxFingerSteps bounds the finger search below before it gives up and
// falls back to a full descent from the root. Generous relative to any
// tree height this engine will see in practice.
const maxFingerSteps = 64

// SeekNear resolves target using a finger search that starts from a cached
// (node, ownStart) position and walks the reachable neighbours — the
// previous/next list links and the node's parent/left/right tree edges —
// always stepping to whichever neighbour's own block interval lies
// closest to target, even when that step overshoots it (spec.md §4.4).
//
// node may be t.Dummy, representing the zero-length position at the end
// of the file; ownStart must be the absolute offset of node's own block
// start (Size() when node is Dummy). Falls back to FindPos, which is
// always correct, if the finger search doesn't converge within a
// generous step bound — callers never see an incorrect result, only a
// slower one.
func (t *Tree) SeekNear(node uint32, ownStart uint32, target uint32) (uint32, uint32) {
	n, start := node, ownStart
	for step := 0; step < maxFingerSteps; step++ {
		length := t.A.Bytes(n)
		end := start + length
		if target >= start && target < end {
			return n, target - start
		}

		var bestNode, bestStart, bestDist uint32
		found := false
		consider := func(cand uint32, candStart uint32) {
			if cand == Null || cand == t.Dummy {
				return
			}
			d := blockDistance(candStart, t.A.Bytes(cand), target)
			if !found || d < bestDist {
				bestNode, bestStart, bestDist, found = cand, candStart, d, true
			}
		}

		if p := t.A.Parent(n); p != Null {
			var pStart uint32
			if t.A.Left(p) == n {
				pStart = start + length + t.bytesSubtreeOf(t.A.Right(n))
			} else {
				pStart = start - t.bytesSubtreeOf(t.A.Left(n)) - t.A.Bytes(p)
			}
			consider(p, pStart)
		}
		if l := t.A.Left(n); l != Null {
			lStart := start - t.bytesSubtreeOf(l) + t.bytesSubtreeOf(t.A.Left(l))
			consider(l, lStart)
		}
		if r := t.A.Right(n); r != Null {
			rStart := start + length + t.bytesSubtreeOf(t.A.Left(r))
			consider(r, rStart)
		}
		if n != t.Dummy {
			if pv := t.A.Prev(n); pv != t.Dummy {
				consider(pv, start-t.A.Bytes(pv))
			}
			if nx := t.A.Next(n); nx != t.Dummy {
				consider(nx, start+length)
			}
		} else {
			// Dummy's own Prev is the last occupied node; its own block
			// ends exactly where Dummy's (zero-length) block starts.
			if pv := t.A.Prev(n); pv != t.Dummy {
				consider(pv, start-t.A.Bytes(pv))
			}
		}

		if !found {
			break
		}
		n, start = bestNode, bestStart
	}
	return t.FindPos(target)
}

// blockDistance is 0 if target falls inside [start,start+length), else the
// number of bytes target lies outside that interval on either side.
func blockDistance(start, length, target uint32) uint32 {
	end := start + length
	if target < start {
		return start - target
	}
	if target >= end {
		return target - end + 1
	}
	return 0
}
