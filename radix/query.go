package radix

import "golang.org/x/exp/slices"

// FindMatches walks the chains rooted at pos and appends every match found
// to out (which it also returns, reslicing as needed), honoring the
// guarantees named in §4.3:
//
//   - nearest-first: matches are reported in increasing distance order;
//   - increasing-length: a farther match is only kept if it is strictly
//     longer than the best one found so far at a smaller distance,
//     discarding candidates that a shorter-distance match already beats;
//   - max-depth: the walk inspects at most Config.SearchDepth chain links
//     per source chain, regardless of how long the chains are.
//
// FindMatches never looks past the end of data, so no match extends beyond
// the dictionary block boundary.
//
// scratch is caller-owned distance-candidate scratch space, returned
// (possibly reallocated) as the second result so callers can thread it
// into the next call without any per-call allocation. Table itself keeps
// no mutable query state, so two goroutines may call FindMatches
// concurrently on the same Table as long as each passes its own out and
// scratch buffers (see the BlockEncoder/Slice split in package lzma2,
// which relies on exactly this to parallelize one block's encoding).
func (t *Table) FindMatches(pos int, out []Match, scratch []uint32) ([]Match, []uint32) {
	out = out[:0]
	data := t.data
	n := len(data)
	if pos >= n-1 {
		return out, scratch
	}
	depth := t.cfg.SearchDepth

	// Walk the 2-byte chain rooted at this exact position and the 3-byte
	// chain rooted at this exact position: chain3[pos], like chain2[pos],
	// is the bucket's head as of just before pos was inserted during
	// Build, so it (and everything reachable from it) is always < pos -
	// no need to start from the bucket's current head3 and filter out
	// later positions first. Then sort by distance so the two sources
	// merge into one nearest-first sequence.
	cands := scratch[:0]
	if cand := t.chain2[pos]; cand >= 0 {
		for i, c := 0, int(cand); i < depth && c >= 0; i++ {
			cands = append(cands, uint32(pos-c))
			c = int(t.chain2[c])
		}
	}
	if pos < n-2 {
		for i, c := 0, int(t.chain3[pos]); i < depth && c >= 0; i++ {
			cands = append(cands, uint32(pos-c))
			c = int(t.chain3[c])
		}
	}
	slices.Sort(cands)

	var nearestDist uint32
	if cand := t.chain2[pos]; cand >= 0 {
		nearestDist = uint32(pos - int(cand))
	}

	// Compare at most MaxMatchLen bytes: reported lengths are capped there,
	// so a longer comparison could only admit a farther match whose capped
	// length ties a nearer one's.
	lim := n
	if pos+MaxMatchLen < n {
		lim = pos + MaxMatchLen
	}
	bestLen := uint32(MinMatchLen - 1)
	var lastDist uint32
	for i, dist := range cands {
		if i > 0 && dist == lastDist {
			continue
		}
		lastDist = dist
		var l uint32
		if dist == nearestDist && t.lenHint[pos] < 255 {
			l = uint32(t.lenHint[pos])
		} else {
			c := pos - int(dist)
			l = uint32(commonPrefixLen(data, c, pos, lim))
		}
		if l >= MinMatchLen && l > bestLen {
			bestLen = l
			out = append(out, Match{Distance: dist, Length: capLen(l)})
		}
	}
	return out, cands
}

func capLen(l uint32) uint32 {
	if l > MaxMatchLen {
		return MaxMatchLen
	}
	return l
}
