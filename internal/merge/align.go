package merge

import "github.com/mkholodov/obsync/internal/block"

// sideStatus describes what one side did to a single base block.
type sideStatus int

const (
	statusUnchanged sideStatus = iota
	statusModified
	statusDeleted
)

// alignment maps every base block to its fate on one side, plus the blocks
// that side inserted. Insertions are anchored by the number of surviving
// base positions that precede them: an insert with anchor i appears before
// base block i, an insert with anchor len(base) appears at the end.
type alignment struct {
	status   []sideStatus
	modified []block.Block
	inserts  map[int][]block.Block
}

// align computes the base→side alignment.
//
// Exact matches are found first via a longest-common-subsequence pass over
// byte-identical blocks, giving each surviving block a stable identity
// regardless of position shifts. Blocks left unmatched between two exact
// anchors are then paired in order and kept as modifications when their
// content similarity reaches matchThreshold; identity is a content match,
// not a positional index, so insertions and removals elsewhere in the
// document do not smear into spurious modifications.
func align(base, side []block.Block, matchThreshold float64) alignment {
	a := alignment{
		status:   make([]sideStatus, len(base)),
		modified: make([]block.Block, len(base)),
		inserts:  make(map[int][]block.Block),
	}

	pairs := longestCommonSubsequence(base, side)

	// Walk the gaps between consecutive exact matches (and before the
	// first / after the last).
	prevB, prevS := 0, 0
	processGap := func(bEnd, sEnd int) {
		bi, si := prevB, prevS
		// Pair leftover blocks in order while they still resemble each
		// other; the first dissimilar pair breaks the pairing, leaving
		// deletions on the base side and insertions on the side side.
		for bi < bEnd && si < sEnd {
			if Similarity(base[bi].Text, side[si].Text) >= matchThreshold {
				a.status[bi] = statusModified
				a.modified[bi] = side[si]
				bi++
				si++
				continue
			}
			break
		}
		for ; bi < bEnd; bi++ {
			a.status[bi] = statusDeleted
		}
		if si < sEnd {
			a.inserts[bEnd] = append(a.inserts[bEnd], side[si:sEnd]...)
		}
	}

	for _, p := range pairs {
		processGap(p.baseIdx, p.sideIdx)
		a.status[p.baseIdx] = statusUnchanged
		prevB, prevS = p.baseIdx+1, p.sideIdx+1
	}
	processGap(len(base), len(side))

	return a
}

// lcsPair is one exact block match between base and side.
type lcsPair struct {
	baseIdx int
	sideIdx int
}

// longestCommonSubsequence returns the exact-match pairs of the classic LCS
// over block equality, in document order.
func longestCommonSubsequence(base, side []block.Block) []lcsPair {
	n, m := len(base), len(side)
	if n == 0 || m == 0 {
		return nil
	}

	// lengths[i][j] = LCS length of base[i:], side[j:].
	lengths := make([][]int, n+1)
	for i := range lengths {
		lengths[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if base[i].Equal(side[j]) {
				lengths[i][j] = lengths[i+1][j+1] + 1
			} else {
				lengths[i][j] = max(lengths[i+1][j], lengths[i][j+1])
			}
		}
	}

	pairs := make([]lcsPair, 0, lengths[0][0])
	for i, j := 0, 0; i < n && j < m; {
		switch {
		case base[i].Equal(side[j]):
			pairs = append(pairs, lcsPair{baseIdx: i, sideIdx: j})
			i++
			j++
		case lengths[i+1][j] >= lengths[i][j+1]:
			i++
		default:
			j++
		}
	}
	return pairs
}
