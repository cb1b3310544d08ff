package merge

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Similarity returns the content similarity of two strings in [0, 1]:
// twice the length of their common text divided by the sum of their
// lengths. 1 means identical, 0 means nothing shared. Two empty strings
// are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	common := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			common += utf8.RuneCountInString(d.Text)
		}
	}

	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	return float64(2*common) / float64(total)
}

// editMagnitude measures how far edited has drifted from base: the
// complement of their similarity. Used by the delete-vs-edit policy, where
// a "substantial" modification outweighs a concurrent deletion.
func editMagnitude(base, edited string) float64 {
	return 1 - Similarity(base, edited)
}
