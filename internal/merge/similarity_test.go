package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSimilarity_Bounds verifies the fixed points of the similarity ratio.
func TestSimilarity_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("same", "same"))
	assert.Equal(t, 0.0, Similarity("", "text"))
	assert.Equal(t, 0.0, Similarity("text", ""))
}

// TestSimilarity_Ordering verifies that a smaller edit scores higher than a
// rewrite of the same block.
func TestSimilarity_Ordering(t *testing.T) {
	base := "the quick brown fox jumps over the lazy dog"
	small := Similarity(base, "the quick brown fox jumps over the lazy dogs")
	large := Similarity(base, "an entirely different sentence about cats")

	assert.Greater(t, small, large)
	assert.Greater(t, small, 0.9)
	assert.Less(t, large, 0.5)
}

// TestSimilarity_Symmetric verifies symmetry of the ratio.
func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "alpha beta gamma", "alpha delta gamma"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-9)
}

// TestEditMagnitude_Complement verifies that magnitude is the similarity
// complement.
func TestEditMagnitude_Complement(t *testing.T) {
	assert.Equal(t, 0.0, editMagnitude("same", "same"))
	assert.Equal(t, 1.0, editMagnitude("aaaa", ""))
}
