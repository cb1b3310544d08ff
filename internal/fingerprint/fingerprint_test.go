package fingerprint

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

// ── Compute ──────────────────────────────────────────────────────────────────

// TestCompute_Deterministic verifies that the same bytes always produce the
// same fingerprint across engine instances.
func TestCompute_Deterministic(t *testing.T) {
	content := []byte("# Notes\n\nSome text here.\n\n- a\n- b\n")

	first, err := New(0).Compute(content)
	require.NoError(t, err)
	second, err := New(1 << 20).Compute(content)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Content, 64)
	assert.Len(t, first.Structure, 64)
}

// TestCompute_Empty verifies that empty content is well defined and equals
// the BLAKE2b-256 digest of zero bytes, not an error.
func TestCompute_Empty(t *testing.T) {
	fp, err := New(0).Compute(nil)
	require.NoError(t, err)

	empty := blake2b.Sum256(nil)
	assert.Equal(t, hex.EncodeToString(empty[:]), fp.Content)
	assert.NotEmpty(t, fp.Structure)
}

// TestCompute_SingleByteFlip verifies that flipping any single byte changes
// the primary hash.
func TestCompute_SingleByteFlip(t *testing.T) {
	content := []byte("The quick brown fox jumps over the lazy dog.\n")
	base, err := New(0).Compute(content)
	require.NoError(t, err)

	for i := range content {
		mutated := bytes.Clone(content)
		mutated[i] ^= 0x01
		fp, err := New(0).Compute(mutated)
		if err != nil {
			// The flip may break UTF-8 validity; that is a rejection,
			// not a collision.
			assert.ErrorIs(t, err, ErrInvalidEncoding)
			continue
		}
		assert.NotEqual(t, base.Content, fp.Content, "flip at byte %d collided", i)
	}
}

// TestCompute_TooLarge verifies the size ceiling.
func TestCompute_TooLarge(t *testing.T) {
	engine := New(16)

	_, err := engine.Compute([]byte(strings.Repeat("x", 17)))
	assert.ErrorIs(t, err, ErrContentTooLarge)

	_, err = engine.Compute([]byte(strings.Repeat("x", 16)))
	assert.NoError(t, err)
}

// TestCompute_InvalidEncoding verifies that non-UTF-8 content is rejected.
func TestCompute_InvalidEncoding(t *testing.T) {
	_, err := New(0).Compute([]byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

// ── structure digest ─────────────────────────────────────────────────────────

// TestCompute_BlockReorder verifies that reordering whole blocks changes the
// primary hash but leaves the structural digest intact, which is what lets
// the detector tell a structural move from textual churn.
func TestCompute_BlockReorder(t *testing.T) {
	engine := New(0)

	original := []byte("# One\nalpha text\n# Two\nbeta text\n")
	reordered := []byte("# Two\nbeta text\n# One\nalpha text\n")

	a, err := engine.Compute(original)
	require.NoError(t, err)
	b, err := engine.Compute(reordered)
	require.NoError(t, err)

	assert.NotEqual(t, a.Content, b.Content)
	assert.Equal(t, a.Structure, b.Structure)
}

// TestCompute_InnerEditFlipsStructure verifies that editing text inside a
// block changes the structural digest too.
func TestCompute_InnerEditFlipsStructure(t *testing.T) {
	engine := New(0)

	a, err := engine.Compute([]byte("# One\nalpha text\n"))
	require.NoError(t, err)
	b, err := engine.Compute([]byte("# One\nalpha text edited\n"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Content, b.Content)
	assert.NotEqual(t, a.Structure, b.Structure)
}

// TestCompute_KindDistinguishesBlocks verifies that two documents whose
// blocks differ only in kind do not share a structural digest.
func TestCompute_KindDistinguishesBlocks(t *testing.T) {
	engine := New(0)

	// "# x" is a heading; "#x" is a paragraph with nearly identical bytes.
	a, err := engine.Compute([]byte("# x\n"))
	require.NoError(t, err)
	b, err := engine.Compute([]byte("#x\n"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Structure, b.Structure)
}
