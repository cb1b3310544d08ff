// Package fingerprint computes the deterministic digest pair that drives
// change detection: a primary BLAKE2b-256 content hash over the raw bytes,
// and a secondary structural digest over the document's block set.
//
// Computing a fingerprint is a pure function: same bytes in, same
// fingerprint out, no side effects, no state.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"

	"github.com/mkholodov/obsync/internal/block"
	"github.com/mkholodov/obsync/models"
)

// Engine computes fingerprints. The size ceiling is stored in the struct so
// it can be tuned per deployment target (e.g. mobile vs. desktop hosts).
type Engine struct {
	maxBytes int64
}

// New constructs an Engine with the given content size ceiling in bytes.
// Non-positive values fall back to 64 MiB.
func New(maxBytes int64) *Engine {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &Engine{maxBytes: maxBytes}
}

// Compute returns the fingerprint of content.
//
// Empty content is well defined (the BLAKE2b-256 digest of zero bytes), not
// an error. Content above the size ceiling returns [ErrContentTooLarge];
// content that is not valid UTF-8 returns [ErrInvalidEncoding]. Both are
// per-document failures.
func (e *Engine) Compute(content []byte) (models.Fingerprint, error) {
	if int64(len(content)) > e.maxBytes {
		return models.Fingerprint{}, ErrContentTooLarge
	}
	if !utf8.Valid(content) {
		return models.Fingerprint{}, ErrInvalidEncoding
	}

	contentSum := blake2b.Sum256(content)

	return models.Fingerprint{
		Content:   hex.EncodeToString(contentSum[:]),
		Structure: structureDigest(string(content)),
	}, nil
}

// structureDigest hashes the document's block set in an order-independent
// way: each block contributes (kind, BLAKE2b-256(text)), the per-block
// digests are sorted, and the sorted sequence is hashed again.
//
// Reordering whole blocks therefore leaves the structural digest intact
// while any textual change inside a block flips it. Comparing the primary
// hash and the structural digest distinguishes a pure structural move
// (content differs, structure equal) from textual churn (both differ).
func structureDigest(content string) string {
	blocks := block.Segment(content)

	perBlock := make([][]byte, 0, len(blocks))
	for _, b := range blocks {
		h, _ := blake2b.New256(nil)
		var kindTag [4]byte
		binary.BigEndian.PutUint32(kindTag[:], uint32(b.Kind))
		h.Write(kindTag[:])
		h.Write([]byte(b.Text))
		perBlock = append(perBlock, h.Sum(nil))
	}

	sort.Slice(perBlock, func(i, j int) bool {
		return string(perBlock[i]) < string(perBlock[j])
	})

	h, _ := blake2b.New256(nil)
	for _, sum := range perBlock {
		h.Write(sum)
	}
	return hex.EncodeToString(h.Sum(nil))
}
