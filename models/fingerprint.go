package models

// Fingerprint is the deterministic digest pair computed for one document
// state. Two documents with identical bytes always carry identical
// fingerprints; a single-byte change flips Content with overwhelming
// probability.
type Fingerprint struct {
	// Content is the hex-encoded BLAKE2b-256 digest of the raw bytes.
	// This is the primary change-detection hash.
	Content string `json:"content"`

	// Structure is the hex-encoded BLAKE2b-256 structural digest computed
	// over the document's block set. It is stable under block reordering,
	// so comparing Content and Structure distinguishes textual churn from
	// pure structural moves.
	Structure string `json:"structure"`
}

// Zero reports whether f is the zero value, i.e. no fingerprint was computed.
func (f Fingerprint) Zero() bool {
	return f.Content == "" && f.Structure == ""
}

// Equal reports whether two fingerprints describe byte-identical content.
// Only the primary hash participates: equal bytes imply an equal structural
// digest, so comparing Content alone is sufficient and cheaper.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Content == other.Content
}
