package models

// MergeOutcome is the result of a three-way merge attempt. Exactly one of
// the two shapes is populated: a resolved outcome carries the merged
// content, an unresolved outcome carries both full variants so that no
// information is lost.
type MergeOutcome struct {
	Resolved bool

	// Content is the merged document. Set only when Resolved is true.
	Content []byte

	// Local and Remote are the full divergent inputs, preserved verbatim.
	// Set only when Resolved is false.
	Local  []byte
	Remote []byte

	// Reason explains an unresolved outcome.
	Reason string
}

// Merged wraps content in a resolved outcome.
func Merged(content []byte) MergeOutcome {
	return MergeOutcome{Resolved: true, Content: content}
}

// Unresolved wraps both divergent variants in an unresolved outcome.
func Unresolved(local, remote []byte, reason string) MergeOutcome {
	return MergeOutcome{Local: local, Remote: remote, Reason: reason}
}
