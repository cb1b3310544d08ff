// Package block segments a text document into an ordered sequence of
// structural blocks: the granularity at which the merge engine compares and
// combines divergent edits. Block-level merging tolerates reflowed or
// reformatted text without producing the spurious conflicts a raw byte diff
// would.
package block

import "strings"

// Kind identifies the structural role of a block. The set is closed: code
// that dispatches on Kind switches exhaustively over these values.
type Kind int

const (
	// KindParagraph is a run of plain text lines.
	KindParagraph Kind = iota

	// KindHeading is a single ATX heading line (one to six '#').
	KindHeading

	// KindListItem is one list item: its marker line plus any indented
	// continuation lines.
	KindListItem

	// KindCodeFence is a fenced code region, from the opening fence
	// through the closing fence (or end of input).
	KindCodeFence

	// KindBlank is a run of blank lines. Blank runs are kept as blocks so
	// that concatenating all block texts reproduces the input exactly.
	KindBlank
)

// String returns the lower-case kind name used in digests and logs.
func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindListItem:
		return "list_item"
	case KindCodeFence:
		return "code_fence"
	case KindBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// Block is one segment of a document. Text holds the block's raw lines
// including their line terminators, so joining the Text of every block in
// order reconstructs the original document byte for byte.
type Block struct {
	Kind Kind
	Text string
}

// Equal reports whether two blocks are byte-identical.
func (b Block) Equal(other Block) bool {
	return b.Kind == other.Kind && b.Text == other.Text
}

// Join concatenates blocks back into a document.
func Join(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Text)
	}
	return sb.String()
}
