package block

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Segment ──────────────────────────────────────────────────────────────────

// TestSegment_Empty verifies that empty input yields no blocks.
func TestSegment_Empty(t *testing.T) {
	assert.Nil(t, Segment(""))
}

// TestSegment_Kinds verifies that each structural construct maps to its
// block kind and that adjacent lines group correctly.
func TestSegment_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Block
	}{
		{
			name:    "single paragraph",
			content: "one line\nsecond line\n",
			want: []Block{
				{Kind: KindParagraph, Text: "one line\nsecond line\n"},
			},
		},
		{
			name:    "heading is its own block",
			content: "# Title\nbody\n",
			want: []Block{
				{Kind: KindHeading, Text: "# Title\n"},
				{Kind: KindParagraph, Text: "body\n"},
			},
		},
		{
			name:    "seven hashes is a paragraph",
			content: "####### not a heading\n",
			want: []Block{
				{Kind: KindParagraph, Text: "####### not a heading\n"},
			},
		},
		{
			name:    "list items split per marker",
			content: "- first\n- second\n",
			want: []Block{
				{Kind: KindListItem, Text: "- first\n"},
				{Kind: KindListItem, Text: "- second\n"},
			},
		},
		{
			name:    "indented continuation stays with its item",
			content: "1. step\n   detail\n2. next\n",
			want: []Block{
				{Kind: KindListItem, Text: "1. step\n   detail\n"},
				{Kind: KindListItem, Text: "2. next\n"},
			},
		},
		{
			name:    "blank run separates paragraphs",
			content: "a\n\n\nb\n",
			want: []Block{
				{Kind: KindParagraph, Text: "a\n"},
				{Kind: KindBlank, Text: "\n\n"},
				{Kind: KindParagraph, Text: "b\n"},
			},
		},
		{
			name:    "code fence is one block",
			content: "```go\nx := 1\n\n# not a heading\n```\nafter\n",
			want: []Block{
				{Kind: KindCodeFence, Text: "```go\nx := 1\n\n# not a heading\n```\n"},
				{Kind: KindParagraph, Text: "after\n"},
			},
		},
		{
			name:    "unclosed fence swallows the rest",
			content: "~~~\ncode\nstill code",
			want: []Block{
				{Kind: KindCodeFence, Text: "~~~\ncode\nstill code"},
			},
		},
		{
			name:    "no trailing newline",
			content: "last line",
			want: []Block{
				{Kind: KindParagraph, Text: "last line"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Segment(tt.content))
		})
	}
}

// TestSegment_Lossless verifies that joining the segmented blocks
// reconstructs the input byte for byte.
func TestSegment_Lossless(t *testing.T) {
	inputs := []string{
		"",
		"plain\n",
		"# H\n\ntext\n- a\n- b\n\n```py\npass\n```\ntail",
		"\n\n\n",
		"* item\n  cont\n\tcont tab\nnot indented\n",
		"~~~rust\nfn main() {}\n~~~\n\n## Sub\n",
	}

	for _, in := range inputs {
		blocks := Segment(in)
		require.Equal(t, in, Join(blocks), "input %q must round-trip", in)
	}
}

// TestSegment_ListMarkers verifies the recognized and rejected list marker
// forms.
func TestSegment_ListMarkers(t *testing.T) {
	tests := []struct {
		line string
		list bool
	}{
		{"- item\n", true},
		{"* item\n", true},
		{"+ item\n", true},
		{"12. item\n", true},
		{"3) item\n", true},
		{"-no space\n", false},
		{"1.no space\n", false},
		{". dot first\n", false},
		{"-\n", false},
	}

	for _, tt := range tests {
		blocks := Segment(tt.line)
		require.Len(t, blocks, 1)
		if tt.list {
			assert.Equal(t, KindListItem, blocks[0].Kind, "line %q", tt.line)
		} else {
			assert.Equal(t, KindParagraph, blocks[0].Kind, "line %q", tt.line)
		}
	}
}

// ── Kind ─────────────────────────────────────────────────────────────────────

// TestKind_String verifies the digest names stay stable, since they feed the
// structural fingerprint.
func TestKind_String(t *testing.T) {
	want := map[Kind]string{
		KindParagraph: "paragraph",
		KindHeading:   "heading",
		KindListItem:  "list_item",
		KindCodeFence: "code_fence",
		KindBlank:     "blank",
		Kind(99):      "unknown",
	}
	for kind, name := range want {
		assert.Equal(t, name, kind.String())
	}
}

// TestJoin_Large exercises Join on a document bigger than the builder's
// initial buffer.
func TestJoin_Large(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("# section\n\nparagraph text\n\n")
	}
	in := sb.String()
	assert.Equal(t, in, Join(Segment(in)))
}
