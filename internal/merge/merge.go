// Package merge combines divergent edits of one document deterministically.
//
// The merge is a three-way diff at block granularity (paragraphs, headings,
// list items, code fences), not a raw byte diff: byte-level three-way merge
// produces frequent spurious conflicts on reformatted or reflowed text,
// while block-level merge tolerates it, at the cost of a block identity
// scheme that survives edits (content similarity, not positional index).
//
// Divergence that cannot be resolved automatically is never an error and
// never silently picks a side: the outcome downgrades to Unresolved with
// both full variants preserved for user arbitration. The only hard errors
// are malformed inputs (encoding failures), fatal to that one document.
package merge

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mkholodov/obsync/internal/block"
	"github.com/mkholodov/obsync/internal/fingerprint"
	"github.com/mkholodov/obsync/models"
)

// Options are the merge heuristics. Both are policy knobs exposed through
// the engine configuration rather than constants.
type Options struct {
	// BlockMatchThreshold is the minimum similarity for two blocks to be
	// treated as the same block across edits.
	BlockMatchThreshold float64

	// DeleteEditThreshold is the minimum edit magnitude (against the
	// common ancestor) for a modified block to survive its concurrent
	// deletion on the other side. Below it the deletion wins; at or above
	// it the edit is substantial and keeping new content outweighs
	// honoring a stale deletion.
	DeleteEditThreshold float64
}

// Engine performs three-way merges. Stateless; safe for concurrent use.
type Engine struct {
	opts Options
}

// New constructs a merge Engine. Out-of-range option values fall back to
// the defaults (0.60 block match, 0.35 delete-vs-edit).
func New(opts Options) *Engine {
	if opts.BlockMatchThreshold <= 0 || opts.BlockMatchThreshold > 1 {
		opts.BlockMatchThreshold = 0.60
	}
	if opts.DeleteEditThreshold <= 0 || opts.DeleteEditThreshold > 1 {
		opts.DeleteEditThreshold = 0.35
	}
	return &Engine{opts: opts}
}

// Merge merges local and remote against their common ancestor base. A nil
// base means no ancestor is known (the ambiguous-origin case); identical
// inputs then converge, anything else is preserved as a conflict.
func (e *Engine) Merge(base, local, remote []byte) (models.MergeOutcome, error) {
	for _, content := range [][]byte{base, local, remote} {
		if !utf8.Valid(content) {
			return models.MergeOutcome{}, fingerprint.ErrInvalidEncoding
		}
	}

	// Independent convergence: both sides arrived at the same content.
	if bytes.Equal(local, remote) {
		return models.Merged(local), nil
	}

	if base == nil {
		return models.Unresolved(local, remote,
			"no common ancestor: divergent content with unknown origin"), nil
	}

	// One side kept the ancestor untouched: the other side's version wins
	// outright, no block walk needed.
	if bytes.Equal(base, local) {
		return models.Merged(remote), nil
	}
	if bytes.Equal(base, remote) {
		return models.Merged(local), nil
	}

	baseBlocks := block.Segment(string(base))
	localAlign := align(baseBlocks, block.Segment(string(local)), e.opts.BlockMatchThreshold)
	remoteAlign := align(baseBlocks, block.Segment(string(remote)), e.opts.BlockMatchThreshold)

	merged, conflicts := e.walk(baseBlocks, localAlign, remoteAlign)
	if len(conflicts) > 0 {
		return models.Unresolved(local, remote, strings.Join(conflicts, "; ")), nil
	}

	return models.Merged([]byte(block.Join(merged))), nil
}

// walk applies the three-way rules block by block, collecting conflict
// descriptions instead of failing fast so the reason lists every collision.
func (e *Engine) walk(base []block.Block, local, remote alignment) ([]block.Block, []string) {
	var (
		merged    []block.Block
		conflicts []string
	)

	for i := 0; i <= len(base); i++ {
		// Insertions anchored before base block i.
		inserted, conflict := mergeInserts(local.inserts[i], remote.inserts[i])
		if conflict {
			conflicts = append(conflicts, fmt.Sprintf("overlapping insertions at block %d", i))
		} else {
			merged = append(merged, inserted...)
		}

		if i == len(base) {
			break
		}

		ls, rs := local.status[i], remote.status[i]
		switch {
		case ls == statusUnchanged && rs == statusUnchanged:
			merged = append(merged, base[i])

		case ls == statusModified && rs == statusUnchanged:
			merged = append(merged, local.modified[i])

		case ls == statusUnchanged && rs == statusModified:
			merged = append(merged, remote.modified[i])

		case ls == statusModified && rs == statusModified:
			if local.modified[i].Equal(remote.modified[i]) {
				// Modified identically on both sides: take either.
				merged = append(merged, local.modified[i])
			} else {
				conflicts = append(conflicts, fmt.Sprintf("block %d modified differently on both sides", i))
			}

		case ls == statusDeleted && rs == statusDeleted:
			// Converging deletions.

		case ls == statusDeleted && rs == statusUnchanged,
			ls == statusUnchanged && rs == statusDeleted:
			// Deleted on one side, untouched on the other: deletion wins.

		case ls == statusDeleted && rs == statusModified:
			if e.substantial(base[i], remote.modified[i]) {
				merged = append(merged, remote.modified[i])
			}

		default: // ls == statusModified && rs == statusDeleted
			if e.substantial(base[i], local.modified[i]) {
				merged = append(merged, local.modified[i])
			}
		}
	}

	return merged, conflicts
}

// substantial reports whether edited drifted far enough from its ancestor
// to outweigh a concurrent deletion.
func (e *Engine) substantial(base, edited block.Block) bool {
	return editMagnitude(base.Text, edited.Text) >= e.opts.DeleteEditThreshold
}

// mergeInserts combines the blocks both sides inserted at the same anchor.
// One-sided insertions pass through; identical insertions converge;
// differing insertions at the same anchor are a conflict.
func mergeInserts(local, remote []block.Block) ([]block.Block, bool) {
	switch {
	case len(local) == 0:
		return remote, false
	case len(remote) == 0:
		return local, false
	case block.Join(local) == block.Join(remote):
		return local, false
	default:
		return nil, true
	}
}
