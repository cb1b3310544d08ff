package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkholodov/obsync/models"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func validFP(seed string) models.Fingerprint {
	// 64 hex chars per digest, varied by seed so fingerprints differ.
	pad := strings.Repeat("0", 64-len(seed))
	return models.Fingerprint{Content: seed + pad, Structure: seed + pad}
}

// ── Commit / Get ─────────────────────────────────────────────────────────────

// TestMemory_CommitAdvancesClock verifies that each commit for a
// (document, replica) pair advances the causal clock by exactly one,
// starting at one.
func TestMemory_CommitAdvancesClock(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		record, err := s.Commit(ctx, "note.md", "laptop", validFP("aa"))
		require.NoError(t, err)
		assert.Equal(t, want, record.CausalClock)
	}

	got, err := s.Get(ctx, "note.md", "laptop")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.CausalClock)
}

// TestMemory_ClocksIndependentPerReplica verifies that replicas and
// documents keep separate clocks.
func TestMemory_ClocksIndependentPerReplica(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Commit(ctx, "note.md", "laptop", validFP("aa"))
	require.NoError(t, err)
	_, err = s.Commit(ctx, "note.md", "laptop", validFP("bb"))
	require.NoError(t, err)

	record, err := s.Commit(ctx, "note.md", "server", validFP("aa"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.CausalClock)

	record, err = s.Commit(ctx, "other.md", "laptop", validFP("aa"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.CausalClock)
}

// TestMemory_GetNotFound verifies the first-sync sentinel.
func TestMemory_GetNotFound(t *testing.T) {
	s := NewMemory()

	_, err := s.Get(context.Background(), "never.md", "laptop")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

// TestMemory_CommitRejectsMalformedFingerprint verifies that a fingerprint
// that does not decode to a 256-bit digest never enters the store.
func TestMemory_CommitRejectsMalformedFingerprint(t *testing.T) {
	s := NewMemory()

	_, err := s.Commit(context.Background(), "note.md", "laptop",
		models.Fingerprint{Content: "not-hex", Structure: "not-hex"})
	assert.ErrorIs(t, err, ErrStoreCorrupted)
}

// ── Remove ───────────────────────────────────────────────────────────────────

// TestMemory_RemoveDropsRecordsAndBase verifies that Remove clears every
// replica's record and the base snapshot.
func TestMemory_RemoveDropsRecordsAndBase(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Commit(ctx, "note.md", "laptop", validFP("aa"))
	require.NoError(t, err)
	_, err = s.Commit(ctx, "note.md", "server", validFP("aa"))
	require.NoError(t, err)
	require.NoError(t, s.SaveBase(ctx, "note.md", []byte("content"), validFP("aa")))

	require.NoError(t, s.Remove(ctx, "note.md"))

	_, err = s.Get(ctx, "note.md", "laptop")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = s.Get(ctx, "note.md", "server")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = s.Base(ctx, "note.md")
	assert.ErrorIs(t, err, ErrBaseNotFound)
}

// ── Base snapshots ───────────────────────────────────────────────────────────

// TestMemory_BaseRoundTrip verifies snapshot storage and replacement.
func TestMemory_BaseRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.SaveBase(ctx, "note.md", []byte("v1"), validFP("aa")))
	require.NoError(t, s.SaveBase(ctx, "note.md", []byte("v2"), validFP("bb")))

	snapshot, err := s.Base(ctx, "note.md")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), snapshot.Content)
	assert.True(t, snapshot.Fingerprint.Equal(validFP("bb")))
}

// TestMemory_BaseReturnsCopy verifies that mutating a returned snapshot does
// not corrupt the stored one.
func TestMemory_BaseReturnsCopy(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.SaveBase(ctx, "note.md", []byte("stable"), validFP("aa")))

	first, err := s.Base(ctx, "note.md")
	require.NoError(t, err)
	first.Content[0] = 'X'

	second, err := s.Base(ctx, "note.md")
	require.NoError(t, err)
	assert.Equal(t, []byte("stable"), second.Content)
}

// ── Conflicts ────────────────────────────────────────────────────────────────

// TestMemory_ConflictLifecycle verifies save, list ordering, replacement and
// delete of conflict records.
func TestMemory_ConflictLifecycle(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	older := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.SaveConflict(ctx, models.ConflictRecord{
		DocumentID: "b.md",
		Local:      []byte("local b"),
		Remote:     []byte("remote b"),
		Reason:     "block 1 modified differently on both sides",
		CreatedAt:  older,
	}))
	require.NoError(t, s.SaveConflict(ctx, models.ConflictRecord{
		DocumentID: "a.md",
		Local:      []byte("local a"),
		Remote:     []byte("remote a"),
		Reason:     "overlapping insertions at block 0",
	}))

	conflicts, err := s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "b.md", conflicts[0].DocumentID)
	assert.Equal(t, "a.md", conflicts[1].DocumentID)
	assert.False(t, conflicts[0].CreatedAt.IsZero())

	// Saving again replaces, not duplicates.
	require.NoError(t, s.SaveConflict(ctx, models.ConflictRecord{
		DocumentID: "a.md",
		Local:      []byte("local a v2"),
		Remote:     []byte("remote a v2"),
		Reason:     "still conflicting",
	}))
	conflicts, err = s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)

	require.NoError(t, s.DeleteConflict(ctx, "a.md"))
	conflicts, err = s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "b.md", conflicts[0].DocumentID)

	assert.ErrorIs(t, s.DeleteConflict(ctx, "a.md"), ErrConflictNotFound)
}
