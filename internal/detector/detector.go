// Package detector classifies each document's divergence between two
// replicas since their last common synchronization point. Classification is
// a pure in-memory comparison of fingerprints and version records; no
// storage layer or logger is required because the operation is stateless
// and produces no side effects.
package detector

import (
	"fmt"

	"github.com/mkholodov/obsync/internal/store"
	"github.com/mkholodov/obsync/models"
)

// Input carries everything known about one document on both replicas. The
// remote replica is addressed indirectly: the caller has already fetched
// the remote fingerprint through its provider capability.
type Input struct {
	DocumentID string

	// LocalPresent / RemotePresent report whether the document appeared
	// in each replica's current listing.
	LocalPresent  bool
	RemotePresent bool

	// Local / Remote are the current fingerprints, meaningful only when
	// the corresponding side is present.
	Local  models.Fingerprint
	Remote models.Fingerprint

	// LocalRecord / RemoteRecord are the stored version records, nil when
	// the (document, replica) pair has never been committed.
	LocalRecord  *models.VersionRecord
	RemoteRecord *models.VersionRecord
}

// Result is the classification verdict for one document.
type Result struct {
	Class models.Classification

	// Base is the common-ancestor fingerprint both replicas last agreed
	// on, nil when no committed ancestor exists.
	Base *models.Fingerprint

	// Ambiguous marks a BothModified verdict reached without any version
	// record on either side: the detector refuses to guess an origin and
	// hands the document to the merge engine as a conservative conflict.
	Ambiguous bool
}

// Classify maps one document's state to a [models.Classification].
//
// Let base be the last fingerprint known to both replicas. The verdict
// follows the three-way comparison of local-vs-base and remote-vs-base,
// with presence/absence handled first:
//
//   - absent on both sides with surviving records → Deleted;
//   - absent on one side → creation (no record) or one-sided deletion;
//   - local == base, remote == base → Unchanged;
//   - exactly one side diverged → LocalOnly / RemoteOnly fast-forward;
//   - both diverged to identical content → Converged (no conflict);
//   - both diverged to different content → BothModified.
func Classify(in Input) (Result, error) {
	base, err := ResolveBase(in.LocalRecord, in.RemoteRecord)
	if err != nil {
		return Result{}, err
	}

	hasRecord := in.LocalRecord != nil || in.RemoteRecord != nil

	// ── Presence / absence cases ─────────────────────────────────────────
	switch {
	case !in.LocalPresent && !in.RemotePresent:
		// Gone from both listings. With no records either, there is
		// nothing to do; with records, the deletion is confirmed on both
		// sides and the metadata can be dropped.
		return Result{Class: models.ClassDeleted, Base: base}, nil

	case !in.LocalPresent:
		if !hasRecord {
			// Never synchronized and only the remote side has it: a
			// document created remotely.
			return Result{Class: models.ClassRemoteOnly, Base: base}, nil
		}
		return Result{Class: models.ClassLocalDeleted, Base: base}, nil

	case !in.RemotePresent:
		if !hasRecord {
			return Result{Class: models.ClassLocalOnly, Base: base}, nil
		}
		return Result{Class: models.ClassRemoteDeleted, Base: base}, nil
	}

	// ── Present on both sides ────────────────────────────────────────────

	if base == nil {
		// No committed ancestor. Identical content converged
		// independently; differing content has no attributable origin —
		// report the ambiguity instead of guessing, and let the merge
		// engine treat it as a conflict.
		if in.Local.Equal(in.Remote) {
			return Result{Class: models.ClassConverged}, nil
		}
		return Result{Class: models.ClassBothModified, Ambiguous: true}, nil
	}

	localChanged := !in.Local.Equal(*base)
	remoteChanged := !in.Remote.Equal(*base)

	switch {
	case !localChanged && !remoteChanged:
		return Result{Class: models.ClassUnchanged, Base: base}, nil

	case localChanged && !remoteChanged:
		return Result{Class: models.ClassLocalOnly, Base: base}, nil

	case !localChanged && remoteChanged:
		return Result{Class: models.ClassRemoteOnly, Base: base}, nil

	case in.Local.Equal(in.Remote):
		// Both sides changed and independently arrived at the same
		// content: no conflict, just a no-op commit of the agreed state.
		return Result{Class: models.ClassConverged, Base: base}, nil

	default:
		return Result{Class: models.ClassBothModified, Base: base}, nil
	}
}

// ResolveBase determines the common-ancestor fingerprint from the two
// replicas' version records.
//
// After a fully committed pass both records carry the same fingerprint and
// that is the base. If a pass was interrupted between the two per-replica
// commits the records disagree; the lower-clock record is the older agreed
// state and wins. Records that disagree at the same clock value violate the
// commit protocol and are reported as store corruption.
func ResolveBase(local, remote *models.VersionRecord) (*models.Fingerprint, error) {
	switch {
	case local == nil && remote == nil:
		return nil, nil
	case remote == nil:
		fp := local.LastSyncedFingerprint
		return &fp, nil
	case local == nil:
		fp := remote.LastSyncedFingerprint
		return &fp, nil
	}

	if local.LastSyncedFingerprint.Equal(remote.LastSyncedFingerprint) {
		fp := local.LastSyncedFingerprint
		return &fp, nil
	}

	switch {
	case local.CausalClock < remote.CausalClock:
		fp := local.LastSyncedFingerprint
		return &fp, nil
	case remote.CausalClock < local.CausalClock:
		fp := remote.LastSyncedFingerprint
		return &fp, nil
	default:
		return nil, fmt.Errorf("%w: records for %s disagree at clock %d",
			store.ErrStoreCorrupted, local.DocumentID, local.CausalClock)
	}
}
