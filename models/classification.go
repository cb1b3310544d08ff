package models

// Classification is the change-detector verdict for one document within a
// sync pass. The set is closed: the reconciliation coordinator switches
// exhaustively over these values.
type Classification int

const (
	// ClassUnchanged: neither side diverged from the common ancestor.
	ClassUnchanged Classification = iota

	// ClassLocalOnly: only the local replica changed; the remote replica
	// is fast-forwarded to the local content.
	ClassLocalOnly

	// ClassRemoteOnly: only the remote replica changed; the local replica
	// is fast-forwarded to the remote content.
	ClassRemoteOnly

	// ClassConverged: both sides changed and independently arrived at the
	// same content. No merge is needed, but the new agreed state is
	// committed so the next pass sees it as the ancestor.
	ClassConverged

	// ClassBothModified: both sides diverged to different content. The
	// document must enter the merge engine.
	ClassBothModified

	// ClassLocalDeleted: the document vanished from the local listing while
	// the remote copy still exists.
	ClassLocalDeleted

	// ClassRemoteDeleted: the document vanished from the remote listing
	// while the local copy still exists.
	ClassRemoteDeleted

	// ClassDeleted: the document is gone from both listings; the version
	// records are garbage and can be removed.
	ClassDeleted
)

// String returns the short verdict name used in logs and pass summaries.
func (c Classification) String() string {
	switch c {
	case ClassUnchanged:
		return "unchanged"
	case ClassLocalOnly:
		return "local_only"
	case ClassRemoteOnly:
		return "remote_only"
	case ClassConverged:
		return "converged"
	case ClassBothModified:
		return "both_modified"
	case ClassLocalDeleted:
		return "local_deleted"
	case ClassRemoteDeleted:
		return "remote_deleted"
	case ClassDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
