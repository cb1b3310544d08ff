package models

// SyncSummary is returned to the host at the end of a reconciliation pass.
// It distinguishes fully automatic outcomes from items that need the user's
// arbitration; nothing is ever silently dropped.
type SyncSummary struct {
	// SessionID identifies the pass the summary belongs to.
	SessionID string `json:"session_id"`

	// Scanned is the total number of documents considered by the pass.
	Scanned int `json:"scanned"`

	Unchanged     int `json:"unchanged"`
	FastForwarded int `json:"fast_forwarded"`
	Merged        int `json:"merged"`
	Unresolved    int `json:"unresolved"`
	Deleted       int `json:"deleted"`
	Failed        int `json:"failed"`

	// UnresolvedIDs lists documents preserved as conflict records for user
	// arbitration, surfaced by the host UI.
	UnresolvedIDs []string `json:"unresolved_ids,omitempty"`

	// FailedIDs lists documents whose per-document processing failed;
	// they will be reclassified on the next pass.
	FailedIDs []string `json:"failed_ids,omitempty"`

	// Cancelled reports that the pass stopped at a cooperative checkpoint
	// before considering every document. Committed documents stay
	// committed; the rest are picked up by the next pass.
	Cancelled bool `json:"cancelled,omitempty"`
}
