package models

import "time"

// DocumentStat is a listing entry for one document on one replica, as
// enumerated by the host during the Scanning phase. It deliberately carries
// no content so that listings stay cheap for large vaults; the engine pulls
// bytes through the host's Vault and RemoteProvider capabilities only for
// documents that actually need them, and never caches them past the pass.
//
// ID is the vault-relative path of the document (e.g. "notes/A.md"). Paths
// are stable identifiers: the engine does not track renames. ModTime is
// informational only; change detection relies on fingerprints, never on
// timestamps.
type DocumentStat struct {
	ID      string
	ModTime time.Time
}
