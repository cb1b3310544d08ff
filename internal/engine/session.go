package engine

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mkholodov/obsync/internal/detector"
	"github.com/mkholodov/obsync/models"
)

// Phase is the coordinator's position in the per-pass state machine.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseClassifying
	PhaseMerging
	PhaseCommitting
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScanning:
		return "scanning"
	case PhaseClassifying:
		return "classifying"
	case PhaseMerging:
		return "merging"
	case PhaseCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// docState accumulates everything the pass learns about one document as it
// moves through the phases. Content bytes live here only for the duration
// of the session; nothing is cached past it.
type docState struct {
	id            string
	localPresent  bool
	remotePresent bool

	localContent  []byte
	remoteContent []byte
	localFP       models.Fingerprint
	remoteFP      models.Fingerprint

	result  detector.Result
	outcome *models.MergeOutcome

	// failed marks a document skipped by later stages after an isolated
	// failure in an earlier one. Written only by the goroutine that owns
	// the document in the current stage.
	failed bool
}

// session is the ephemeral state of one reconciliation pass, owned
// exclusively by the coordinator and discarded once the summary is
// returned.
type session struct {
	id   string
	docs map[string]*docState

	// order is the deterministic processing order: the sorted union of
	// both listings.
	order []string

	mu      sync.Mutex
	summary models.SyncSummary
}

// newSession builds the candidate document set from both replicas'
// listings.
func newSession(local, remote []models.DocumentStat) *session {
	s := &session{
		id:   uuid.NewString(),
		docs: make(map[string]*docState, len(local)+len(remote)),
	}

	for _, stat := range local {
		s.docs[stat.ID] = &docState{id: stat.ID, localPresent: true}
	}
	for _, stat := range remote {
		state, ok := s.docs[stat.ID]
		if !ok {
			state = &docState{id: stat.ID}
			s.docs[stat.ID] = state
		}
		state.remotePresent = true
	}

	s.order = make([]string, 0, len(s.docs))
	for id := range s.docs {
		s.order = append(s.order, id)
	}
	sort.Strings(s.order)

	s.summary = models.SyncSummary{SessionID: s.id, Scanned: len(s.order)}
	return s
}

// The record* helpers fan worker results into the summary.

func (s *session) recordUnchanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Unchanged++
}

func (s *session) recordFastForward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.FastForwarded++
}

func (s *session) recordMerged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Merged++
}

func (s *session) recordUnresolved(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Unresolved++
	s.summary.UnresolvedIDs = append(s.summary.UnresolvedIDs, documentID)
}

func (s *session) recordDeleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Deleted++
}

func (s *session) recordFailed(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Failed++
	s.summary.FailedIDs = append(s.summary.FailedIDs, documentID)
}

func (s *session) recordCancelled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary.Cancelled = true
}

// finish sorts the ID lists (workers append in completion order) and
// returns the final summary.
func (s *session) finish() models.SyncSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.Strings(s.summary.UnresolvedIDs)
	sort.Strings(s.summary.FailedIDs)
	return s.summary
}
