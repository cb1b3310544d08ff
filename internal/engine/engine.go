// Package engine is the reconciliation coordinator: it drives a full
// synchronization pass over the document set, invoking the change detector
// per document, the merge engine for true conflicts, and the version store
// for commits, and returns a result summary to the host.
//
// A pass moves through Idle → Scanning → Classifying → Merging →
// Committing → Idle. Documents are processed independently by a worker
// pool; a failure on one document never blocks committing the others, and
// a document's version record is committed only after its content has been
// durably applied — content first, clock second, never the reverse.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mkholodov/obsync/internal/config"
	"github.com/mkholodov/obsync/internal/detector"
	"github.com/mkholodov/obsync/internal/fingerprint"
	"github.com/mkholodov/obsync/internal/logger"
	"github.com/mkholodov/obsync/internal/merge"
	"github.com/mkholodov/obsync/internal/store"
	"github.com/mkholodov/obsync/models"
)

// Engine coordinates reconciliation passes between the local vault and one
// remote replica. The version store is injected, never global, so tests
// substitute the in-memory backend.
type Engine struct {
	cfg    *config.Config
	store  store.VersionStore
	vault  Vault
	fp     *fingerprint.Engine
	merger *merge.Engine
	logger *logger.Logger

	locks *keyedMutex

	// passMu serialises passes: no two passes may commit the same
	// document concurrently, and one pass at a time is all a single
	// host needs.
	passMu sync.Mutex
	phase  atomic.Int32
}

// New constructs an Engine from its collaborators.
func New(cfg *config.Config, versions store.VersionStore, vault Vault, log *logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  versions,
		vault:  vault,
		fp:     fingerprint.New(cfg.Sync.MaxDocumentBytes),
		merger: merge.New(merge.Options{
			BlockMatchThreshold: cfg.Sync.BlockMatchThreshold,
			DeleteEditThreshold: cfg.Sync.DeleteEditThreshold,
		}),
		logger: log,
		locks:  newKeyedMutex(),
	}
}

// Phase reports the coordinator's current position in the pass state
// machine.
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

func (e *Engine) setPhase(p Phase) {
	e.phase.Store(int32(p))
}

// BeginSync runs one full reconciliation pass over the union of both
// listings and returns its summary.
//
// The pass is atomic per document, not across the set: per-document
// failures land in the summary and never abort the pass. Only a version
// store invariant violation halts everything, since continuing on
// corrupted metadata risks data loss. Cancellation is honored at document
// boundaries; documents already committed stay committed and the rest are
// reclassified by the next pass.
func (e *Engine) BeginSync(ctx context.Context, local, remote []models.DocumentStat, provider RemoteProvider) (models.SyncSummary, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()
	defer e.setPhase(PhaseIdle)

	e.setPhase(PhaseScanning)
	sess := newSession(local, remote)

	log := &logger.Logger{Logger: e.logger.With().Str("session_id", sess.id).Logger()}
	ctx = log.WithContext(ctx)
	log.Debug().Int("documents", len(sess.order)).Msg("sync pass started")

	e.setPhase(PhaseClassifying)
	err := e.runStage(ctx, sess, func(ctx context.Context, state *docState) error {
		return e.classifyDocument(ctx, sess, state, provider)
	})

	if err == nil {
		e.setPhase(PhaseMerging)
		err = e.runStage(ctx, sess, func(ctx context.Context, state *docState) error {
			return e.mergeDocument(ctx, sess, state, provider)
		})
	}

	if err == nil {
		e.setPhase(PhaseCommitting)
		err = e.runStage(ctx, sess, func(ctx context.Context, state *docState) error {
			return e.commitDocument(ctx, sess, state, provider)
		})
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		sess.recordCancelled()
	}

	summary := sess.finish()
	log.Info().
		Int("unchanged", summary.Unchanged).
		Int("fast_forwarded", summary.FastForwarded).
		Int("merged", summary.Merged).
		Int("unresolved", summary.Unresolved).
		Int("deleted", summary.Deleted).
		Int("failed", summary.Failed).
		Bool("cancelled", summary.Cancelled).
		Msg("sync pass finished")

	return summary, err
}

// runStage fans the session's documents through fn on the worker pool.
// fn returns a non-nil error only for pass-fatal conditions; per-document
// failures are recorded in the session and skipped by later stages.
func (e *Engine) runStage(ctx context.Context, sess *session, fn func(ctx context.Context, state *docState) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Sync.Workers)

	for _, id := range sess.order {
		state := sess.docs[id]
		g.Go(func() error {
			// Cooperative checkpoint between documents.
			if err := ctx.Err(); err != nil {
				return err
			}
			if state.failed {
				return nil
			}
			return fn(ctx, state)
		})
	}

	return g.Wait()
}

// classifyDocument gathers both sides' fingerprints and version records and
// runs the change detector.
func (e *Engine) classifyDocument(ctx context.Context, sess *session, state *docState, provider RemoteProvider) error {
	log := logger.FromContext(ctx)

	if state.localPresent {
		content, err := e.vault.Read(ctx, state.id)
		if err != nil {
			return e.failDocument(sess, state, log, fmt.Errorf("read local document: %w", err))
		}
		fp, err := e.fp.Compute(content)
		if err != nil {
			return e.failDocument(sess, state, log, fmt.Errorf("fingerprint local document: %w", err))
		}
		state.localContent = content
		state.localFP = fp
	}

	if state.remotePresent {
		fp, err := provider.Fingerprint(ctx, state.id)
		if err != nil {
			return e.failDocument(sess, state, log, fmt.Errorf("fetch remote fingerprint: %w", err))
		}
		state.remoteFP = fp
	}

	localRecord, err := e.getRecord(ctx, state.id, e.cfg.App.LocalReplicaID)
	if err != nil {
		return e.failDocument(sess, state, log, err)
	}
	remoteRecord, err := e.getRecord(ctx, state.id, e.cfg.App.RemoteReplicaID)
	if err != nil {
		return e.failDocument(sess, state, log, err)
	}

	result, err := detector.Classify(detector.Input{
		DocumentID:    state.id,
		LocalPresent:  state.localPresent,
		RemotePresent: state.remotePresent,
		Local:         state.localFP,
		Remote:        state.remoteFP,
		LocalRecord:   localRecord,
		RemoteRecord:  remoteRecord,
	})
	if err != nil {
		return e.failDocument(sess, state, log, err)
	}

	state.result = result
	log.Debug().
		Str("document_id", state.id).
		Str("class", result.Class.String()).
		Bool("ambiguous", result.Ambiguous).
		Msg("document classified")
	return nil
}

// getRecord loads one version record, mapping the first-sync case to nil.
func (e *Engine) getRecord(ctx context.Context, documentID, replicaID string) (*models.VersionRecord, error) {
	record, err := e.store.Get(ctx, documentID, replicaID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// mergeDocument runs the merge engine for BothModified documents. The base
// content comes from the store's snapshot when it still matches the
// detected ancestor fingerprint; otherwise the merge runs without an
// ancestor and stays conservative.
func (e *Engine) mergeDocument(ctx context.Context, sess *session, state *docState, provider RemoteProvider) error {
	if state.result.Class != models.ClassBothModified {
		return nil
	}
	log := logger.FromContext(ctx)

	remoteContent, err := provider.Content(ctx, state.id)
	if err != nil {
		return e.failDocument(sess, state, log, fmt.Errorf("fetch remote content: %w", err))
	}
	state.remoteContent = remoteContent

	var baseContent []byte
	if state.result.Base != nil {
		snapshot, err := e.store.Base(ctx, state.id)
		switch {
		case errors.Is(err, store.ErrBaseNotFound):
			// No snapshot; merge without an ancestor.
		case err != nil:
			return e.failDocument(sess, state, log, err)
		case snapshot.Fingerprint.Equal(*state.result.Base):
			baseContent = snapshot.Content
		}
	}

	outcome, err := e.merger.Merge(baseContent, state.localContent, remoteContent)
	if err != nil {
		return e.failDocument(sess, state, log, fmt.Errorf("merge document: %w", err))
	}
	state.outcome = &outcome
	return nil
}

// commitDocument applies the accepted outcome for one document and advances
// the version store, holding the document's commit lock throughout.
func (e *Engine) commitDocument(ctx context.Context, sess *session, state *docState, provider RemoteProvider) error {
	log := logger.FromContext(ctx)

	unlock := e.locks.Lock(state.id)
	defer unlock()

	var err error
	switch state.result.Class {
	case models.ClassUnchanged:
		sess.recordUnchanged()
		return nil

	case models.ClassConverged:
		// Both sides already hold the content; only the metadata moves.
		if err = e.commitAgreed(ctx, state.id, state.localContent, state.localFP); err == nil {
			sess.recordUnchanged()
		}

	case models.ClassLocalOnly:
		if err = provider.Apply(ctx, state.id, state.localContent); err == nil {
			if err = e.commitAgreed(ctx, state.id, state.localContent, state.localFP); err == nil {
				sess.recordFastForward()
			}
		}

	case models.ClassRemoteOnly:
		err = e.fastForwardLocal(ctx, sess, state, provider)

	case models.ClassBothModified:
		err = e.commitMergeOutcome(ctx, sess, state, provider)

	case models.ClassLocalDeleted:
		err = e.reconcileDeletion(ctx, sess, state, provider, true)

	case models.ClassRemoteDeleted:
		err = e.reconcileDeletion(ctx, sess, state, provider, false)

	case models.ClassDeleted:
		if err = e.store.Remove(ctx, state.id); err == nil {
			if dErr := e.store.DeleteConflict(ctx, state.id); dErr != nil && !errors.Is(dErr, store.ErrConflictNotFound) {
				err = dErr
			}
		}
		if err == nil {
			sess.recordDeleted()
		}

	default:
		err = fmt.Errorf("unhandled classification %q for %s", state.result.Class, state.id)
	}

	if err != nil {
		return e.failDocument(sess, state, log, err)
	}
	return nil
}

// fastForwardLocal pulls the remote version into the vault, then commits.
func (e *Engine) fastForwardLocal(ctx context.Context, sess *session, state *docState, provider RemoteProvider) error {
	content := state.remoteContent
	if content == nil {
		var err error
		if content, err = provider.Content(ctx, state.id); err != nil {
			return fmt.Errorf("fetch remote content: %w", err)
		}
	}

	if err := e.vault.Apply(ctx, state.id, content); err != nil {
		return fmt.Errorf("apply remote content: %w", err)
	}
	if err := e.commitAgreed(ctx, state.id, content, state.remoteFP); err != nil {
		return err
	}
	sess.recordFastForward()
	return nil
}

// commitMergeOutcome finishes a BothModified document: a resolved merge is
// applied to both replicas and committed; an unresolved one is preserved
// verbatim as a conflict record.
func (e *Engine) commitMergeOutcome(ctx context.Context, sess *session, state *docState, provider RemoteProvider) error {
	if state.outcome == nil {
		return fmt.Errorf("no merge outcome for %s", state.id)
	}

	if !state.outcome.Resolved {
		conflict := models.ConflictRecord{
			DocumentID:        state.id,
			Local:             state.outcome.Local,
			Remote:            state.outcome.Remote,
			LocalFingerprint:  state.localFP,
			RemoteFingerprint: state.remoteFP,
			Reason:            state.outcome.Reason,
		}
		if err := e.store.SaveConflict(ctx, conflict); err != nil {
			return fmt.Errorf("save conflict: %w", err)
		}
		sess.recordUnresolved(state.id)
		return nil
	}

	merged := state.outcome.Content
	fp, err := e.fp.Compute(merged)
	if err != nil {
		return fmt.Errorf("fingerprint merged content: %w", err)
	}

	if err = e.vault.Apply(ctx, state.id, merged); err != nil {
		return fmt.Errorf("apply merged content locally: %w", err)
	}
	if err = provider.Apply(ctx, state.id, merged); err != nil {
		return fmt.Errorf("apply merged content remotely: %w", err)
	}
	if err = e.commitAgreed(ctx, state.id, merged, fp); err != nil {
		return err
	}

	sess.recordMerged()
	return nil
}

// reconcileDeletion handles a document deleted on one side while the other
// still has it. The surviving side's copy is resurrected only when it has
// drifted substantially from the common ancestor — favoring new content
// over a stale deletion, the same policy the merge applies per block;
// otherwise the deletion propagates.
func (e *Engine) reconcileDeletion(ctx context.Context, sess *session, state *docState, provider RemoteProvider, localDeleted bool) error {
	survivorFP := state.remoteFP
	if !localDeleted {
		survivorFP = state.localFP
	}

	substantial := true
	if base := state.result.Base; base != nil {
		if survivorFP.Equal(*base) {
			// The survivor never changed since both sides agreed:
			// the deletion is current, not stale.
			substantial = false
		} else if snapshot, err := e.store.Base(ctx, state.id); err == nil && snapshot.Fingerprint.Equal(*base) {
			survivor, err := e.survivorContent(ctx, state, provider, localDeleted)
			if err != nil {
				return err
			}
			substantial = 1-merge.Similarity(string(snapshot.Content), string(survivor)) >= e.cfg.Sync.DeleteEditThreshold
		}
	}

	if !substantial {
		if localDeleted {
			if err := provider.Delete(ctx, state.id); err != nil {
				return fmt.Errorf("propagate deletion remotely: %w", err)
			}
		} else {
			if err := e.vault.Delete(ctx, state.id); err != nil {
				return fmt.Errorf("propagate deletion locally: %w", err)
			}
		}
		if err := e.store.Remove(ctx, state.id); err != nil {
			return err
		}
		sess.recordDeleted()
		return nil
	}

	// Resurrect: copy the survivor back to the side that deleted it.
	survivor, err := e.survivorContent(ctx, state, provider, localDeleted)
	if err != nil {
		return err
	}
	if localDeleted {
		if err = e.vault.Apply(ctx, state.id, survivor); err != nil {
			return fmt.Errorf("resurrect document locally: %w", err)
		}
	} else {
		if err = provider.Apply(ctx, state.id, survivor); err != nil {
			return fmt.Errorf("resurrect document remotely: %w", err)
		}
	}
	if err = e.commitAgreed(ctx, state.id, survivor, survivorFP); err != nil {
		return err
	}
	sess.recordFastForward()
	return nil
}

// survivorContent returns the content of the side that still has the
// document.
func (e *Engine) survivorContent(ctx context.Context, state *docState, provider RemoteProvider, localDeleted bool) ([]byte, error) {
	if !localDeleted {
		return state.localContent, nil
	}
	if state.remoteContent != nil {
		return state.remoteContent, nil
	}
	content, err := provider.Content(ctx, state.id)
	if err != nil {
		return nil, fmt.Errorf("fetch remote content: %w", err)
	}
	state.remoteContent = content
	return content, nil
}

// commitAgreed records that both replicas now hold content: one commit per
// replica record plus the new common-ancestor snapshot. Content has already
// been applied durably by the caller, clocks advance last. Any conflict
// record for the document is cleared too: conflicts persist only while
// unresolved, and agreement resolves them no matter which path reached it.
func (e *Engine) commitAgreed(ctx context.Context, documentID string, content []byte, fp models.Fingerprint) error {
	if _, err := e.store.Commit(ctx, documentID, e.cfg.App.LocalReplicaID, fp); err != nil {
		return fmt.Errorf("commit local record: %w", err)
	}
	if _, err := e.store.Commit(ctx, documentID, e.cfg.App.RemoteReplicaID, fp); err != nil {
		return fmt.Errorf("commit remote record: %w", err)
	}
	if err := e.store.SaveBase(ctx, documentID, content, fp); err != nil {
		return fmt.Errorf("save base snapshot: %w", err)
	}
	if err := e.store.DeleteConflict(ctx, documentID); err != nil && !errors.Is(err, store.ErrConflictNotFound) {
		return fmt.Errorf("clear conflict record: %w", err)
	}
	return nil
}

// failDocument isolates a per-document failure into the summary, unless it
// is a store invariant violation, which is fatal to the whole pass.
func (e *Engine) failDocument(sess *session, state *docState, log *logger.Logger, err error) error {
	if errors.Is(err, store.ErrStoreCorrupted) {
		return err
	}

	log.Err(err).Str("document_id", state.id).Msg("document processing failed")
	state.failed = true
	sess.recordFailed(state.id)
	return nil
}

// UnresolvedConflicts returns the persisted conflicts awaiting user
// arbitration, for the host UI to surface.
func (e *Engine) UnresolvedConflicts(ctx context.Context) ([]models.ConflictRecord, error) {
	return e.store.ListConflicts(ctx)
}

// ResolveConflict commits the user's choice for a previously unresolved
// document: the chosen content is applied to both replicas, both version
// records advance, and the conflict record is cleared.
func (e *Engine) ResolveConflict(ctx context.Context, documentID string, chosen []byte, provider RemoteProvider) error {
	unlock := e.locks.Lock(documentID)
	defer unlock()

	conflicts, err := e.store.ListConflicts(ctx)
	if err != nil {
		return fmt.Errorf("list conflicts: %w", err)
	}
	found := false
	for _, conflict := range conflicts {
		if conflict.DocumentID == documentID {
			found = true
			break
		}
	}
	if !found {
		return store.ErrConflictNotFound
	}

	fp, err := e.fp.Compute(chosen)
	if err != nil {
		return fmt.Errorf("fingerprint chosen content: %w", err)
	}

	if err = e.vault.Apply(ctx, documentID, chosen); err != nil {
		return fmt.Errorf("apply chosen content locally: %w", err)
	}
	if err = provider.Apply(ctx, documentID, chosen); err != nil {
		return fmt.Errorf("apply chosen content remotely: %w", err)
	}
	if err = e.commitAgreed(ctx, documentID, chosen, fp); err != nil {
		return err
	}

	e.logger.Info().Str("document_id", documentID).Msg("conflict resolved")
	return nil
}
