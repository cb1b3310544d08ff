package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkholodov/obsync/models"
)

// memoryStore is the in-memory implementation of [VersionStore], used in
// tests and by hosts that keep sync metadata ephemeral. It upholds the same
// invariants as the SQL backends (strictly increasing clocks, all-or-nothing
// commits) without durability.
type memoryStore struct {
	mu        sync.RWMutex
	records   map[string]map[string]models.VersionRecord // documentID -> replicaID -> record
	bases     map[string]models.BaseSnapshot
	conflicts map[string]models.ConflictRecord
}

// NewMemory constructs an empty in-memory [VersionStore].
func NewMemory() VersionStore {
	return &memoryStore{
		records:   make(map[string]map[string]models.VersionRecord),
		bases:     make(map[string]models.BaseSnapshot),
		conflicts: make(map[string]models.ConflictRecord),
	}
}

func (s *memoryStore) Get(_ context.Context, documentID, replicaID string) (models.VersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[documentID][replicaID]
	if !ok {
		return models.VersionRecord{}, ErrRecordNotFound
	}
	return record, nil
}

func (s *memoryStore) Commit(_ context.Context, documentID, replicaID string, fp models.Fingerprint) (models.VersionRecord, error) {
	if err := checkFingerprint(fp); err != nil {
		return models.VersionRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replicas, ok := s.records[documentID]
	if !ok {
		replicas = make(map[string]models.VersionRecord, 2)
		s.records[documentID] = replicas
	}

	record := models.VersionRecord{
		DocumentID:            documentID,
		ReplicaID:             replicaID,
		LastSyncedFingerprint: fp,
		CausalClock:           replicas[replicaID].CausalClock + 1,
		UpdatedAt:             time.Now().UTC(),
	}
	replicas[replicaID] = record

	return record, nil
}

func (s *memoryStore) Remove(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, documentID)
	delete(s.bases, documentID)
	return nil
}

func (s *memoryStore) Base(_ context.Context, documentID string) (models.BaseSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.bases[documentID]
	if !ok {
		return models.BaseSnapshot{}, ErrBaseNotFound
	}
	snapshot.Content = append([]byte(nil), snapshot.Content...)
	return snapshot, nil
}

func (s *memoryStore) SaveBase(_ context.Context, documentID string, content []byte, fp models.Fingerprint) error {
	if err := checkFingerprint(fp); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bases[documentID] = models.BaseSnapshot{
		DocumentID:  documentID,
		Content:     append([]byte(nil), content...),
		Fingerprint: fp,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (s *memoryStore) SaveConflict(_ context.Context, conflict models.ConflictRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conflict.CreatedAt.IsZero() {
		conflict.CreatedAt = time.Now().UTC()
	}
	conflict.Local = append([]byte(nil), conflict.Local...)
	conflict.Remote = append([]byte(nil), conflict.Remote...)
	s.conflicts[conflict.DocumentID] = conflict
	return nil
}

func (s *memoryStore) ListConflicts(_ context.Context) ([]models.ConflictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conflicts := make([]models.ConflictRecord, 0, len(s.conflicts))
	for _, conflict := range s.conflicts {
		conflict.Local = append([]byte(nil), conflict.Local...)
		conflict.Remote = append([]byte(nil), conflict.Remote...)
		conflicts = append(conflicts, conflict)
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].CreatedAt.Equal(conflicts[j].CreatedAt) {
			return conflicts[i].DocumentID < conflicts[j].DocumentID
		}
		return conflicts[i].CreatedAt.Before(conflicts[j].CreatedAt)
	})
	return conflicts, nil
}

func (s *memoryStore) DeleteConflict(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conflicts[documentID]; !ok {
		return ErrConflictNotFound
	}
	delete(s.conflicts, documentID)
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
