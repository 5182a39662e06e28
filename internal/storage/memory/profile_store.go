package memory

import (
	"context"
	"sync"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

// ProfileStore is an in-memory implementation of storage.ProfileStore.
type ProfileStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.ProfileSnapshot // keyed by snapshot_id
}

// NewProfileStore creates a new in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		snapshots: make(map[string]*domain.ProfileSnapshot),
	}
}

// InsertSnapshot stores a deep copy of snap. Returns ErrDuplicateKey if snapshot_id
// exists or a customer appears twice, ErrInvalidInput for nil or anonymous profiles.
func (s *ProfileStore) InsertSnapshot(_ context.Context, snap *domain.ProfileSnapshot) error {
	if snap == nil || snap.SnapshotID == "" {
		return storage.ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(snap.Profiles))
	for _, p := range snap.Profiles {
		if p == nil || p.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[p.CustomerID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[p.CustomerID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[snap.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}
	s.snapshots[snap.SnapshotID] = cloneSnapshot(snap)
	return nil
}

// GetSnapshot retrieves a snapshot by id. Returns ErrNotFound if not exists.
func (s *ProfileStore) GetSnapshot(_ context.Context, snapshotID string) (*domain.ProfileSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapshotID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneSnapshot(snap), nil
}

// GetLatest retrieves the profile from the newest snapshot that contains customerID.
// Ties on snapshot_at are broken by snapshot_id DESC.
func (s *ProfileStore) GetLatest(_ context.Context, customerID string) (*domain.ProfileAsOf, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.ProfileAsOf
	for _, snap := range s.snapshots {
		for _, p := range snap.Profiles {
			if p.CustomerID != customerID {
				continue
			}
			if best == nil || newer(snap.SnapshotAt, snap.SnapshotID, best) {
				copy := *p
				best = &domain.ProfileAsOf{SnapshotID: snap.SnapshotID, SnapshotAt: snap.SnapshotAt, Profile: &copy}
			}
			break
		}
	}
	if best == nil {
		return nil, storage.ErrNotFound
	}
	return best, nil
}

func newer(at time.Time, id string, than *domain.ProfileAsOf) bool {
	if !at.Equal(than.SnapshotAt) {
		return at.After(than.SnapshotAt)
	}
	return id > than.SnapshotID
}

func cloneSnapshot(snap *domain.ProfileSnapshot) *domain.ProfileSnapshot {
	out := *snap
	out.Profiles = make([]*domain.CustomerProfile, len(snap.Profiles))
	for i, p := range snap.Profiles {
		copy := *p
		out.Profiles[i] = &copy
	}
	return &out
}

var _ storage.ProfileStore = (*ProfileStore)(nil)
