package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

func snapshot(id string, day int, profiles ...*domain.CustomerProfile) *domain.ProfileSnapshot {
	return &domain.ProfileSnapshot{
		SnapshotID:       id,
		SnapshotAt:       time.Date(2023, 1, day, 0, 0, 0, 0, time.UTC),
		TransactionCount: len(profiles),
		Profiles:         profiles,
	}
}

func TestProfileStore_InsertAndGetSnapshot(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	snap := snapshot("s1", 11,
		&domain.CustomerProfile{CustomerID: "C1", Recency: 1, Frequency: 3, Monetary: 600},
		&domain.CustomerProfile{CustomerID: "C2", Recency: 5, Frequency: 2, Monetary: 200},
	)
	if err := store.InsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}

	got, err := store.GetSnapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(got.Profiles) != 2 || got.Profiles[1].Monetary != 200 {
		t.Errorf("Unexpected snapshot contents: %+v", got.Profiles)
	}

	if err := store.InsertSnapshot(ctx, snap); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetSnapshot(ctx, "absent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.InsertSnapshot(ctx, &domain.ProfileSnapshot{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestProfileStore_GetLatest(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	_ = store.InsertSnapshot(ctx, snapshot("old", 5, &domain.CustomerProfile{CustomerID: "C1", Recency: 9}))
	_ = store.InsertSnapshot(ctx, snapshot("new", 11, &domain.CustomerProfile{CustomerID: "C1", Recency: 1}))
	_ = store.InsertSnapshot(ctx, snapshot("other", 20, &domain.CustomerProfile{CustomerID: "C2", Recency: 2}))

	got, err := store.GetLatest(ctx, "C1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.SnapshotID != "new" || got.Profile.Recency != 1 {
		t.Errorf("Expected profile from snapshot new, got %s recency %d", got.SnapshotID, got.Profile.Recency)
	}

	if _, err := store.GetLatest(ctx, "C3"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProfileStore_InsertSnapshotRejectsBadProfiles(t *testing.T) {
	store := NewProfileStore()
	ctx := context.Background()

	tests := []struct {
		name    string
		snap    *domain.ProfileSnapshot
		wantErr error
	}{
		{"nil profile", snapshot("s-nil", 1, nil), storage.ErrInvalidInput},
		{"empty customer", snapshot("s-empty", 1, &domain.CustomerProfile{}), storage.ErrInvalidInput},
		{"duplicate customer", snapshot("s-dup", 1,
			&domain.CustomerProfile{CustomerID: "C1", Recency: 1},
			&domain.CustomerProfile{CustomerID: "C1", Recency: 2},
		), storage.ErrDuplicateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.InsertSnapshot(ctx, tt.snap); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if _, err := store.GetSnapshot(ctx, tt.snap.SnapshotID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("Rejected snapshot was stored: %v", err)
			}
		})
	}
}
