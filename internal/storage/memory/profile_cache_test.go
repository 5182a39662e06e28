package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

func TestProfileCache_PutAndGet(t *testing.T) {
	cache := NewProfileCache(0)
	ctx := context.Background()

	snap := snapshot("s1", 11, &domain.CustomerProfile{CustomerID: "C1", Recency: 2, Frequency: 4, Monetary: 90})
	if err := cache.PutProfiles(ctx, snap); err != nil {
		t.Fatalf("PutProfiles failed: %v", err)
	}

	got, err := cache.GetLatest(ctx, "C1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.SnapshotID != "s1" || got.Profile.Frequency != 4 {
		t.Errorf("Unexpected cached profile: %+v", got)
	}

	// Returned profile is a copy
	got.Profile.Frequency = 100
	again, _ := cache.GetLatest(ctx, "C1")
	if again.Profile.Frequency != 4 {
		t.Error("Cache entry was mutated through returned pointer")
	}

	if _, err := cache.GetLatest(ctx, "C2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProfileCache_NewerSnapshotReplaces(t *testing.T) {
	cache := NewProfileCache(0)
	ctx := context.Background()

	_ = cache.PutProfiles(ctx, snapshot("s1", 11, &domain.CustomerProfile{CustomerID: "C1", Frequency: 1}))
	_ = cache.PutProfiles(ctx, snapshot("s2", 12, &domain.CustomerProfile{CustomerID: "C1", Frequency: 2}))

	got, err := cache.GetLatest(ctx, "C1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.SnapshotID != "s2" || got.Profile.Frequency != 2 {
		t.Errorf("Expected s2 entry, got %+v", got)
	}
}

func TestProfileCache_Expiry(t *testing.T) {
	cache := NewProfileCache(time.Hour)
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cache.PutProfiles(ctx, snapshot("s1", 1, &domain.CustomerProfile{CustomerID: "C1"}))

	now = now.Add(59 * time.Minute)
	if _, err := cache.GetLatest(ctx, "C1"); err != nil {
		t.Fatalf("Entry expired early: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := cache.GetLatest(ctx, "C1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after TTL, got %v", err)
	}
}

func TestProfileCache_NilSnapshot(t *testing.T) {
	if err := NewProfileCache(0).PutProfiles(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
