package reporting

import (
	"context"
	"fmt"
	"math"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/metrics"
	"credit-risk-scoring/internal/storage"
)

// Summarize computes the distribution summary of a snapshot.
func Summarize(snap *domain.ProfileSnapshot) Summary {
	if snap == nil {
		return Summary{}
	}

	n := len(snap.Profiles)
	recency := make([]float64, 0, n)
	frequency := make([]float64, 0, n)
	monetary := make([]float64, 0, n)
	nonFinite := 0
	for _, p := range snap.Profiles {
		recency = append(recency, float64(p.Recency))
		frequency = append(frequency, float64(p.Frequency))
		monetary = append(monetary, p.Monetary)
		if math.IsNaN(p.MonetaryLog) || math.IsInf(p.MonetaryLog, 0) {
			nonFinite++
		}
	}

	s := Summary{
		SnapshotID:           snap.SnapshotID,
		SnapshotAt:           snap.SnapshotAt,
		Customers:            n,
		Transactions:         snap.TransactionCount,
		NonFiniteMonetaryLog: nonFinite,
	}
	s.Recency, _ = metrics.Describe(recency)
	s.Frequency, _ = metrics.Describe(frequency)
	s.Monetary, _ = metrics.Describe(monetary)
	return s
}

// Generator produces summaries from stored snapshots.
type Generator struct {
	profiles storage.ProfileStore
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(profiles storage.ProfileStore) *Generator {
	return &Generator{
		profiles: profiles,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads the snapshot and summarizes it.
func (g *Generator) Generate(ctx context.Context, snapshotID string) (*Summary, error) {
	snap, err := g.profiles.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", snapshotID, err)
	}
	s := Summarize(snap)
	s.GeneratedAt = g.now()
	return &s, nil
}
