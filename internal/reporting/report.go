package reporting

import (
	"time"

	"credit-risk-scoring/internal/metrics"
)

// Summary describes one profile snapshot.
type Summary struct {
	// Metadata
	GeneratedAt time.Time // zero when produced by Summarize directly
	SnapshotID  string
	SnapshotAt  time.Time

	// Counts
	Customers    int
	Transactions int

	// Distributions over all profiles
	Recency   metrics.Distribution
	Frequency metrics.Distribution
	Monetary  metrics.Distribution

	// Profiles whose Monetary_log is NaN or -Inf (Monetary <= -1)
	NonFiniteMonetaryLog int
}
