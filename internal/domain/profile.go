package domain

import "time"

// CustomerProfile is the RFM summary of one customer's transactions.
// Corresponds to customer_profiles table in ClickHouse.
type CustomerProfile struct {
	CustomerID  string
	Recency     int64   // whole days between snapshot and latest transaction
	Frequency   int64   // distinct transaction ids
	Monetary    float64 // signed sum of Value
	MonetaryLog float64 // log1p(Monetary), NaN or -Inf when Monetary <= -1
}

// ProfileSnapshot is the full set of profiles computed from one batch.
type ProfileSnapshot struct {
	SnapshotID       string    // sha256 over batch identity, see idhash
	SnapshotAt       time.Time // max(TransactionStartTime) + 24h, zero for empty batch
	TransactionCount int       // rows read, including duplicates
	Profiles         []*CustomerProfile
}

// ProfileAsOf is a single customer's profile together with the snapshot it came from.
type ProfileAsOf struct {
	SnapshotID string
	SnapshotAt time.Time
	Profile    *CustomerProfile
}
