package domain

import "time"

// Transaction represents a single customer transaction.
// Corresponds to transactions table in PostgreSQL.
type Transaction struct {
	TransactionID string    // unique per transaction
	CustomerID    string    // many transactions per customer
	StartTime     time.Time // TransactionStartTime, stored in UTC
	Value         float64   // signed amount (debits negative)
	CreatedAt     time.Time // record creation timestamp
}
