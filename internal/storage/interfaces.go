package storage

import (
	"context"
	"time"

	"credit-risk-scoring/internal/domain"
)

// TransactionReader is the read side shared by the OLTP store and legacy sources.
type TransactionReader interface {
	// GetByTimeRange retrieves transactions with start_time in [start, end),
	// ordered by start_time ASC, transaction_id ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error)
}

// TransactionStore provides access to transactions storage.
type TransactionStore interface {
	TransactionReader

	// InsertBulk adds multiple transactions atomically. Fails entire batch on any
	// duplicate transaction_id, existing or intra-batch.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error

	// GetByCustomerID retrieves all transactions for a customer, ordered by start_time ASC.
	GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Transaction, error)
}

// ProfileStore provides access to computed RFM snapshots.
type ProfileStore interface {
	// InsertSnapshot stores a snapshot with all its profiles. Returns
	// ErrDuplicateKey if snapshot_id exists.
	InsertSnapshot(ctx context.Context, snap *domain.ProfileSnapshot) error

	// GetSnapshot retrieves a snapshot with profiles ordered by customer_id.
	// Returns ErrNotFound if not exists.
	GetSnapshot(ctx context.Context, snapshotID string) (*domain.ProfileSnapshot, error)

	// GetLatest retrieves the customer's profile from the most recent snapshot
	// containing it. Returns ErrNotFound if not exists.
	GetLatest(ctx context.Context, customerID string) (*domain.ProfileAsOf, error)
}

// ProfileCache keeps the latest profile per customer for fast lookups.
type ProfileCache interface {
	// PutProfiles caches every profile of snap, replacing older entries.
	PutProfiles(ctx context.Context, snap *domain.ProfileSnapshot) error

	// GetLatest returns the cached profile. Returns ErrNotFound on a miss.
	GetLatest(ctx context.Context, customerID string) (*domain.ProfileAsOf, error)
}
