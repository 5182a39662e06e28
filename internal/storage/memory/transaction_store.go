package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by transaction_id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

func validTransaction(tx *domain.Transaction) bool {
	return tx != nil && tx.TransactionID != "" && tx.CustomerID != "" && !tx.StartTime.IsZero()
}

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(txs))

	// First pass: check for duplicates (existing + intra-batch)
	for _, tx := range txs {
		if !validTransaction(tx) {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[tx.TransactionID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[tx.TransactionID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[tx.TransactionID] = struct{}{}
	}

	// Second pass: insert all
	now := time.Now().UTC()
	for _, tx := range txs {
		copy := *tx
		copy.StartTime = tx.StartTime.UTC()
		if copy.CreatedAt.IsZero() {
			copy.CreatedAt = now
		}
		s.data[tx.TransactionID] = &copy
	}

	return nil
}

// GetByCustomerID retrieves all transactions for a customer, ordered by start_time ASC.
func (s *TransactionStore) GetByCustomerID(_ context.Context, customerID string) ([]*domain.Transaction, error) {
	return s.collect(func(tx *domain.Transaction) bool {
		return tx.CustomerID == customerID
	}), nil
}

// GetByTimeRange retrieves transactions with start_time in [start, end).
func (s *TransactionStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	return s.collect(func(tx *domain.Transaction) bool {
		return !tx.StartTime.Before(start) && tx.StartTime.Before(end)
	}), nil
}

func (s *TransactionStore) collect(match func(*domain.Transaction) bool) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if match(tx) {
			copy := *tx
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].TransactionID < result[j].TransactionID
	})

	return result
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
