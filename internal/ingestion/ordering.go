package ingestion

import (
	"errors"
	"sort"

	"credit-risk-scoring/internal/domain"
)

// ErrInvalidOrdering is returned when transactions are not properly ordered.
var ErrInvalidOrdering = errors.New("transactions are not in deterministic order")

// SortTransactions orders transactions by (start_time ASC, transaction_id ASC, customer_id ASC).
func SortTransactions(txs []*domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return compareTransactions(txs[i], txs[j]) < 0
	})
}

// ValidateTransactionOrdering checks if transactions are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateTransactionOrdering(txs []*domain.Transaction) error {
	for i := 1; i < len(txs); i++ {
		if compareTransactions(txs[i-1], txs[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareTransactions returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareTransactions(a, b *domain.Transaction) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	if a.TransactionID != b.TransactionID {
		if a.TransactionID < b.TransactionID {
			return -1
		}
		return 1
	}
	if a.CustomerID != b.CustomerID {
		if a.CustomerID < b.CustomerID {
			return -1
		}
		return 1
	}
	return 0
}

// Valid reports whether tx carries both identifiers and a start time.
// Rows failing this cannot be persisted.
func Valid(tx *domain.Transaction) bool {
	return tx != nil && tx.TransactionID != "" && tx.CustomerID != "" && !tx.StartTime.IsZero()
}

// FilterValid splits txs into persistable rows and the count of rejected ones.
func FilterValid(txs []*domain.Transaction) ([]*domain.Transaction, int) {
	out := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if Valid(tx) {
			out = append(out, tx)
		}
	}
	return out, len(txs) - len(out)
}
