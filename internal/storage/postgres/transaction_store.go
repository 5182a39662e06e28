package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const insertTransaction = `
	INSERT INTO transactions (transaction_id, customer_id, start_time, value)
	VALUES ($1, $2, $3, $4)
`

const selectTransactions = `
	SELECT transaction_id, customer_id, start_time, value, created_at
	FROM transactions
`

// InsertBulk adds multiple transactions atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) (err error) {
	if len(txs) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("transactions_insert_bulk", start, err) }(time.Now())

	// Check for intra-batch duplicates before touching the database
	seen := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		if t == nil || t.TransactionID == "" || t.CustomerID == "" || t.StartTime.IsZero() {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[t.TransactionID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[t.TransactionID] = struct{}{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(insertTransaction, t.TransactionID, t.CustomerID, t.StartTime.UTC(), nullableValue(t.Value))
	}

	br := tx.SendBatch(ctx, batch)
	for range txs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transaction in bulk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByCustomerID retrieves all transactions for a customer, ordered by start_time ASC.
func (s *TransactionStore) GetByCustomerID(ctx context.Context, customerID string) (_ []*domain.Transaction, err error) {
	defer func(start time.Time) { observe("transactions_by_customer", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, selectTransactions+`
		WHERE customer_id = $1
		ORDER BY start_time ASC, transaction_id ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by customer id: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByTimeRange retrieves transactions with start_time in [start, end).
func (s *TransactionStore) GetByTimeRange(ctx context.Context, start, end time.Time) (_ []*domain.Transaction, err error) {
	defer func(began time.Time) { observe("transactions_by_time_range", began, err) }(time.Now())

	rows, err := s.pool.Query(ctx, selectTransactions+`
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time ASC, transaction_id ASC
	`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("get transactions by time range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// nullableValue stores NaN as NULL.
func nullableValue(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var t domain.Transaction
		var value *float64

		if err := rows.Scan(&t.TransactionID, &t.CustomerID, &t.StartTime, &value, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		t.StartTime = t.StartTime.UTC()
		t.Value = math.NaN()
		if value != nil {
			t.Value = *value
		}
		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
