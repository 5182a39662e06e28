package pipeline

import (
	"context"
	"fmt"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

// DefaultBatchSize is the number of rows per InsertBulk call.
const DefaultBatchSize = 5000

// LoadTransactions inserts txs into store in batches. progress, if non-nil,
// is called with the number of rows written after each batch. A failing
// batch stops the load; earlier batches stay committed.
func LoadTransactions(
	ctx context.Context,
	store storage.TransactionStore,
	txs []*domain.Transaction,
	batchSize int,
	progress func(n int),
) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	loaded := 0
	for start := 0; start < len(txs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		end := min(start+batchSize, len(txs))
		if err := store.InsertBulk(ctx, txs[start:end]); err != nil {
			return loaded, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		loaded += end - start
		if progress != nil {
			progress(end - start)
		}
	}
	return loaded, nil
}
