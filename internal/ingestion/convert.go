package ingestion

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/rfm"
)

// RecordFromTransactions builds a record with the canonical transaction schema.
// NaN values are stored as nulls. The caller must Release the result.
func RecordFromTransactions(mem memory.Allocator, txs []*domain.Transaction) arrow.Record {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	b := array.NewRecordBuilder(mem, rfm.TransactionSchema)
	defer b.Release()

	customers := b.Field(0).(*array.StringBuilder)
	ids := b.Field(1).(*array.StringBuilder)
	times := b.Field(2).(*array.TimestampBuilder)
	values := b.Field(3).(*array.Float64Builder)

	for _, tx := range txs {
		customers.Append(tx.CustomerID)
		ids.Append(tx.TransactionID)
		times.Append(arrow.Timestamp(tx.StartTime.UTC().UnixMicro()))
		if math.IsNaN(tx.Value) {
			values.AppendNull()
		} else {
			values.Append(tx.Value)
		}
	}
	return b.NewRecord()
}

// TransactionsFromRecord reads transactions from any table the aggregator
// accepts, using the same timestamp rules.
func TransactionsFromRecord(rec arrow.Record, opts ...rfm.Option) ([]*domain.Transaction, error) {
	return rfm.NewAggregator(opts...).Transactions(rec)
}
