package postgres

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-scoring/internal/domain"
	"credit-risk-scoring/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, nil))

	txs := []*domain.Transaction{
		{TransactionID: "T2", CustomerID: "C1", StartTime: day(5), Value: 200},
		{TransactionID: "T1", CustomerID: "C1", StartTime: day(1), Value: 100},
		{TransactionID: "T3", CustomerID: "C2", StartTime: day(2), Value: math.NaN()},
	}
	require.NoError(t, store.InsertBulk(ctx, txs))

	got, err := store.GetByCustomerID(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].TransactionID)
	assert.Equal(t, 100.0, got[0].Value)
	assert.True(t, got[0].StartTime.Equal(day(1)))
	assert.False(t, got[0].CreatedAt.IsZero())

	c2, err := store.GetByCustomerID(ctx, "C2")
	require.NoError(t, err)
	require.Len(t, c2, 1)
	assert.True(t, math.IsNaN(c2[0].Value), "NULL value should read back as NaN")
}

func TestTransactionStore_InsertBulk_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		{TransactionID: "T1", CustomerID: "C1", StartTime: day(1), Value: 1},
	}))

	err := store.InsertBulk(ctx, []*domain.Transaction{
		{TransactionID: "T2", CustomerID: "C1", StartTime: day(2), Value: 2},
		{TransactionID: "T1", CustomerID: "C1", StartTime: day(1), Value: 1},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByCustomerID(ctx, "C1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed batch must not leave partial rows")

	err = store.InsertBulk(ctx, []*domain.Transaction{
		{TransactionID: "T5", CustomerID: "C1", StartTime: day(1)},
		{TransactionID: "T5", CustomerID: "C1", StartTime: day(1)},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTransactionStore_InsertBulk_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	err := store.InsertBulk(context.Background(), []*domain.Transaction{{TransactionID: "T1"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestTransactionStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		{TransactionID: "T1", CustomerID: "C1", StartTime: day(1), Value: 1},
		{TransactionID: "T2", CustomerID: "C2", StartTime: day(2), Value: 1},
		{TransactionID: "T3", CustomerID: "C3", StartTime: day(3), Value: 1},
	}))

	got, err := store.GetByTimeRange(ctx, day(1), day(3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].TransactionID)
	assert.Equal(t, "T2", got[1].TransactionID)
}
